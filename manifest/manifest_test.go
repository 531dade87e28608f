package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "imp.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing imp.toml: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "calc"
version = "0.2.0"

[source]
entry = "calc.imp"

[run]
trace = true
cache = "build/cache.db"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Project.Name != "calc" || m.Project.Version != "0.2.0" {
		t.Errorf("project = %+v", m.Project)
	}
	if m.Source.Entry != "calc.imp" {
		t.Errorf("entry = %q, want calc.imp", m.Source.Entry)
	}
	if !m.Run.Trace {
		t.Error("trace not set")
	}
	if m.Dir != dir {
		t.Errorf("dir = %q, want %q", m.Dir, dir)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "minimal"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Source.Entry != "main.imp" {
		t.Errorf("default entry = %q, want main.imp", m.Source.Entry)
	}
	if m.Run.Trace {
		t.Error("trace defaulted to true")
	}
	if m.CachePath() != "" {
		t.Errorf("cache path = %q, want empty", m.CachePath())
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("loading a directory without imp.toml did not fail")
	}
}

func TestLoadInvalidToml(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `[project`)
	if _, err := Load(dir); err == nil {
		t.Error("loading malformed toml did not fail")
	}
}

func TestFindAndLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `
[project]
name = "nested"
`)
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	m, err := FindAndLoad(sub)
	if err != nil {
		t.Fatalf("FindAndLoad: %v", err)
	}
	if m.Project.Name != "nested" {
		t.Errorf("project name = %q, want nested", m.Project.Name)
	}
	if m.Dir != root {
		t.Errorf("dir = %q, want %q", m.Dir, root)
	}
}

func TestEntryPath(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[source]
entry = "src/main.imp"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := filepath.Join(dir, "src", "main.imp")
	if got := m.EntryPath(); got != want {
		t.Errorf("entry path = %q, want %q", got, want)
	}
}

func TestCachePath(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[run]
cache = "cache.db"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := m.CachePath(), filepath.Join(dir, "cache.db"); got != want {
		t.Errorf("relative cache path = %q, want %q", got, want)
	}

	abs := filepath.Join(dir, "elsewhere.db")
	m.Run.Cache = abs
	if got := m.CachePath(); got != abs {
		t.Errorf("absolute cache path = %q, want %q", got, abs)
	}
}
