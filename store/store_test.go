package store

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/imp/compiler"
	"github.com/chazu/imp/vm"
)

const testSource = `
func print_int(x: int): int = "print_int"
print_int(2 + 3)
`

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func compileTestProgram(t *testing.T, out *bytes.Buffer) (*vm.Program, *vm.Registry) {
	t.Helper()
	registry := vm.NewRegistry(strings.NewReader(""), out)
	prog, err := compiler.Compile(testSource, registry)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return prog, registry
}

func TestPutGetRoundTrip(t *testing.T) {
	var out bytes.Buffer
	prog, registry := compileTestProgram(t, &out)
	s := openTestStore(t)

	if err := s.Put(testSource, prog); err != nil {
		t.Fatalf("Put: %v", err)
	}
	loaded, err := s.Get(testSource, registry)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if !bytes.Equal(loaded.Code(), prog.Code()) {
		t.Errorf("cached code differs from original")
	}
	if err := vm.NewInterp(loaded).Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := out.String(); got != "5\n" {
		t.Errorf("output = %q, want %q", got, "5\n")
	}
}

func TestGetMiss(t *testing.T) {
	s := openTestStore(t)
	registry := vm.NewRegistry(strings.NewReader(""), &bytes.Buffer{})

	_, err := s.Get("never stored", registry)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestPutReplaces(t *testing.T) {
	var out bytes.Buffer
	prog, registry := compileTestProgram(t, &out)
	s := openTestStore(t)

	if err := s.Put(testSource, prog); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if err := s.Put(testSource, prog); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	if _, err := s.Get(testSource, registry); err != nil {
		t.Errorf("Get after replace: %v", err)
	}
}

func TestDistinctSourcesDistinctEntries(t *testing.T) {
	var out bytes.Buffer
	prog, registry := compileTestProgram(t, &out)
	s := openTestStore(t)

	if err := s.Put(testSource, prog); err != nil {
		t.Fatalf("Put: %v", err)
	}
	// Any textual difference is a different program, even a comment.
	if _, err := s.Get(testSource+" // changed", registry); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound for modified source", err)
	}
}

func TestKey(t *testing.T) {
	a := Key("source a")
	if len(a) != 64 {
		t.Errorf("key length = %d, want 64 hex characters", len(a))
	}
	if a != Key("source a") {
		t.Error("key is not deterministic")
	}
	if a == Key("source b") {
		t.Error("distinct sources share a key")
	}
}

func TestOpenCreatesDirectoryContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	// A freshly created database answers queries immediately.
	registry := vm.NewRegistry(strings.NewReader(""), &bytes.Buffer{})
	if _, err := s.Get("anything", registry); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
