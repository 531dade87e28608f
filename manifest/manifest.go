// Package manifest handles imp.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents an imp.toml project configuration.
type Manifest struct {
	Project Project `toml:"project"`
	Source  Source  `toml:"source"`
	Run     Run     `toml:"run"`

	// Dir is the directory containing the imp.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configuration.
type Source struct {
	Entry string `toml:"entry"`
}

// Run options applied when the project is executed.
type Run struct {
	Trace bool   `toml:"trace"`
	Cache string `toml:"cache"`
}

// Load parses an imp.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "imp.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	m.Dir = dir

	if m.Source.Entry == "" {
		m.Source.Entry = "main.imp"
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find an imp.toml file and loads it.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	for {
		path := filepath.Join(dir, "imp.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, fmt.Errorf("no imp.toml found from %s upward", startDir)
		}
		dir = parent
	}
}

// EntryPath returns the absolute path of the project's entry source file.
func (m *Manifest) EntryPath() string {
	return filepath.Join(m.Dir, m.Source.Entry)
}

// CachePath returns the absolute path of the configured cache database, or
// an empty string when caching is disabled.
func (m *Manifest) CachePath() string {
	if m.Run.Cache == "" {
		return ""
	}
	if filepath.IsAbs(m.Run.Cache) {
		return m.Run.Cache
	}
	return filepath.Join(m.Dir, m.Run.Cache)
}
