// Package store caches compiled programs in a content-addressed sqlite
// database keyed by the hash of their source text.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/chazu/imp/vm"
)

// ErrNotFound indicates no cached program exists for the source.
var ErrNotFound = errors.New("program not found")

// Store persists program images keyed by source hash. Identical source
// always maps to the same row, so repeated runs of an unchanged file skip
// translation entirely.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the cache database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS programs (
		hash TEXT PRIMARY KEY,
		image BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Key returns the content address for a source text.
func Key(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Put stores the compiled program for the given source.
func (s *Store) Put(source string, prog *vm.Program) error {
	image, err := vm.MarshalProgram(prog)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(
		"INSERT OR REPLACE INTO programs (hash, image) VALUES (?, ?)",
		Key(source), image,
	); err != nil {
		return fmt.Errorf("saving program: %w", err)
	}
	return nil
}

// Get loads the cached program for the given source, resolving its
// primitives against the registry. Returns ErrNotFound on a cache miss.
func (s *Store) Get(source string, registry *vm.Registry) (*vm.Program, error) {
	var image []byte
	err := s.db.QueryRow(
		"SELECT image FROM programs WHERE hash = ?", Key(source),
	).Scan(&image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying program: %w", err)
	}
	return vm.UnmarshalProgram(image, registry)
}
