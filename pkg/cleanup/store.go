package cleanup

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a single-slot pending-session marker: the identifier of the most
// recent session that has not been marked completed. Set overwrites, never
// appends; at most one marker exists at a time.
type Store interface {
	Get() (string, error)
	Set(sessionID string) error
	Clear() error
}

// MemStore is an in-memory Store for tests and stateless runs.
type MemStore struct {
	mu sync.Mutex
	id string
}

func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, nil
}

func (s *MemStore) Set(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = sessionID
	return nil
}

func (s *MemStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = ""
	return nil
}

// SQLiteStore persists the marker across runs in a one-row table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the state database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS pending_session (
		slot INTEGER PRIMARY KEY CHECK (slot = 1),
		session_id TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize state database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get() (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT session_id FROM pending_session WHERE slot = 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read pending marker: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) Set(sessionID string) error {
	_, err := s.db.Exec(`
		INSERT INTO pending_session (slot, session_id) VALUES (1, ?)
		ON CONFLICT(slot) DO UPDATE SET session_id = excluded.session_id`,
		sessionID)
	if err != nil {
		return fmt.Errorf("failed to write pending marker: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM pending_session WHERE slot = 1`); err != nil {
		return fmt.Errorf("failed to clear pending marker: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
