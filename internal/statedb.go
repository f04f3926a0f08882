package internal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// StateDB is the durable client-side state store. It holds the credential
// strings and the serialized store snapshot in a single key-value table, the
// way a browser client would use localStorage.
type StateDB struct {
	db *sql.DB
}

const stateSchema = `
CREATE TABLE IF NOT EXISTS clientKV (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// DefaultStatePath returns the default location of the state database.
func DefaultStatePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".lingoboard", "state.db"), nil
}

// OpenStateDB opens the state database at path, creating it (and its parent
// directory) if needed.
func OpenStateDB(path string) (*StateDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, &StateError{Op: "open", Err: err}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StateError{Op: "open", Err: err}
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StateError{Op: "open", Err: err}
	}

	if _, err := db.Exec(stateSchema); err != nil {
		db.Close()
		return nil, &StateError{Op: "open", Err: err}
	}

	return &StateDB{db: db}, nil
}

// Get returns the value stored under key. The second return value is false
// when the key is absent.
func (s *StateDB) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM clientKV WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StateError{Key: key, Op: "get", Err: err}
	}
	return value, true, nil
}

// Set stores value under key, replacing any prior value.
func (s *StateDB) Set(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO clientKV (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return &StateError{Key: key, Op: "set", Err: err}
	}
	return nil
}

// Delete removes key from the store. Deleting an absent key is a no-op.
func (s *StateDB) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM clientKV WHERE key = ?", key); err != nil {
		return &StateError{Key: key, Op: "delete", Err: err}
	}
	return nil
}

// DeleteMany removes all given keys in a single transaction, so partial
// clears cannot be observed.
func (s *StateDB) DeleteMany(keys ...string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &StateError{Op: "delete", Err: err}
	}
	for _, key := range keys {
		if _, err := tx.Exec("DELETE FROM clientKV WHERE key = ?", key); err != nil {
			_ = tx.Rollback()
			return &StateError{Key: key, Op: "delete", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &StateError{Op: "delete", Err: err}
	}
	return nil
}

// Close closes the underlying database.
func (s *StateDB) Close() error {
	return s.db.Close()
}
