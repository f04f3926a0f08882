package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// CreateStateFixture creates a client state database with the given key-value
// pairs pre-seeded, returning its path.
func CreateStateFixture(t *testing.T, dir string, values map[string]string) string {
	t.Helper()
	dbPath := filepath.Join(dir, "state.db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS clientKV (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	for key, value := range values {
		if _, err := db.Exec("INSERT INTO clientKV (key, value) VALUES (?, ?)", key, value); err != nil {
			t.Fatalf("Failed to insert %s: %v", key, err)
		}
	}

	return dbPath
}
