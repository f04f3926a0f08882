package internal

import (
	"path/filepath"
	"testing"

	"github.com/lingoboard/lingoboard/testutil"
)

func TestStateDBRoundTrip(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	db, err := OpenStateDB(filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatalf("OpenStateDB() error = %v", err)
	}
	defer db.Close()

	if _, ok, err := db.Get("missing"); err != nil || ok {
		t.Errorf("Get(missing) = ok=%v err=%v, want absent", ok, err)
	}

	if err := db.Set("accessToken", "abc"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value, ok, err := db.Get("accessToken")
	if err != nil || !ok || value != "abc" {
		t.Errorf("Get() = (%q, %v, %v), want (abc, true, nil)", value, ok, err)
	}

	// Set on an existing key overwrites.
	if err := db.Set("accessToken", "xyz"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if value, _, _ := db.Get("accessToken"); value != "xyz" {
		t.Errorf("Get() after overwrite = %q, want xyz", value)
	}

	if err := db.Delete("accessToken"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := db.Get("accessToken"); ok {
		t.Error("Get() found deleted key")
	}

	// Deleting an absent key is not an error.
	if err := db.Delete("accessToken"); err != nil {
		t.Errorf("Delete() absent key error = %v", err)
	}
}

func TestStateDBDeleteMany(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	db, err := OpenStateDB(filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatalf("OpenStateDB() error = %v", err)
	}
	defer db.Close()

	for _, key := range []string{"a", "b", "c"} {
		if err := db.Set(key, key); err != nil {
			t.Fatalf("Set(%q) error = %v", key, err)
		}
	}

	if err := db.DeleteMany("a", "c", "nope"); err != nil {
		t.Fatalf("DeleteMany() error = %v", err)
	}

	if _, ok, _ := db.Get("a"); ok {
		t.Error("key a survived DeleteMany")
	}
	if _, ok, _ := db.Get("c"); ok {
		t.Error("key c survived DeleteMany")
	}
	if _, ok, _ := db.Get("b"); !ok {
		t.Error("key b lost by DeleteMany")
	}
}

func TestStateDBPersistsAcrossReopen(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path := filepath.Join(dir, "state.db")

	db, err := OpenStateDB(path)
	if err != nil {
		t.Fatalf("OpenStateDB() error = %v", err)
	}
	if err := db.Set("sessionToken", "s1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenStateDB(path)
	if err != nil {
		t.Fatalf("OpenStateDB() reopen error = %v", err)
	}
	defer reopened.Close()

	value, ok, err := reopened.Get("sessionToken")
	if err != nil || !ok || value != "s1" {
		t.Errorf("Get() after reopen = (%q, %v, %v), want (s1, true, nil)", value, ok, err)
	}
}

func TestStateDBReadsFixture(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path := testutil.CreateStateFixture(t, dir, map[string]string{
		"accessToken": "fixture-token",
	})

	db, err := OpenStateDB(path)
	if err != nil {
		t.Fatalf("OpenStateDB() error = %v", err)
	}
	defer db.Close()

	value, ok, err := db.Get("accessToken")
	if err != nil || !ok || value != "fixture-token" {
		t.Errorf("Get() = (%q, %v, %v), want fixture value", value, ok, err)
	}
}
