package store

import (
	"path/filepath"
	"testing"
)

func TestSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "voiceagent.db")
	s, err := NewSQLiteStore(WithSQLiteDSN(dbPath))
	if err != nil {
		t.Fatalf("NewSQLiteStore error = %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStoreCreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "state", "voiceagent.db")
	s, err := NewSQLiteStore(WithSQLiteDSN(dbPath))
	if err != nil {
		t.Fatalf("NewSQLiteStore error = %v", err)
	}
	s.Close()
}

func TestSQLiteStoreRequiresDSN(t *testing.T) {
	if _, err := NewSQLiteStore(); err == nil {
		t.Fatal("NewSQLiteStore without DSN succeeded, want error")
	}
}

func TestSQLiteStoreMigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "voiceagent.db")
	s, err := NewSQLiteStore(WithSQLiteDSN(dbPath))
	if err != nil {
		t.Fatalf("first open error = %v", err)
	}
	s.Close()

	// Reopening the same file reruns the migrations against existing tables.
	s2, err := NewSQLiteStore(WithSQLiteDSN(dbPath))
	if err != nil {
		t.Fatalf("second open error = %v", err)
	}
	s2.Close()
}
