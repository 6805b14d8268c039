package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenSQLite(t *testing.T) {
	store, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "battles.db"))
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	defer store.Close()

	records, err := store.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent err: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty history, got %d", len(records))
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mysql", "dsn"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
