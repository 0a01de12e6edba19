// Package storetest provides a migrated SQLite metadata store for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mwantia/godraft/pkg/db/store"
)

func New(t testing.TB) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "godraft.db"),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}

	ctx := context.Background()
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("failed to connect sqlite store: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate sqlite store: %v", err)
	}

	t.Cleanup(func() { s.Close() })
	return s
}
