package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/or-admin/internal/persistence"
	"github.com/example/or-admin/internal/persistence/sqlite"
)

// SQLiteHarness is a migrated SQLite storage in a temporary directory.
type SQLiteHarness struct {
	Storage  *sqlite.Storage
	Sessions persistence.SessionSliceRepository
	DSN      string
}

// NewSQLiteHarness opens and migrates a fresh database. The storage is closed
// through tb.Cleanup.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dsn := "file:" + filepath.Join(tb.TempDir(), "oradmin.db")
	ctx := context.Background()

	storage, err := sqlite.Open(ctx, dsn, nil)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = storage.Close() })

	if err := storage.Migrate(ctx); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	return &SQLiteHarness{Storage: storage, Sessions: storage, DSN: dsn}
}

// Reopen opens a second handle on the same database file, as a restarted
// process would.
func (h *SQLiteHarness) Reopen(tb testing.TB) *sqlite.Storage {
	tb.Helper()
	storage, err := sqlite.Open(context.Background(), h.DSN, nil)
	if err != nil {
		tb.Fatalf("failed to reopen storage: %v", err)
	}
	tb.Cleanup(func() { _ = storage.Close() })
	return storage
}
