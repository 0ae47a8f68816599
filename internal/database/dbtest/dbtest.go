// Package dbtest opens migrated SQLite databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"nextgenschool/internal/database"
	"nextgenschool/internal/logger"
)

// New returns a freshly migrated database in a temporary directory. It is
// closed when the test ends.
func New(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.RunMigrations(context.Background(), logger.Nop()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}
