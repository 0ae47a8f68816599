package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"nextgenschool/internal/logger"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)
	ctx := context.Background()

	ran, err := db.RunMigrations(ctx, logger.Nop())
	if err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	if ran == 0 {
		t.Error("Expected at least one migration to run")
	}

	// Running again is a no-op
	ran, err = db.RunMigrations(ctx, logger.Nop())
	if err != nil {
		t.Fatalf("Failed to re-run migrations: %v", err)
	}
	if ran != 0 {
		t.Errorf("Expected no migrations on second run, got %d", ran)
	}

	tables := []string{"parents", "learners", "completions", "point_awards", "purchases"}
	for _, table := range tables {
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		var name string
		if err := db.QueryRowContext(ctx, query, table).Scan(&name); err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}
}

// TestDatabaseTransactions tests transaction support
func TestDatabaseTransactions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)
	ctx := context.Background()
	if _, err := db.RunMigrations(ctx, logger.Nop()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	insert := "INSERT INTO parents (id, email, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)"
	now := time.Now().UTC()

	err := db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecContext(ctx, insert, "p1", "one@example.com", "One", now, now)
		return err
	})
	if err != nil {
		t.Fatalf("Failed to commit transaction: %v", err)
	}

	err = db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, insert, "p2", "two@example.com", "Two", now, now); err != nil {
			return err
		}
		// duplicate email aborts the whole transaction
		_, err := tx.ExecContext(ctx, insert, "p3", "one@example.com", "Three", now, now)
		return err
	})
	if err == nil {
		t.Fatal("Expected duplicate email to fail the transaction")
	}
	if !db.Dialect.IsUniqueViolation(err) {
		t.Errorf("Expected a unique violation, got %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM parents").Scan(&count); err != nil {
		t.Fatalf("Failed to count parents: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 parent after rollback, got %d", count)
	}
}

// TestInsertIgnoreOnSQLite tests that duplicate completions are skipped
func TestInsertIgnoreOnSQLite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)
	ctx := context.Background()
	if _, err := db.RunMigrations(ctx, logger.Nop()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	now := time.Now().UTC()
	mustExec := func(query string, args ...interface{}) {
		t.Helper()
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			t.Fatalf("Exec failed: %v", err)
		}
	}
	mustExec("INSERT INTO parents (id, email, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)", "p1", "p@example.com", "P", now, now)
	mustExec("INSERT INTO learners (id, parent_id, name, age, pin, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)", "l1", "p1", "L", 10, "1234", now, now)

	insert := db.Dialect.InsertIgnore("INSERT INTO completions (learner_id, course_id, chapter_index, completed_at) VALUES (?, ?, ?, ?)")
	for i := 0; i < 3; i++ {
		mustExec(insert, "l1", "ai", 0, now)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM completions").Scan(&count); err != nil {
		t.Fatalf("Failed to count completions: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 completion, got %d", count)
	}
}

// TestConcurrentAccess tests concurrent database access
func TestConcurrentAccess(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)
	ctx := context.Background()
	if _, err := db.RunMigrations(ctx, logger.Nop()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, "INSERT INTO parents (id, email, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		"p1", "concurrent@example.com", "Concurrent", now, now)
	if err != nil {
		t.Fatalf("Failed to create test parent: %v", err)
	}

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			var name string
			err := db.QueryRowContext(ctx, "SELECT name FROM parents WHERE email = ?", "concurrent@example.com").Scan(&name)
			if err != nil {
				t.Errorf("Concurrent read failed: %v", err)
			}
			if name != "Concurrent" {
				t.Errorf("Expected name 'Concurrent', got '%s'", name)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
