package scheduler

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func setupSchedulerDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	schema := `
	CREATE TABLE organizations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		api_key_hash TEXT NOT NULL UNIQUE,
		api_key_prefix TEXT NOT NULL,
		plan TEXT NOT NULL DEFAULT 'FREE',
		monthly_views INTEGER NOT NULL DEFAULT 0,
		last_warning_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResetMonthlyViews(t *testing.T) {
	db := setupSchedulerDB(t)

	_, err := db.Exec(`
		INSERT INTO organizations (name, slug, api_key_hash, api_key_prefix, monthly_views, last_warning_at)
		VALUES ('A', 'a', 'h1', 'ink_a', 2600, ?), ('B', 'b', 'h2', 'ink_b', 12, NULL)`,
		time.Now())
	if err != nil {
		t.Fatalf("failed to seed orgs: %v", err)
	}

	s := New(db, quietLogger(), nil)
	if err := s.ResetMonthlyViews(context.Background()); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	var views, warnings int64
	if err := db.QueryRow(`SELECT COALESCE(SUM(monthly_views), 0), COUNT(last_warning_at) FROM organizations`).
		Scan(&views, &warnings); err != nil {
		t.Fatal(err)
	}
	if views != 0 {
		t.Errorf("total views = %d after reset, want 0", views)
	}
	if warnings != 0 {
		t.Errorf("orgs with warning timestamps = %d after reset, want 0", warnings)
	}
}

type countingSweeper struct {
	calls int
}

func (c *countingSweeper) Sweep() { c.calls++ }

func TestStartStopWithSweeper(t *testing.T) {
	db := setupSchedulerDB(t)

	s := New(db, quietLogger(), &countingSweeper{})
	if err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	s.Stop()
}
