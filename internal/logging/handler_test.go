package logging

import (
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/inkwell-sh/inkwell/internal/model"
)

func setupEventDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	schema := `
	CREATE TABLE events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		level TEXT NOT NULL,
		category TEXT NOT NULL,
		message TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

func newEventLogger(db *sql.DB) *slog.Logger {
	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewEventLogHandler(inner, db))
}

func countEvents(t *testing.T, db *sql.DB) int64 {
	t.Helper()
	var count int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		t.Fatalf("failed to count events: %v", err)
	}
	return count
}

func TestEventLogHandlerForwardsWarnings(t *testing.T) {
	db := setupEventDB(t)
	logger := newEventLogger(db)

	logger.Warn("rate limit exceeded", "org_id", 7)

	var e model.Event
	err := db.QueryRow(`SELECT level, category, message, metadata FROM events`).
		Scan(&e.Level, &e.Category, &e.Message, &e.Metadata)
	if err != nil {
		t.Fatalf("failed to read event: %v", err)
	}

	if e.Level != model.EventLevelWarning {
		t.Errorf("level = %q", e.Level)
	}
	if e.Category != model.EventCategoryUsage {
		t.Errorf("category = %q, want usage", e.Category)
	}
	if e.Message != "rate limit exceeded" {
		t.Errorf("message = %q", e.Message)
	}

	var meta map[string]string
	if err := json.Unmarshal([]byte(e.Metadata), &meta); err != nil {
		t.Fatalf("metadata is not valid JSON: %v", err)
	}
	if meta["org_id"] != "7" {
		t.Errorf("metadata = %v", meta)
	}
}

func TestEventLogHandlerSkipsInfo(t *testing.T) {
	db := setupEventDB(t)
	logger := newEventLogger(db)

	logger.Info("post published", "slug", "hello")

	if got := countEvents(t, db); got != 0 {
		t.Errorf("events = %d, want 0 for INFO", got)
	}
}

func TestEventLogHandlerErrorLevel(t *testing.T) {
	db := setupEventDB(t)
	logger := newEventLogger(db)

	logger.Error("webhook delivery failed", "delivery_id", 3)

	var level, category string
	if err := db.QueryRow(`SELECT level, category FROM events`).Scan(&level, &category); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if level != model.EventLevelError {
		t.Errorf("level = %q", level)
	}
	if category != model.EventCategoryWebhook {
		t.Errorf("category = %q, want webhook", category)
	}
}

func TestEventLogHandlerExplicitCategory(t *testing.T) {
	db := setupEventDB(t)
	logger := newEventLogger(db)

	logger.Warn("something odd", "category", model.EventCategoryCache)

	var category, metadata string
	if err := db.QueryRow(`SELECT category, metadata FROM events`).Scan(&category, &metadata); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if category != model.EventCategoryCache {
		t.Errorf("category = %q, want cache", category)
	}
	if metadata != "{}" {
		t.Errorf("metadata = %q, want the category attribute stripped", metadata)
	}
}

func TestEventLogHandlerWithAttrs(t *testing.T) {
	db := setupEventDB(t)
	logger := newEventLogger(db).With("component", "gate")

	logger.Warn("unknown api key")

	if got := countEvents(t, db); got != 1 {
		t.Errorf("events = %d, want 1", got)
	}
}
