package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	_ "modernc.org/sqlite"

	"github.com/inkwell-sh/inkwell/internal/auth"
	"github.com/inkwell-sh/inkwell/internal/cache"
	"github.com/inkwell-sh/inkwell/internal/content"
	"github.com/inkwell-sh/inkwell/internal/model"
	"github.com/inkwell-sh/inkwell/internal/store"
)

const testPassword = "correct horse battery staple"

func setupHandlerDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	// In-memory SQLite gives every connection its own database.
	db.SetMaxOpenConns(1)
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
	);
	CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		org_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'writer',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		org_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (org_id, slug)
	);
	CREATE TABLE posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		org_id INTEGER NOT NULL,
		author_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		slug TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		body_html TEXT NOT NULL DEFAULT '',
		excerpt TEXT NOT NULL DEFAULT '',
		featured_image TEXT NOT NULL DEFAULT '',
		meta_title TEXT NOT NULL DEFAULT '',
		meta_description TEXT NOT NULL DEFAULT '',
		category_id INTEGER,
		published_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (org_id, slug)
	);
	CREATE TABLE drafts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		org_id INTEGER NOT NULL,
		author_id INTEGER NOT NULL,
		post_id INTEGER,
		title TEXT NOT NULL DEFAULT '',
		slug TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		excerpt TEXT NOT NULL DEFAULT '',
		featured_image TEXT NOT NULL DEFAULT '',
		meta_title TEXT NOT NULL DEFAULT '',
		meta_description TEXT NOT NULL DEFAULT '',
		category_id INTEGER,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		org_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (org_id, slug)
	);
	CREATE TABLE post_tags (
		post_id INTEGER NOT NULL,
		tag_id INTEGER NOT NULL,
		PRIMARY KEY (post_id, tag_id)
	);
	CREATE TABLE comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id INTEGER NOT NULL,
		content TEXT NOT NULL,
		author_name TEXT NOT NULL,
		author_email TEXT NOT NULL DEFAULT '',
		approved BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE webhooks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		org_id INTEGER NOT NULL,
		url TEXT NOT NULL,
		secret TEXT NOT NULL,
		events TEXT NOT NULL DEFAULT '[]',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE webhook_deliveries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		webhook_id INTEGER NOT NULL,
		event TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		response_code INTEGER,
		delivered_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

type fixture struct {
	db      *sql.DB
	queries *store.Queries
	cache   cache.Cacher
	router  http.Handler
	org     model.Organization
	admin   model.User
	editor  model.User
	writer  model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupHandlerDB(t)
	queries := store.New(db)
	ctx := context.Background()
	now := time.Now()

	org, err := queries.CreateOrganization(ctx, store.CreateOrganizationParams{
		Name:         "Acme Press",
		Slug:         "acme-press",
		APIKeyHash:   model.HashAPIKey("test-key"),
		APIKeyPrefix: "testkey0",
		Plan:         model.PlanFree,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("failed to create org: %v", err)
	}

	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	mkUser := func(name, email, role string) model.User {
		u, err := queries.CreateUser(ctx, store.CreateUserParams{
			OrgID:        org.ID,
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Role:         role,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			t.Fatalf("failed to create user %s: %v", email, err)
		}
		return u
	}

	admin := mkUser("Admin", "admin@acme.test", model.RoleAdmin)
	editor := mkUser("Editor", "editor@acme.test", model.RoleEditor)
	writer := mkUser("Writer", "writer@acme.test", model.RoleWriter)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cacher := cache.NewSimpleMemoryCache(time.Hour)
	t.Cleanup(func() { _ = cacher.Close() })
	invalidator := cache.NewInvalidator(cacher, logger)
	svc := content.NewService(db, invalidator, content.NopEmitter{}, logger)

	sm := scs.New()
	sm.Cookie.Secure = false

	h := NewHandler(db, sm, svc, invalidator, logger)
	router := sm.LoadAndSave(h.Routes())

	return &fixture{
		db:      db,
		queries: queries,
		cache:   cacher,
		router:  router,
		org:     org,
		admin:   admin,
		editor:  editor,
		writer:  writer,
	}
}

// login authenticates through the real endpoint and returns the session cookie.
func (f *fixture) login(t *testing.T, email string) *http.Cookie {
	t.Helper()

	w := f.do(t, http.MethodPost, "/login",
		`{"email":"`+email+`","password":"`+testPassword+`"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login failed for %s: %d %s", email, w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatalf("no session cookie after login for %s", email)
	return nil
}

func (f *fixture) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeInto[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("failed to decode response: %v\nbody: %s", err, body)
	}
	return v
}

func (f *fixture) seedPost(t *testing.T, slug, title string) model.Post {
	t.Helper()

	now := time.Now()
	post, err := f.queries.CreatePost(context.Background(), store.CreatePostParams{
		OrgID:       f.org.ID,
		AuthorID:    f.editor.ID,
		Title:       title,
		Slug:        slug,
		Body:        "# " + title,
		BodyHTML:    "<h1>" + title + "</h1>",
		PublishedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("failed to seed post: %v", err)
	}
	return post
}
