package api

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/inkwell-sh/inkwell/internal/cache"
	"github.com/inkwell-sh/inkwell/internal/gate"
	"github.com/inkwell-sh/inkwell/internal/mailer"
	"github.com/inkwell-sh/inkwell/internal/model"
	"github.com/inkwell-sh/inkwell/internal/store"
	"github.com/inkwell-sh/inkwell/internal/usage"
)

// setupTestDB creates an in-memory database with the content schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
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
			role TEXT NOT NULL,
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
			body TEXT NOT NULL,
			body_html TEXT NOT NULL,
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
			approved INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE newsletter_subscribers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			org_id INTEGER NOT NULL,
			email TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (org_id, email)
		);
	`)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

// apiFixture bundles a handler, its router, and seeded data.
type apiFixture struct {
	handler *Handler
	router  chi.Router
	queries *store.Queries
	cache   cache.Cacher
	org     model.Organization
	author  model.User
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	db := setupTestDB(t)
	queries := store.New(db)
	ctx := context.Background()

	org, err := queries.CreateOrganization(ctx, store.CreateOrganizationParams{
		Name:         "Acme Blog",
		Slug:         "acme-blog",
		APIKeyHash:   "hash",
		APIKeyPrefix: "prefix12",
		Plan:         model.PlanFree,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to create org: %v", err)
	}

	author, err := queries.CreateUser(ctx, store.CreateUserParams{
		OrgID: org.ID, Name: "Author", Email: "author@acme.test",
		PasswordHash: "x", Role: model.RoleWriter,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	mem := cache.NewSimpleMemoryCache(time.Minute)
	t.Cleanup(func() { _ = mem.Close() })

	meter := usage.NewMeter(queries, mailer.NewLogMailer(nil), nil)
	h := NewHandler(db, mem, meter, nil)

	r := chi.NewRouter()
	r.Get("/posts", h.ListPosts)
	r.Get("/posts/{slug}", h.GetPost)
	r.Get("/posts/{slug}/comments", h.ListComments)
	r.Post("/posts/{slug}/comments", h.CreateComment)
	r.Get("/categories", h.ListCategories)
	r.Get("/tags", h.ListTags)
	r.Get("/tags/{slug}", h.GetTag)
	r.Post("/newsletter", h.Subscribe)
	r.Get("/newsletter/count", h.SubscriberCount)

	return &apiFixture{
		handler: h,
		router:  r,
		queries: queries,
		cache:   mem,
		org:     org,
		author:  author,
	}
}

// do executes a request against the fixture router with the organization
// already in context, the way the gatekeeper leaves it.
func (f *apiFixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(req.Context(), gate.ContextKeyOrg, f.org)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req.WithContext(ctx))
	return w
}

// doAs is do for a different organization, for cross-tenant checks.
func (f *apiFixture) doAs(t *testing.T, org model.Organization, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(req.Context(), gate.ContextKeyOrg, org)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req.WithContext(ctx))
	return w
}

// seedOrg inserts a second organization for cross-tenant tests.
func (f *apiFixture) seedOrg(t *testing.T, slug string) model.Organization {
	t.Helper()

	org, err := f.queries.CreateOrganization(context.Background(), store.CreateOrganizationParams{
		Name:         slug,
		Slug:         slug,
		APIKeyHash:   slug + "-hash",
		APIKeyPrefix: slug[:min(8, len(slug))],
		Plan:         model.PlanFree,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to seed org %s: %v", slug, err)
	}
	return org
}

// seedPost inserts a live post directly.
func (f *apiFixture) seedPost(t *testing.T, slug, title string) model.Post {
	t.Helper()

	post, err := f.queries.CreatePost(context.Background(), store.CreatePostParams{
		OrgID:       f.org.ID,
		AuthorID:    f.author.ID,
		Title:       title,
		Slug:        slug,
		Body:        "body",
		BodyHTML:    "<p>body</p>",
		Excerpt:     "excerpt",
		PublishedAt: time.Now(),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to seed post %s: %v", slug, err)
	}
	return post
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: true}
}

func (f *apiFixture) monthlyViews(t *testing.T) int64 {
	t.Helper()
	org, err := f.queries.GetOrganizationByID(context.Background(), f.org.ID)
	if err != nil {
		t.Fatalf("failed to reload org: %v", err)
	}
	return org.MonthlyViews
}
