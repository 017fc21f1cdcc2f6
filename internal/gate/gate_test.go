package gate

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/inkwell-sh/inkwell/internal/mailer"
	"github.com/inkwell-sh/inkwell/internal/model"
	"github.com/inkwell-sh/inkwell/internal/ratelimit"
	"github.com/inkwell-sh/inkwell/internal/store"
	"github.com/inkwell-sh/inkwell/internal/usage"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

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
	`)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

// newTestGate wires a gate over an in-memory DB and limiter. It returns the
// gate and the raw API key of a seeded organization.
func newTestGate(t *testing.T, limit int64, views int64) (*Gate, string, *store.Queries) {
	t.Helper()

	db := setupTestDB(t)
	queries := store.New(db)
	ctx := context.Background()

	rawKey, prefix, err := model.GenerateAPIKey()
	if err != nil {
		t.Fatalf("failed to generate API key: %v", err)
	}

	org, err := queries.CreateOrganization(ctx, store.CreateOrganizationParams{
		Name:         "Acme Blog",
		Slug:         "acme-blog",
		APIKeyHash:   model.HashAPIKey(rawKey),
		APIKeyPrefix: prefix,
		Plan:         model.PlanFree,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to create org: %v", err)
	}

	if _, err := queries.CreateUser(ctx, store.CreateUserParams{
		OrgID:        org.ID,
		Name:         "Owner",
		Email:        "owner@acme.test",
		PasswordHash: "x",
		Role:         model.RoleAdmin,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	for i := int64(0); i < views; i++ {
		if err := queries.IncrementMonthlyViews(ctx, org.ID); err != nil {
			t.Fatalf("failed to increment views: %v", err)
		}
	}

	limiter := ratelimit.NewMemoryLimiter(ratelimit.Config{
		Window: 10 * time.Second,
		Limit:  limit,
	})
	meter := usage.NewMeter(queries, mailer.NewLogMailer(nil), nil)

	return New(queries, limiter, meter, nil), rawKey, queries
}

// orgEchoHandler writes the authenticated org's slug, or 500 if absent.
var orgEchoHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	org := OrgFromContext(r.Context())
	if org == nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(org.Slug))
})

func executeGated(g *Gate, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	g.Authorize(orgEchoHandler).ServeHTTP(w, req)
	return w
}

func decodeAPIError(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	if err := json.NewDecoder(w.Body).Decode(&apiErr); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return apiErr
}

func TestAuthorizeValidKey(t *testing.T) {
	g, rawKey, _ := newTestGate(t, 10, 0)

	w := executeGated(g, "Bearer "+rawKey)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "acme-blog" {
		t.Errorf("org not in context: body = %q", w.Body.String())
	}
	if w.Header().Get(UsageWarningHeader) != "" {
		t.Error("usage warning set under quota")
	}
}

func TestAuthorizeMissingHeader(t *testing.T) {
	g, _, _ := newTestGate(t, 10, 0)

	w := executeGated(g, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if code := decodeAPIError(t, w).Error.Code; code != "unauthorized" {
		t.Errorf("error code = %q", code)
	}
}

func TestAuthorizeMalformedHeader(t *testing.T) {
	g, rawKey, _ := newTestGate(t, 10, 0)

	for _, header := range []string{"Basic abc", "Bearer", "Bearer ", rawKey} {
		w := executeGated(g, header)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, w.Code)
		}
	}
}

func TestAuthorizeUnknownKey(t *testing.T) {
	g, _, _ := newTestGate(t, 10, 0)

	w := executeGated(g, "Bearer not-a-real-key")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if code := decodeAPIError(t, w).Error.Code; code != "unauthorized" {
		t.Errorf("error code = %q", code)
	}
}

func TestAuthorizeRateLimitBeforeKeyResolution(t *testing.T) {
	g, _, _ := newTestGate(t, 3, 0)

	// An unknown key gets 401 while under the limit, then 429 once over it:
	// the limiter speaks first, so a limited client cannot probe validity.
	for i := 0; i < 3; i++ {
		if w := executeGated(g, "Bearer bogus"); w.Code != http.StatusUnauthorized {
			t.Fatalf("request %d: status = %d, want 401", i+1, w.Code)
		}
	}
	w := executeGated(g, "Bearer bogus")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	if code := decodeAPIError(t, w).Error.Code; code != "rate_limited" {
		t.Errorf("error code = %q", code)
	}
}

func TestAuthorizeRateLimitValidKey(t *testing.T) {
	g, rawKey, _ := newTestGate(t, 10, 0)

	for i := 0; i < 10; i++ {
		if w := executeGated(g, "Bearer "+rawKey); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, w.Code)
		}
	}
	if w := executeGated(g, "Bearer "+rawKey); w.Code != http.StatusTooManyRequests {
		t.Errorf("11th request: status = %d, want 429", w.Code)
	}
}

func TestAuthorizeUsageWarningHeader(t *testing.T) {
	g, rawKey, _ := newTestGate(t, 100, 2500)

	w := executeGated(g, "Bearer "+rawKey)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get(UsageWarningHeader) == "" {
		t.Error("usage warning header missing over quota")
	}
}

// failingLimiter simulates a rate limit store outage.
type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("store unreachable")
}

func TestAuthorizeFailsClosed(t *testing.T) {
	g, rawKey, _ := newTestGate(t, 10, 0)
	g.limiter = failingLimiter{}

	w := executeGated(g, "Bearer "+rawKey)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 when limit is unverifiable", w.Code)
	}
	if code := decodeAPIError(t, w).Error.Code; code != "rate_limit_unverified" {
		t.Errorf("error code = %q", code)
	}
}

func TestAuthorizeRotatedKeyStopsResolving(t *testing.T) {
	g, rawKey, queries := newTestGate(t, 100, 0)
	ctx := context.Background()

	org, err := queries.GetOrganizationByKeyHash(ctx, model.HashAPIKey(rawKey))
	if err != nil {
		t.Fatalf("failed to load org: %v", err)
	}

	newKey, newPrefix, err := model.GenerateAPIKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	if err := queries.RotateAPIKey(ctx, store.RotateAPIKeyParams{
		ID:           org.ID,
		APIKeyHash:   model.HashAPIKey(newKey),
		APIKeyPrefix: newPrefix,
	}); err != nil {
		t.Fatalf("failed to rotate key: %v", err)
	}

	if w := executeGated(g, "Bearer "+rawKey); w.Code != http.StatusUnauthorized {
		t.Errorf("old key: status = %d, want 401", w.Code)
	}
	if w := executeGated(g, "Bearer "+newKey); w.Code != http.StatusOK {
		t.Errorf("new key: status = %d, want 200", w.Code)
	}
}
