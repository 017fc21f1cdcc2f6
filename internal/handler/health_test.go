package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inkwell-sh/inkwell/internal/cache"
)

func TestHealth(t *testing.T) {
	db := setupHandlerDB(t)
	h := NewHealthHandler(db, cache.NewSimpleMemoryCache(time.Minute))

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	var status HealthStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.Status != "healthy" {
		t.Errorf("status = %q, want healthy", status.Status)
	}
	if status.Checks["database"].Status != "healthy" {
		t.Errorf("database check = %+v", status.Checks["database"])
	}
	if status.Checks["cache"].Status != "healthy" {
		t.Errorf("cache check = %+v", status.Checks["cache"])
	}
}

func TestHealthDegradedWhenDBClosed(t *testing.T) {
	db := setupHandlerDB(t)
	h := NewHealthHandler(db, cache.NewSimpleMemoryCache(time.Minute))
	_ = db.Close()

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}

	w = httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("readiness status = %d, want 503", w.Code)
	}
}

func TestLiveness(t *testing.T) {
	db := setupHandlerDB(t)
	h := NewHealthHandler(db, cache.NewSimpleMemoryCache(time.Minute))

	w := httptest.NewRecorder()
	h.Liveness(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}
