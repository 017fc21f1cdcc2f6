package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLimiterCacheReusesLimiters(t *testing.T) {
	lc := newLimiterCache[string](1, 1)

	a := lc.get("a")
	if a == nil {
		t.Fatal("expected a limiter")
	}
	if lc.get("a") != a {
		t.Error("same key returned a different limiter")
	}
	if lc.get("b") == a {
		t.Error("different keys share a limiter")
	}
}

func TestLimiterCacheClearIfExceeds(t *testing.T) {
	lc := newLimiterCache[int](1, 1)
	for i := 0; i < 5; i++ {
		lc.get(i)
	}

	if lc.clearIfExceeds(10) {
		t.Error("cleared below the threshold")
	}
	if !lc.clearIfExceeds(3) {
		t.Error("did not clear above the threshold")
	}
	if len(lc.limiters) != 0 {
		t.Errorf("limiters = %d after clear, want 0", len(lc.limiters))
	}
}

func TestGlobalRateLimiter(t *testing.T) {
	rl := NewGlobalRateLimiter(1, 2) // burst of 2, then blocked

	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("first two requests = %v, want 200s", codes[:2])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", codes[2])
	}

	// A different client IP gets its own bucket.
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("fresh client = %d, want 200", w.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"remote addr", "192.0.2.1:5000", "", "192.0.2.1"},
		{"forwarded", "10.0.0.1:5000", "203.0.113.7", "203.0.113.7"},
		{"forwarded chain", "10.0.0.1:5000", "203.0.113.7, 10.0.0.1", "203.0.113.7"},
		{"no port", "192.0.2.1", "", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
