package ratelimit

import (
	"context"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T) (*MemoryLimiter, *time.Time) {
	t.Helper()
	l := NewMemoryLimiter(Config{Window: 10 * time.Second, Limit: 10})
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }
	return l, &clock
}

func TestMemoryLimiterUnderLimit(t *testing.T) {
	l, clock := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		allowed, err := l.Allow(ctx, "key")
		if err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d denied under the limit", i+1)
		}
		*clock = clock.Add(100 * time.Millisecond)
	}
}

func TestMemoryLimiterEleventhDenied(t *testing.T) {
	l, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if allowed, _ := l.Allow(ctx, "key"); !allowed {
			t.Fatalf("request %d denied under the limit", i+1)
		}
	}
	if allowed, _ := l.Allow(ctx, "key"); allowed {
		t.Error("11th request in the window was allowed")
	}
}

func TestMemoryLimiterDeniedRequestsCount(t *testing.T) {
	l, clock := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		_, _ = l.Allow(ctx, "key")
	}

	// 5 seconds later the first 15 entries are still inside the window, so
	// a hammering client stays denied: denied requests extend the denial.
	*clock = clock.Add(5 * time.Second)
	if allowed, _ := l.Allow(ctx, "key"); allowed {
		t.Error("request allowed while denied entries still fill the window")
	}
}

func TestMemoryLimiterWindowSlides(t *testing.T) {
	l, clock := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, _ = l.Allow(ctx, "key")
	}
	if allowed, _ := l.Allow(ctx, "key"); allowed {
		t.Fatal("over-limit request allowed")
	}

	// Once everything has aged out of the window, requests flow again.
	*clock = clock.Add(11 * time.Second)
	if allowed, _ := l.Allow(ctx, "key"); !allowed {
		t.Error("request denied after window slid past all entries")
	}
}

func TestMemoryLimiterKeysIndependent(t *testing.T) {
	l, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 11; i++ {
		_, _ = l.Allow(ctx, "busy")
	}
	if allowed, _ := l.Allow(ctx, "quiet"); !allowed {
		t.Error("unrelated key denied")
	}
}

func TestMemoryLimiterSweep(t *testing.T) {
	l, clock := newTestLimiter(t)
	ctx := context.Background()

	_, _ = l.Allow(ctx, "a")
	_, _ = l.Allow(ctx, "b")

	*clock = clock.Add(time.Minute)
	_, _ = l.Allow(ctx, "c")
	l.Sweep()

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.windows["a"]; ok {
		t.Error("aged-out key survived sweep")
	}
	if _, ok := l.windows["c"]; !ok {
		t.Error("live key removed by sweep")
	}
}
