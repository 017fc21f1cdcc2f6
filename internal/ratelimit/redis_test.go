package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func skipIfNoRedis(t *testing.T) string {
	url := os.Getenv("INKWELL_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: INKWELL_TEST_REDIS_URL not set")
	}
	return url
}

func TestRedisLimiterSlidingWindow(t *testing.T) {
	url := skipIfNoRedis(t)

	l, err := NewRedisLimiterFromURL(url, "test:ratelimit:", Config{
		Window: 2 * time.Second,
		Limit:  5,
	})
	if err != nil {
		t.Fatalf("failed to create limiter: %v", err)
	}
	defer func() { _ = l.Close() }()

	ctx := context.Background()
	key := "key-" + uuid.NewString()

	for i := 0; i < 5; i++ {
		allowed, err := l.Allow(ctx, key)
		if err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d denied under the limit", i+1)
		}
	}

	if allowed, _ := l.Allow(ctx, key); allowed {
		t.Error("over-limit request allowed")
	}

	time.Sleep(2100 * time.Millisecond)
	if allowed, err := l.Allow(ctx, key); err != nil || !allowed {
		t.Errorf("request after window = (%v, %v), want allowed", allowed, err)
	}
}

func TestRedisLimiterFailsClosed(t *testing.T) {
	url := skipIfNoRedis(t)

	l, err := NewRedisLimiterFromURL(url, "test:ratelimit:", DefaultConfig())
	if err != nil {
		t.Fatalf("failed to create limiter: %v", err)
	}
	_ = l.Close()

	allowed, err := l.Allow(context.Background(), "any")
	if err == nil {
		t.Fatal("expected error from closed client")
	}
	if allowed {
		t.Error("Allow returned true on error")
	}
}
