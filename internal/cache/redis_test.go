package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// skipIfNoRedis skips the test if Redis is not configured.
func skipIfNoRedis(t *testing.T) string {
	url := os.Getenv("INKWELL_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: INKWELL_TEST_REDIS_URL not set")
	}
	return url
}

func TestRedisCacheBasic(t *testing.T) {
	url := skipIfNoRedis(t)

	c, err := NewRedisCacheFromURL(url, "test:", time.Minute)
	if err != nil {
		t.Fatalf("failed to create Redis cache: %v", err)
	}
	defer func() { _ = c.Close() }()

	ctx := context.Background()
	_ = c.Clear(ctx)

	if err := c.Set(ctx, "test-key", []byte("test-value"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := c.Get(ctx, "test-key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "test-value" {
		t.Errorf("Get = %q, want %q", got, "test-value")
	}

	if err := c.Delete(ctx, "test-key"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := c.Get(ctx, "test-key"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after Delete = %v, want ErrCacheMiss", err)
	}
}

func TestRedisCacheDeleteByPrefix(t *testing.T) {
	url := skipIfNoRedis(t)

	c, err := NewRedisCacheFromURL(url, "test:", time.Minute)
	if err != nil {
		t.Fatalf("failed to create Redis cache: %v", err)
	}
	defer func() { _ = c.Close() }()

	ctx := context.Background()
	_ = c.Clear(ctx)

	_ = c.Set(ctx, "v1:posts:1:p=1", []byte("a"), time.Minute)
	_ = c.Set(ctx, "v1:posts:1:p=2", []byte("b"), time.Minute)
	_ = c.Set(ctx, "v1:posts:2:p=1", []byte("c"), time.Minute)

	if err := c.DeleteByPrefix(ctx, "v1:posts:1:"); err != nil {
		t.Fatalf("DeleteByPrefix failed: %v", err)
	}

	if _, err := c.Get(ctx, "v1:posts:1:p=1"); !errors.Is(err, ErrCacheMiss) {
		t.Error("prefix member survived sweep")
	}
	if _, err := c.Get(ctx, "v1:posts:2:p=1"); err != nil {
		t.Error("unrelated key was swept")
	}
}

func TestRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCacheFromURL("not-a-url", "test:", time.Minute); err == nil {
		t.Error("expected error for malformed URL")
	}
	if _, err := NewRedisCache(RedisCacheOptions{}); err == nil {
		t.Error("expected error for missing URL")
	}
}
