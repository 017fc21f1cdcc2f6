// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"fmt"
	"time"
)

// Config holds configuration for cache creation.
type Config struct {
	// Type is the cache backend type: "memory" or "redis"
	Type string

	// RedisURL is the Redis connection URL (only for redis type)
	// Example: redis://localhost:6379/0
	RedisURL string

	// Prefix is the key prefix for Redis (only for redis type)
	Prefix string

	// DefaultTTL is the default TTL for cache entries
	DefaultTTL time.Duration

	// MaxSize is the maximum number of entries for memory cache (0 = unlimited)
	MaxSize int

	// CleanupInterval is the interval for expired entry cleanup
	CleanupInterval time.Duration
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		Type:            "memory",
		DefaultTTL:      time.Hour,
		MaxSize:         10000,
		CleanupInterval: time.Minute,
	}
}

// New creates a cache based on the provided configuration.
// The "redis" type requires RedisURL; a connection failure is returned to the
// caller so it can decide whether to fall back to memory.
func New(cfg Config) (Cacher, error) {
	switch cfg.Type {
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("cache type %q requires a redis URL", cfg.Type)
		}
		return NewRedisCacheFromURL(cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
	case "", "memory":
		return NewMemoryCache(MemoryCacheOptions{
			DefaultTTL:      cfg.DefaultTTL,
			MaxSize:         cfg.MaxSize,
			CleanupInterval: cfg.CleanupInterval,
		}), nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}

// NewDefault creates a memory cache with default configuration.
func NewDefault() Cacher {
	c, _ := New(DefaultConfig())
	return c
}

// NewWithTTL creates a simple memory cache with the specified TTL.
func NewWithTTL(ttl time.Duration) Cacher {
	return NewSimpleMemoryCache(ttl)
}
