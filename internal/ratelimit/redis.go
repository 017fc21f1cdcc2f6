// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a sliding window limiter backed by a Redis sorted set per
// key. Each request is a set member scored by its timestamp; the window is
// the count of members newer than now minus the window length.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	cfg    Config

	// now is swappable for tests.
	now func() time.Time
}

// NewRedisLimiter creates a limiter over an existing Redis client.
func NewRedisLimiter(client *redis.Client, prefix string, cfg Config) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		cfg:    cfg.withDefaults(),
		now:    time.Now,
	}
}

// NewRedisLimiterFromURL creates a limiter with its own Redis connection.
func NewRedisLimiterFromURL(url, prefix string, cfg Config) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewRedisLimiter(client, prefix, cfg), nil
}

// Allow records the request and reports whether it is within the limit.
//
// The four sorted set operations run in one transactional pipeline so a
// concurrent burst on the same key cannot observe a half-updated window:
// evict entries older than the window, add this request under a unique
// member, count the window, and push the key expiry out past the window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := l.now()
	windowStart := now.Add(-l.cfg.Window)
	redisKey := l.prefix + key

	var count *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart.UnixNano()))
		pipe.ZAdd(ctx, redisKey, redis.Z{
			Score:  float64(now.UnixNano()),
			Member: uuid.NewString(),
		})
		count = pipe.ZCard(ctx, redisKey)
		pipe.Expire(ctx, redisKey, l.cfg.Window+expiryGrace)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit check for %s: %w", key, err)
	}

	return count.Val() <= l.cfg.Limit, nil
}

// Close releases the Redis connection.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

var _ Limiter = (*RedisLimiter)(nil)
