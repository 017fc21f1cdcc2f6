// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ratelimit implements the per-key sliding window rate limiter that
// gates the public API. The window is counted over real request timestamps,
// not fixed buckets, so a burst straddling a bucket boundary cannot double
// the allowance.
package ratelimit

import (
	"context"
	"time"
)

// Default limiter settings for public API keys.
const (
	DefaultWindow = 10 * time.Second
	DefaultLimit  = 10

	// expiryGrace is added to the window when refreshing key expiry so a
	// window's entries outlive the window itself.
	expiryGrace = 5 * time.Second
)

// Limiter decides whether a request identified by key may proceed.
// A non-nil error means the decision could not be made; callers treat that
// as a denial (fail closed).
type Limiter interface {
	// Allow records the request and reports whether it is within the limit.
	// The request is counted even when denied.
	Allow(ctx context.Context, key string) (bool, error)
}

// Config holds limiter settings.
type Config struct {
	// Window is the sliding window length.
	Window time.Duration

	// Limit is the maximum number of requests per window.
	Limit int64
}

// DefaultConfig returns the public API limiter settings.
func DefaultConfig() Config {
	return Config{
		Window: DefaultWindow,
		Limit:  DefaultLimit,
	}
}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	return c
}
