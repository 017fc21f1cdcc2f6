// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is an in-process sliding window limiter for single-node
// deployments and tests. It mirrors the Redis limiter's semantics: every
// request is recorded, denied ones included, and the count covers exactly
// the trailing window.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	cfg     Config

	// now is swappable for tests.
	now func() time.Time
}

// NewMemoryLimiter creates an in-memory limiter.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string][]time.Time),
		cfg:     cfg.withDefaults(),
		now:     time.Now,
	}
}

// Allow records the request and reports whether it is within the limit.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.cfg.Window)

	entries := l.windows[key]
	kept := entries[:0]
	for _, t := range entries {
		if t.After(windowStart) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	l.windows[key] = kept

	return int64(len(kept)) <= l.cfg.Limit, nil
}

// Sweep drops keys whose entries have all aged out of the window.
// Callers run it periodically to bound memory on long-lived processes.
func (l *MemoryLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.cfg.Window - expiryGrace)
	for key, entries := range l.windows {
		if len(entries) == 0 || !entries[len(entries)-1].After(cutoff) {
			delete(l.windows, key)
		}
	}
}

var _ Limiter = (*MemoryLimiter)(nil)
