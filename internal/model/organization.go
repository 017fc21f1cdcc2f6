// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application.
package model

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"time"
)

// Organization is the tenant root: it owns posts, members, and the API key
// that grants access to the public read API.
type Organization struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Slug          string       `json:"slug"`
	APIKeyHash    string       `json:"-"` // Never expose hash in JSON
	APIKeyPrefix  string       `json:"api_key_prefix"`
	Plan          string       `json:"plan"`
	MonthlyViews  int64        `json:"monthly_views"`
	LastWarningAt sql.NullTime `json:"last_warning_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// GenerateAPIKey generates a new random API key.
// Returns the raw key (to show once) and the key prefix for identification.
func GenerateAPIKey() (rawKey string, prefix string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", err
	}

	rawKey = base64.URLEncoding.EncodeToString(bytes)
	prefix = rawKey[:8]

	return rawKey, prefix, nil
}

// HashAPIKey creates a SHA-256 hash of the API key for storage.
// Only the hash is persisted; lookup is by exact hash match.
func HashAPIKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}
