// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package gate implements the public API gatekeeper. Every request to a
// gated route passes the same sequence: bearer extraction, rate limiting,
// key resolution, then usage accounting. The order matters; a client over
// its rate limit learns nothing about whether its key is valid.
package gate

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/inkwell-sh/inkwell/internal/model"
	"github.com/inkwell-sh/inkwell/internal/ratelimit"
	"github.com/inkwell-sh/inkwell/internal/store"
	"github.com/inkwell-sh/inkwell/internal/usage"
)

// ContextKey is the type for gate context keys.
type ContextKey string

// ContextKeyOrg is the context key for the authenticated organization.
const ContextKeyOrg ContextKey = "org"

// UsageWarningHeader is set on every response of an over-quota organization.
const UsageWarningHeader = "X-Usage-Warning"

// APIError represents a JSON error response for the API.
type APIError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	apiErr := APIError{}
	apiErr.Error.Code = code
	apiErr.Error.Message = message

	_ = json.NewEncoder(w).Encode(apiErr)
}

// Gate authenticates and meters public API requests.
type Gate struct {
	queries *store.Queries
	limiter ratelimit.Limiter
	meter   *usage.Meter
	logger  *slog.Logger
}

// New creates a gate.
func New(queries *store.Queries, limiter ratelimit.Limiter, meter *usage.Meter, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		queries: queries,
		limiter: limiter,
		meter:   meter,
		logger:  logger,
	}
}

// Authorize is the gatekeeper middleware for public API routes.
//
// The rate limiter runs on the hash of the presented key before the key is
// resolved, so unknown keys burn their own window instead of hammering the
// organizations table, and a limited client cannot probe key validity.
func (g *Gate) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawKey, ok := extractBearer(r)
		if !ok {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized",
				"Missing or malformed Authorization header. Use: Bearer <api_key>")
			return
		}

		keyHash := model.HashAPIKey(rawKey)

		allowed, err := g.limiter.Allow(r.Context(), keyHash)
		if err != nil {
			// Fail closed: an unverifiable limit is an exceeded limit.
			g.logger.Error("rate limit check failed", "error", err)
			WriteAPIError(w, http.StatusInternalServerError, "rate_limit_unverified",
				"Unable to verify rate limit")
			return
		}
		if !allowed {
			WriteAPIError(w, http.StatusTooManyRequests, "rate_limited",
				"Rate limit exceeded. Try again shortly.")
			return
		}

		org, err := g.queries.GetOrganizationByKeyHash(r.Context(), keyHash)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid API key")
			} else {
				g.logger.Error("failed to resolve API key", "error", err)
				WriteAPIError(w, http.StatusInternalServerError, "internal_error",
					"Failed to validate API key")
			}
			return
		}

		if g.meter.CheckWarning(r.Context(), org) {
			w.Header().Set(UsageWarningHeader,
				"monthly view allowance reached; content is still being served")
		}

		ctx := context.WithValue(r.Context(), ContextKeyOrg, org)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearer pulls the raw API key out of the Authorization header.
func extractBearer(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// OrgFromContext retrieves the authenticated organization from the request
// context. Returns nil outside gated routes.
func OrgFromContext(ctx context.Context) *model.Organization {
	org, ok := ctx.Value(ContextKeyOrg).(model.Organization)
	if !ok {
		return nil
	}
	return &org
}
