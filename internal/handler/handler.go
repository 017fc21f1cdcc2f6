// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler implements the session-authenticated authoring API:
// login, draft editing, publishing, moderation, taxonomy and org
// management. The key-authenticated public read API lives in handler/api.
package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/inkwell-sh/inkwell/internal/cache"
	"github.com/inkwell-sh/inkwell/internal/content"
	"github.com/inkwell-sh/inkwell/internal/middleware"
	"github.com/inkwell-sh/inkwell/internal/model"
	"github.com/inkwell-sh/inkwell/internal/store"
)

// Handler holds dependencies for the authoring endpoints.
type Handler struct {
	db           *sql.DB
	queries      *store.Queries
	sm           *scs.SessionManager
	content      *content.Service
	invalidator  *cache.Invalidator
	logger       *slog.Logger
	loginLimiter func(http.Handler) http.Handler
}

// NewHandler creates an authoring handler.
func NewHandler(db *sql.DB, sm *scs.SessionManager, svc *content.Service,
	invalidator *cache.Invalidator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		db:          db,
		queries:     store.New(db),
		sm:          sm,
		content:     svc,
		invalidator: invalidator,
		logger:      logger,
	}
}

// SetLoginLimiter installs a per-IP rate limiting middleware on the login
// route. Credential stuffing targets login first; the rest of the tree is
// session-gated already.
func (h *Handler) SetLoginLimiter(mw func(http.Handler) http.Handler) {
	h.loginLimiter = mw
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

// writeLifecycleError maps content lifecycle errors onto HTTP statuses.
func (h *Handler) writeLifecycleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, content.ErrSlugConflict):
		writeError(w, http.StatusConflict, "slug_conflict", "A published post already uses this slug")
	case errors.Is(err, content.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "You are not allowed to do that")
	case errors.Is(err, content.ErrPostQuota):
		writeError(w, http.StatusUnprocessableEntity, "post_quota", "Your plan's post limit has been reached")
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, "not_found", "Not found")
	default:
		h.logger.Error("authoring request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Something went wrong")
	}
}

// currentUser pulls the authenticated user loaded by the middleware.
// A missing user means the route was wired without it.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) *model.User {
	user := middleware.GetUser(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
	}
	return user
}

func idParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON body")
		return false
	}
	return true
}
