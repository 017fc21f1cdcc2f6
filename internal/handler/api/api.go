// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the public REST API handlers. Every route here sits
// behind the gatekeeper and is scoped to the authenticated organization.
package api

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/inkwell-sh/inkwell/internal/cache"
	"github.com/inkwell-sh/inkwell/internal/gate"
	"github.com/inkwell-sh/inkwell/internal/model"
	"github.com/inkwell-sh/inkwell/internal/store"
	"github.com/inkwell-sh/inkwell/internal/usage"
)

// PerPage is the fixed page size for list endpoints. It is part of the
// cache key contract: the same page number always means the same slice.
const PerPage = 20

// Handler holds shared dependencies for all public API handlers.
type Handler struct {
	db          *sql.DB
	queries     *store.Queries
	meter       *usage.Meter
	logger      *slog.Logger
	invalidator *cache.Invalidator
	postc       *cache.TypedCache[PostResponse]
	listc       *cache.TypedCache[PostListPage]
	tagc        *cache.TypedCache[[]TagResponse]
	catc        *cache.TypedCache[[]CategoryResponse]
	commentc    *cache.TypedCache[[]CommentResponse]
	tagdc       *cache.TypedCache[TagDetailPage]
	countc      *cache.TypedCache[SubscriberCountResponse]
}

// NewHandler creates a public API handler over the given cache backend.
func NewHandler(db *sql.DB, cacher cache.Cacher, meter *usage.Meter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		db:          db,
		queries:     store.New(db),
		meter:       meter,
		logger:      logger,
		invalidator: cache.NewInvalidator(cacher, logger),
		postc:       cache.NewTypedCache[PostResponse](cacher, cache.PostTTL),
		listc:       cache.NewTypedCache[PostListPage](cacher, cache.ListTTL),
		tagc:        cache.NewTypedCache[[]TagResponse](cacher, cache.TaxonomyTTL),
		catc:        cache.NewTypedCache[[]CategoryResponse](cacher, cache.TaxonomyTTL),
		commentc:    cache.NewTypedCache[[]CommentResponse](cacher, cache.CommentsTTL),
		tagdc:       cache.NewTypedCache[TagDetailPage](cacher, cache.ListTTL),
		countc:      cache.NewTypedCache[SubscriberCountResponse](cacher, cache.TaxonomyTTL),
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total   int64 `json:"total,omitempty"`
	Page    int   `json:"page,omitempty"`
	PerPage int   `json:"per_page,omitempty"`
	Pages   int   `json:"pages,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message, Details: details},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Status returns the API status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, StatusResponse{Status: "ok", Version: "v1"}, nil)
}

// AuthInfoResponse describes the authenticated organization.
type AuthInfoResponse struct {
	Organization string `json:"organization"`
	Slug         string `json:"slug"`
	Plan         string `json:"plan"`
	KeyPrefix    string `json:"key_prefix"`
	MonthlyViews int64  `json:"monthly_views"`
}

// AuthInfo returns information about the authenticated organization.
func (h *Handler) AuthInfo(w http.ResponseWriter, r *http.Request) {
	org := requireOrg(w, r)
	if org == nil {
		return
	}
	WriteSuccess(w, AuthInfoResponse{
		Organization: org.Name,
		Slug:         org.Slug,
		Plan:         org.Plan,
		KeyPrefix:    org.APIKeyPrefix,
		MonthlyViews: org.MonthlyViews,
	}, nil)
}

// requireOrg pulls the authenticated organization from the request context.
// Writes a 500 and returns nil when called outside a gated route.
func requireOrg(w http.ResponseWriter, r *http.Request) *model.Organization {
	org := gate.OrgFromContext(r.Context())
	if org == nil {
		WriteInternalError(w, "No organization in request context")
	}
	return org
}

// parsePage reads the "page" query parameter, defaulting to 1.
func parsePage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// pages computes the page count for a total.
func pages(total int64) int {
	if total == 0 {
		return 0
	}
	return int((total + PerPage - 1) / PerPage)
}
