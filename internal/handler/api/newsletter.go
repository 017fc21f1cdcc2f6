// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/inkwell-sh/inkwell/internal/cache"
	"github.com/inkwell-sh/inkwell/internal/store"
)

// SubscribeRequest is the request body for a newsletter signup.
type SubscribeRequest struct {
	Email string `json:"email"`
}

// SubscribeResponse acknowledges a newsletter signup.
type SubscribeResponse struct {
	Subscribed bool `json:"subscribed"`
}

// Subscribe handles POST /api/v1/newsletter. Duplicate signups succeed
// silently so the endpoint does not leak who is already subscribed.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	org := requireOrg(w, r)
	if org == nil {
		return
	}

	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		WriteValidationError(w, map[string]string{"email": "Invalid email address"})
		return
	}

	if err := h.queries.CreateNewsletterSubscriber(r.Context(), store.CreateNewsletterSubscriberParams{
		OrgID:     org.ID,
		Email:     email,
		CreatedAt: time.Now(),
	}); err != nil {
		h.logger.Error("failed to create subscriber", "org_id", org.ID, "error", err)
		WriteInternalError(w, "Failed to subscribe")
		return
	}

	h.invalidator.NewsletterChanged(r.Context(), org.ID)

	WriteCreated(w, SubscribeResponse{Subscribed: true})
}

// SubscriberCountResponse reports an organization's subscriber total.
type SubscriberCountResponse struct {
	Subscribers int64 `json:"subscribers"`
}

// SubscriberCount handles GET /api/v1/newsletter/count. The count is served
// read-through from cache; a signup purges it.
func (h *Handler) SubscriberCount(w http.ResponseWriter, r *http.Request) {
	org := requireOrg(w, r)
	if org == nil {
		return
	}

	key := cache.NewsletterCountKey(org.ID)
	result, err := h.countc.GetOrSetWithTTL(r.Context(), key, cache.TaxonomyTTL, func() (*SubscriberCountResponse, error) {
		count, err := h.queries.CountNewsletterSubscribers(r.Context(), org.ID)
		if err != nil {
			return nil, err
		}
		return &SubscriberCountResponse{Subscribers: count}, nil
	})
	if err != nil {
		h.logger.Error("failed to count subscribers", "org_id", org.ID, "error", err)
		WriteInternalError(w, "Failed to retrieve subscriber count")
		return
	}

	WriteSuccess(w, *result, nil)
}
