// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/inkwell-sh/inkwell/internal/auth"
	"github.com/inkwell-sh/inkwell/internal/model"
	"github.com/inkwell-sh/inkwell/internal/store"
)

type createWebhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
}

type webhookResponse struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	Events    []string  `json:"events"`
	IsActive  bool      `json:"is_active"`
	Secret    string    `json:"secret,omitempty"` // only on creation
	CreatedAt time.Time `json:"created_at"`
}

func toWebhookResponse(wh model.Webhook, secret string) webhookResponse {
	var events []string
	_ = json.Unmarshal([]byte(wh.Events), &events)
	return webhookResponse{
		ID:        wh.ID,
		URL:       wh.URL,
		Events:    events,
		IsActive:  wh.IsActive,
		Secret:    secret,
		CreatedAt: wh.CreatedAt,
	}
}

var knownWebhookEvents = map[string]bool{
	model.WebhookEventPostPublished:   true,
	model.WebhookEventPostUnpublished: true,
}

// ListWebhooks returns the organization's webhook subscriptions.
// Secrets are never echoed back.
func (h *Handler) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	webhooks, err := h.queries.ListWebhooksByOrg(r.Context(), user.OrgID)
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}

	out := make([]webhookResponse, 0, len(webhooks))
	for _, wh := range webhooks {
		out = append(out, toWebhookResponse(wh, ""))
	}
	writeJSON(w, http.StatusOK, map[string]any{"webhooks": out})
}

// CreateWebhook registers a callback URL. The signing secret is generated
// server-side and returned exactly once.
func (h *Handler) CreateWebhook(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}
	if !auth.Can(user, auth.CapOrgManage, 0) {
		writeError(w, http.StatusForbidden, "forbidden", "Only admins can manage webhooks")
		return
	}

	var req createWebhookRequest
	if !decodeBody(w, r, &req) {
		return
	}

	parsed, err := url.Parse(req.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation", "A valid http(s) URL is required")
		return
	}
	for _, e := range req.Events {
		if !knownWebhookEvents[e] {
			writeError(w, http.StatusUnprocessableEntity, "validation", "Unknown event type: "+e)
			return
		}
	}

	secret, err := generateWebhookSecret()
	if err != nil {
		h.logger.Error("failed to generate webhook secret", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Something went wrong")
		return
	}

	events, _ := json.Marshal(req.Events)
	now := time.Now()
	wh, err := h.queries.CreateWebhook(r.Context(), store.CreateWebhookParams{
		OrgID:     user.OrgID,
		URL:       req.URL,
		Secret:    secret,
		Events:    string(events),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}

	h.logger.Info("webhook created", "org_id", user.OrgID, "webhook_id", wh.ID, "url", wh.URL)
	writeJSON(w, http.StatusCreated, toWebhookResponse(wh, secret))
}

// DeleteWebhook removes a subscription and its delivery history.
func (h *Handler) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}
	if !auth.Can(user, auth.CapOrgManage, 0) {
		writeError(w, http.StatusForbidden, "forbidden", "Only admins can manage webhooks")
		return
	}

	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid webhook id")
		return
	}

	wh, err := h.queries.GetWebhookByID(r.Context(), id)
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}
	if wh.OrgID != user.OrgID {
		writeError(w, http.StatusNotFound, "not_found", "Not found")
		return
	}

	if err := h.queries.DeleteWebhook(r.Context(), wh.ID); err != nil {
		h.writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func generateWebhookSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "whsec_" + hex.EncodeToString(buf), nil
}
