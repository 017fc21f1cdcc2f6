// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/inkwell-sh/inkwell/internal/auth"
	"github.com/inkwell-sh/inkwell/internal/model"
	"github.com/inkwell-sh/inkwell/internal/store"
)

type organizationResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Plan         string `json:"plan"`
	APIKeyPrefix string `json:"api_key_prefix"`
	MonthlyViews int64  `json:"monthly_views"`
	PostCount    int64  `json:"post_count"`
	PostLimit    int64  `json:"post_limit"`
	ViewLimit    int64  `json:"view_limit"`
}

// GetOrganization returns the member's organization with usage against
// its plan limits.
func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	org, err := h.queries.GetOrganizationByID(r.Context(), user.OrgID)
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}
	postCount, err := h.queries.CountPostsByOrg(r.Context(), org.ID)
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}

	limits := model.LimitsForPlan(org.Plan)
	writeJSON(w, http.StatusOK, organizationResponse{
		ID:           org.ID,
		Name:         org.Name,
		Slug:         org.Slug,
		Plan:         org.Plan,
		APIKeyPrefix: org.APIKeyPrefix,
		MonthlyViews: org.MonthlyViews,
		PostCount:    postCount,
		PostLimit:    limits.Posts,
		ViewLimit:    limits.ViewsPerMonth,
	})
}

type rotateKeyResponse struct {
	APIKey       string `json:"api_key"`
	APIKeyPrefix string `json:"api_key_prefix"`
}

// RotateAPIKey mints a new API key for the organization. The raw key is
// returned exactly once; only its hash is stored. The old key stops
// working the moment the update commits.
func (h *Handler) RotateAPIKey(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}
	if !auth.Can(user, auth.CapOrgManage, 0) {
		writeError(w, http.StatusForbidden, "forbidden", "Only admins can rotate the API key")
		return
	}

	rawKey, prefix, err := model.GenerateAPIKey()
	if err != nil {
		h.logger.Error("failed to generate api key", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Something went wrong")
		return
	}

	err = h.queries.RotateAPIKey(r.Context(), store.RotateAPIKeyParams{
		ID:           user.OrgID,
		APIKeyHash:   model.HashAPIKey(rawKey),
		APIKeyPrefix: prefix,
	})
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}

	h.logger.Info("api key rotated", "org_id", user.OrgID, "user_id", user.ID)
	writeJSON(w, http.StatusOK, rotateKeyResponse{APIKey: rawKey, APIKeyPrefix: prefix})
}
