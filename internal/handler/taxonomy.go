// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"time"

	"github.com/inkwell-sh/inkwell/internal/auth"
	"github.com/inkwell-sh/inkwell/internal/model"
	"github.com/inkwell-sh/inkwell/internal/store"
	"github.com/inkwell-sh/inkwell/internal/util"
)

type taxonomyRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// resolveTaxonomySlug derives a slug from the name when none is supplied.
func resolveTaxonomySlug(req taxonomyRequest) (string, bool) {
	slug := req.Slug
	if slug == "" {
		slug = util.Slugify(req.Name)
	}
	return slug, util.IsValidSlug(slug)
}

// CreateCategory adds a category, bounded by the plan's category allowance.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}
	if !auth.Can(user, auth.CapPostEdit, 0) {
		writeError(w, http.StatusForbidden, "forbidden", "You are not allowed to manage categories")
		return
	}

	var req taxonomyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation", "Name is required")
		return
	}
	slug, ok := resolveTaxonomySlug(req)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "validation", "Invalid slug")
		return
	}

	org, err := h.queries.GetOrganizationByID(r.Context(), user.OrgID)
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}
	limits := model.LimitsForPlan(org.Plan)
	if limits.Categories >= 0 {
		count, err := h.queries.CountCategoriesByOrg(r.Context(), user.OrgID)
		if err != nil {
			h.writeLifecycleError(w, err)
			return
		}
		if count >= limits.Categories {
			writeError(w, http.StatusUnprocessableEntity, "category_quota",
				"Your plan's category limit has been reached")
			return
		}
	}

	category, err := h.queries.CreateCategory(r.Context(), store.CreateCategoryParams{
		OrgID:     user.OrgID,
		Name:      req.Name,
		Slug:      slug,
		CreatedAt: time.Now(),
	})
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}

	h.invalidator.TaxonomyChanged(r.Context(), user.OrgID)
	writeJSON(w, http.StatusCreated, category)
}

// DeleteCategory removes a category. Posts keep existing without it.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}
	if !auth.Can(user, auth.CapPostEdit, 0) {
		writeError(w, http.StatusForbidden, "forbidden", "You are not allowed to manage categories")
		return
	}

	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid category id")
		return
	}

	category, err := h.queries.GetCategoryByID(r.Context(), id)
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}
	if category.OrgID != user.OrgID {
		writeError(w, http.StatusNotFound, "not_found", "Not found")
		return
	}

	if err := h.queries.DeleteCategory(r.Context(), category.ID); err != nil {
		h.writeLifecycleError(w, err)
		return
	}

	h.invalidator.TaxonomyChanged(r.Context(), user.OrgID)
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// CreateTag adds a tag.
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}
	if !auth.Can(user, auth.CapPostEdit, 0) {
		writeError(w, http.StatusForbidden, "forbidden", "You are not allowed to manage tags")
		return
	}

	var req taxonomyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation", "Name is required")
		return
	}
	slug, ok := resolveTaxonomySlug(req)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "validation", "Invalid slug")
		return
	}

	tag, err := h.queries.CreateTag(r.Context(), store.CreateTagParams{
		OrgID:     user.OrgID,
		Name:      req.Name,
		Slug:      slug,
		CreatedAt: time.Now(),
	})
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}

	h.invalidator.TaxonomyChanged(r.Context(), user.OrgID)
	writeJSON(w, http.StatusCreated, tag)
}

// DeleteTag removes a tag and its attachments.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}
	if !auth.Can(user, auth.CapPostEdit, 0) {
		writeError(w, http.StatusForbidden, "forbidden", "You are not allowed to manage tags")
		return
	}

	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid tag id")
		return
	}

	tag, err := h.queries.GetTagByID(r.Context(), id)
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}
	if tag.OrgID != user.OrgID {
		writeError(w, http.StatusNotFound, "not_found", "Not found")
		return
	}

	if err := h.queries.DeleteTag(r.Context(), tag.ID); err != nil {
		h.writeLifecycleError(w, err)
		return
	}

	h.invalidator.TaxonomyChanged(r.Context(), user.OrgID)
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
