// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/inkwell-sh/inkwell/internal/content"
	"github.com/inkwell-sh/inkwell/internal/store"
)

const draftsPerPage = 50

// draftRequest carries the author-editable fields of a draft.
type draftRequest struct {
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	Body            string `json:"body"`
	Excerpt         string `json:"excerpt"`
	FeaturedImage   string `json:"featured_image"`
	MetaTitle       string `json:"meta_title"`
	MetaDescription string `json:"meta_description"`
	CategoryID      *int64 `json:"category_id"`
}

func (req draftRequest) toInput() content.DraftInput {
	in := content.DraftInput{
		Title:           req.Title,
		Slug:            req.Slug,
		Body:            req.Body,
		Excerpt:         req.Excerpt,
		FeaturedImage:   req.FeaturedImage,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
	}
	if req.CategoryID != nil {
		in.CategoryID = sql.NullInt64{Int64: *req.CategoryID, Valid: true}
	}
	return in
}

// ListDrafts returns the organization's drafts, most recently updated first.
func (h *Handler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	page, _ := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	if page < 1 {
		page = 1
	}

	drafts, err := h.queries.ListDraftsByOrg(r.Context(), store.ListDraftsByOrgParams{
		OrgID:  user.OrgID,
		Limit:  draftsPerPage,
		Offset: (page - 1) * draftsPerPage,
	})
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"drafts": drafts, "page": page})
}

// CreateDraft starts a new draft.
func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	var req draftRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" && req.Slug == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation", "A title or slug is required")
		return
	}

	draft, err := h.content.CreateDraft(r.Context(), user, req.toInput())
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

// GetDraft returns one draft.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid draft id")
		return
	}

	draft, err := h.queries.GetDraftByID(r.Context(), id)
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}
	if draft.OrgID != user.OrgID {
		writeError(w, http.StatusNotFound, "not_found", "Not found")
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// SaveDraft applies an autosave or manual save. A conflicting slug change
// is dropped while the rest of the save lands; the response body carries
// the slug actually stored so the editor can reconcile.
func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid draft id")
		return
	}

	var req draftRequest
	if !decodeBody(w, r, &req) {
		return
	}

	draft, err := h.content.SaveDraft(r.Context(), user, id, req.toInput())
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// DeleteDraft discards a draft.
func (h *Handler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid draft id")
		return
	}

	if err := h.content.DeleteDraft(r.Context(), user, id); err != nil {
		h.writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// PublishDraft turns a draft into a live post.
func (h *Handler) PublishDraft(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid draft id")
		return
	}

	post, err := h.content.Publish(r.Context(), user, id)
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}
