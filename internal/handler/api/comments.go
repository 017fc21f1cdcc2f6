// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-sh/inkwell/internal/cache"
	"github.com/inkwell-sh/inkwell/internal/store"
	"github.com/inkwell-sh/inkwell/internal/util"
)

// CommentResponse represents an approved comment in API responses.
// Author emails stay private.
type CommentResponse struct {
	ID         int64     `json:"id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateCommentRequest is the request body for posting a comment.
type CreateCommentRequest struct {
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	Content     string `json:"content"`
}

// ListComments handles GET /api/v1/posts/{slug}/comments. Only approved
// comments are listed, oldest first, cached per post.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	org := requireOrg(w, r)
	if org == nil {
		return
	}

	slug := chi.URLParam(r, "slug")
	if !util.IsValidSlug(slug) {
		WriteBadRequest(w, "Invalid post slug", nil)
		return
	}

	post, err := h.queries.GetPostBySlug(r.Context(), store.GetPostBySlugParams{
		OrgID: org.ID,
		Slug:  slug,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Post not found")
			return
		}
		h.logger.Error("failed to get post for comments", "org_id", org.ID, "slug", slug, "error", err)
		WriteInternalError(w, "Failed to retrieve comments")
		return
	}

	key := cache.CommentsKey(org.ID, slug)
	result, err := h.commentc.GetOrSetWithTTL(r.Context(), key, cache.CommentsTTL, func() (*[]CommentResponse, error) {
		comments, err := h.queries.ListApprovedCommentsByPost(r.Context(), post.ID)
		if err != nil {
			return nil, err
		}
		resp := make([]CommentResponse, 0, len(comments))
		for _, c := range comments {
			resp = append(resp, CommentResponse{
				ID:         c.ID,
				AuthorName: c.AuthorName,
				Content:    c.Content,
				CreatedAt:  c.CreatedAt,
			})
		}
		return &resp, nil
	})
	if err != nil {
		h.logger.Error("failed to list comments", "org_id", org.ID, "slug", slug, "error", err)
		WriteInternalError(w, "Failed to retrieve comments")
		return
	}

	WriteSuccess(w, *result, nil)
}

// CreateComment handles POST /api/v1/posts/{slug}/comments. New comments
// land unapproved and invisible; moderation happens in the authoring app.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	org := requireOrg(w, r)
	if org == nil {
		return
	}

	slug := chi.URLParam(r, "slug")
	if !util.IsValidSlug(slug) {
		WriteBadRequest(w, "Invalid post slug", nil)
		return
	}

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	fieldErrors := map[string]string{}
	if strings.TrimSpace(req.AuthorName) == "" {
		fieldErrors["author_name"] = "Author name is required"
	}
	if strings.TrimSpace(req.Content) == "" {
		fieldErrors["content"] = "Content is required"
	}
	if len(req.Content) > 10000 {
		fieldErrors["content"] = "Content is too long"
	}
	if len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	post, err := h.queries.GetPostBySlug(r.Context(), store.GetPostBySlugParams{
		OrgID: org.ID,
		Slug:  slug,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Post not found")
			return
		}
		h.logger.Error("failed to get post for comment", "org_id", org.ID, "slug", slug, "error", err)
		WriteInternalError(w, "Failed to create comment")
		return
	}

	comment, err := h.queries.CreateComment(r.Context(), store.CreateCommentParams{
		PostID:      post.ID,
		Content:     strings.TrimSpace(req.Content),
		AuthorName:  strings.TrimSpace(req.AuthorName),
		AuthorEmail: strings.TrimSpace(req.AuthorEmail),
		Approved:    false,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		h.logger.Error("failed to create comment", "org_id", org.ID, "slug", slug, "error", err)
		WriteInternalError(w, "Failed to create comment")
		return
	}

	WriteCreated(w, CommentResponse{
		ID:         comment.ID,
		AuthorName: comment.AuthorName,
		Content:    comment.Content,
		CreatedAt:  comment.CreatedAt,
	})
}
