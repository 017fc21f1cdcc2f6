// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/inkwell-sh/inkwell/internal/auth"
	"github.com/inkwell-sh/inkwell/internal/model"
)

// ListPendingComments returns the moderation queue, oldest first.
func (h *Handler) ListPendingComments(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	comments, err := h.queries.ListPendingCommentsByOrg(r.Context(), user.OrgID)
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

// ApproveComment makes a comment publicly visible and purges the post's
// cached comment list so the change shows up immediately.
func (h *Handler) ApproveComment(w http.ResponseWriter, r *http.Request) {
	user, comment, post := h.moderatedComment(w, r)
	if user == nil {
		return
	}

	if err := h.queries.ApproveComment(r.Context(), comment.ID); err != nil {
		h.writeLifecycleError(w, err)
		return
	}

	h.invalidator.CommentApproved(r.Context(), post.OrgID, post.Slug)
	h.logger.Info("comment approved", "comment_id", comment.ID, "post_id", post.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"approved": true})
}

// DeleteComment discards a comment, approved or not.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	user, comment, post := h.moderatedComment(w, r)
	if user == nil {
		return
	}

	if err := h.queries.DeleteComment(r.Context(), comment.ID); err != nil {
		h.writeLifecycleError(w, err)
		return
	}

	h.invalidator.CommentApproved(r.Context(), post.OrgID, post.Slug)
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// moderatedComment resolves the {id} comment and checks it belongs to the
// caller's organization via its post. Returns nil user when a response has
// already been written.
func (h *Handler) moderatedComment(w http.ResponseWriter, r *http.Request) (*model.User, model.Comment, model.Post) {
	user := h.currentUser(w, r)
	if user == nil {
		return nil, model.Comment{}, model.Post{}
	}
	if !auth.Can(user, auth.CapPostEdit, 0) {
		writeError(w, http.StatusForbidden, "forbidden", "You are not allowed to moderate comments")
		return nil, model.Comment{}, model.Post{}
	}

	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid comment id")
		return nil, model.Comment{}, model.Post{}
	}

	comment, err := h.queries.GetCommentByID(r.Context(), id)
	if err != nil {
		h.writeLifecycleError(w, err)
		return nil, model.Comment{}, model.Post{}
	}
	post, err := h.queries.GetPostByID(r.Context(), comment.PostID)
	if err != nil {
		h.writeLifecycleError(w, err)
		return nil, model.Comment{}, model.Post{}
	}
	if post.OrgID != user.OrgID {
		writeError(w, http.StatusNotFound, "not_found", "Not found")
		return nil, model.Comment{}, model.Post{}
	}

	return user, comment, post
}
