// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/inkwell-sh/inkwell/internal/model"
	"github.com/inkwell-sh/inkwell/internal/store"
)

const postsPerPage = 50

var errTagNotInOrg = errors.New("tag belongs to another organization")

// ListPosts returns the organization's live posts for the authoring UI.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	page, _ := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	if page < 1 {
		page = 1
	}

	posts, err := h.queries.ListPublishedPosts(r.Context(), store.ListPublishedPostsParams{
		OrgID:  user.OrgID,
		Limit:  postsPerPage,
		Offset: (page - 1) * postsPerPage,
	})
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"posts": posts, "page": page})
}

// UnpublishPost takes a post off the public surface, leaving a draft.
func (h *Handler) UnpublishPost(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid post id")
		return
	}

	draft, err := h.content.Unpublish(r.Context(), user, id)
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// DeletePost removes a live post permanently.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid post id")
		return
	}

	if err := h.content.DeletePost(r.Context(), user, id); err != nil {
		h.writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type setPostTagsRequest struct {
	TagIDs []int64 `json:"tag_ids"`
}

// SetPostTags replaces a post's tag set, bounded by the plan's tags-per-post
// allowance. Tags must belong to the same organization as the post.
func (h *Handler) SetPostTags(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid post id")
		return
	}

	var req setPostTagsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	post, err := h.queries.GetPostByID(r.Context(), id)
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}
	if post.OrgID != user.OrgID {
		writeError(w, http.StatusNotFound, "not_found", "Not found")
		return
	}

	org, err := h.queries.GetOrganizationByID(r.Context(), user.OrgID)
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}
	limits := model.LimitsForPlan(org.Plan)
	if limits.TagsPerPost >= 0 && int64(len(req.TagIDs)) > limits.TagsPerPost {
		writeError(w, http.StatusUnprocessableEntity, "tag_quota",
			"Your plan allows at most "+strconv.FormatInt(limits.TagsPerPost, 10)+" tags per post")
		return
	}

	err = store.WithTx(r.Context(), h.db, func(q *store.Queries) error {
		if err := q.ClearPostTags(r.Context(), post.ID); err != nil {
			return err
		}
		for _, tagID := range req.TagIDs {
			tag, err := q.GetTagByID(r.Context(), tagID)
			if err != nil {
				return err
			}
			if tag.OrgID != user.OrgID {
				return errTagNotInOrg
			}
			if err := q.AddTagToPost(r.Context(), store.AddTagToPostParams{
				PostID: post.ID,
				TagID:  tag.ID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errTagNotInOrg) {
		writeError(w, http.StatusUnprocessableEntity, "validation", "Unknown tag")
		return
	}
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}

	h.invalidator.PostChanged(r.Context(), post.OrgID, post.Slug)
	h.invalidator.TaxonomyChanged(r.Context(), post.OrgID)
	writeJSON(w, http.StatusOK, map[string]any{"post_id": post.ID, "tag_ids": req.TagIDs})
}
