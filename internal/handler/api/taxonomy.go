// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-sh/inkwell/internal/cache"
	"github.com/inkwell-sh/inkwell/internal/store"
	"github.com/inkwell-sh/inkwell/internal/util"
)

// TagResponse represents a tag in API responses.
type TagResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CategoryResponse represents a category in API responses.
type CategoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// TagDetailResponse is a tag together with one page of its posts.
type TagDetailResponse struct {
	Tag   TagResponse    `json:"tag"`
	Posts []PostListItem `json:"posts"`
}

// TagDetailPage is the cached unit for a tag detail read: the tag row and
// one page of its posts, so a warm hit touches the store not at all.
type TagDetailPage struct {
	Tag   TagResponse    `json:"tag"`
	Posts []PostListItem `json:"posts"`
	Meta  Meta           `json:"meta"`
}

// ListCategories handles GET /api/v1/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	org := requireOrg(w, r)
	if org == nil {
		return
	}

	key := cache.CategoryListKey(org.ID)
	result, err := h.catc.GetOrSetWithTTL(r.Context(), key, cache.TaxonomyTTL, func() (*[]CategoryResponse, error) {
		categories, err := h.queries.ListCategoriesByOrg(r.Context(), org.ID)
		if err != nil {
			return nil, err
		}
		resp := make([]CategoryResponse, 0, len(categories))
		for _, c := range categories {
			resp = append(resp, CategoryResponse{ID: c.ID, Name: c.Name, Slug: c.Slug})
		}
		return &resp, nil
	})
	if err != nil {
		h.logger.Error("failed to list categories", "org_id", org.ID, "error", err)
		WriteInternalError(w, "Failed to retrieve categories")
		return
	}

	WriteSuccess(w, *result, nil)
}

// ListTags handles GET /api/v1/tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	org := requireOrg(w, r)
	if org == nil {
		return
	}

	key := cache.TagListKey(org.ID)
	result, err := h.tagc.GetOrSetWithTTL(r.Context(), key, cache.TaxonomyTTL, func() (*[]TagResponse, error) {
		tags, err := h.queries.ListTagsByOrg(r.Context(), org.ID)
		if err != nil {
			return nil, err
		}
		resp := make([]TagResponse, 0, len(tags))
		for _, t := range tags {
			resp = append(resp, TagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug})
		}
		return &resp, nil
	})
	if err != nil {
		h.logger.Error("failed to list tags", "org_id", org.ID, "error", err)
		WriteInternalError(w, "Failed to retrieve tags")
		return
	}

	WriteSuccess(w, *result, nil)
}

// GetTag handles GET /api/v1/tags/{slug}: the tag plus one page of its
// posts. Detail pages share the post list TTL since they churn the same way.
func (h *Handler) GetTag(w http.ResponseWriter, r *http.Request) {
	org := requireOrg(w, r)
	if org == nil {
		return
	}

	slug := chi.URLParam(r, "slug")
	if !util.IsValidSlug(slug) {
		WriteBadRequest(w, "Invalid tag slug", nil)
		return
	}
	page := parsePage(r)

	key := cache.TagDetailKey(org.ID, slug, page)
	result, err := h.tagdc.GetOrSetWithTTL(r.Context(), key, cache.ListTTL, func() (*TagDetailPage, error) {
		tag, err := h.queries.GetTagBySlug(r.Context(), store.GetTagBySlugParams{
			OrgID: org.ID,
			Slug:  slug,
		})
		if err != nil {
			return nil, err
		}
		posts, err := h.loadPostPage(r.Context(), org.ID, "", slug, page)
		if err != nil {
			return nil, err
		}
		return &TagDetailPage{
			Tag:   TagResponse{ID: tag.ID, Name: tag.Name, Slug: tag.Slug},
			Posts: posts.Posts,
			Meta:  posts.Meta,
		}, nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Tag not found")
			return
		}
		h.logger.Error("failed to get tag", "org_id", org.ID, "slug", slug, "error", err)
		WriteInternalError(w, "Failed to retrieve tag")
		return
	}

	WriteSuccess(w, TagDetailResponse{
		Tag:   result.Tag,
		Posts: result.Posts,
	}, &result.Meta)
}
