// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-sh/inkwell/internal/cache"
	"github.com/inkwell-sh/inkwell/internal/model"
	"github.com/inkwell-sh/inkwell/internal/store"
	"github.com/inkwell-sh/inkwell/internal/util"
)

// PostResponse represents a published post in API responses. The raw
// markdown body is an authoring artifact and never leaves the org.
type PostResponse struct {
	ID              int64         `json:"id"`
	Title           string        `json:"title"`
	Slug            string        `json:"slug"`
	BodyHTML        string        `json:"body_html"`
	Excerpt         string        `json:"excerpt"`
	FeaturedImage   string        `json:"featured_image,omitempty"`
	MetaTitle       string        `json:"meta_title,omitempty"`
	MetaDescription string        `json:"meta_description,omitempty"`
	CategoryID      *int64        `json:"category_id,omitempty"`
	Tags            []TagResponse `json:"tags,omitempty"`
	PublishedAt     time.Time     `json:"published_at"`
}

// PostListItem is the trimmed post shape used in list responses.
type PostListItem struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Excerpt       string    `json:"excerpt"`
	FeaturedImage string    `json:"featured_image,omitempty"`
	PublishedAt   time.Time `json:"published_at"`
}

// PostListPage is one cached page of the post list.
type PostListPage struct {
	Posts []PostListItem `json:"posts"`
	Meta  Meta           `json:"meta"`
}

func postToResponse(p model.Post, tags []model.Tag) PostResponse {
	resp := PostResponse{
		ID:              p.ID,
		Title:           p.Title,
		Slug:            p.Slug,
		BodyHTML:        p.BodyHTML,
		Excerpt:         p.Excerpt,
		FeaturedImage:   p.FeaturedImage,
		MetaTitle:       p.MetaTitle,
		MetaDescription: p.MetaDescription,
		PublishedAt:     p.PublishedAt,
	}
	if p.CategoryID.Valid {
		resp.CategoryID = &p.CategoryID.Int64
	}
	for _, t := range tags {
		resp.Tags = append(resp.Tags, TagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug})
	}
	return resp
}

func postToListItem(p model.Post) PostListItem {
	return PostListItem{
		ID:            p.ID,
		Title:         p.Title,
		Slug:          p.Slug,
		Excerpt:       p.Excerpt,
		FeaturedImage: p.FeaturedImage,
		PublishedAt:   p.PublishedAt,
	}
}

// ListPosts handles GET /api/v1/posts with optional category and tag
// filters. Pages are cached for the list TTL; a publish purges them.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	org := requireOrg(w, r)
	if org == nil {
		return
	}

	category := r.URL.Query().Get("category")
	tag := r.URL.Query().Get("tag")
	page := parsePage(r)

	key := cache.PostListKey(org.ID, category, tag, page)
	result, err := h.listc.GetOrSetWithTTL(r.Context(), key, cache.ListTTL, func() (*PostListPage, error) {
		return h.loadPostPage(r.Context(), org.ID, category, tag, page)
	})
	if err != nil {
		h.logger.Error("failed to list posts", "org_id", org.ID, "error", err)
		WriteInternalError(w, "Failed to retrieve posts")
		return
	}

	WriteSuccess(w, result.Posts, &result.Meta)
}

func (h *Handler) loadPostPage(ctx context.Context, orgID int64, category, tag string, page int) (*PostListPage, error) {
	params := store.ListPublishedPostsParams{
		OrgID:        orgID,
		CategorySlug: category,
		TagSlug:      tag,
		Limit:        PerPage,
		Offset:       int64((page - 1) * PerPage),
	}

	posts, err := h.queries.ListPublishedPosts(ctx, params)
	if err != nil {
		return nil, err
	}
	total, err := h.queries.CountPublishedPosts(ctx, params)
	if err != nil {
		return nil, err
	}

	result := &PostListPage{
		Posts: make([]PostListItem, 0, len(posts)),
		Meta:  Meta{Total: total, Page: page, PerPage: PerPage, Pages: pages(total)},
	}
	for _, p := range posts {
		result.Posts = append(result.Posts, postToListItem(p))
	}
	return result, nil
}

// GetPost handles GET /api/v1/posts/{slug}.
//
// The response is served read-through from cache with the single-post TTL.
// The view counter moves on every successful read, cache hit or not; the
// meter bills delivery, not database traffic. A failed increment is logged
// and the response still goes out.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	org := requireOrg(w, r)
	if org == nil {
		return
	}

	slug := chi.URLParam(r, "slug")
	if !util.IsValidSlug(slug) {
		WriteBadRequest(w, "Invalid post slug", nil)
		return
	}

	key := cache.PostKey(org.ID, slug)
	post, err := h.postc.GetOrSetWithTTL(r.Context(), key, cache.PostTTL, func() (*PostResponse, error) {
		p, err := h.queries.GetPostBySlug(r.Context(), store.GetPostBySlugParams{
			OrgID: org.ID,
			Slug:  slug,
		})
		if err != nil {
			return nil, err
		}
		tags, err := h.queries.GetTagsForPost(r.Context(), p.ID)
		if err != nil {
			return nil, err
		}
		resp := postToResponse(p, tags)
		return &resp, nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Post not found")
			return
		}
		h.logger.Error("failed to get post", "org_id", org.ID, "slug", slug, "error", err)
		WriteInternalError(w, "Failed to retrieve post")
		return
	}

	if err := h.meter.RecordView(r.Context(), org.ID); err != nil {
		h.logger.Error("failed to record view", "org_id", org.ID, "error", err)
	}

	WriteSuccess(w, post, nil)
}
