// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/inkwell-sh/inkwell/internal/cache"
	"github.com/inkwell-sh/inkwell/internal/model"
	"github.com/inkwell-sh/inkwell/internal/store"
)

func (f *fixture) seedComment(t *testing.T, postID int64, content string, approved bool) model.Comment {
	t.Helper()
	c, err := f.queries.CreateComment(context.Background(), store.CreateCommentParams{
		PostID:     postID,
		Content:    content,
		AuthorName: "Reader",
		Approved:   approved,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to seed comment: %v", err)
	}
	return c
}

func TestListPendingComments(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t, "editor@acme.test")
	post := f.seedPost(t, "busy", "Busy")
	f.seedComment(t, post.ID, "pending one", false)
	f.seedComment(t, post.ID, "already live", true)

	w := f.do(t, http.MethodGet, "/comments/pending", "", cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	resp := decodeInto[struct {
		Comments []model.Comment `json:"comments"`
	}](t, w.Body.Bytes())
	if len(resp.Comments) != 1 || resp.Comments[0].Content != "pending one" {
		t.Errorf("pending = %+v, want only the unapproved comment", resp.Comments)
	}
}

func TestApproveComment(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t, "editor@acme.test")
	post := f.seedPost(t, "busy", "Busy")
	comment := f.seedComment(t, post.ID, "let me in", false)

	// Warm the cached comment list so approval has something to purge.
	if err := f.cache.Set(context.Background(), cache.CommentsKey(f.org.ID, post.Slug), []byte(`[]`), 0); err != nil {
		t.Fatal(err)
	}

	w := f.do(t, http.MethodPost, fmt.Sprintf("/comments/%d/approve", comment.ID), "", cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	approved, err := f.queries.ListApprovedCommentsByPost(context.Background(), post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(approved) != 1 {
		t.Errorf("approved = %d, want 1", len(approved))
	}

	// The stale cached list is gone.
	if _, err := f.cache.Get(context.Background(), cache.CommentsKey(f.org.ID, post.Slug)); err != cache.ErrCacheMiss {
		t.Errorf("cached comment list survived approval: %v", err)
	}
}

func TestApproveCommentRequiresEditor(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t, "writer@acme.test")
	post := f.seedPost(t, "busy", "Busy")
	comment := f.seedComment(t, post.ID, "hi", false)

	w := f.do(t, http.MethodPost, fmt.Sprintf("/comments/%d/approve", comment.ID), "", cookie)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestDeleteComment(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t, "editor@acme.test")
	post := f.seedPost(t, "busy", "Busy")
	comment := f.seedComment(t, post.ID, "spam", false)

	w := f.do(t, http.MethodDelete, fmt.Sprintf("/comments/%d", comment.ID), "", cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var count int64
	if err := f.db.QueryRow(`SELECT COUNT(*) FROM comments`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("comments = %d, want 0", count)
	}
}

func TestModerateOtherOrgComment(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t, "editor@acme.test")

	other, err := f.queries.CreateOrganization(context.Background(), store.CreateOrganizationParams{
		Name: "Other", Slug: "other", APIKeyHash: "otherhash", APIKeyPrefix: "otherpre",
		Plan: model.PlanFree,
	})
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	foreignPost, err := f.queries.CreatePost(context.Background(), store.CreatePostParams{
		OrgID: other.ID, AuthorID: f.editor.ID, Title: "Theirs", Slug: "theirs",
		PublishedAt: now, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatal(err)
	}
	comment := f.seedComment(t, foreignPost.ID, "other org", false)

	w := f.do(t, http.MethodPost, fmt.Sprintf("/comments/%d/approve", comment.ID), "", cookie)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for another org's comment", w.Code)
	}
}
