// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content implements the draft/publish lifecycle. A draft is a
// private working copy; publishing renders it into a live post and removes
// it; unpublishing converts a live post back into a draft that remembers
// which post it came from.
package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkwell-sh/inkwell/internal/auth"
	"github.com/inkwell-sh/inkwell/internal/cache"
	"github.com/inkwell-sh/inkwell/internal/model"
	"github.com/inkwell-sh/inkwell/internal/store"
	"github.com/inkwell-sh/inkwell/internal/util"
)

// Lifecycle errors surfaced to handlers.
var (
	// ErrSlugConflict means a live post already claims the slug. Raised
	// only at publish time; autosaves resolve conflicts silently.
	ErrSlugConflict = errors.New("slug already in use by a published post")

	// ErrForbidden means the user lacks the capability or the resource
	// belongs to another organization.
	ErrForbidden = errors.New("not allowed")

	// ErrPostQuota means the organization's plan post allowance is spent.
	ErrPostQuota = errors.New("plan post limit reached")
)

// Emitter receives lifecycle events after they commit. The webhook
// dispatcher implements it; tests swap in a recorder.
type Emitter interface {
	PostPublished(ctx context.Context, orgID int64, post model.Post)
	PostUnpublished(ctx context.Context, orgID int64, post model.Post)
}

// NopEmitter discards lifecycle events.
type NopEmitter struct{}

func (NopEmitter) PostPublished(context.Context, int64, model.Post)   {}
func (NopEmitter) PostUnpublished(context.Context, int64, model.Post) {}

// Service runs lifecycle transitions. Multi-row transitions are
// transactional; cache purges and webhook events run after commit.
type Service struct {
	db          *sql.DB
	queries     *store.Queries
	invalidator *cache.Invalidator
	emitter     Emitter
	logger      *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates a lifecycle service.
func NewService(db *sql.DB, invalidator *cache.Invalidator, emitter Emitter, logger *slog.Logger) *Service {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:          db,
		queries:     store.New(db),
		invalidator: invalidator,
		emitter:     emitter,
		logger:      logger,
		now:         time.Now,
	}
}

// DraftInput carries the author-editable fields of a draft.
type DraftInput struct {
	Title           string
	Slug            string
	Body            string
	Excerpt         string
	FeaturedImage   string
	MetaTitle       string
	MetaDescription string
	CategoryID      sql.NullInt64
}

// CreateDraft starts a new draft. The slug is derived from the title when
// not supplied. Draft slugs are not checked for conflicts; a draft may
// shadow a live post right up until publish.
func (s *Service) CreateDraft(ctx context.Context, user *model.User, in DraftInput) (model.Draft, error) {
	if !auth.Can(user, auth.CapDraftCreate, 0) {
		return model.Draft{}, ErrForbidden
	}

	slug := in.Slug
	if slug == "" {
		slug = util.Slugify(in.Title)
	}
	if !util.IsValidSlug(slug) {
		return model.Draft{}, fmt.Errorf("invalid slug %q", slug)
	}

	now := s.now()
	return s.queries.CreateDraft(ctx, store.CreateDraftParams{
		OrgID:           user.OrgID,
		AuthorID:        user.ID,
		Title:           in.Title,
		Slug:            slug,
		Body:            in.Body,
		Excerpt:         in.Excerpt,
		FeaturedImage:   in.FeaturedImage,
		MetaTitle:       in.MetaTitle,
		MetaDescription: in.MetaDescription,
		CategoryID:      in.CategoryID,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

// SaveDraft applies an autosave or manual save to a draft.
//
// A slug change that collides with a live post (other than the one this
// draft is a pending edit of) is dropped silently and the previous slug
// kept: autosaves fire every few seconds and must never interrupt writing.
// Everything else in the same save still lands.
func (s *Service) SaveDraft(ctx context.Context, user *model.User, draftID int64, in DraftInput) (model.Draft, error) {
	draft, err := s.queries.GetDraftByID(ctx, draftID)
	if err != nil {
		return model.Draft{}, err
	}
	if draft.OrgID != user.OrgID || !auth.Can(user, auth.CapDraftEdit, draft.AuthorID) {
		return model.Draft{}, ErrForbidden
	}

	slug := in.Slug
	if slug == "" {
		slug = draft.Slug
	}
	if slug != draft.Slug {
		conflicted, err := s.slugTaken(ctx, draft, slug)
		if err != nil {
			return model.Draft{}, err
		}
		if conflicted || !util.IsValidSlug(slug) {
			slug = draft.Slug
		}
	}

	return s.queries.UpdateDraft(ctx, store.UpdateDraftParams{
		ID:              draft.ID,
		Title:           in.Title,
		Slug:            slug,
		Body:            in.Body,
		Excerpt:         in.Excerpt,
		FeaturedImage:   in.FeaturedImage,
		MetaTitle:       in.MetaTitle,
		MetaDescription: in.MetaDescription,
		CategoryID:      in.CategoryID,
		UpdatedAt:       s.now(),
	})
}

// Publish turns a draft into a live post and removes the draft, in one
// transaction. A fresh draft becomes a new post; a draft that is a pending
// edit of a live post overwrites that post in place, keeping its id and
// original publication date out of the draft's way.
//
// Unlike autosave, a slug conflict here is a hard failure: the author asked
// for this exact slug to go live and silently publishing under another one
// would be worse than rejecting.
func (s *Service) Publish(ctx context.Context, user *model.User, draftID int64) (model.Post, error) {
	if !auth.Can(user, auth.CapPublish, 0) {
		return model.Post{}, ErrForbidden
	}

	var published model.Post
	err := store.WithTx(ctx, s.db, func(q *store.Queries) error {
		draft, err := q.GetDraftByID(ctx, draftID)
		if err != nil {
			return err
		}
		if draft.OrgID != user.OrgID {
			return ErrForbidden
		}

		excludeID := draft.PostID.Int64 // zero when the draft is fresh
		taken, err := q.PostSlugExistsExcluding(ctx, store.PostSlugExistsExcludingParams{
			OrgID: draft.OrgID,
			Slug:  draft.Slug,
			ID:    excludeID,
		})
		if err != nil {
			return err
		}
		if taken {
			return ErrSlugConflict
		}

		bodyHTML, err := RenderBody(draft.Body)
		if err != nil {
			return err
		}

		now := s.now()
		if draft.PostID.Valid {
			published, err = s.republish(ctx, q, draft, bodyHTML, now)
		} else {
			published, err = s.publishNew(ctx, q, user, draft, bodyHTML, now)
		}
		if err != nil {
			return err
		}

		return q.DeleteDraft(ctx, draft.ID)
	})
	if err != nil {
		return model.Post{}, err
	}

	s.invalidator.PostChanged(ctx, published.OrgID, published.Slug)
	s.emitter.PostPublished(ctx, published.OrgID, published)
	s.logger.Info("post published",
		"org_id", published.OrgID, "post_id", published.ID, "slug", published.Slug)
	return published, nil
}

// publishNew creates a brand new post from a fresh draft, enforcing the
// plan's post allowance.
func (s *Service) publishNew(ctx context.Context, q *store.Queries, user *model.User, draft model.Draft, bodyHTML string, now time.Time) (model.Post, error) {
	org, err := q.GetOrganizationByID(ctx, draft.OrgID)
	if err != nil {
		return model.Post{}, err
	}
	limits := model.LimitsForPlan(org.Plan)
	if limits.Posts >= 0 {
		count, err := q.CountPostsByOrg(ctx, draft.OrgID)
		if err != nil {
			return model.Post{}, err
		}
		if count >= limits.Posts {
			return model.Post{}, ErrPostQuota
		}
	}

	return q.CreatePost(ctx, store.CreatePostParams{
		OrgID:           draft.OrgID,
		AuthorID:        draft.AuthorID,
		Title:           draft.Title,
		Slug:            draft.Slug,
		Body:            draft.Body,
		BodyHTML:        bodyHTML,
		Excerpt:         draft.Excerpt,
		FeaturedImage:   draft.FeaturedImage,
		MetaTitle:       draft.MetaTitle,
		MetaDescription: draft.MetaDescription,
		CategoryID:      draft.CategoryID,
		PublishedAt:     now,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

// republish overwrites the post the draft is a pending edit of. When that
// post was unpublished in the meantime the row is recreated under its old
// id, so links held elsewhere keep pointing at the same post.
func (s *Service) republish(ctx context.Context, q *store.Queries, draft model.Draft, bodyHTML string, now time.Time) (model.Post, error) {
	existing, err := q.GetPostByID(ctx, draft.PostID.Int64)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return model.Post{}, err
		}
		return q.CreatePost(ctx, store.CreatePostParams{
			ID:              draft.PostID,
			OrgID:           draft.OrgID,
			AuthorID:        draft.AuthorID,
			Title:           draft.Title,
			Slug:            draft.Slug,
			Body:            draft.Body,
			BodyHTML:        bodyHTML,
			Excerpt:         draft.Excerpt,
			FeaturedImage:   draft.FeaturedImage,
			MetaTitle:       draft.MetaTitle,
			MetaDescription: draft.MetaDescription,
			CategoryID:      draft.CategoryID,
			PublishedAt:     now,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	if existing.OrgID != draft.OrgID {
		return model.Post{}, ErrForbidden
	}

	return q.UpdatePost(ctx, store.UpdatePostParams{
		ID:              existing.ID,
		Title:           draft.Title,
		Slug:            draft.Slug,
		Body:            draft.Body,
		BodyHTML:        bodyHTML,
		Excerpt:         draft.Excerpt,
		FeaturedImage:   draft.FeaturedImage,
		MetaTitle:       draft.MetaTitle,
		MetaDescription: draft.MetaDescription,
		CategoryID:      draft.CategoryID,
		PublishedAt:     existing.PublishedAt,
		UpdatedAt:       now,
	})
}

// Unpublish takes a live post off the public surface and turns it back into
// a draft, in one transaction. The draft remembers the post's id so a later
// publish restores it rather than minting a new one. The post's slug, body
// and metadata survive the round trip byte for byte.
func (s *Service) Unpublish(ctx context.Context, user *model.User, postID int64) (model.Draft, error) {
	if !auth.Can(user, auth.CapPostEdit, 0) {
		return model.Draft{}, ErrForbidden
	}

	var draft model.Draft
	var removed model.Post
	err := store.WithTx(ctx, s.db, func(q *store.Queries) error {
		post, err := q.GetPostByID(ctx, postID)
		if err != nil {
			return err
		}
		if post.OrgID != user.OrgID {
			return ErrForbidden
		}
		removed = post

		now := s.now()
		draft, err = q.CreateDraft(ctx, store.CreateDraftParams{
			OrgID:           post.OrgID,
			AuthorID:        post.AuthorID,
			PostID:          sql.NullInt64{Int64: post.ID, Valid: true},
			Title:           post.Title,
			Slug:            post.Slug,
			Body:            post.Body,
			Excerpt:         post.Excerpt,
			FeaturedImage:   post.FeaturedImage,
			MetaTitle:       post.MetaTitle,
			MetaDescription: post.MetaDescription,
			CategoryID:      post.CategoryID,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		if err != nil {
			return err
		}

		if err := q.ClearPostTags(ctx, post.ID); err != nil {
			return err
		}
		return q.DeletePost(ctx, post.ID)
	})
	if err != nil {
		return model.Draft{}, err
	}

	s.invalidator.PostChanged(ctx, removed.OrgID, removed.Slug)
	s.emitter.PostUnpublished(ctx, removed.OrgID, removed)
	s.logger.Info("post unpublished",
		"org_id", removed.OrgID, "post_id", removed.ID, "slug", removed.Slug)
	return draft, nil
}

// DeleteDraft discards a draft. The live post it may be a pending edit of
// is untouched.
func (s *Service) DeleteDraft(ctx context.Context, user *model.User, draftID int64) error {
	draft, err := s.queries.GetDraftByID(ctx, draftID)
	if err != nil {
		return err
	}
	if draft.OrgID != user.OrgID || !auth.Can(user, auth.CapDraftDelete, draft.AuthorID) {
		return ErrForbidden
	}
	return s.queries.DeleteDraft(ctx, draft.ID)
}

// DeletePost removes a live post permanently, without leaving a draft.
func (s *Service) DeletePost(ctx context.Context, user *model.User, postID int64) error {
	if !auth.Can(user, auth.CapPostDelete, 0) {
		return ErrForbidden
	}

	var removed model.Post
	err := store.WithTx(ctx, s.db, func(q *store.Queries) error {
		post, err := q.GetPostByID(ctx, postID)
		if err != nil {
			return err
		}
		if post.OrgID != user.OrgID {
			return ErrForbidden
		}
		removed = post

		if err := q.ClearPostTags(ctx, post.ID); err != nil {
			return err
		}
		return q.DeletePost(ctx, post.ID)
	})
	if err != nil {
		return err
	}

	s.invalidator.PostChanged(ctx, removed.OrgID, removed.Slug)
	return nil
}

// slugTaken reports whether a live post other than the draft's own target
// claims the slug.
func (s *Service) slugTaken(ctx context.Context, draft model.Draft, slug string) (bool, error) {
	if draft.PostID.Valid {
		return s.queries.PostSlugExistsExcluding(ctx, store.PostSlugExistsExcludingParams{
			OrgID: draft.OrgID,
			Slug:  slug,
			ID:    draft.PostID.Int64,
		})
	}
	return s.queries.PostSlugExists(ctx, store.PostSlugExistsParams{
		OrgID: draft.OrgID,
		Slug:  slug,
	})
}
