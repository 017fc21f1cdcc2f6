// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"log/slog"
)

// Invalidator applies the content purge policy after lifecycle transitions.
// Purge failures are logged and swallowed: a stale entry expires on its own
// TTL, while a failed write must not fail the publish that triggered it.
type Invalidator struct {
	cache  Cacher
	logger *slog.Logger
}

// NewInvalidator creates an Invalidator over the given cache.
func NewInvalidator(cache Cacher, logger *slog.Logger) *Invalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invalidator{cache: cache, logger: logger}
}

// PostChanged purges everything a publish, unpublish, edit or delete of a
// post can make stale: the post entry itself, every list page, every tag
// detail page, and the post's comment thread.
func (i *Invalidator) PostChanged(ctx context.Context, orgID int64, slug string) {
	i.delete(ctx, PostKey(orgID, slug))
	i.deletePrefix(ctx, PostListPrefix(orgID))
	i.deletePrefix(ctx, TagDetailPrefix(orgID))
	i.delete(ctx, CommentsKey(orgID, slug))
}

// TaxonomyChanged purges the tag and category lists after a tag or category
// mutation, plus the list pages that embed taxonomy names.
func (i *Invalidator) TaxonomyChanged(ctx context.Context, orgID int64) {
	i.delete(ctx, TagListKey(orgID))
	i.delete(ctx, CategoryListKey(orgID))
	i.deletePrefix(ctx, PostListPrefix(orgID))
	i.deletePrefix(ctx, TagDetailPrefix(orgID))
}

// CommentApproved purges a post's comment thread after moderation.
func (i *Invalidator) CommentApproved(ctx context.Context, orgID int64, postSlug string) {
	i.delete(ctx, CommentsKey(orgID, postSlug))
}

// NewsletterChanged purges an organization's subscriber count.
func (i *Invalidator) NewsletterChanged(ctx context.Context, orgID int64) {
	i.delete(ctx, NewsletterCountKey(orgID))
}

func (i *Invalidator) delete(ctx context.Context, key string) {
	if err := i.cache.Delete(ctx, key); err != nil {
		i.logger.Error("cache invalidation failed", "key", key, "error", err)
	}
}

func (i *Invalidator) deletePrefix(ctx context.Context, prefix string) {
	if err := i.cache.DeleteByPrefix(ctx, prefix); err != nil {
		i.logger.Error("cache invalidation failed", "prefix", prefix, "error", err)
	}
}
