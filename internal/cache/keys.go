// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"fmt"
	"time"
)

// TTLs for the public API read-through caches. Single posts and taxonomy
// change rarely, lists churn with every publish.
const (
	PostTTL     = time.Hour
	ListTTL     = 10 * time.Minute
	TaxonomyTTL = time.Hour
	CommentsTTL = 10 * time.Minute
)

// PostKey returns the cache key for a single published post.
func PostKey(orgID int64, slug string) string {
	return fmt.Sprintf("v1:post:%d:%s", orgID, slug)
}

// PostListKey returns the cache key for a page of the published post list.
// Empty category and tag filters are encoded as empty segments so that
// filtered and unfiltered pages never collide.
func PostListKey(orgID int64, category, tag string, page int) string {
	return fmt.Sprintf("v1:posts:%d:cat=%s:tag=%s:p=%d", orgID, category, tag, page)
}

// PostListPrefix returns the prefix shared by every post list page of an
// organization. Invalidation sweeps it.
func PostListPrefix(orgID int64) string {
	return fmt.Sprintf("v1:posts:%d:", orgID)
}

// TagDetailKey returns the cache key for a page of a tag's post listing.
func TagDetailKey(orgID int64, slug string, page int) string {
	return fmt.Sprintf("v1:tag:%d:%s:p=%d", orgID, slug, page)
}

// TagDetailPrefix returns the prefix shared by every tag detail page of an
// organization.
func TagDetailPrefix(orgID int64) string {
	return fmt.Sprintf("v1:tag:%d:", orgID)
}

// TagListKey returns the cache key for an organization's tag list.
func TagListKey(orgID int64) string {
	return fmt.Sprintf("v1:tags:%d", orgID)
}

// CategoryListKey returns the cache key for an organization's category list.
func CategoryListKey(orgID int64) string {
	return fmt.Sprintf("v1:categories:%d", orgID)
}

// CommentsKey returns the cache key for a post's approved comment list.
// Slugs are unique per organization only, so the key carries the org id to
// keep tenants with identical slugs apart.
func CommentsKey(orgID int64, postSlug string) string {
	return fmt.Sprintf("v1:comments:%d:%s", orgID, postSlug)
}

// NewsletterCountKey returns the cache key for an organization's subscriber count.
func NewsletterCountKey(orgID int64) string {
	return fmt.Sprintf("v1:newsletter:%d:count", orgID)
}
