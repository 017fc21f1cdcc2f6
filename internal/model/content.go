// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Draft is the unpublished, mutable working copy of a post.
// PostID is non-null only when the draft is a pending edit of content
// that has already been published.
type Draft struct {
	ID              int64         `json:"id"`
	OrgID           int64         `json:"org_id"`
	AuthorID        int64         `json:"author_id"`
	PostID          sql.NullInt64 `json:"post_id,omitempty"`
	Title           string        `json:"title"`
	Slug            string        `json:"slug"`
	Body            string        `json:"body"`
	Excerpt         string        `json:"excerpt"`
	FeaturedImage   string        `json:"featured_image,omitempty"`
	MetaTitle       string        `json:"meta_title,omitempty"`
	MetaDescription string        `json:"meta_description,omitempty"`
	CategoryID      sql.NullInt64 `json:"category_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Post is the published, publicly-served counterpart of a Draft.
// Slug is unique within an organization. A Post and the Draft that
// produced it never coexist.
type Post struct {
	ID              int64         `json:"id"`
	OrgID           int64         `json:"org_id"`
	AuthorID        int64         `json:"author_id"`
	Title           string        `json:"title"`
	Slug            string        `json:"slug"`
	Body            string        `json:"body"`
	BodyHTML        string        `json:"body_html"`
	Excerpt         string        `json:"excerpt"`
	FeaturedImage   string        `json:"featured_image,omitempty"`
	MetaTitle       string        `json:"meta_title,omitempty"`
	MetaDescription string        `json:"meta_description,omitempty"`
	CategoryID      sql.NullInt64 `json:"category_id,omitempty"`
	PublishedAt     time.Time     `json:"published_at"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Category is an org-scoped content grouping.
type Category struct {
	ID        int64     `json:"id"`
	OrgID     int64     `json:"org_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// Tag is an org-scoped content label. Posts carry zero or more tags.
type Tag struct {
	ID        int64     `json:"id"`
	OrgID     int64     `json:"org_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is reader feedback on a published post.
// Comments await approval before they are publicly listed.
type Comment struct {
	ID          int64     `json:"id"`
	PostID      int64     `json:"post_id"`
	Content     string    `json:"content"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"-"`
	Approved    bool      `json:"approved"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewsletterSubscriber is an org-scoped newsletter signup.
type NewsletterSubscriber struct {
	ID        int64     `json:"id"`
	OrgID     int64     `json:"org_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
