// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/inkwell-sh/inkwell/internal/model"
)

const postColumns = `id, org_id, author_id, title, slug, body, body_html, excerpt,
	featured_image, meta_title, meta_description, category_id, published_at, created_at, updated_at`

func scanPostRow(scan func(dest ...any) error) (model.Post, error) {
	var p model.Post
	err := scan(&p.ID, &p.OrgID, &p.AuthorID, &p.Title, &p.Slug, &p.Body, &p.BodyHTML,
		&p.Excerpt, &p.FeaturedImage, &p.MetaTitle, &p.MetaDescription, &p.CategoryID,
		&p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func collectPosts(rows *sql.Rows) ([]model.Post, error) {
	defer func() { _ = rows.Close() }()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPostRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CreatePostParams holds fields for CreatePost and CreatePostWithID.
type CreatePostParams struct {
	ID              sql.NullInt64 // explicit row id when republishing an unpublished post
	OrgID           int64
	AuthorID        int64
	Title           string
	Slug            string
	Body            string
	BodyHTML        string
	Excerpt         string
	FeaturedImage   string
	MetaTitle       string
	MetaDescription string
	CategoryID      sql.NullInt64
	PublishedAt     time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreatePost inserts a published post and returns it. When arg.ID is set the
// row is created under that id, preserving the draft's pending-edit link
// across an unpublish/republish cycle.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (model.Post, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO posts (id, org_id, author_id, title, slug, body, body_html, excerpt,
			featured_image, meta_title, meta_description, category_id, published_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+postColumns,
		arg.ID, arg.OrgID, arg.AuthorID, arg.Title, arg.Slug, arg.Body, arg.BodyHTML,
		arg.Excerpt, arg.FeaturedImage, arg.MetaTitle, arg.MetaDescription, arg.CategoryID,
		arg.PublishedAt, arg.CreatedAt, arg.UpdatedAt)
	return scanPostRow(row.Scan)
}

// GetPostByID returns the post with the given id.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (model.Post, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	return scanPostRow(row.Scan)
}

// GetPostBySlugParams holds fields for GetPostBySlug.
type GetPostBySlugParams struct {
	OrgID int64
	Slug  string
}

// GetPostBySlug returns the organization's post with the given slug.
func (q *Queries) GetPostBySlug(ctx context.Context, arg GetPostBySlugParams) (model.Post, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE org_id = ? AND slug = ?`, arg.OrgID, arg.Slug)
	return scanPostRow(row.Scan)
}

// UpdatePostParams holds fields for UpdatePost.
type UpdatePostParams struct {
	ID              int64
	Title           string
	Slug            string
	Body            string
	BodyHTML        string
	Excerpt         string
	FeaturedImage   string
	MetaTitle       string
	MetaDescription string
	CategoryID      sql.NullInt64
	PublishedAt     time.Time
	UpdatedAt       time.Time
}

// UpdatePost rewrites a live post in place and returns the updated row.
// Returns sql.ErrNoRows if the post does not exist.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (model.Post, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE posts SET title = ?, slug = ?, body = ?, body_html = ?, excerpt = ?,
			featured_image = ?, meta_title = ?, meta_description = ?, category_id = ?,
			published_at = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+postColumns,
		arg.Title, arg.Slug, arg.Body, arg.BodyHTML, arg.Excerpt, arg.FeaturedImage,
		arg.MetaTitle, arg.MetaDescription, arg.CategoryID, arg.PublishedAt, arg.UpdatedAt, arg.ID)
	return scanPostRow(row.Scan)
}

// DeletePost removes a post.
func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	return err
}

// PostSlugExistsParams holds fields for PostSlugExists.
type PostSlugExistsParams struct {
	OrgID int64
	Slug  string
}

// PostSlugExists reports whether a live post already claims the slug.
func (q *Queries) PostSlugExists(ctx context.Context, arg PostSlugExistsParams) (bool, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE org_id = ? AND slug = ?`, arg.OrgID, arg.Slug).Scan(&count)
	return count > 0, err
}

// PostSlugExistsExcludingParams holds fields for PostSlugExistsExcluding.
type PostSlugExistsExcludingParams struct {
	OrgID int64
	Slug  string
	ID    int64
}

// PostSlugExistsExcluding reports whether a live post other than the given
// one claims the slug.
func (q *Queries) PostSlugExistsExcluding(ctx context.Context, arg PostSlugExistsExcludingParams) (bool, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE org_id = ? AND slug = ? AND id != ?`,
		arg.OrgID, arg.Slug, arg.ID).Scan(&count)
	return count > 0, err
}

// ListPublishedPostsParams holds fields for the published-post list queries.
type ListPublishedPostsParams struct {
	OrgID        int64
	CategorySlug string // empty = no category filter
	TagSlug      string // empty = no tag filter
	Limit        int64
	Offset       int64
}

// ListPublishedPosts returns an organization's published posts, newest first,
// optionally filtered by category and/or tag slug.
func (q *Queries) ListPublishedPosts(ctx context.Context, arg ListPublishedPostsParams) ([]model.Post, error) {
	query := `SELECT ` + prefixedPostColumns("p") + ` FROM posts p`
	args := []any{}

	if arg.CategorySlug != "" {
		query += ` JOIN categories c ON c.id = p.category_id AND c.slug = ?`
		args = append(args, arg.CategorySlug)
	}
	if arg.TagSlug != "" {
		query += ` JOIN post_tags pt ON pt.post_id = p.id
			JOIN tags t ON t.id = pt.tag_id AND t.slug = ?`
		args = append(args, arg.TagSlug)
	}

	query += ` WHERE p.org_id = ? ORDER BY p.published_at DESC LIMIT ? OFFSET ?`
	args = append(args, arg.OrgID, arg.Limit, arg.Offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

// CountPublishedPosts returns the total matching ListPublishedPosts without pagination.
func (q *Queries) CountPublishedPosts(ctx context.Context, arg ListPublishedPostsParams) (int64, error) {
	query := `SELECT COUNT(*) FROM posts p`
	args := []any{}

	if arg.CategorySlug != "" {
		query += ` JOIN categories c ON c.id = p.category_id AND c.slug = ?`
		args = append(args, arg.CategorySlug)
	}
	if arg.TagSlug != "" {
		query += ` JOIN post_tags pt ON pt.post_id = p.id
			JOIN tags t ON t.id = pt.tag_id AND t.slug = ?`
		args = append(args, arg.TagSlug)
	}

	query += ` WHERE p.org_id = ?`
	args = append(args, arg.OrgID)

	var count int64
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// CountPostsByOrg returns the number of live posts an organization owns.
func (q *Queries) CountPostsByOrg(ctx context.Context, orgID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE org_id = ?`, orgID).Scan(&count)
	return count, err
}

func prefixedPostColumns(alias string) string {
	return alias + `.id, ` + alias + `.org_id, ` + alias + `.author_id, ` + alias + `.title, ` +
		alias + `.slug, ` + alias + `.body, ` + alias + `.body_html, ` + alias + `.excerpt, ` +
		alias + `.featured_image, ` + alias + `.meta_title, ` + alias + `.meta_description, ` +
		alias + `.category_id, ` + alias + `.published_at, ` + alias + `.created_at, ` + alias + `.updated_at`
}
