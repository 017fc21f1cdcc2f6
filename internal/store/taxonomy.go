// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/inkwell-sh/inkwell/internal/model"
)

// CreateCategoryParams holds fields for CreateCategory.
type CreateCategoryParams struct {
	OrgID     int64
	Name      string
	Slug      string
	CreatedAt time.Time
}

// CreateCategory inserts an org-scoped category and returns it.
func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (model.Category, error) {
	var c model.Category
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO categories (org_id, name, slug, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id, org_id, name, slug, created_at`,
		arg.OrgID, arg.Name, arg.Slug, arg.CreatedAt).
		Scan(&c.ID, &c.OrgID, &c.Name, &c.Slug, &c.CreatedAt)
	return c, err
}

// GetCategoryBySlugParams holds fields for GetCategoryBySlug.
type GetCategoryBySlugParams struct {
	OrgID int64
	Slug  string
}

// GetCategoryBySlug returns the organization's category with the given slug.
func (q *Queries) GetCategoryBySlug(ctx context.Context, arg GetCategoryBySlugParams) (model.Category, error) {
	var c model.Category
	err := q.db.QueryRowContext(ctx,
		`SELECT id, org_id, name, slug, created_at FROM categories WHERE org_id = ? AND slug = ?`,
		arg.OrgID, arg.Slug).
		Scan(&c.ID, &c.OrgID, &c.Name, &c.Slug, &c.CreatedAt)
	return c, err
}

// GetCategoryByID returns the category with the given id.
func (q *Queries) GetCategoryByID(ctx context.Context, id int64) (model.Category, error) {
	var c model.Category
	err := q.db.QueryRowContext(ctx,
		`SELECT id, org_id, name, slug, created_at FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.OrgID, &c.Name, &c.Slug, &c.CreatedAt)
	return c, err
}

// ListCategoriesByOrg returns an organization's categories ordered by name.
func (q *Queries) ListCategoriesByOrg(ctx context.Context, orgID int64) ([]model.Category, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, org_id, name, slug, created_at FROM categories WHERE org_id = ? ORDER BY name`, orgID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.OrgID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CountCategoriesByOrg returns the number of categories an organization owns.
func (q *Queries) CountCategoriesByOrg(ctx context.Context, orgID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE org_id = ?`, orgID).Scan(&count)
	return count, err
}

// DeleteCategory removes a category. Posts referencing it fall back to NULL.
func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}

// CreateTagParams holds fields for CreateTag.
type CreateTagParams struct {
	OrgID     int64
	Name      string
	Slug      string
	CreatedAt time.Time
}

// CreateTag inserts an org-scoped tag and returns it.
func (q *Queries) CreateTag(ctx context.Context, arg CreateTagParams) (model.Tag, error) {
	var t model.Tag
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO tags (org_id, name, slug, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id, org_id, name, slug, created_at`,
		arg.OrgID, arg.Name, arg.Slug, arg.CreatedAt).
		Scan(&t.ID, &t.OrgID, &t.Name, &t.Slug, &t.CreatedAt)
	return t, err
}

// GetTagBySlugParams holds fields for GetTagBySlug.
type GetTagBySlugParams struct {
	OrgID int64
	Slug  string
}

// GetTagBySlug returns the organization's tag with the given slug.
func (q *Queries) GetTagBySlug(ctx context.Context, arg GetTagBySlugParams) (model.Tag, error) {
	var t model.Tag
	err := q.db.QueryRowContext(ctx,
		`SELECT id, org_id, name, slug, created_at FROM tags WHERE org_id = ? AND slug = ?`,
		arg.OrgID, arg.Slug).
		Scan(&t.ID, &t.OrgID, &t.Name, &t.Slug, &t.CreatedAt)
	return t, err
}

// GetTagByID returns the tag with the given id.
func (q *Queries) GetTagByID(ctx context.Context, id int64) (model.Tag, error) {
	var t model.Tag
	err := q.db.QueryRowContext(ctx,
		`SELECT id, org_id, name, slug, created_at FROM tags WHERE id = ?`, id).
		Scan(&t.ID, &t.OrgID, &t.Name, &t.Slug, &t.CreatedAt)
	return t, err
}

// ListTagsByOrg returns an organization's tags ordered by name.
func (q *Queries) ListTagsByOrg(ctx context.Context, orgID int64) ([]model.Tag, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, org_id, name, slug, created_at FROM tags WHERE org_id = ? ORDER BY name`, orgID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.OrgID, &t.Name, &t.Slug, &t.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// GetTagsForPost returns the tags attached to a post.
func (q *Queries) GetTagsForPost(ctx context.Context, postID int64) ([]model.Tag, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT t.id, t.org_id, t.name, t.slug, t.created_at
		FROM tags t JOIN post_tags pt ON pt.tag_id = t.id
		WHERE pt.post_id = ? ORDER BY t.name`, postID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.OrgID, &t.Name, &t.Slug, &t.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// AddTagToPostParams holds fields for AddTagToPost.
type AddTagToPostParams struct {
	PostID int64
	TagID  int64
}

// AddTagToPost attaches a tag to a post. Duplicate attachments are ignored.
func (q *Queries) AddTagToPost(ctx context.Context, arg AddTagToPostParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO post_tags (post_id, tag_id) VALUES (?, ?)`, arg.PostID, arg.TagID)
	return err
}

// ClearPostTags removes all tag attachments from a post.
func (q *Queries) ClearPostTags(ctx context.Context, postID int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = ?`, postID)
	return err
}

// DeleteTag removes a tag and its attachments.
func (q *Queries) DeleteTag(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	return err
}
