// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/inkwell-sh/inkwell/internal/model"
)

const draftColumns = `id, org_id, author_id, post_id, title, slug, body, excerpt,
	featured_image, meta_title, meta_description, category_id, created_at, updated_at`

func scanDraft(row *sql.Row) (model.Draft, error) {
	var d model.Draft
	err := row.Scan(&d.ID, &d.OrgID, &d.AuthorID, &d.PostID, &d.Title, &d.Slug,
		&d.Body, &d.Excerpt, &d.FeaturedImage, &d.MetaTitle, &d.MetaDescription,
		&d.CategoryID, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// CreateDraftParams holds fields for CreateDraft.
type CreateDraftParams struct {
	OrgID           int64
	AuthorID        int64
	PostID          sql.NullInt64
	Title           string
	Slug            string
	Body            string
	Excerpt         string
	FeaturedImage   string
	MetaTitle       string
	MetaDescription string
	CategoryID      sql.NullInt64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateDraft inserts a new draft and returns it.
func (q *Queries) CreateDraft(ctx context.Context, arg CreateDraftParams) (model.Draft, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO drafts (org_id, author_id, post_id, title, slug, body, excerpt,
			featured_image, meta_title, meta_description, category_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+draftColumns,
		arg.OrgID, arg.AuthorID, arg.PostID, arg.Title, arg.Slug, arg.Body, arg.Excerpt,
		arg.FeaturedImage, arg.MetaTitle, arg.MetaDescription, arg.CategoryID,
		arg.CreatedAt, arg.UpdatedAt)
	return scanDraft(row)
}

// GetDraftByID returns the draft with the given id.
func (q *Queries) GetDraftByID(ctx context.Context, id int64) (model.Draft, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+draftColumns+` FROM drafts WHERE id = ?`, id)
	return scanDraft(row)
}

// UpdateDraftParams holds fields for UpdateDraft. The caller supplies every
// column value; partial updates are resolved before this layer.
type UpdateDraftParams struct {
	ID              int64
	Title           string
	Slug            string
	Body            string
	Excerpt         string
	FeaturedImage   string
	MetaTitle       string
	MetaDescription string
	CategoryID      sql.NullInt64
	UpdatedAt       time.Time
}

// UpdateDraft writes all content fields of a draft and returns the updated row.
func (q *Queries) UpdateDraft(ctx context.Context, arg UpdateDraftParams) (model.Draft, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE drafts SET title = ?, slug = ?, body = ?, excerpt = ?, featured_image = ?,
			meta_title = ?, meta_description = ?, category_id = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+draftColumns,
		arg.Title, arg.Slug, arg.Body, arg.Excerpt, arg.FeaturedImage,
		arg.MetaTitle, arg.MetaDescription, arg.CategoryID, arg.UpdatedAt, arg.ID)
	return scanDraft(row)
}

// DeleteDraft removes a draft.
func (q *Queries) DeleteDraft(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id)
	return err
}

// ListDraftsByOrgParams holds fields for ListDraftsByOrg.
type ListDraftsByOrgParams struct {
	OrgID  int64
	Limit  int64
	Offset int64
}

// ListDraftsByOrg returns an organization's drafts, most recently updated first.
func (q *Queries) ListDraftsByOrg(ctx context.Context, arg ListDraftsByOrgParams) ([]model.Draft, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+draftColumns+` FROM drafts
		WHERE org_id = ? ORDER BY updated_at DESC LIMIT ? OFFSET ?`,
		arg.OrgID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var drafts []model.Draft
	for rows.Next() {
		var d model.Draft
		if err := rows.Scan(&d.ID, &d.OrgID, &d.AuthorID, &d.PostID, &d.Title, &d.Slug,
			&d.Body, &d.Excerpt, &d.FeaturedImage, &d.MetaTitle, &d.MetaDescription,
			&d.CategoryID, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}
