// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/inkwell-sh/inkwell/internal/model"
)

// CreateCommentParams holds fields for CreateComment.
type CreateCommentParams struct {
	PostID      int64
	Content     string
	AuthorName  string
	AuthorEmail string
	Approved    bool
	CreatedAt   time.Time
}

// CreateComment inserts a reader comment and returns it.
func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (model.Comment, error) {
	var c model.Comment
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO comments (post_id, content, author_name, author_email, approved, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, post_id, content, author_name, author_email, approved, created_at`,
		arg.PostID, arg.Content, arg.AuthorName, arg.AuthorEmail, arg.Approved, arg.CreatedAt).
		Scan(&c.ID, &c.PostID, &c.Content, &c.AuthorName, &c.AuthorEmail, &c.Approved, &c.CreatedAt)
	return c, err
}

// ListApprovedCommentsByPost returns a post's approved comments, oldest first.
func (q *Queries) ListApprovedCommentsByPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, post_id, content, author_name, author_email, approved, created_at
		FROM comments WHERE post_id = ? AND approved = 1 ORDER BY created_at`, postID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.Content, &c.AuthorName, &c.AuthorEmail,
			&c.Approved, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// GetCommentByID returns the comment with the given id.
func (q *Queries) GetCommentByID(ctx context.Context, id int64) (model.Comment, error) {
	var c model.Comment
	err := q.db.QueryRowContext(ctx, `
		SELECT id, post_id, content, author_name, author_email, approved, created_at
		FROM comments WHERE id = ?`, id).
		Scan(&c.ID, &c.PostID, &c.Content, &c.AuthorName, &c.AuthorEmail, &c.Approved, &c.CreatedAt)
	return c, err
}

// ListPendingCommentsByOrg returns unapproved comments across an
// organization's posts, oldest first, for the moderation queue.
func (q *Queries) ListPendingCommentsByOrg(ctx context.Context, orgID int64) ([]model.Comment, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT c.id, c.post_id, c.content, c.author_name, c.author_email, c.approved, c.created_at
		FROM comments c JOIN posts p ON p.id = c.post_id
		WHERE p.org_id = ? AND c.approved = 0 ORDER BY c.created_at`, orgID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.Content, &c.AuthorName, &c.AuthorEmail,
			&c.Approved, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// ApproveComment marks a comment as approved.
func (q *Queries) ApproveComment(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `UPDATE comments SET approved = 1 WHERE id = ?`, id)
	return err
}

// DeleteComment removes a comment.
func (q *Queries) DeleteComment(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	return err
}

// CreateNewsletterSubscriberParams holds fields for CreateNewsletterSubscriber.
type CreateNewsletterSubscriberParams struct {
	OrgID     int64
	Email     string
	CreatedAt time.Time
}

// CreateNewsletterSubscriber records a newsletter signup.
// Duplicate signups for the same org are ignored.
func (q *Queries) CreateNewsletterSubscriber(ctx context.Context, arg CreateNewsletterSubscriberParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO newsletter_subscribers (org_id, email, created_at)
		VALUES (?, ?, ?)`,
		arg.OrgID, arg.Email, arg.CreatedAt)
	return err
}

// CountNewsletterSubscribers returns the number of subscribers for an organization.
func (q *Queries) CountNewsletterSubscribers(ctx context.Context, orgID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM newsletter_subscribers WHERE org_id = ?`, orgID).Scan(&count)
	return count, err
}
