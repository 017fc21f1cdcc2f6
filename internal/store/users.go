// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/inkwell-sh/inkwell/internal/model"
)

const userColumns = `id, org_id, name, email, password_hash, role, created_at, updated_at`

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.OrgID, &u.Name, &u.Email, &u.PasswordHash,
		&u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUserParams holds fields for CreateUser.
type CreateUserParams struct {
	OrgID        int64
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUser inserts a new organization member and returns it.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO users (org_id, name, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING `+userColumns,
		arg.OrgID, arg.Name, arg.Email, arg.PasswordHash, arg.Role, arg.CreatedAt, arg.UpdatedAt)
	return scanUser(row)
}

// GetUserByID returns the user with the given id.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail returns the user with the given email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// GetOrgAdminEmail returns the email of the organization's oldest admin.
// Usage warnings and lifecycle notifications go there.
func (q *Queries) GetOrgAdminEmail(ctx context.Context, orgID int64) (string, error) {
	var email string
	err := q.db.QueryRowContext(ctx,
		`SELECT email FROM users WHERE org_id = ? AND role = 'admin' ORDER BY id LIMIT 1`, orgID).
		Scan(&email)
	return email, err
}

// CountUsersByOrg returns the number of members in an organization.
func (q *Queries) CountUsersByOrg(ctx context.Context, orgID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE org_id = ?`, orgID).Scan(&count)
	return count, err
}
