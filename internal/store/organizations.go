// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/inkwell-sh/inkwell/internal/model"
)

const organizationColumns = `id, name, slug, api_key_hash, api_key_prefix, plan,
	monthly_views, last_warning_at, created_at, updated_at`

func scanOrganization(row *sql.Row) (model.Organization, error) {
	var o model.Organization
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &o.APIKeyHash, &o.APIKeyPrefix,
		&o.Plan, &o.MonthlyViews, &o.LastWarningAt, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// CreateOrganizationParams holds fields for CreateOrganization.
type CreateOrganizationParams struct {
	Name         string
	Slug         string
	APIKeyHash   string
	APIKeyPrefix string
	Plan         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateOrganization inserts a new tenant and returns it.
func (q *Queries) CreateOrganization(ctx context.Context, arg CreateOrganizationParams) (model.Organization, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO organizations (name, slug, api_key_hash, api_key_prefix, plan, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING `+organizationColumns,
		arg.Name, arg.Slug, arg.APIKeyHash, arg.APIKeyPrefix, arg.Plan, arg.CreatedAt, arg.UpdatedAt)
	return scanOrganization(row)
}

// GetOrganizationByID returns the organization with the given id.
func (q *Queries) GetOrganizationByID(ctx context.Context, id int64) (model.Organization, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE id = ?`, id)
	return scanOrganization(row)
}

// GetOrganizationByKeyHash resolves an API key hash to exactly one organization.
func (q *Queries) GetOrganizationByKeyHash(ctx context.Context, keyHash string) (model.Organization, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE api_key_hash = ?`, keyHash)
	return scanOrganization(row)
}

// IncrementMonthlyViews adds one view to the organization's monthly counter.
// A single atomic UPDATE; no read-modify-write at the application layer.
func (q *Queries) IncrementMonthlyViews(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE organizations SET monthly_views = monthly_views + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

// SetLastWarningAtParams holds fields for SetLastWarningAt.
type SetLastWarningAtParams struct {
	ID            int64
	LastWarningAt time.Time
}

// SetLastWarningAt records when a usage warning was last raised for the org.
func (q *Queries) SetLastWarningAt(ctx context.Context, arg SetLastWarningAtParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE organizations SET last_warning_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		arg.LastWarningAt, arg.ID)
	return err
}

// RotateAPIKeyParams holds fields for RotateAPIKey.
type RotateAPIKeyParams struct {
	ID           int64
	APIKeyHash   string
	APIKeyPrefix string
}

// RotateAPIKey replaces the organization's key hash in one UPDATE.
// The previous key stops resolving the moment this statement commits.
func (q *Queries) RotateAPIKey(ctx context.Context, arg RotateAPIKeyParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE organizations SET api_key_hash = ?, api_key_prefix = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		arg.APIKeyHash, arg.APIKeyPrefix, arg.ID)
	return err
}

// ResetAllMonthlyViews zeroes every tenant's view counter and clears the
// warning debounce timestamp. Run by the monthly scheduler job.
func (q *Queries) ResetAllMonthlyViews(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE organizations SET monthly_views = 0, last_warning_at = NULL, updated_at = CURRENT_TIMESTAMP`)
	return err
}
