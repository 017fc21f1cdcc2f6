// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/inkwell-sh/inkwell/internal/model"
)

// CreateWebhookParams holds fields for CreateWebhook.
type CreateWebhookParams struct {
	OrgID     int64
	URL       string
	Secret    string
	Events    string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateWebhook inserts a webhook subscription and returns it.
func (q *Queries) CreateWebhook(ctx context.Context, arg CreateWebhookParams) (model.Webhook, error) {
	var w model.Webhook
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO webhooks (org_id, url, secret, events, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id, org_id, url, secret, events, is_active, created_at, updated_at`,
		arg.OrgID, arg.URL, arg.Secret, arg.Events, arg.IsActive, arg.CreatedAt, arg.UpdatedAt).
		Scan(&w.ID, &w.OrgID, &w.URL, &w.Secret, &w.Events, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

// ListActiveWebhooksByOrg returns an organization's active webhooks.
func (q *Queries) ListActiveWebhooksByOrg(ctx context.Context, orgID int64) ([]model.Webhook, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, org_id, url, secret, events, is_active, created_at, updated_at
		FROM webhooks WHERE org_id = ? AND is_active = 1`, orgID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var webhooks []model.Webhook
	for rows.Next() {
		var w model.Webhook
		if err := rows.Scan(&w.ID, &w.OrgID, &w.URL, &w.Secret, &w.Events, &w.IsActive,
			&w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		webhooks = append(webhooks, w)
	}
	return webhooks, rows.Err()
}

// ListWebhooksByOrg returns all of an organization's webhooks, active or not.
func (q *Queries) ListWebhooksByOrg(ctx context.Context, orgID int64) ([]model.Webhook, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, org_id, url, secret, events, is_active, created_at, updated_at
		FROM webhooks WHERE org_id = ? ORDER BY id`, orgID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var webhooks []model.Webhook
	for rows.Next() {
		var w model.Webhook
		if err := rows.Scan(&w.ID, &w.OrgID, &w.URL, &w.Secret, &w.Events, &w.IsActive,
			&w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		webhooks = append(webhooks, w)
	}
	return webhooks, rows.Err()
}

// GetWebhookByID returns the webhook with the given id.
func (q *Queries) GetWebhookByID(ctx context.Context, id int64) (model.Webhook, error) {
	var w model.Webhook
	err := q.db.QueryRowContext(ctx, `
		SELECT id, org_id, url, secret, events, is_active, created_at, updated_at
		FROM webhooks WHERE id = ?`, id).
		Scan(&w.ID, &w.OrgID, &w.URL, &w.Secret, &w.Events, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

// DeleteWebhook removes a webhook subscription and its delivery history.
func (q *Queries) DeleteWebhook(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id = ?`, id)
	return err
}

// CreateWebhookDeliveryParams holds fields for CreateWebhookDelivery.
type CreateWebhookDeliveryParams struct {
	WebhookID int64
	Event     string
	Payload   string
	CreatedAt time.Time
}

// CreateWebhookDelivery records a pending delivery and returns its id.
func (q *Queries) CreateWebhookDelivery(ctx context.Context, arg CreateWebhookDeliveryParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO webhook_deliveries (webhook_id, event, payload, status, created_at, updated_at)
		VALUES (?, ?, ?, 'pending', ?, ?)
		RETURNING id`,
		arg.WebhookID, arg.Event, arg.Payload, arg.CreatedAt, arg.CreatedAt).Scan(&id)
	return id, err
}

// FinishWebhookDeliveryParams holds fields for FinishWebhookDelivery.
type FinishWebhookDeliveryParams struct {
	ID           int64
	Status       string
	Attempts     int64
	ResponseCode sql.NullInt64
	DeliveredAt  sql.NullTime
}

// FinishWebhookDelivery records the outcome of a delivery attempt stream.
func (q *Queries) FinishWebhookDelivery(ctx context.Context, arg FinishWebhookDeliveryParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE webhook_deliveries
		SET status = ?, attempts = ?, response_code = ?, delivered_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		arg.Status, arg.Attempts, arg.ResponseCode, arg.DeliveredAt, arg.ID)
	return err
}

// CreateEventParams holds fields for CreateEvent.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent appends an entry to the event log.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO events (level, category, message, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		arg.Level, arg.Category, arg.Message, arg.Metadata, arg.CreatedAt)
	return err
}
