// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package usage implements the soft quota meter. Plans carry a monthly view
// allowance; crossing it never blocks traffic, it raises a response header
// and a debounced owner notification.
package usage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkwell-sh/inkwell/internal/mailer"
	"github.com/inkwell-sh/inkwell/internal/model"
	"github.com/inkwell-sh/inkwell/internal/store"
)

// WarningDebounce is the minimum interval between owner notifications for
// the same organization.
const WarningDebounce = 24 * time.Hour

// Meter tracks monthly view consumption against plan quotas.
type Meter struct {
	queries *store.Queries
	mailer  mailer.Mailer
	logger  *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewMeter creates a usage meter.
func NewMeter(queries *store.Queries, m mailer.Mailer, logger *slog.Logger) *Meter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Meter{
		queries: queries,
		mailer:  m,
		logger:  logger,
		now:     time.Now,
	}
}

// RecordView adds one view to the organization's monthly counter. Called
// once per successful post read, cache hits included, so the counter tracks
// delivery rather than database load.
func (m *Meter) RecordView(ctx context.Context, orgID int64) error {
	return m.queries.IncrementMonthlyViews(ctx, orgID)
}

// CheckWarning reports whether the organization has crossed its plan's
// monthly view allowance. Every over-quota request gets the warning, but
// the owner notification fires at most once per WarningDebounce.
//
// Notification side effects run best-effort: a failed email or timestamp
// write is logged and never fails the request.
func (m *Meter) CheckWarning(ctx context.Context, org model.Organization) bool {
	limits := model.LimitsForPlan(org.Plan)
	if org.MonthlyViews < limits.ViewsPerMonth {
		return false
	}

	now := m.now()
	if org.LastWarningAt.Valid && now.Sub(org.LastWarningAt.Time) < WarningDebounce {
		return true
	}

	if err := m.queries.SetLastWarningAt(ctx, store.SetLastWarningAtParams{
		ID:            org.ID,
		LastWarningAt: now,
	}); err != nil {
		m.logger.Error("failed to record usage warning timestamp",
			"org_id", org.ID, "error", err)
		return true
	}

	m.notify(ctx, org, limits)
	return true
}

func (m *Meter) notify(ctx context.Context, org model.Organization, limits model.PlanLimits) {
	email, err := m.queries.GetOrgAdminEmail(ctx, org.ID)
	if err != nil {
		m.logger.Error("failed to resolve admin email for usage warning",
			"org_id", org.ID, "error", err)
		return
	}

	msg := mailer.Message{
		To:      email,
		Subject: fmt.Sprintf("%s has reached its monthly view allowance", org.Name),
		Body: fmt.Sprintf(
			"Your organization has served %d views this month against the %s plan allowance of %d. "+
				"Content keeps being served; consider upgrading the plan.",
			org.MonthlyViews, org.Plan, limits.ViewsPerMonth),
	}
	if err := m.mailer.Send(ctx, msg); err != nil {
		m.logger.Error("failed to send usage warning",
			"org_id", org.ID, "error", err)
		return
	}

	m.logger.Warn("usage allowance reached",
		"org_id", org.ID,
		"plan", org.Plan,
		"monthly_views", org.MonthlyViews)
}
