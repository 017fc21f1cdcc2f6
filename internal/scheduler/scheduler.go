// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance: the monthly usage counter
// reset and housekeeping for in-process rate limiter state.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/inkwell-sh/inkwell/internal/store"
)

// Sweeper drops aged-out rate limiter state. The in-memory limiter
// implements it; the Redis limiter expires keys on its own.
type Sweeper interface {
	Sweep()
}

// Scheduler handles scheduled maintenance tasks.
type Scheduler struct {
	db      *sql.DB
	cron    *cron.Cron
	logger  *slog.Logger
	sweeper Sweeper
}

// New creates a new scheduler instance. sweeper may be nil.
func New(db *sql.DB, logger *slog.Logger, sweeper Sweeper) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		db:      db,
		cron:    cron.New(),
		logger:  logger,
		sweeper: sweeper,
	}
}

// Start registers the cron jobs and begins the scheduler.
func (s *Scheduler) Start() error {
	// Billing periods are calendar months: reset at midnight on the 1st.
	if _, err := s.cron.AddFunc("0 0 1 * *", func() {
		if err := s.ResetMonthlyViews(context.Background()); err != nil {
			s.logger.Error("failed to reset monthly views", "error", err)
		}
	}); err != nil {
		return err
	}

	if s.sweeper != nil {
		if _, err := s.cron.AddFunc("@hourly", func() {
			s.sweeper.Sweep()
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// ResetMonthlyViews zeroes every organization's view counter and clears
// the warning debounce so the new billing period starts clean.
func (s *Scheduler) ResetMonthlyViews(ctx context.Context) error {
	if err := store.New(s.db).ResetAllMonthlyViews(ctx); err != nil {
		return err
	}
	s.logger.Info("monthly view counters reset")
	return nil
}
