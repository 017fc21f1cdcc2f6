// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mailer defines the outbound notification seam. The usage meter
// and lifecycle code talk to the Mailer interface; deployments without an
// SMTP relay run the log-backed implementation.
package mailer

import (
	"context"
	"log/slog"
)

// Message is a single outbound notification.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends notifications to organization owners.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes notifications to the structured log instead of sending
// them. Used in development and in tests.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a log-backed mailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

// Send logs the message.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("mail notification",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body)
	return nil
}

var _ Mailer = (*LogMailer)(nil)
