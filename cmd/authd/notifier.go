// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/holomush/authd/internal/auth"
)

// logNotifier records that a reset was requested. Delivery to the account
// holder is left to an external mailer; the token itself is never logged.
type logNotifier struct {
	logger *slog.Logger
}

func newLogNotifier(logger *slog.Logger) *logNotifier {
	return &logNotifier{logger: logger.With("component", "reset_notifier")}
}

func (n *logNotifier) NotifyPasswordReset(ctx context.Context, account *auth.Account, _ string, expiresAt time.Time) error {
	n.logger.InfoContext(ctx, "password reset requested",
		"account_id", account.ID.String(),
		"expires_at", expiresAt,
	)
	return nil
}

var _ auth.ResetNotifier = (*logNotifier)(nil)
