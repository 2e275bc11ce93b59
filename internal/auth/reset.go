// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultResetMessage is returned by ForgotPassword whether or not the email
// belongs to an account.
const DefaultResetMessage = "If an account with that email exists, a password reset link has been sent."

// PasswordReset is a single-use credential-recovery grant. TokenHash is the
// hash of the opaque grant identifier carried in the signed reset token.
type PasswordReset struct {
	ID        ulid.ULID
	AccountID ulid.ULID
	TokenHash string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// NewPasswordReset creates a validated PasswordReset.
func NewPasswordReset(accountID ulid.ULID, tokenHash string, expiresAt, now time.Time) (*PasswordReset, error) {
	if accountID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("RESET_INVALID_ACCOUNT").Errorf("account ID cannot be zero")
	}
	if tokenHash == "" {
		return nil, oops.Code("RESET_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if !expiresAt.After(now) {
		return nil, oops.Code("RESET_INVALID_EXPIRY").
			With("expires_at", expiresAt).
			Errorf("expiry must be in the future")
	}
	return &PasswordReset{
		ID:        ulid.Make(),
		AccountID: accountID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// IsExpiredAt reports whether the grant is expired at t.
func (r *PasswordReset) IsExpiredAt(t time.Time) bool {
	return !t.Before(r.ExpiresAt)
}

// ResetRequest is the result of ForgotPassword. Token is only populated when
// diagnostics exposure is enabled; otherwise it travels out-of-band through
// the ResetNotifier.
type ResetRequest struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// ResetRepository manages password reset persistence.
type ResetRepository interface {
	// Create stores a new grant.
	Create(ctx context.Context, reset *PasswordReset) error

	// GetUsable retrieves an unused grant by token hash. Expired grants are
	// returned so the caller can distinguish expiry.
	// Returns ErrNotFound if no unused grant has the given hash.
	GetUsable(ctx context.Context, tokenHash string) (*PasswordReset, error)

	// MarkUsed consumes the grant if it is unused and unexpired at now. It
	// reports true only to the caller whose update performed the transition.
	MarkUsed(ctx context.Context, tokenHash string, now time.Time) (bool, error)

	// InvalidateAll marks every unused grant for the account as used and
	// returns the count affected.
	InvalidateAll(ctx context.Context, accountID ulid.ULID, now time.Time) (int64, error)

	// DeleteExpired removes grants whose expiry is at or before now and
	// returns the count removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ResetNotifier delivers a signed reset token to the account holder.
type ResetNotifier interface {
	NotifyPasswordReset(ctx context.Context, account *Account, token string, expiresAt time.Time) error
}
