// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/authd/internal/auth"
)

// ResetRepository implements auth.ResetRepository using PostgreSQL.
type ResetRepository struct {
	db DB
}

var _ auth.ResetRepository = (*ResetRepository)(nil)

// NewResetRepository creates a new ResetRepository.
func NewResetRepository(db DB) *ResetRepository {
	return &ResetRepository{db: db}
}

// Create stores a new password reset grant.
func (r *ResetRepository) Create(ctx context.Context, reset *auth.PasswordReset) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO password_resets (id, account_id, token_hash, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, reset.ID.String(), reset.AccountID.String(), reset.TokenHash, reset.ExpiresAt, reset.Used, reset.CreatedAt)
	if err != nil {
		return oops.Code("RESET_CREATE_FAILED").
			With("operation", "insert password_reset").
			With("account_id", reset.AccountID.String()).
			Wrap(err)
	}
	return nil
}

// GetUsable retrieves an unused grant by token hash, expired or not.
func (r *ResetRepository) GetUsable(ctx context.Context, tokenHash string) (*auth.PasswordReset, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, account_id, token_hash, expires_at, used, created_at
		FROM password_resets
		WHERE token_hash = $1 AND NOT used
	`, tokenHash)

	var (
		idStr, accountIDStr string
		reset               auth.PasswordReset
	)
	err := row.Scan(&idStr, &accountIDStr, &reset.TokenHash, &reset.ExpiresAt, &reset.Used, &reset.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("RESET_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("RESET_GET_FAILED").
			With("operation", "get password reset").
			Wrap(err)
	}

	if reset.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("RESET_INVALID_ID").With("id", idStr).Wrap(err)
	}
	if reset.AccountID, err = ulid.Parse(accountIDStr); err != nil {
		return nil, oops.Code("RESET_INVALID_ACCOUNT_ID").With("account_id", accountIDStr).Wrap(err)
	}
	return &reset, nil
}

// MarkUsed consumes the grant if it is unused and unexpired at now.
func (r *ResetRepository) MarkUsed(ctx context.Context, tokenHash string, now time.Time) (bool, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE password_resets SET used = TRUE, used_at = $2
		WHERE token_hash = $1 AND NOT used AND expires_at > $2
	`, tokenHash, now)
	if err != nil {
		return false, oops.Code("RESET_MARK_USED_FAILED").
			With("operation", "mark password_reset used").
			Wrap(err)
	}
	return result.RowsAffected() == 1, nil
}

// InvalidateAll marks every unused grant for the account as used.
func (r *ResetRepository) InvalidateAll(ctx context.Context, accountID ulid.ULID, now time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE password_resets SET used = TRUE, used_at = $2
		WHERE account_id = $1 AND NOT used
	`, accountID.String(), now)
	if err != nil {
		return 0, oops.Code("RESET_INVALIDATE_FAILED").
			With("operation", "invalidate password_resets").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// DeleteExpired removes grants whose expiry is at or before now.
func (r *ResetRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM password_resets WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, oops.Code("RESET_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired password_resets").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}
