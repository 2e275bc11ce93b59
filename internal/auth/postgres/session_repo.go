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

const sessionColumns = `id, account_id, token_hash, expires_at, revoked, ip_address, user_agent, created_at`

// SessionRepository implements auth.SessionRepository using PostgreSQL.
type SessionRepository struct {
	db DB
}

var _ auth.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores a new refresh session.
func (r *SessionRepository) Create(ctx context.Context, session *auth.RefreshSession) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO refresh_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		session.ID.String(),
		session.AccountID.String(),
		session.TokenHash,
		session.ExpiresAt,
		session.Revoked,
		session.IPAddress,
		session.UserAgent,
		session.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("SESSION_CREATE_FAILED").
				With("account_id", session.AccountID.String()).
				Wrap(auth.ErrConflict)
		}
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert refresh_session").
			With("account_id", session.AccountID.String()).
			Wrap(err)
	}
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.RefreshSession, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM refresh_sessions
		WHERE token_hash = $1
	`, tokenHash)

	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_BY_TOKEN_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}
	return session, nil
}

// Revoke marks the session revoked. Only the caller whose UPDATE changed
// the row gets true.
func (r *SessionRepository) Revoke(ctx context.Context, tokenHash string) (bool, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE refresh_sessions SET revoked = TRUE
		WHERE token_hash = $1 AND NOT revoked
	`, tokenHash)
	if err != nil {
		return false, oops.Code("SESSION_REVOKE_FAILED").
			With("operation", "revoke refresh_session").
			Wrap(err)
	}
	return result.RowsAffected() == 1, nil
}

// RevokeAll revokes every unrevoked session of the account.
func (r *SessionRepository) RevokeAll(ctx context.Context, accountID ulid.ULID) (int64, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE refresh_sessions SET revoked = TRUE
		WHERE account_id = $1 AND NOT revoked
	`, accountID.String())
	if err != nil {
		return 0, oops.Code("SESSION_REVOKE_ALL_FAILED").
			With("operation", "revoke account sessions").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// ListActive returns unrevoked sessions expiring after now, newest first.
func (r *SessionRepository) ListActive(ctx context.Context, accountID ulid.ULID, now time.Time) ([]*auth.RefreshSession, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM refresh_sessions
		WHERE account_id = $1 AND NOT revoked AND expires_at > $2
		ORDER BY created_at DESC, id DESC
	`, accountID.String(), now)
	if err != nil {
		return nil, oops.Code("SESSION_LIST_FAILED").
			With("operation", "list active sessions").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	defer rows.Close()

	var sessions []*auth.RefreshSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("SESSION_ROWS_ERROR").
			With("operation", "iterate session rows").
			Wrap(err)
	}
	return sessions, nil
}

// DeleteExpired removes sessions whose expiry is at or before now.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM refresh_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// scanSession scans a single row into a RefreshSession.
// Callers are responsible for handling pgx.ErrNoRows.
func scanSession(row pgx.Row) (*auth.RefreshSession, error) {
	var (
		idStr, accountIDStr string
		s                   auth.RefreshSession
	)
	err := row.Scan(
		&idStr,
		&accountIDStr,
		&s.TokenHash,
		&s.ExpiresAt,
		&s.Revoked,
		&s.IPAddress,
		&s.UserAgent,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("SESSION_SCAN_FAILED").
			With("operation", "scan session").
			Wrap(err)
	}

	if s.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("SESSION_INVALID_ID").With("id", idStr).Wrap(err)
	}
	if s.AccountID, err = ulid.Parse(accountIDStr); err != nil {
		return nil, oops.Code("SESSION_INVALID_ACCOUNT_ID").With("account_id", accountIDStr).Wrap(err)
	}
	return &s, nil
}
