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

const accountColumns = `id, name, email, password_hash, active, last_authenticated_at, permissions, created_at, updated_at`

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db DB
}

var _ auth.AccountRepository = (*AccountRepository)(nil)

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		account.ID.String(),
		account.Name,
		account.Email,
		account.PasswordHash,
		account.Active,
		account.LastAuthenticatedAt,
		account.Permissions,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("ACCOUNT_EMAIL_EXISTS").
				With("email", account.Email).
				Wrap(auth.ErrConflict)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("account_id", account.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id.String())

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").
			With("operation", "get account by id").
			With("id", id.String()).
			Wrap(err)
	}
	return account, nil
}

// GetByEmail retrieves an account by normalized email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}
	return account, nil
}

// UpdateLastAuthenticated records a successful authentication.
func (r *AccountRepository) UpdateLastAuthenticated(ctx context.Context, id ulid.ULID, at time.Time) error {
	return r.update(ctx, "update last_authenticated_at", id, `
		UPDATE accounts SET last_authenticated_at = $2, updated_at = $2
		WHERE id = $1
	`, id.String(), at)
}

// UpdatePassword replaces the password hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	return r.update(ctx, "update password_hash", id, `
		UPDATE accounts SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`, id.String(), passwordHash)
}

// SetActive sets or clears the active flag.
func (r *AccountRepository) SetActive(ctx context.Context, id ulid.ULID, active bool) error {
	return r.update(ctx, "update active", id, `
		UPDATE accounts SET active = $2, updated_at = NOW()
		WHERE id = $1
	`, id.String(), active)
}

// SetPermissions replaces the permission set.
func (r *AccountRepository) SetPermissions(ctx context.Context, id ulid.ULID, permissions []string) error {
	if permissions == nil {
		permissions = []string{}
	}
	return r.update(ctx, "update permissions", id, `
		UPDATE accounts SET permissions = $2, updated_at = NOW()
		WHERE id = $1
	`, id.String(), permissions)
}

func (r *AccountRepository) update(ctx context.Context, operation string, id ulid.ULID, sql string, args ...any) error {
	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", operation).
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanAccount scans a single row into an Account.
// Callers are responsible for handling pgx.ErrNoRows.
func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		idStr string
		a     auth.Account
	)
	err := row.Scan(
		&idStr,
		&a.Name,
		&a.Email,
		&a.PasswordHash,
		&a.Active,
		&a.LastAuthenticatedAt,
		&a.Permissions,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").
			With("operation", "scan account").
			Wrap(err)
	}

	a.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}
	return &a, nil
}
