// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Account field constraints.
const (
	MaxNameLength  = 100
	MaxEmailLength = 255
)

// DefaultPermissions are granted to every account created through signup.
var DefaultPermissions = []string{"read", "write"}

// permissionSeparator delimits capability segments, e.g. "comments:delete".
const permissionSeparator = ':'

// Account is the root identity record. Refresh sessions and reset grants
// reference exactly one Account.
type Account struct {
	ID                  ulid.ULID  `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Active              bool       `json:"active"`
	LastAuthenticatedAt *time.Time `json:"last_authenticated_at,omitempty"`
	Permissions         []string   `json:"permissions"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// NewAccount creates a validated, active Account with DefaultPermissions.
// The email is normalized before it is stored.
func NewAccount(name, email, passwordHash string, now time.Time) (*Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("name", "name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return nil, invalidInput("name", "name is too long")
	}
	normalized, err := ValidateEmail(email)
	if err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("ACCOUNT_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	perms := make([]string, len(DefaultPermissions))
	copy(perms, DefaultPermissions)

	return &Account{
		ID:           ulid.Make(),
		Name:         name,
		Email:        normalized,
		PasswordHash: passwordHash,
		Active:       true,
		Permissions:  perms,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail normalizes email and checks that it is a bare address.
func ValidateEmail(email string) (string, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return "", invalidInput("email", "email cannot be empty")
	}
	if len(normalized) > MaxEmailLength {
		return "", invalidInput("email", "email is too long")
	}
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return "", invalidInput("email", "email is not a valid address")
	}
	return normalized, nil
}

// HasCapability reports whether the account is active and holds a
// permission pattern matching name. Patterns use ':' separated segments,
// so "comments:*" matches "comments:delete" but not "comments:a:b".
func (a *Account) HasCapability(name string) bool {
	if a == nil || !a.Active || name == "" {
		return false
	}
	for _, p := range a.Permissions {
		if p == name {
			return true
		}
		g, err := glob.Compile(p, permissionSeparator)
		if err != nil {
			continue
		}
		if g.Match(name) {
			return true
		}
	}
	return false
}

// ValidatePermissions checks that every pattern compiles.
func ValidatePermissions(perms []string) error {
	for _, p := range perms {
		if strings.TrimSpace(p) == "" {
			return invalidInput("permissions", "permission cannot be empty")
		}
		if _, err := glob.Compile(p, permissionSeparator); err != nil {
			return oops.Code(CodeInvalidInput).
				With("field", "permissions").
				With("pattern", p).
				Wrapf(ErrInvalidInput, "invalid permission pattern: %v", err)
		}
	}
	return nil
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account. Returns an error wrapping ErrConflict if
	// the email is already registered.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByEmail retrieves an account by normalized email.
	// Returns ErrNotFound if no account has the given email.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// UpdateLastAuthenticated records a successful authentication.
	UpdateLastAuthenticated(ctx context.Context, id ulid.ULID, at time.Time) error

	// UpdatePassword replaces the password hash.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error

	// SetActive sets or clears the active flag.
	SetActive(ctx context.Context, id ulid.ULID, active bool) error

	// SetPermissions replaces the permission set.
	SetPermissions(ctx context.Context, id ulid.ULID, permissions []string) error
}
