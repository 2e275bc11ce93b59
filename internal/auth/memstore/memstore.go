// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package memstore provides in-memory implementations of the auth
// repositories. They honor the same atomicity contracts as the PostgreSQL
// repositories and are used by tests and the memory storage driver.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/authd/internal/auth"
)

// Store holds all three repositories behind a single lock.
type Store struct {
	mu       sync.Mutex
	accounts map[ulid.ULID]*auth.Account
	sessions map[string]*auth.RefreshSession
	resets   map[string]*auth.PasswordReset
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		accounts: make(map[ulid.ULID]*auth.Account),
		sessions: make(map[string]*auth.RefreshSession),
		resets:   make(map[string]*auth.PasswordReset),
	}
}

// Accounts returns the account repository view of the store.
func (s *Store) Accounts() *AccountRepository { return &AccountRepository{s: s} }

// Sessions returns the session repository view of the store.
func (s *Store) Sessions() *SessionRepository { return &SessionRepository{s: s} }

// Resets returns the reset repository view of the store.
func (s *Store) Resets() *ResetRepository { return &ResetRepository{s: s} }

func copyAccount(a *auth.Account) *auth.Account {
	c := *a
	c.Permissions = append([]string(nil), a.Permissions...)
	if a.LastAuthenticatedAt != nil {
		t := *a.LastAuthenticatedAt
		c.LastAuthenticatedAt = &t
	}
	return &c
}

func notFound(code string) error {
	return oops.Code(code).Wrap(auth.ErrNotFound)
}

// AccountRepository implements auth.AccountRepository.
type AccountRepository struct{ s *Store }

var _ auth.AccountRepository = (*AccountRepository)(nil)

// Create implements auth.AccountRepository.
func (r *AccountRepository) Create(_ context.Context, account *auth.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, a := range r.s.accounts {
		if a.Email == account.Email {
			return oops.Code("ACCOUNT_EMAIL_EXISTS").With("email", account.Email).Wrap(auth.ErrConflict)
		}
	}
	r.s.accounts[account.ID] = copyAccount(account)
	return nil
}

// GetByID implements auth.AccountRepository.
func (r *AccountRepository) GetByID(_ context.Context, id ulid.ULID) (*auth.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return nil, notFound("ACCOUNT_NOT_FOUND")
	}
	return copyAccount(a), nil
}

// GetByEmail implements auth.AccountRepository.
func (r *AccountRepository) GetByEmail(_ context.Context, email string) (*auth.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, a := range r.s.accounts {
		if a.Email == email {
			return copyAccount(a), nil
		}
	}
	return nil, notFound("ACCOUNT_NOT_FOUND")
}

func (r *AccountRepository) update(id ulid.ULID, fn func(*auth.Account)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return notFound("ACCOUNT_NOT_FOUND")
	}
	fn(a)
	return nil
}

// UpdateLastAuthenticated implements auth.AccountRepository.
func (r *AccountRepository) UpdateLastAuthenticated(_ context.Context, id ulid.ULID, at time.Time) error {
	return r.update(id, func(a *auth.Account) {
		a.LastAuthenticatedAt = &at
		a.UpdatedAt = at
	})
}

// UpdatePassword implements auth.AccountRepository.
func (r *AccountRepository) UpdatePassword(_ context.Context, id ulid.ULID, passwordHash string) error {
	return r.update(id, func(a *auth.Account) {
		a.PasswordHash = passwordHash
		a.UpdatedAt = time.Now()
	})
}

// SetActive implements auth.AccountRepository.
func (r *AccountRepository) SetActive(_ context.Context, id ulid.ULID, active bool) error {
	return r.update(id, func(a *auth.Account) {
		a.Active = active
		a.UpdatedAt = time.Now()
	})
}

// SetPermissions implements auth.AccountRepository.
func (r *AccountRepository) SetPermissions(_ context.Context, id ulid.ULID, permissions []string) error {
	return r.update(id, func(a *auth.Account) {
		a.Permissions = append([]string(nil), permissions...)
		a.UpdatedAt = time.Now()
	})
}

// SessionRepository implements auth.SessionRepository.
type SessionRepository struct{ s *Store }

var _ auth.SessionRepository = (*SessionRepository)(nil)

// Create implements auth.SessionRepository.
func (r *SessionRepository) Create(_ context.Context, session *auth.RefreshSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[session.AccountID]; !ok {
		return oops.Code("SESSION_CREATE_FAILED").
			With("account_id", session.AccountID.String()).
			Errorf("account does not exist")
	}
	if _, ok := r.s.sessions[session.TokenHash]; ok {
		return oops.Code("SESSION_CREATE_FAILED").Wrap(auth.ErrConflict)
	}
	c := *session
	r.s.sessions[session.TokenHash] = &c
	return nil
}

// GetByTokenHash implements auth.SessionRepository.
func (r *SessionRepository) GetByTokenHash(_ context.Context, tokenHash string) (*auth.RefreshSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[tokenHash]
	if !ok {
		return nil, notFound("SESSION_NOT_FOUND")
	}
	c := *sess
	return &c, nil
}

// Revoke implements auth.SessionRepository.
func (r *SessionRepository) Revoke(_ context.Context, tokenHash string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[tokenHash]
	if !ok || sess.Revoked {
		return false, nil
	}
	sess.Revoked = true
	return true, nil
}

// RevokeAll implements auth.SessionRepository.
func (r *SessionRepository) RevokeAll(_ context.Context, accountID ulid.ULID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, sess := range r.s.sessions {
		if sess.AccountID == accountID && !sess.Revoked {
			sess.Revoked = true
			n++
		}
	}
	return n, nil
}

// ListActive implements auth.SessionRepository.
func (r *SessionRepository) ListActive(_ context.Context, accountID ulid.ULID, now time.Time) ([]*auth.RefreshSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*auth.RefreshSession
	for _, sess := range r.s.sessions {
		if sess.AccountID == accountID && !sess.Revoked && sess.ExpiresAt.After(now) {
			c := *sess
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.Compare(out[j].ID) > 0
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteExpired implements auth.SessionRepository.
func (r *SessionRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for hash, sess := range r.s.sessions {
		if !sess.ExpiresAt.After(now) {
			delete(r.s.sessions, hash)
			n++
		}
	}
	return n, nil
}

// ResetRepository implements auth.ResetRepository.
type ResetRepository struct{ s *Store }

var _ auth.ResetRepository = (*ResetRepository)(nil)

// Create implements auth.ResetRepository.
func (r *ResetRepository) Create(_ context.Context, reset *auth.PasswordReset) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[reset.AccountID]; !ok {
		return oops.Code("RESET_CREATE_FAILED").
			With("account_id", reset.AccountID.String()).
			Errorf("account does not exist")
	}
	if _, ok := r.s.resets[reset.TokenHash]; ok {
		return oops.Code("RESET_CREATE_FAILED").Wrap(auth.ErrConflict)
	}
	c := *reset
	r.s.resets[reset.TokenHash] = &c
	return nil
}

// GetUsable implements auth.ResetRepository.
func (r *ResetRepository) GetUsable(_ context.Context, tokenHash string) (*auth.PasswordReset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reset, ok := r.s.resets[tokenHash]
	if !ok || reset.Used {
		return nil, notFound("RESET_NOT_FOUND")
	}
	c := *reset
	return &c, nil
}

// MarkUsed implements auth.ResetRepository.
func (r *ResetRepository) MarkUsed(_ context.Context, tokenHash string, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reset, ok := r.s.resets[tokenHash]
	if !ok || reset.Used || !reset.ExpiresAt.After(now) {
		return false, nil
	}
	reset.Used = true
	return true, nil
}

// InvalidateAll implements auth.ResetRepository.
func (r *ResetRepository) InvalidateAll(_ context.Context, accountID ulid.ULID, _ time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, reset := range r.s.resets {
		if reset.AccountID == accountID && !reset.Used {
			reset.Used = true
			n++
		}
	}
	return n, nil
}

// DeleteExpired implements auth.ResetRepository.
func (r *ResetRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for hash, reset := range r.s.resets {
		if !reset.ExpiresAt.After(now) {
			delete(r.s.resets, hash)
			n++
		}
	}
	return n, nil
}
