// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Client metadata limits, matching the column widths in the schema.
const (
	MaxIPAddressLength = 45
	MaxUserAgentLength = 512
)

// ClientMeta describes the client that opened a session.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

// truncated clamps metadata to the storable widths. Invalid UTF-8 is
// dropped and cuts land on rune boundaries.
func (m ClientMeta) truncated() ClientMeta {
	m.IPAddress = clampUTF8(m.IPAddress, MaxIPAddressLength)
	m.UserAgent = clampUTF8(m.UserAgent, MaxUserAgentLength)
	return m
}

func clampUTF8(s string, maxBytes int) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// RefreshSession is one login session, identified by the hash of the signed
// refresh token handed to the client. Once Revoked is set it is never
// cleared.
type RefreshSession struct {
	ID        ulid.ULID
	AccountID ulid.ULID
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}

// NewRefreshSession creates a validated RefreshSession.
func NewRefreshSession(accountID ulid.ULID, tokenHash string, expiresAt time.Time, meta ClientMeta, now time.Time) (*RefreshSession, error) {
	if accountID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("SESSION_INVALID_ACCOUNT").Errorf("account ID cannot be zero")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if !expiresAt.After(now) {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").
			With("expires_at", expiresAt).
			Errorf("expiry must be in the future")
	}

	meta = meta.truncated()
	return &RefreshSession{
		ID:        ulid.Make(),
		AccountID: accountID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		CreatedAt: now,
	}, nil
}

// IsExpiredAt reports whether the session is expired at t.
func (s *RefreshSession) IsExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// ClientMeta returns the metadata recorded when the session was opened.
func (s *RefreshSession) ClientMeta() ClientMeta {
	return ClientMeta{IPAddress: s.IPAddress, UserAgent: s.UserAgent}
}

// SessionSummary is the externally visible view of an active session.
type SessionSummary struct {
	ID        ulid.ULID `json:"id"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Summary strips the token hash from the session.
func (s *RefreshSession) Summary() SessionSummary {
	return SessionSummary{
		ID:        s.ID,
		IPAddress: s.IPAddress,
		UserAgent: s.UserAgent,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

// HashToken computes the hex SHA-256 of a token. Stores key rows by this
// value; plaintext tokens are never persisted.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// SessionRepository manages refresh session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *RefreshSession) error

	// GetByTokenHash retrieves a session regardless of its revoked state.
	// Returns ErrNotFound if no session has the given hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*RefreshSession, error)

	// Revoke marks the session revoked if it is not already. It reports
	// true only to the caller whose update performed the transition, so
	// concurrent callers presenting the same token cannot both win.
	// Revoking an unknown or revoked session is not an error.
	Revoke(ctx context.Context, tokenHash string) (bool, error)

	// RevokeAll revokes every unrevoked session of the account and returns
	// the number of sessions revoked.
	RevokeAll(ctx context.Context, accountID ulid.ULID) (int64, error)

	// ListActive returns unrevoked sessions expiring after now, newest first.
	ListActive(ctx context.Context, accountID ulid.ULID, now time.Time) ([]*RefreshSession, error)

	// DeleteExpired removes sessions whose expiry is at or before now,
	// revoked or not, and returns the count removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
