// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// TokenKind distinguishes the purposes a signed token can serve. Each kind
// is signed with its own secret.
type TokenKind string

// Token kinds.
const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
	KindReset   TokenKind = "reset"
)

// Codec constraints.
const (
	MinSecretLength   = 32
	OpaqueSecretBytes = 32 // 256 bits
)

// CodecConfig holds signing material and lifetimes for each token kind.
type CodecConfig struct {
	Issuer        string
	AccessSecret  []byte
	RefreshSecret []byte
	ResetSecret   []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ResetTTL      time.Duration
}

// TokenClaims is the verified content of a signed token.
type TokenClaims struct {
	Kind      TokenKind
	Subject   string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Extra     map[string]string
}

type jwtClaims struct {
	jwt.RegisteredClaims
	Kind  TokenKind         `json:"kind"`
	Extra map[string]string `json:"ext,omitempty"`
}

type codecKey struct {
	secret []byte
	ttl    time.Duration
}

// Codec mints and verifies HS256 tokens. Verification is stateless.
type Codec struct {
	issuer string
	keys   map[TokenKind]codecKey
	now    func() time.Time
}

// NewCodec creates a Codec. The secrets must each be at least
// MinSecretLength bytes and pairwise distinct. If now is nil, time.Now is
// used.
func NewCodec(cfg CodecConfig, now func() time.Time) (*Codec, error) {
	if cfg.Issuer == "" {
		return nil, oops.Code("CODEC_INVALID_CONFIG").Errorf("issuer is required")
	}
	keys := map[TokenKind]codecKey{
		KindAccess:  {secret: cfg.AccessSecret, ttl: cfg.AccessTTL},
		KindRefresh: {secret: cfg.RefreshSecret, ttl: cfg.RefreshTTL},
		KindReset:   {secret: cfg.ResetSecret, ttl: cfg.ResetTTL},
	}
	for kind, k := range keys {
		if len(k.secret) < MinSecretLength {
			return nil, oops.Code("CODEC_INVALID_CONFIG").
				With("kind", kind).
				With("min", MinSecretLength).
				Errorf("%s secret must be at least %d bytes", kind, MinSecretLength)
		}
		if k.ttl <= 0 {
			return nil, oops.Code("CODEC_INVALID_CONFIG").
				With("kind", kind).
				Errorf("%s ttl must be positive", kind)
		}
	}
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) ||
		bytes.Equal(cfg.AccessSecret, cfg.ResetSecret) ||
		bytes.Equal(cfg.RefreshSecret, cfg.ResetSecret) {
		return nil, oops.Code("CODEC_INVALID_CONFIG").Errorf("token secrets must be distinct per kind")
	}
	if now == nil {
		now = time.Now
	}
	return &Codec{issuer: cfg.Issuer, keys: keys, now: now}, nil
}

type mintOptions struct {
	id    string
	extra map[string]string
}

// MintOption customizes a minted token.
type MintOption func(*mintOptions)

// WithTokenID sets the token's jti instead of generating a ULID.
func WithTokenID(id string) MintOption {
	return func(o *mintOptions) { o.id = id }
}

// WithClaim adds a string claim under the "ext" object.
func WithClaim(key, value string) MintOption {
	return func(o *mintOptions) {
		if o.extra == nil {
			o.extra = make(map[string]string)
		}
		o.extra[key] = value
	}
}

// Mint signs a token of the given kind for subject. The expiry is derived
// from the kind's TTL.
func (c *Codec) Mint(kind TokenKind, subject string, opts ...MintOption) (string, *TokenClaims, error) {
	key, ok := c.keys[kind]
	if !ok {
		return "", nil, oops.Code("TOKEN_UNKNOWN_KIND").With("kind", kind).Errorf("unknown token kind")
	}
	if subject == "" {
		return "", nil, oops.Code("TOKEN_INVALID_SUBJECT").Errorf("subject cannot be empty")
	}

	o := mintOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = ulid.Make().String()
	}

	now := c.now()
	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(key.ttl))

	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			ID:        o.id,
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
		Kind:  kind,
		Extra: o.extra,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key.secret)
	if err != nil {
		return "", nil, oops.Code("TOKEN_SIGN_FAILED").With("kind", kind).Wrap(err)
	}

	return signed, &TokenClaims{
		Kind:      kind,
		Subject:   subject,
		ID:        o.id,
		IssuedAt:  issuedAt.Time,
		ExpiresAt: expiresAt.Time,
		Extra:     o.extra,
	}, nil
}

// Verify checks the signature and expiry of a token of the given kind.
// It fails with ErrExpiredToken only when the signature is valid and the
// embedded expiry has passed; every other failure is ErrInvalidToken.
func (c *Codec) Verify(kind TokenKind, token string) (*TokenClaims, error) {
	key, ok := c.keys[kind]
	if !ok {
		return nil, invalidToken("unknown kind")
	}
	if token == "" {
		return nil, invalidToken("empty token")
	}

	var claims jwtClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return key.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, expiredToken("token expired")
		}
		return nil, oops.Code(CodeInvalidToken).
			With("reason", "verification failed").
			With("kind", kind).
			With("cause", err.Error()).
			Wrap(ErrInvalidToken)
	}

	if claims.Kind != kind {
		return nil, invalidToken("kind mismatch")
	}
	if claims.Subject == "" || claims.ID == "" || claims.IssuedAt == nil {
		return nil, invalidToken("missing claims")
	}

	return &TokenClaims{
		Kind:      claims.Kind,
		Subject:   claims.Subject,
		ID:        claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		Extra:     claims.Extra,
	}, nil
}

// GenerateOpaqueSecret returns OpaqueSecretBytes of crypto/rand output,
// hex encoded.
func GenerateOpaqueSecret() (string, error) {
	b := make([]byte, OpaqueSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", OpaqueSecretBytes).
			Wrap(err)
	}
	return hex.EncodeToString(b), nil
}
