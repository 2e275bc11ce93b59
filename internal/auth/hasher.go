// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"runtime"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

// Argon2Params are the cost parameters of argon2id.
type Argon2Params struct {
	Time       uint32
	MemoryKiB  uint32
	Threads    uint8
	SaltLength uint32
	KeyLength  uint32
}

// DefaultArgon2Params returns the OWASP-recommended parameters
// (t=1, m=64 MiB, p=4), which verify in tens of milliseconds.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:       1,
		MemoryKiB:  64 * 1024,
		Threads:    4,
		SaltLength: 16,
		KeyLength:  32,
	}
}

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces an encoded hash of the password.
	Hash(ctx context.Context, password string) (string, error)

	// Verify checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid hash.
	Verify(ctx context.Context, password, hash string) (bool, error)

	// NeedsUpgrade returns true if the hash was produced with different
	// parameters or a different algorithm.
	NeedsUpgrade(hash string) bool
}

// Argon2idHasher implements PasswordHasher using argon2id. The number of
// hashes computed at once is bounded, since each holds MemoryKiB of memory.
type Argon2idHasher struct {
	params Argon2Params
	gate   *semaphore.Weighted
}

// HasherOption configures an Argon2idHasher.
type HasherOption func(*Argon2idHasher)

// WithArgon2Params overrides DefaultArgon2Params.
func WithArgon2Params(p Argon2Params) HasherOption {
	return func(h *Argon2idHasher) { h.params = p }
}

// WithMaxConcurrentHashes bounds concurrent hash computations. Values below
// one are ignored.
func WithMaxConcurrentHashes(n int64) HasherOption {
	return func(h *Argon2idHasher) {
		if n > 0 {
			h.gate = semaphore.NewWeighted(n)
		}
	}
}

// NewArgon2idHasher creates a new Argon2idHasher. By default concurrency is
// bounded by GOMAXPROCS.
func NewArgon2idHasher(opts ...HasherOption) *Argon2idHasher {
	h := &Argon2idHasher{params: DefaultArgon2Params()}
	for _, opt := range opts {
		opt(h)
	}
	if h.gate == nil {
		h.gate = semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0)))
	}
	return h
}

// Hash produces an argon2id hash of the password in PHC string format.
func (h *Argon2idHasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	if err := h.gate.Acquire(ctx, 1); err != nil {
		return "", oops.Code("AUTH_HASH_CANCELLED").Wrap(err)
	}
	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, h.params.KeyLength)
	h.gate.Release(1)

	// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

type phcHash struct {
	version int
	memory  uint32
	time    uint32
	threads uint32
	salt    []byte
	key     []byte
}

func parsePHC(encoded string) (*phcHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported hash algorithm: %s", parts[1])
	}

	p := &phcHash{}
	if _, err := fmt.Sscanf(parts[2], "v=%d", &p.version); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	if p.threads == 0 || p.threads > 255 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("threads value %d out of range", p.threads)
	}
	if len(p.key) == 0 || len(p.key) > 1<<10 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash key length: %d", len(p.key))
	}
	return p, nil
}

// Verify checks if the password matches the hash. The comparison is
// constant time.
func (h *Argon2idHasher) Verify(ctx context.Context, password, encodedHash string) (bool, error) {
	p, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	if err := h.gate.Acquire(ctx, 1); err != nil {
		return false, oops.Code("AUTH_HASH_CANCELLED").Wrap(err)
	}
	computed := argon2.IDKey([]byte(password), p.salt, p.time, p.memory, uint8(p.threads), uint32(len(p.key)))
	h.gate.Release(1)

	return subtle.ConstantTimeCompare(computed, p.key) == 1, nil
}

// NeedsUpgrade returns true if the hash is not argon2id or was produced with
// parameters other than the hasher's.
func (h *Argon2idHasher) NeedsUpgrade(hash string) bool {
	p, err := parsePHC(hash)
	if err != nil {
		return true
	}
	return p.version != argon2.Version ||
		p.memory != h.params.MemoryKiB ||
		p.time != h.params.Time ||
		p.threads != uint32(h.params.Threads) ||
		uint32(len(p.key)) != h.params.KeyLength
}
