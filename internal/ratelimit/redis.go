// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package ratelimit implements auth.LoginLimiter on Redis.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/holomush/authd/internal/auth"
)

// Config tunes the fixed-window failure counter.
type Config struct {
	// Prefix namespaces keys, e.g. "authd".
	Prefix      string
	MaxFailures int
	Window      time.Duration
}

// RedisLimiter counts failed logins per key in a fixed window. Keys are
// hashed before they reach Redis so that email addresses are not stored.
type RedisLimiter struct {
	client redis.UniversalClient
	cfg    Config
}

var _ auth.LoginLimiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a RedisLimiter. Zero values in cfg fall back to
// auth.DefaultMaxLoginFailures and auth.DefaultLoginWindow.
func NewRedisLimiter(client redis.UniversalClient, cfg Config) *RedisLimiter {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = auth.DefaultMaxLoginFailures
	}
	if cfg.Window <= 0 {
		cfg.Window = auth.DefaultLoginWindow
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "authd"
	}
	return &RedisLimiter{client: client, cfg: cfg}
}

func (l *RedisLimiter) key(k string) string {
	sum := sha256.Sum256([]byte(k))
	return l.cfg.Prefix + ":login:" + hex.EncodeToString(sum[:])
}

// Allow returns an error wrapping auth.ErrRateLimited once the key has
// MaxFailures failures in the current window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) error {
	count, err := l.client.Get(ctx, l.key(key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return oops.Code("RATELIMIT_UNAVAILABLE").With("operation", "get counter").Wrap(err)
	}
	if count >= int64(l.cfg.MaxFailures) {
		ttl, _ := l.client.TTL(ctx, l.key(key)).Result() //nolint:errcheck // informational only
		return oops.Code(auth.CodeRateLimited).
			With(auth.RetryAfterContextKey, ttl.String()).
			Wrapf(auth.ErrRateLimited, "too many failed login attempts")
	}
	return nil
}

// RecordFailure increments the counter. The window starts at the first
// failure and is not extended by later ones. INCR and EXPIRE NX run in one
// MULTI so a counter never outlives its window; a key left without a TTL
// gets one on the next failure.
func (l *RedisLimiter) RecordFailure(ctx context.Context, key string) error {
	k := l.key(key)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, l.cfg.Window)
		return nil
	})
	if err != nil {
		return oops.Code("RATELIMIT_UNAVAILABLE").With("operation", "incr counter").Wrap(err)
	}
	return nil
}

// Reset clears the counter.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.key(key)).Err(); err != nil {
		return oops.Code("RATELIMIT_UNAVAILABLE").With("operation", "del counter").Wrap(err)
	}
	return nil
}
