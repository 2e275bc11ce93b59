// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"time"
)

// Login rate limiting defaults.
const (
	// DefaultLoginWindow is the fixed window over which failures are counted.
	DefaultLoginWindow = 15 * time.Minute

	// DefaultMaxLoginFailures is the number of failures tolerated per window.
	DefaultMaxLoginFailures = 7
)

// RetryAfterContextKey is the oops context key under which a limiter may
// report the remaining window of a refused key, formatted as a
// time.Duration string.
const RetryAfterContextKey = "retry_after"

// LoginLimiter counts failed login attempts per key. The service keys
// attempts by normalized email, so limiting applies equally to registered
// and unknown addresses.
type LoginLimiter interface {
	// Allow returns an error wrapping ErrRateLimited if the key has
	// exhausted its failure budget for the current window. The error may
	// carry RetryAfterContextKey.
	Allow(ctx context.Context, key string) error

	// RecordFailure counts a failed attempt.
	RecordFailure(ctx context.Context, key string) error

	// Reset clears the key's counter after a successful login.
	Reset(ctx context.Context, key string) error
}

// NopLimiter never limits.
type NopLimiter struct{}

// Allow implements LoginLimiter.
func (NopLimiter) Allow(context.Context, string) error { return nil }

// RecordFailure implements LoginLimiter.
func (NopLimiter) RecordFailure(context.Context, string) error { return nil }

// Reset implements LoginLimiter.
func (NopLimiter) Reset(context.Context, string) error { return nil }

var _ LoginLimiter = NopLimiter{}
