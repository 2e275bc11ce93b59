// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"github.com/samber/oops"

	"github.com/holomush/authd/internal/auth"
)

func invalid(key string, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
}

// Validate checks cross-field constraints. Secret values never appear in
// the returned error.
func (c *Config) Validate() error {
	secrets := []struct {
		key string
		val string
	}{
		{"tokens.access_secret", c.Tokens.AccessSecret},
		{"tokens.refresh_secret", c.Tokens.RefreshSecret},
		{"tokens.reset_secret", c.Tokens.ResetSecret},
	}
	for _, s := range secrets {
		if len(s.val) < auth.MinSecretLength {
			return invalid(s.key, "%s must be at least %d bytes", s.key, auth.MinSecretLength)
		}
	}
	for i := range secrets {
		for j := i + 1; j < len(secrets); j++ {
			if secrets[i].val == secrets[j].val {
				return invalid(secrets[j].key, "%s must differ from %s", secrets[j].key, secrets[i].key)
			}
		}
	}

	if c.Tokens.Issuer == "" {
		return invalid("tokens.issuer", "tokens.issuer is required")
	}
	if c.Tokens.AccessTTL <= 0 || c.Tokens.RefreshTTL <= 0 || c.Tokens.ResetTTL <= 0 {
		return invalid("tokens", "token TTLs must be positive")
	}
	if c.Tokens.AccessTTL >= c.Tokens.RefreshTTL {
		return invalid("tokens.access_ttl", "tokens.access_ttl must be shorter than tokens.refresh_ttl")
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "log.format must be 'json' or 'text', got %q", c.Log.Format)
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if err := c.ValidateDatabase(); err != nil {
			return err
		}
	default:
		return invalid("storage.driver", "storage.driver must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage.Driver)
	}

	if c.Password.MinLength < auth.DefaultMinPasswordLength {
		return invalid("password.min_length", "password.min_length must be at least %d", auth.DefaultMinPasswordLength)
	}
	if c.Sweeper.Interval <= 0 {
		return invalid("sweeper.interval", "sweeper.interval must be positive")
	}
	if c.RateLimit.Window <= 0 || c.RateLimit.MaxAttempts <= 0 {
		return invalid("ratelimit", "ratelimit.window and ratelimit.max_attempts must be positive")
	}
	if c.HTTP.Addr == "" {
		return invalid("http.addr", "http.addr is required")
	}
	return nil
}

// ValidateDatabase checks only what the migrate command needs.
func (c *Config) ValidateDatabase() error {
	if c.Database.URL == "" {
		return invalid("database.url", "database.url (or DATABASE_URL) is required for postgres storage")
	}
	return nil
}
