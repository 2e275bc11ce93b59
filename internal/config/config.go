// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads authd configuration.
//
// Sources are layered lowest first: compiled defaults, an optional YAML
// file, command-line flags that were explicitly set, and finally a fixed
// set of environment variables for secrets and connection URLs.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config is the full authd configuration. It is loaded once and treated as
// immutable afterwards.
type Config struct {
	HTTP      HTTPConfig      `koanf:"http"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Log       LogConfig       `koanf:"log"`
	Storage   StorageConfig   `koanf:"storage"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Tokens    TokensConfig    `koanf:"tokens"`
	Password  PasswordConfig  `koanf:"password"`
	Reset     ResetConfig     `koanf:"reset"`
	Sweeper   SweeperConfig   `koanf:"sweeper"`
}

// HTTPConfig controls the API listener.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
	// TrustProxy takes client addresses from X-Forwarded-For. Enable only
	// behind a proxy that overwrites the header.
	TrustProxy      bool          `koanf:"trust_proxy"`
}

// MetricsConfig controls the metrics and health listener. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// StorageConfig selects the persistence driver.
type StorageConfig struct {
	Driver string `koanf:"driver"`
}

// DatabaseConfig configures PostgreSQL.
type DatabaseConfig struct {
	URL            string        `koanf:"url"`
	MaxConns       int32         `koanf:"max_conns"`
	ConnectRetries int           `koanf:"connect_retries"`
	RetryBase      time.Duration `koanf:"retry_base"`
	AutoMigrate    bool          `koanf:"auto_migrate"`
}

// RedisConfig configures the login limiter backend. An empty URL disables
// login rate limiting.
type RedisConfig struct {
	URL    string `koanf:"url"`
	Prefix string `koanf:"prefix"`
}

// RateLimitConfig tunes the fixed login failure window.
type RateLimitConfig struct {
	Window      time.Duration `koanf:"window"`
	MaxAttempts int           `koanf:"max_attempts"`
}

// TokensConfig holds the per-kind signing secrets and lifetimes.
type TokensConfig struct {
	Issuer        string        `koanf:"issuer"`
	AccessSecret  string        `koanf:"access_secret"`
	RefreshSecret string        `koanf:"refresh_secret"`
	ResetSecret   string        `koanf:"reset_secret"`
	AccessTTL     time.Duration `koanf:"access_ttl"`
	RefreshTTL    time.Duration `koanf:"refresh_ttl"`
	ResetTTL      time.Duration `koanf:"reset_ttl"`
}

// PasswordConfig tunes the password policy.
type PasswordConfig struct {
	MinLength      int  `koanf:"min_length"`
	RequireSpecial bool `koanf:"require_special"`
	MaxConcurrent  int  `koanf:"max_concurrent_hashes"`
}

// ResetConfig controls forgot-password behaviour.
type ResetConfig struct {
	// ExposeToken echoes reset tokens in API responses. Never enable in
	// production.
	ExposeToken bool `koanf:"expose_token"`
}

// SweeperConfig controls the expiry sweeper.
type SweeperConfig struct {
	Interval   time.Duration `koanf:"interval"`
	MaxRetries int           `koanf:"max_retries"`
}

// Defaults returns the compiled defaults as a flat koanf key map.
func Defaults() map[string]any {
	return map[string]any{
		"http.addr":                      ":8080",
		"http.read_timeout":              "10s",
		"http.write_timeout":             "10s",
		"http.shutdown_timeout":          "15s",
		"http.max_body_bytes":            int64(1 << 20),
		"http.trust_proxy":               false,
		"metrics.addr":                   "127.0.0.1:9100",
		"log.format":                     "json",
		"log.level":                      "info",
		"storage.driver":                 StoragePostgres,
		"database.max_conns":             int32(10),
		"database.connect_retries":       5,
		"database.retry_base":            "500ms",
		"database.auto_migrate":          false,
		"redis.prefix":                   "authd",
		"ratelimit.window":               "15m",
		"ratelimit.max_attempts":         7,
		"tokens.issuer":                  "authd",
		"tokens.access_ttl":              "15m",
		"tokens.refresh_ttl":             "168h",
		"tokens.reset_ttl":               "1h",
		"password.min_length":            8,
		"password.require_special":       false,
		"password.max_concurrent_hashes": 0,
		"reset.expose_token":             false,
		"sweeper.interval":               "1h",
		"sweeper.max_retries":            3,
	}
}

// envOverrides maps environment variables to config keys.
var envOverrides = map[string]string{
	"DATABASE_URL":         "database.url",
	"REDIS_URL":            "redis.url",
	"AUTHD_ACCESS_SECRET":  "tokens.access_secret",
	"AUTHD_REFRESH_SECRET": "tokens.refresh_secret",
	"AUTHD_RESET_SECRET":   "tokens.reset_secret",
}

// Loader assembles a Config from its sources.
type Loader struct {
	// Path is an optional YAML file.
	Path string
	// Flags, if set, contributes flags whose value was changed on the
	// command line. Flag names map to keys by replacing "-" with "_" within
	// the dotted path, e.g. --http.addr or --log.level.
	Flags *pflag.FlagSet
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Load reads, merges and validates the configuration.
func (l Loader) Load() (*Config, error) {
	cfg, err := l.Read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read merges the configuration sources without validating the result.
// Commands that need only part of the configuration validate that part.
func (l Loader) Read() (*Config, error) {
	k := koanf.New(".")

	for key, val := range Defaults() {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("key", key).Wrap(err)
		}
	}

	if l.Path != "" {
		if err := k.Load(file.Provider(l.Path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", l.Path).Wrap(err)
		}
	}

	if l.Flags != nil {
		provider := posflag.ProviderWithFlag(l.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return f.Name, posflag.FlagVal(l.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	for env, key := range envOverrides {
		if v := getenv(env); v != "" {
			if err := k.Set(key, v); err != nil {
				return nil, oops.Code("CONFIG_INVALID").With("key", key).Wrap(err)
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "unmarshal").Wrap(err)
	}
	return &cfg, nil
}
