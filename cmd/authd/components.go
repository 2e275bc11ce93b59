// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/authd/internal/auth"
	"github.com/holomush/authd/internal/auth/memstore"
	"github.com/holomush/authd/internal/auth/postgres"
	"github.com/holomush/authd/internal/config"
	"github.com/holomush/authd/internal/observability"
	"github.com/holomush/authd/internal/ratelimit"
	"github.com/holomush/authd/internal/store"
	"github.com/holomush/authd/internal/sweeper"
)

// storage bundles the repositories for the configured driver.
type storage struct {
	accounts auth.AccountRepository
	sessions auth.SessionRepository
	resets   auth.ResetRepository
	ready    observability.ReadinessChecker
	close    func()
}

func openStorage(ctx context.Context, cfg *config.Config, deps *Deps, logger *slog.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		logger.WarnContext(ctx, "using in-memory storage; all data is lost on exit")
		mem := memstore.New()
		return &storage{
			accounts: mem.Accounts(),
			sessions: mem.Sessions(),
			resets:   mem.Resets(),
			ready:    func(context.Context) error { return nil },
			close:    func() {},
		}, nil
	}

	if cfg.Database.AutoMigrate {
		if err := migrateUp(deps, cfg.Database.URL, logger); err != nil {
			return nil, err
		}
	}

	pool, err := deps.PoolOpener(ctx, store.PoolConfig{
		URL:          cfg.Database.URL,
		MaxConns:     cfg.Database.MaxConns,
		ConnectRetry: cfg.Database.ConnectRetries,
		RetryBase:    cfg.Database.RetryBase,
	}, logger)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "open pool").Wrap(err)
	}
	logger.InfoContext(ctx, "connected to database")

	return &storage{
		accounts: postgres.NewAccountRepository(pool),
		sessions: postgres.NewSessionRepository(pool),
		resets:   postgres.NewResetRepository(pool),
		ready:    pool.Ping,
		close:    pool.Close,
	}, nil
}

func migrateUp(deps *Deps, databaseURL string, logger *slog.Logger) error {
	migrator, err := deps.MigratorFactory(databaseURL)
	if err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()
	if err := migrator.Up(); err != nil {
		return oops.Code("AUTO_MIGRATION_FAILED").Wrap(err)
	}
	logger.Info("database migrations applied")
	return nil
}

// newLimiter returns the redis limiter, or a no-op limiter when no redis URL
// is configured.
func newLimiter(ctx context.Context, cfg *config.Config, deps *Deps, logger *slog.Logger) (auth.LoginLimiter, func(), error) {
	if cfg.Redis.URL == "" {
		logger.WarnContext(ctx, "redis.url not set; login rate limiting disabled")
		return auth.NopLimiter{}, func() {}, nil
	}
	client, err := deps.RedisFactory(cfg.Redis.URL)
	if err != nil {
		return nil, nil, oops.Code("REDIS_CONFIG_INVALID").Wrap(err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, oops.Code("REDIS_CONNECT_FAILED").Wrap(err)
	}
	limiter := ratelimit.NewRedisLimiter(client, ratelimit.Config{
		Prefix:      cfg.Redis.Prefix,
		MaxFailures: cfg.RateLimit.MaxAttempts,
		Window:      cfg.RateLimit.Window,
	})
	return limiter, func() { _ = client.Close() }, nil
}

func newCodec(cfg *config.Config) (*auth.Codec, error) {
	return auth.NewCodec(auth.CodecConfig{
		Issuer:        cfg.Tokens.Issuer,
		AccessSecret:  []byte(cfg.Tokens.AccessSecret),
		RefreshSecret: []byte(cfg.Tokens.RefreshSecret),
		ResetSecret:   []byte(cfg.Tokens.ResetSecret),
		AccessTTL:     cfg.Tokens.AccessTTL,
		RefreshTTL:    cfg.Tokens.RefreshTTL,
		ResetTTL:      cfg.Tokens.ResetTTL,
	}, nil)
}

func newService(st *storage, cfg *config.Config, limiter auth.LoginLimiter, metrics *observability.Metrics, logger *slog.Logger) (*auth.Service, error) {
	codec, err := newCodec(cfg)
	if err != nil {
		return nil, err
	}

	var hasherOpts []auth.HasherOption
	if cfg.Password.MaxConcurrent > 0 {
		hasherOpts = append(hasherOpts, auth.WithMaxConcurrentHashes(int64(cfg.Password.MaxConcurrent)))
	}

	policy := auth.DefaultPasswordPolicy()
	policy.MinLength = cfg.Password.MinLength
	policy.RequireSpecial = cfg.Password.RequireSpecial

	//nolint:wrapcheck // constructor errors already carry codes
	return auth.NewService(st.accounts, st.sessions, st.resets, codec, auth.NewArgon2idHasher(hasherOpts...),
		auth.ServiceConfig{Policy: policy, ExposeResetToken: cfg.Reset.ExposeToken},
		auth.WithLogger(logger),
		auth.WithLimiter(limiter),
		auth.WithNotifier(newLogNotifier(logger)),
		auth.WithObserver(metrics),
	)
}

func newSweeper(st *storage, cfg *config.Config, metrics sweeper.Observer, logger *slog.Logger) (*sweeper.Sweeper, error) {
	//nolint:wrapcheck // constructor errors already carry codes
	return sweeper.New(st.sessions, st.resets, sweeper.Config{
		Interval:   cfg.Sweeper.Interval,
		MaxRetries: uint64(max(cfg.Sweeper.MaxRetries, 0)),
	}, sweeper.WithLogger(logger), sweeper.WithObserver(metrics))
}
