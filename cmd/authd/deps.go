// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/holomush/authd/internal/auth/postgres"
	"github.com/holomush/authd/internal/observability"
	"github.com/holomush/authd/internal/store"
)

// Deps contains injectable dependencies shared by the commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// PoolOpener connects to PostgreSQL.
	// Default: store.OpenPool
	PoolOpener func(ctx context.Context, cfg store.PoolConfig, logger *slog.Logger) (Pool, error)

	// RedisFactory creates the client behind the login limiter.
	// Default: redis.ParseURL + redis.NewClient
	RedisFactory func(url string) (redis.UniversalClient, error)

	// MigratorFactory creates a schema migrator.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// ObservabilityServerFactory creates the metrics and health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer
}

// Pool wraps the pgxpool.Pool methods the commands use.
type Pool interface {
	postgres.DB
	Ping(ctx context.Context) error
	Close()
}

// Migrator wraps the store.Migrator methods the commands use.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Status() (*store.Status, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.PoolOpener == nil {
		out.PoolOpener = func(ctx context.Context, cfg store.PoolConfig, logger *slog.Logger) (Pool, error) {
			return store.OpenPool(ctx, cfg, logger)
		}
	}
	if out.RedisFactory == nil {
		out.RedisFactory = func(url string) (redis.UniversalClient, error) {
			opts, err := redis.ParseURL(url)
			if err != nil {
				return nil, err //nolint:wrapcheck // wrapped by caller
			}
			return redis.NewClient(opts), nil
		}
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(databaseURL string) (Migrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	return &out
}
