// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/holomush/authd/internal/config"
	"github.com/holomush/authd/internal/httpapi"
	"github.com/holomush/authd/internal/observability"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, metrics endpoint and expiry sweeper",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loader(cmd).Load()
			if err != nil {
				return err
			}
			logger := setupLogging(cfg)
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, deps, logger, nil)
		},
	}

	cmd.Flags().String("http.addr", ":8080", "API listen address")
	cmd.Flags().String("metrics.addr", "127.0.0.1:9100", "metrics/health listen address (empty = disabled)")
	cmd.Flags().String("storage.driver", config.StoragePostgres, "storage driver (postgres or memory)")
	cmd.Flags().Bool("database.auto_migrate", false, "apply pending migrations on startup")
	cmd.Flags().Bool("reset.expose_token", false, "echo reset tokens in responses (never in production)")

	return cmd
}

// runServe blocks until ctx is cancelled or a component fails. If ready is
// non-nil it receives the API listener address once serving.
func runServe(ctx context.Context, cfg *config.Config, deps *Deps, logger *slog.Logger, ready chan<- string) error {
	deps = deps.withDefaults()

	logger.InfoContext(ctx, "starting authd",
		"version", version,
		"http_addr", cfg.HTTP.Addr,
		"storage", cfg.Storage.Driver,
	)

	st, err := openStorage(ctx, cfg, deps, logger)
	if err != nil {
		return err
	}
	defer st.close()

	limiter, closeLimiter, err := newLimiter(ctx, cfg, deps, logger)
	if err != nil {
		return err
	}
	defer closeLimiter()

	var obs ObservabilityServer
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obs = deps.ObservabilityServerFactory(cfg.Metrics.Addr, st.ready)
		metrics = obs.Metrics()
	} else {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	svc, err := newService(st, cfg, limiter, metrics, logger)
	if err != nil {
		return err
	}
	sw, err := newSweeper(st, cfg, metrics, logger)
	if err != nil {
		return err
	}

	api := &http.Server{
		Handler: httpapi.NewHandler(svc, httpapi.Config{
			MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
			TrustProxy:   cfg.HTTP.TrustProxy,
			RetryAfter:   cfg.RateLimit.Window,
		}, logger).Routes(),
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}
	var obsErrCh <-chan error
	if obs != nil {
		obsErrCh, err = obs.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
	}

	listener, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		if obs != nil {
			_ = obs.Stop(context.WithoutCancel(ctx))
		}
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoContext(gctx, "api server started", "addr", listener.Addr().String())
		if err := api.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		}
		return nil
	})

	if obsErrCh != nil {
		g.Go(func() error {
			select {
			case err, ok := <-obsErrCh:
				if ok && err != nil {
					return oops.Code("OBSERVABILITY_SERVE_FAILED").Wrap(err)
				}
			case <-gctx.Done():
			}
			return nil
		})
	}

	g.Go(func() error { return sw.Run(gctx) })

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := api.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, oops.Code("HTTP_SHUTDOWN_FAILED").Wrap(err))
		}
		if obs != nil {
			if err := obs.Stop(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		logger.InfoContext(shutdownCtx, "authd stopped")
		return errors.Join(errs...)
	})

	if ready != nil {
		ready <- listener.Addr().String()
	}

	//nolint:wrapcheck // component errors carry their own codes
	return g.Wait()
}
