// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package sweeper periodically deletes expired refresh sessions and reset
// grants.
package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/holomush/authd/pkg/errutil"
)

// Table names reported to the Observer.
const (
	TableSessions = "refresh_sessions"
	TableResets   = "password_resets"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultInterval   = time.Hour
	DefaultMaxRetries = 3
	DefaultRetryBase  = 500 * time.Millisecond
)

// ExpiredDeleter removes rows whose expiry is at or before now.
// Both auth.SessionRepository and auth.ResetRepository satisfy it.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Observer receives the outcome of each table pass.
type Observer interface {
	ObserveSweep(table string, deleted int64, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveSweep(string, int64, error) {}

// Config controls the sweep cadence and per-table retries.
type Config struct {
	Interval   time.Duration
	MaxRetries uint64
	RetryBase  time.Duration
}

// Result counts the rows deleted by one pass.
type Result struct {
	Sessions int64
	Resets   int64
}

// Sweeper runs expiry passes over the session and reset tables.
type Sweeper struct {
	sessions ExpiredDeleter
	resets   ExpiredDeleter
	cfg      Config
	now      func() time.Time
	logger   *slog.Logger
	observer Observer
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) { s.logger = l }
}

// WithObserver sets the observer.
func WithObserver(o Observer) Option {
	return func(s *Sweeper) { s.observer = o }
}

// New creates a Sweeper.
func New(sessions, resets ExpiredDeleter, cfg Config, opts ...Option) (*Sweeper, error) {
	if sessions == nil || resets == nil {
		return nil, oops.Code("SWEEPER_INVALID_DEPENDENCY").Errorf("sessions and resets are required")
	}
	if cfg.Interval < 0 {
		return nil, oops.Code("SWEEPER_INVALID_CONFIG").With("interval", cfg.Interval).Errorf("interval must be positive")
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultRetryBase
	}

	s := &Sweeper{
		sessions: sessions,
		resets:   resets,
		cfg:      cfg,
		now:      time.Now,
		logger:   slog.Default(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "sweeper")
	return s, nil
}

// SweepOnce runs one pass over both tables. A failure on one table does not
// stop the other; the returned error joins whatever failed.
func (s *Sweeper) SweepOnce(ctx context.Context) (Result, error) {
	now := s.now()
	var res Result
	var errs []error

	n, err := s.sweepTable(ctx, TableSessions, s.sessions, now)
	res.Sessions = n
	if err != nil {
		errs = append(errs, err)
	}

	n, err = s.sweepTable(ctx, TableResets, s.resets, now)
	res.Resets = n
	if err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return res, errors.Join(errs...)
	}
	s.logger.InfoContext(ctx, "sweep complete", "sessions_deleted", res.Sessions, "resets_deleted", res.Resets)
	return res, nil
}

func (s *Sweeper) sweepTable(ctx context.Context, table string, d ExpiredDeleter, now time.Time) (int64, error) {
	backoff := retry.WithMaxRetries(s.cfg.MaxRetries, retry.NewExponential(s.cfg.RetryBase))

	var deleted int64
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		n, err := d.DeleteExpired(ctx, now)
		if err != nil {
			s.logger.DebugContext(ctx, "sweep attempt failed", "table", table, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		deleted = n
		return nil
	})
	if err != nil {
		err = oops.Code("SWEEP_FAILED").With("table", table).With("attempts", attempt).Wrap(err)
		errutil.LogErrorContext(ctx, s.logger, "sweep failed", err)
	}
	s.observer.ObserveSweep(table, deleted, err)
	return deleted, err
}

// Run sweeps once immediately and then every interval until ctx is
// cancelled. Pass failures are logged and do not stop the loop.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "sweeper started", "interval", s.cfg.Interval)
	for {
		if ctx.Err() == nil {
			//nolint:errcheck // failures are logged and observed per table
			s.SweepOnce(ctx)
		}
		select {
		case <-ctx.Done():
			s.logger.InfoContext(context.WithoutCancel(ctx), "sweeper stopped")
			return nil
		case <-ticker.C:
		}
	}
}
