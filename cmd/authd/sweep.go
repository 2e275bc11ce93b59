// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/holomush/authd/internal/observability"
)

// NewSweepCmd creates the sweep subcommand.
func NewSweepCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired refresh sessions and reset grants once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loader(cmd).Read()
			if err != nil {
				return err
			}
			if err := cfg.ValidateDatabase(); err != nil {
				return err
			}
			logger := setupLogging(cfg)

			st, err := openStorage(cmd.Context(), cfg, deps.withDefaults(), logger)
			if err != nil {
				return err
			}
			defer st.close()

			sw, err := newSweeper(st, cfg, observability.NewMetrics(prometheus.NewRegistry()), logger)
			if err != nil {
				return err
			}
			res, err := sw.SweepOnce(cmd.Context())
			cmd.Printf("Deleted %d expired sessions and %d expired reset grants\n", res.Sessions, res.Resets)
			return err //nolint:wrapcheck // sweep errors carry codes
		},
	}
}
