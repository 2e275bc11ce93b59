// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/authd/internal/store"
)

// NewMigrateCmd creates the migrate command group.
func NewMigrateCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(deps, func(cmd *cobra.Command, m Migrator, _ []string) error {
			if err := m.Up(); err != nil {
				return err //nolint:wrapcheck // migrator errors carry codes
			}
			cmd.Println("Migrations applied")
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(deps, func(cmd *cobra.Command, m Migrator, _ []string) error {
			if err := m.Down(); err != nil {
				return err //nolint:wrapcheck // migrator errors carry codes
			}
			cmd.Println("Migrations rolled back")
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "steps [--] N",
		Short: "Apply N migrations, or roll back N when negative",
		Long: `Apply the next N pending migrations. A negative N rolls back that many
applied migrations; separate it with -- so it is not read as a flag:

  authd migrate steps -- -1`,
		Args: cobra.ExactArgs(1),
		RunE: withMigrator(deps, func(cmd *cobra.Command, m Migrator, args []string) error {
			n, err := parseSteps(args[0])
			if err != nil {
				return err
			}
			if err := m.Steps(n); err != nil {
				return err //nolint:wrapcheck // migrator errors carry codes
			}
			cmd.Printf("Migrated %+d steps\n", n)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(deps, func(cmd *cobra.Command, m Migrator, _ []string) error {
			st, err := m.Status()
			if err != nil {
				return err //nolint:wrapcheck // migrator errors carry codes
			}
			printStatus(cmd, st)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations (clears dirty state)",
		Args:  cobra.ExactArgs(1),
		RunE: withMigrator(deps, func(cmd *cobra.Command, m Migrator, args []string) error {
			v, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			if err := m.Force(v); err != nil {
				return err //nolint:wrapcheck // migrator errors carry codes
			}
			cmd.Printf("Schema version forced to %d\n", v)
			return nil
		}),
	})

	return cmd
}

func withMigrator(deps *Deps, run func(*cobra.Command, Migrator, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loader(cmd).Read()
		if err != nil {
			return err
		}
		if err := cfg.ValidateDatabase(); err != nil {
			return err
		}
		logger := setupLogging(cfg)

		m, err := deps.withDefaults().MigratorFactory(cfg.Database.URL)
		if err != nil {
			return oops.Code("MIGRATION_INIT_FAILED").Wrap(err)
		}
		defer func() {
			if closeErr := m.Close(); closeErr != nil {
				logger.Warn("failed to close migrator", "error", closeErr)
			}
		}()
		return run(cmd, m, args)
	}
}

func printStatus(cmd *cobra.Command, st *store.Status) {
	dirty := ""
	if st.Dirty {
		dirty = " (dirty)"
	}
	cmd.Printf("Current version: %d%s\n", st.Version, dirty)
	for _, v := range st.Applied {
		name, _ := store.MigrationName(v) //nolint:errcheck // name is cosmetic
		cmd.Printf("  [applied] %s\n", name)
	}
	for _, v := range st.Pending {
		name, _ := store.MigrationName(v) //nolint:errcheck // name is cosmetic
		cmd.Printf("  [pending] %s\n", name)
	}
}

func parseForceVersion(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, oops.Code("INVALID_VERSION").Errorf("version is required")
	}
	var v int
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Wrap(err)
	}
	return v, nil
}

func parseSteps(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, oops.Code("INVALID_STEPS").With("input", s).Wrap(err)
	}
	if n == 0 {
		return 0, oops.Code("INVALID_STEPS").Errorf("step count cannot be zero")
	}
	return n, nil
}
