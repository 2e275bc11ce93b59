// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/holomush/authd/internal/config"
	"github.com/holomush/authd/internal/logging"
	"github.com/holomush/authd/internal/xdg"
)

const serviceName = "authd"

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the authd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authd",
		Short: "authd - account and session authentication service",
		Long: `authd issues and rotates signed access and refresh tokens, manages
password resets, and keeps refresh sessions in PostgreSQL.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file path (YAML, default $XDG_CONFIG_HOME/authd/config.yaml if present)")
	cmd.PersistentFlags().String("log.level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log.format", "json", "log format (json or text)")

	cmd.AddCommand(NewServeCmd(nil))
	cmd.AddCommand(NewMigrateCmd(nil))
	cmd.AddCommand(NewSweepCmd(nil))

	return cmd
}

// loader builds a config.Loader from the command's flags.
func loader(cmd *cobra.Command) config.Loader {
	path := configFile
	if path == "" {
		if found, ok := xdg.FindConfigFile(os.Getenv); ok {
			path = found
		}
	}
	return config.Loader{Path: path, Flags: cmd.Flags()}
}

// setupLogging installs the default logger for a command.
func setupLogging(cfg *config.Config) *slog.Logger {
	return logging.SetDefault(serviceName, version, cfg.Log.Format, cfg.Log.Level)
}
