// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package xdg resolves XDG Base Directory paths for authd.
package xdg

import (
	"os"
	"path/filepath"
)

const (
	appName        = "authd"
	configFileName = "config.yaml"
)

// Env looks up environment variables. os.Getenv satisfies it.
type Env func(string) string

// ConfigDir returns the authd config directory.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir(getenv Env) string {
	base := getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// ConfigFile returns the default config file path.
func ConfigFile(getenv Env) string {
	return filepath.Join(ConfigDir(getenv), configFileName)
}

// FindConfigFile returns the default config file if it exists as a
// regular file.
func FindConfigFile(getenv Env) (string, bool) {
	path := ConfigFile(getenv)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return path, true
}
