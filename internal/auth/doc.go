// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth provides the authentication core of authd.
//
// # Domain Types
//
// Domain types (Account, RefreshSession, PasswordReset) should be created
// using their respective constructors:
//   - NewAccount - creates an active Account with validated name and email
//   - NewRefreshSession - creates a RefreshSession with validated account and expiry
//   - NewPasswordReset - creates a PasswordReset with validated account and expiry
//
// Direct struct initialization bypasses validation and may create invalid state.
// Repository implementations receive pre-validated types from these constructors.
//
// # Tokens
//
// Codec mints and verifies the three signed token kinds (access, refresh,
// reset), each under its own secret. Refresh tokens and reset grants are
// additionally tracked by the SHA-256 of their identifier so that they can
// be consumed exactly once.
//
// # Services
//
// Service coordinates signup, login, refresh rotation, logout and password
// recovery. It is created with NewService, which validates dependencies.
package auth
