// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// Sentinel errors forming the failure taxonomy of the auth core.
// Returned errors wrap one of these, so callers match with errors.Is.
var (
	// ErrNotFound is returned by repositories when a requested entity does not
	// exist. It never crosses the service boundary on credential paths.
	ErrNotFound = errors.New("not found")

	ErrConflict           = errors.New("conflict")
	ErrPolicyViolation    = errors.New("password policy violation")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrInvalidInput       = errors.New("invalid input")
	ErrRateLimited        = errors.New("rate limited")
)

// Error codes attached to the sentinel errors above.
const (
	CodeConflict           = "AUTH_CONFLICT"
	CodePolicyViolation    = "AUTH_POLICY_VIOLATION"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeInvalidToken       = "AUTH_INVALID_TOKEN"
	CodeExpiredToken       = "AUTH_EXPIRED_TOKEN"
	CodeInvalidInput       = "AUTH_INVALID_INPUT"
	CodeRateLimited        = "AUTH_RATE_LIMITED"
)

func invalidToken(reason string) error {
	return oops.Code(CodeInvalidToken).With("reason", reason).Wrap(ErrInvalidToken)
}

func expiredToken(reason string) error {
	return oops.Code(CodeExpiredToken).With("reason", reason).Wrap(ErrExpiredToken)
}

func invalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Wrapf(ErrInvalidCredentials, "invalid email or password")
}

func invalidInput(field, msg string) error {
	return oops.Code(CodeInvalidInput).With("field", field).Wrapf(ErrInvalidInput, "%s", msg)
}
