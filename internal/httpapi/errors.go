// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/authd/internal/auth"
	"github.com/holomush/authd/pkg/errutil"
)

type errorMapping struct {
	sentinel error
	status   int
	code     string
	message  string
}

// errorMappings is ordered; the first sentinel matched wins.
var errorMappings = []errorMapping{
	{auth.ErrInvalidInput, http.StatusBadRequest, "invalid_input", ""},
	{auth.ErrPolicyViolation, http.StatusUnprocessableEntity, "policy_violation", ""},
	{auth.ErrConflict, http.StatusConflict, "conflict", "email already registered"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "invalid email or password"},
	{auth.ErrExpiredToken, http.StatusUnauthorized, "token_expired", "token expired"},
	{auth.ErrInvalidToken, http.StatusUnauthorized, "invalid_token", "invalid token"},
	{auth.ErrRateLimited, http.StatusTooManyRequests, "rate_limited", "too many attempts, try again later"},
	{auth.ErrNotFound, http.StatusNotFound, "not_found", "not found"},
}

// writeServiceError maps a service error onto the wire. Messages for input
// and policy errors are passed through since they never contain secrets.
// Anything unmapped is logged and answered with a generic 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.sentinel) {
			continue
		}
		msg := m.message
		if msg == "" {
			msg = publicMessage(err, m.sentinel)
		}
		if m.status == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", retryAfterSeconds(h.retryAfter(err)))
		}
		writeError(w, m.status, m.code, msg)
		return
	}

	errutil.LogErrorContext(r.Context(), h.logger, "request failed", err)
	writeError(w, http.StatusInternalServerError, "internal", "internal error")
}

// publicMessage returns the human-readable reason carried by an input or
// policy error, without the sentinel suffix.
func publicMessage(err error, sentinel error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
	if msg == "" || msg == sentinel.Error() {
		return sentinel.Error()
	}
	return msg
}

// retryAfter prefers the remaining window reported by the limiter and falls
// back to the configured window.
func (h *Handler) retryAfter(err error) time.Duration {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return h.cfg.RetryAfter
	}
	raw, ok := oopsErr.Context()[auth.RetryAfterContextKey].(string)
	if !ok {
		return h.cfg.RetryAfter
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return h.cfg.RetryAfter
	}
	return d
}
