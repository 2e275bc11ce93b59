// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/authd/pkg/errutil"
)

type accountKey struct{}

func withAccount(ctx context.Context, id ulid.ULID) context.Context {
	return context.WithValue(ctx, accountKey{}, id)
}

// accountFrom returns the authenticated account. Only valid behind
// requireAuth.
func accountFrom(ctx context.Context) ulid.ULID {
	id, _ := ctx.Value(accountKey{}).(ulid.ULID)
	return id
}

// requireAuth resolves the bearer access token to an account.
func (h *Handler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="authd"`)
			writeError(w, http.StatusUnauthorized, "invalid_token", "missing bearer token")
			return
		}
		id, err := h.svc.Authenticate(r.Context(), token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="authd", error="invalid_token"`)
			h.writeServiceError(w, r, err)
			return
		}
		next(w, r.WithContext(withAccount(r.Context(), id)))
	}
}

// requireCapability rejects callers whose account lacks capability.
func (h *Handler) requireCapability(capability string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := h.svc.HasCapability(r.Context(), accountFrom(r.Context()), capability)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		if !ok {
			writeError(w, http.StatusForbidden, "forbidden", "missing capability "+capability)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.DebugContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				err := oops.Code("HTTP_PANIC").With("path", r.URL.Path).Errorf("panic: %v", v)
				errutil.LogErrorContext(r.Context(), h.logger, "handler panicked", err)
				writeError(w, http.StatusInternalServerError, "internal", "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
