// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package httpapi_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authd/internal/auth"
	"github.com/holomush/authd/internal/httpapi"
)

// loginStub embeds the interface so only Login needs an implementation.
type loginStub struct {
	httpapi.AuthService
	mock.Mock
}

func (s *loginStub) Login(ctx context.Context, email, password string, client auth.ClientMeta) (*auth.AuthResult, error) {
	args := s.Called(ctx, email, password, client)
	if fn, ok := args.Get(0).(func()); ok {
		fn()
	}
	return nil, args.Error(1)
}

func postLogin(t *testing.T, h http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"x"}`))
	req.RemoteAddr = "192.0.2.7:51234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid input", oops.Code(auth.CodeInvalidInput).Wrapf(auth.ErrInvalidInput, "email cannot be empty"), http.StatusBadRequest, "invalid_input"},
		{"policy", oops.Code(auth.CodePolicyViolation).Wrapf(auth.ErrPolicyViolation, "password must contain a digit"), http.StatusUnprocessableEntity, "policy_violation"},
		{"conflict", oops.Code(auth.CodeConflict).Wrap(auth.ErrConflict), http.StatusConflict, "conflict"},
		{"credentials", oops.Code(auth.CodeInvalidCredentials).Wrap(auth.ErrInvalidCredentials), http.StatusUnauthorized, "invalid_credentials"},
		{"invalid token", oops.Code(auth.CodeInvalidToken).Wrap(auth.ErrInvalidToken), http.StatusUnauthorized, "invalid_token"},
		{"expired token", oops.Code(auth.CodeExpiredToken).Wrap(auth.ErrExpiredToken), http.StatusUnauthorized, "token_expired"},
		{"rate limited", oops.Code(auth.CodeRateLimited).Wrap(auth.ErrRateLimited), http.StatusTooManyRequests, "rate_limited"},
		{"internal", oops.Code("SESSION_CREATE_FAILED").With("account_id", "x").Wrap(errors.New("connection reset")), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &loginStub{}
			stub.On("Login", mock.Anything, "ada@example.com", "x", auth.ClientMeta{IPAddress: "192.0.2.7"}).
				Return(nil, tt.err)

			var logs bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&logs, nil))
			rec := postLogin(t, httpapi.NewHandler(stub, httpapi.Config{RetryAfter: 90 * time.Second}, logger).Routes())

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"code":"`+tt.code+`"`)
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
			stub.AssertExpectations(t)

			switch tt.status {
			case http.StatusTooManyRequests:
				assert.Equal(t, "90", rec.Header().Get("Retry-After"))
			case http.StatusInternalServerError:
				assert.NotContains(t, rec.Body.String(), "connection reset")
				assert.Contains(t, logs.String(), "SESSION_CREATE_FAILED")
			default:
				assert.Empty(t, logs.String())
			}
		})
	}
}

func TestErrorMapping_RetryAfterFromLimiter(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"remaining window", "41.2s", "42"},
		{"unparseable falls back", "soon", "90"},
		{"expired ttl falls back", "-1ns", "90"},
		{"wrong type falls back", 12, "90"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &loginStub{}
			stub.On("Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return(nil, oops.Code(auth.CodeRateLimited).
					With(auth.RetryAfterContextKey, tt.value).
					Wrapf(auth.ErrRateLimited, "too many failed login attempts"))

			rec := postLogin(t, httpapi.NewHandler(stub, httpapi.Config{RetryAfter: 90 * time.Second}, nil).Routes())
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Retry-After"))
		})
	}
}

func TestErrorMapping_PassesThroughReasons(t *testing.T) {
	stub := &loginStub{}
	stub.On("Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, oops.Code(auth.CodePolicyViolation).Wrapf(auth.ErrPolicyViolation, "password must contain a digit"))

	rec := postLogin(t, httpapi.NewHandler(stub, httpapi.Config{}, nil).Routes())
	assert.Contains(t, rec.Body.String(), "password must contain a digit")
}

func TestRecoverer(t *testing.T) {
	stub := &loginStub{}
	stub.On("Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(func() { panic("boom") }, nil)

	var logs bytes.Buffer
	h := httpapi.NewHandler(stub, httpapi.Config{}, slog.New(slog.NewJSONHandler(&logs, nil))).Routes()

	rec := postLogin(t, h)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, logs.String(), "HTTP_PANIC")
}

func TestBodyLimit(t *testing.T) {
	stub := &loginStub{}
	h := httpapi.NewHandler(stub, httpapi.Config{MaxBodyBytes: 16}, nil).Routes()

	rec := postLogin(t, h)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	stub.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
