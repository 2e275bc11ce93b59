// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package httpapi exposes the auth service as a JSON API over net/http.
package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/holomush/authd/internal/auth"
)

// Capabilities required by the account administration routes.
const (
	CapDeactivateAccount = "admin:users:deactivate"
	CapSetPermissions    = "admin:users:permissions"
)

// AuthService is the subset of *auth.Service the API drives.
type AuthService interface {
	Signup(ctx context.Context, in auth.SignupInput) (*auth.AuthResult, error)
	Login(ctx context.Context, email, password string, client auth.ClientMeta) (*auth.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, accountID ulid.ULID) error
	ForgotPassword(ctx context.Context, email string) (*auth.ResetRequest, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	ActiveSessions(ctx context.Context, accountID ulid.ULID) ([]auth.SessionSummary, error)
	Authenticate(ctx context.Context, accessToken string) (ulid.ULID, error)
	Account(ctx context.Context, id ulid.ULID) (*auth.Account, error)
	HasCapability(ctx context.Context, accountID ulid.ULID, name string) (bool, error)
	Deactivate(ctx context.Context, accountID ulid.ULID) error
	SetPermissions(ctx context.Context, accountID ulid.ULID, permissions []string) error
}

var _ AuthService = (*auth.Service)(nil)

// Config tunes request handling.
type Config struct {
	// MaxBodyBytes caps request bodies. Zero means 1 MiB.
	MaxBodyBytes int64
	// TrustProxy takes the client address from X-Forwarded-For.
	TrustProxy bool
	// RetryAfter is advertised on 429 responses.
	RetryAfter time.Duration
}

// Handler serves the auth API.
type Handler struct {
	svc    AuthService
	cfg    Config
	logger *slog.Logger
}

// NewHandler creates a Handler. A nil logger means slog.Default().
func NewHandler(svc AuthService, cfg Config, logger *slog.Logger) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.RetryAfter <= 0 {
		cfg.RetryAfter = auth.DefaultLoginWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, cfg: cfg, logger: logger.With("component", "httpapi")}
}

// Routes returns the API mux wrapped in request logging and panic recovery.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/signup", h.handleSignup)
	mux.HandleFunc("POST /v1/auth/login", h.handleLogin)
	mux.HandleFunc("POST /v1/auth/refresh", h.handleRefresh)
	mux.HandleFunc("POST /v1/auth/logout", h.handleLogout)
	mux.HandleFunc("POST /v1/auth/logout-all", h.requireAuth(h.handleLogoutAll))
	mux.HandleFunc("POST /v1/auth/forgot-password", h.handleForgotPassword)
	mux.HandleFunc("POST /v1/auth/reset-password", h.handleResetPassword)
	mux.HandleFunc("GET /v1/auth/sessions", h.requireAuth(h.handleSessions))
	mux.HandleFunc("GET /v1/auth/me", h.requireAuth(h.handleMe))
	mux.HandleFunc("POST /v1/accounts/{id}/deactivate",
		h.requireAuth(h.requireCapability(CapDeactivateAccount, h.handleDeactivate)))
	mux.HandleFunc("PUT /v1/accounts/{id}/permissions",
		h.requireAuth(h.requireCapability(CapSetPermissions, h.handleSetPermissions)))
	return h.recoverer(h.logRequests(mux))
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type permissionsRequest struct {
	Permissions []string `json:"permissions"`
}

type tokensResponse struct {
	Tokens *auth.TokenPair `json:"tokens"`
}

type sessionsResponse struct {
	Sessions []auth.SessionSummary `json:"sessions"`
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return false
	}
	return true
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.Signup(r.Context(), auth.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Client:   h.clientMeta(r),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password, h.clientMeta(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !h.decode(w, r, &req) {
		return
	}
	pair, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokensResponse{Tokens: pair})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.Logout(r.Context(), req.RefreshToken); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.LogoutAll(r.Context(), accountFrom(r.Context())); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.ActiveSessions(r.Context(), accountFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []auth.SessionSummary{}
	}
	writeJSON(w, http.StatusOK, sessionsResponse{Sessions: sessions})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	account, err := h.svc.Account(r.Context(), accountFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	target, ok := pathAccountID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Deactivate(r.Context(), target); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetPermissions(w http.ResponseWriter, r *http.Request) {
	target, ok := pathAccountID(w, r)
	if !ok {
		return
	}
	var req permissionsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.SetPermissions(r.Context(), target, req.Permissions); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathAccountID(w http.ResponseWriter, r *http.Request) (ulid.ULID, bool) {
	id, err := ulid.ParseStrict(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid account id")
		return ulid.ULID{}, false
	}
	return id, true
}

func (h *Handler) clientMeta(r *http.Request) auth.ClientMeta {
	meta := auth.ClientMeta{UserAgent: r.UserAgent()}
	if ip := clientIP(r, h.cfg.TrustProxy); ip != nil {
		meta.IPAddress = ip.String()
	}
	return meta
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return nil
	}
	return net.ParseIP(host)
}

// retryAfterSeconds rounds up so a client never retries early.
func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(int((d + time.Second - 1) / time.Second))
}
