// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/holomush/authd/pkg/errutil"
)

var tracer = otel.Tracer("github.com/holomush/authd/internal/auth")

// Operation names used for spans and metrics.
const (
	OpSignup         = "signup"
	OpLogin          = "login"
	OpRefresh        = "refresh"
	OpLogout         = "logout"
	OpLogoutAll      = "logout_all"
	OpForgotPassword = "forgot_password"
	OpResetPassword  = "reset_password"
	OpActiveSessions = "active_sessions"
	OpDeactivate     = "deactivate"
	OpSetPermissions = "set_permissions"
)

// dummyPasswordHash is verified against when an email is unknown, keeping
// login timing independent of account existence. It never matches.
//
//nolint:gosec // G101: intentionally fake hash, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Observer receives operation outcomes. observability.Metrics implements it.
type Observer interface {
	ObserveOperation(operation, result string)
	ObserveTokenIssued(kind string)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, string) {}
func (nopObserver) ObserveTokenIssued(string)       {}

// TokenPair is the access and refresh token returned on authentication.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// AuthResult is returned by Signup and Login.
type AuthResult struct {
	Account *Account   `json:"account"`
	Tokens  *TokenPair `json:"tokens"`
}

// SignupInput carries the fields needed to create an account.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Client   ClientMeta
}

// ServiceConfig holds the immutable service settings.
type ServiceConfig struct {
	Policy PasswordPolicy

	// ExposeResetToken returns the signed reset token from ForgotPassword.
	// Non-production diagnostics only.
	ExposeResetToken bool
}

// Service orchestrates signup, login, refresh rotation, revocation and
// password recovery over the repositories.
type Service struct {
	accounts AccountRepository
	sessions SessionRepository
	resets   ResetRepository
	codec    *Codec
	hasher   PasswordHasher
	cfg      ServiceConfig

	limiter   LoginLimiter
	notifier  ResetNotifier
	observer  Observer
	logger    *slog.Logger
	now       func() time.Time
	dummyHash string
}

// ServiceOption configures optional Service collaborators.
type ServiceOption func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithClock sets the clock. It should match the Codec's clock.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithLimiter sets the login limiter. Defaults to NopLimiter.
func WithLimiter(l LoginLimiter) ServiceOption {
	return func(s *Service) { s.limiter = l }
}

// WithNotifier sets the reset token delivery channel.
func WithNotifier(n ResetNotifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) ServiceOption {
	return func(s *Service) { s.observer = o }
}

// NewService creates a new Service. All repositories, the codec and the
// hasher are required.
func NewService(
	accounts AccountRepository,
	sessions SessionRepository,
	resets ResetRepository,
	codec *Codec,
	hasher PasswordHasher,
	cfg ServiceConfig,
	opts ...ServiceOption,
) (*Service, error) {
	switch {
	case accounts == nil:
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("accounts repository is required")
	case sessions == nil:
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("sessions repository is required")
	case resets == nil:
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("resets repository is required")
	case codec == nil:
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("token codec is required")
	case hasher == nil:
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("password hasher is required")
	}
	if cfg.Policy.MinLength < DefaultMinPasswordLength {
		return nil, oops.Code("AUTH_INVALID_CONFIG").
			With("min", DefaultMinPasswordLength).
			Errorf("password policy minimum length must be at least %d", DefaultMinPasswordLength)
	}

	s := &Service{
		accounts:  accounts,
		sessions:  sessions,
		resets:    resets,
		codec:     codec,
		hasher:    hasher,
		cfg:       cfg,
		limiter:   NopLimiter{},
		observer:  nopObserver{},
		logger:    slog.Default(),
		now:       time.Now,
		dummyHash: dummyPasswordHash,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("logger cannot be nil")
	}

	// Match the dummy hash cost to the configured hasher.
	if h, err := hasher.Hash(context.Background(), "timing-equalization"); err == nil {
		s.dummyHash = h
	}
	return s, nil
}

// begin opens a span and returns a func that records the outcome of the
// operation when deferred with the named error result.
func (s *Service) begin(ctx context.Context, op string) (context.Context, func(*error)) {
	ctx, span := tracer.Start(ctx, "auth."+op)
	return ctx, func(errp *error) {
		result := "success"
		if err := *errp; err != nil {
			result = ResultLabel(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, result)
		}
		s.observer.ObserveOperation(op, result)
		span.End()
	}
}

// ResultLabel maps an error to a low-cardinality metrics label.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrPolicyViolation):
		return "policy_violation"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrExpiredToken):
		return "expired_token"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// Signup creates an account and opens its first session.
func (s *Service) Signup(ctx context.Context, in SignupInput) (res *AuthResult, err error) {
	ctx, end := s.begin(ctx, OpSignup)
	defer end(&err)

	if strings.TrimSpace(in.Name) == "" {
		return nil, invalidInput("name", "name cannot be empty")
	}
	email, err := ValidateEmail(in.Email)
	if err != nil {
		return nil, err
	}

	_, lookupErr := s.accounts.GetByEmail(ctx, email)
	switch {
	case lookupErr == nil:
		return nil, oops.Code(CodeConflict).Wrapf(ErrConflict, "email already registered")
	case !errors.Is(lookupErr, ErrNotFound):
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "get account by email").
			Wrap(lookupErr)
	}

	if err := s.cfg.Policy.Check(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, oops.Code("AUTH_SIGNUP_FAILED").With("operation", "hash password").Wrap(err)
	}

	account, err := NewAccount(in.Name, email, hash, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, oops.Code(CodeConflict).Wrapf(ErrConflict, "email already registered")
		}
		return nil, oops.Code("AUTH_SIGNUP_FAILED").With("operation", "create account").Wrap(err)
	}

	tokens, err := s.openSession(ctx, account, in.Client)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "account created", "account_id", account.ID.String())
	return &AuthResult{Account: account, Tokens: tokens}, nil
}

// Login authenticates by email and password. Unknown emails, inactive
// accounts and wrong passwords all fail with the same ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string, client ClientMeta) (res *AuthResult, err error) {
	ctx, end := s.begin(ctx, OpLogin)
	defer end(&err)

	email = NormalizeEmail(email)

	if err := s.limiter.Allow(ctx, email); err != nil {
		if errors.Is(err, ErrRateLimited) {
			return nil, err
		}
		return nil, oops.Code("AUTH_LOGIN_FAILED").With("operation", "check rate limit").Wrap(err)
	}

	account, lookupErr := s.accounts.GetByEmail(ctx, email)
	targetHash := s.dummyHash
	exists := false
	switch {
	case lookupErr == nil:
		targetHash = account.PasswordHash
		exists = true
	case !errors.Is(lookupErr, ErrNotFound):
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get account by email").
			Wrap(lookupErr)
	}

	// Always verify so that response time does not reveal existence.
	valid, verifyErr := s.hasher.Verify(ctx, password, targetHash)
	if verifyErr != nil && exists {
		return nil, oops.Code("AUTH_LOGIN_FAILED").With("operation", "verify password").Wrap(verifyErr)
	}

	if !exists || !valid || !account.Active {
		if recErr := s.limiter.RecordFailure(ctx, email); recErr != nil {
			errutil.LogErrorContext(ctx, s.logger, "failed to record login failure", recErr)
		}
		return nil, invalidCredentials()
	}

	if resetErr := s.limiter.Reset(ctx, email); resetErr != nil {
		errutil.LogErrorContext(ctx, s.logger, "failed to reset login limiter", resetErr)
	}

	if s.hasher.NeedsUpgrade(account.PasswordHash) {
		s.upgradeHash(ctx, account, password)
	}

	tokens, err := s.openSession(ctx, account, client)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "login succeeded", "account_id", account.ID.String())
	return &AuthResult{Account: account, Tokens: tokens}, nil
}

func (s *Service) upgradeHash(ctx context.Context, account *Account, password string) {
	newHash, err := s.hasher.Hash(ctx, password)
	if err == nil {
		err = s.accounts.UpdatePassword(ctx, account.ID, newHash)
	}
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "failed to upgrade password hash", err)
		return
	}
	account.PasswordHash = newHash
}

// Refresh exchanges a refresh token for a new pair. Each refresh token can
// be exchanged exactly once; the old session is revoked before the new one
// is persisted.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (pair *TokenPair, err error) {
	ctx, end := s.begin(ctx, OpRefresh)
	defer end(&err)

	claims, err := s.codec.Verify(KindRefresh, refreshToken)
	if err != nil {
		return nil, err
	}

	tokenHash := HashToken(refreshToken)
	session, err := s.sessions.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, invalidToken("unknown session")
		}
		return nil, oops.Code("AUTH_REFRESH_FAILED").With("operation", "get session").Wrap(err)
	}
	if session.Revoked {
		return nil, invalidToken("session revoked")
	}
	if session.AccountID.String() != claims.Subject {
		return nil, invalidToken("subject mismatch")
	}

	if session.IsExpiredAt(s.now()) {
		if _, revokeErr := s.sessions.Revoke(ctx, tokenHash); revokeErr != nil {
			return nil, oops.Code("AUTH_REFRESH_FAILED").With("operation", "revoke expired session").Wrap(revokeErr)
		}
		return nil, expiredToken("session expired")
	}

	account, err := s.accounts.GetByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, invalidToken("account not found")
		}
		return nil, oops.Code("AUTH_REFRESH_FAILED").With("operation", "get account").Wrap(err)
	}
	if !account.Active {
		return nil, invalidToken("account inactive")
	}

	won, err := s.sessions.Revoke(ctx, tokenHash)
	if err != nil {
		return nil, oops.Code("AUTH_REFRESH_FAILED").With("operation", "revoke session").Wrap(err)
	}
	if !won {
		return nil, invalidToken("session already rotated")
	}

	pair, err = s.issue(ctx, account, session.ClientMeta())
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "tokens refreshed", "account_id", account.ID.String())
	return pair, nil
}

// Logout revokes the session for refreshToken. Unknown and already revoked
// tokens are not an error.
func (s *Service) Logout(ctx context.Context, refreshToken string) (err error) {
	ctx, end := s.begin(ctx, OpLogout)
	defer end(&err)

	if refreshToken == "" {
		return nil
	}
	if _, err := s.sessions.Revoke(ctx, HashToken(refreshToken)); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").With("operation", "revoke session").Wrap(err)
	}
	return nil
}

// LogoutAll revokes every session of the account.
func (s *Service) LogoutAll(ctx context.Context, accountID ulid.ULID) (err error) {
	ctx, end := s.begin(ctx, OpLogoutAll)
	defer end(&err)

	n, err := s.sessions.RevokeAll(ctx, accountID)
	if err != nil {
		return oops.Code("AUTH_LOGOUT_ALL_FAILED").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	s.logger.InfoContext(ctx, "all sessions revoked", "account_id", accountID.String(), "revoked", n)
	return nil
}

// ForgotPassword issues a reset grant for an active account. The response
// is the same generic message whether or not the email is registered.
func (s *Service) ForgotPassword(ctx context.Context, email string) (res *ResetRequest, err error) {
	ctx, end := s.begin(ctx, OpForgotPassword)
	defer end(&err)

	generic := &ResetRequest{Message: DefaultResetMessage}

	email = NormalizeEmail(email)
	if email == "" {
		return generic, nil
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return generic, nil
		}
		return nil, oops.Code("RESET_REQUEST_FAILED").With("operation", "get account by email").Wrap(err)
	}
	if !account.Active {
		return generic, nil
	}

	grantID, err := GenerateOpaqueSecret()
	if err != nil {
		return nil, oops.Code("RESET_REQUEST_FAILED").With("operation", "generate grant id").Wrap(err)
	}
	signed, claims, err := s.codec.Mint(KindReset, account.ID.String(), WithTokenID(grantID))
	if err != nil {
		return nil, oops.Code("RESET_REQUEST_FAILED").With("operation", "mint reset token").Wrap(err)
	}

	grant, err := NewPasswordReset(account.ID, HashToken(grantID), claims.ExpiresAt, s.now())
	if err != nil {
		return nil, oops.Code("RESET_REQUEST_FAILED").With("operation", "new password reset").Wrap(err)
	}
	if err := s.resets.Create(ctx, grant); err != nil {
		return nil, oops.Code("RESET_REQUEST_FAILED").With("operation", "create password reset").Wrap(err)
	}
	s.observer.ObserveTokenIssued(string(KindReset))

	if s.notifier != nil {
		if err := s.notifier.NotifyPasswordReset(ctx, account, signed, claims.ExpiresAt); err != nil {
			// The response must not differ for registered emails.
			errutil.LogErrorContext(ctx, s.logger, "failed to deliver password reset", err)
		}
	}

	s.logger.InfoContext(ctx, "password reset requested", "account_id", account.ID.String())

	if s.cfg.ExposeResetToken {
		return &ResetRequest{Message: DefaultResetMessage, Token: signed}, nil
	}
	return generic, nil
}

// ResetPassword consumes a reset grant, replaces the password and revokes
// every session of the account.
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) (err error) {
	ctx, end := s.begin(ctx, OpResetPassword)
	defer end(&err)

	claims, err := s.codec.Verify(KindReset, resetToken)
	if err != nil {
		return err
	}

	grantHash := HashToken(claims.ID)
	grant, err := s.resets.GetUsable(ctx, grantHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalidToken("unknown or used grant")
		}
		return oops.Code("RESET_PASSWORD_FAILED").With("operation", "get reset grant").Wrap(err)
	}
	if grant.AccountID.String() != claims.Subject {
		return invalidToken("subject mismatch")
	}

	now := s.now()
	if grant.IsExpiredAt(now) {
		return expiredToken("grant expired")
	}

	if err := s.cfg.Policy.Check(newPassword); err != nil {
		return err
	}

	account, err := s.accounts.GetByID(ctx, grant.AccountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalidToken("account not found")
		}
		return oops.Code("RESET_PASSWORD_FAILED").With("operation", "get account").Wrap(err)
	}
	if !account.Active {
		return invalidToken("account inactive")
	}

	newHash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").With("operation", "hash password").Wrap(err)
	}

	// Claim the grant before touching the password so that only one
	// concurrent caller can change it.
	won, err := s.resets.MarkUsed(ctx, grantHash, now)
	if err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").With("operation", "mark grant used").Wrap(err)
	}
	if !won {
		return invalidToken("grant already used")
	}

	if err := s.accounts.UpdatePassword(ctx, account.ID, newHash); err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").With("operation", "update password").Wrap(err)
	}
	n, err := s.sessions.RevokeAll(ctx, account.ID)
	if err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").With("operation", "revoke sessions").Wrap(err)
	}
	grants, err := s.resets.InvalidateAll(ctx, account.ID, now)
	if err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").With("operation", "invalidate grants").Wrap(err)
	}

	s.logger.InfoContext(ctx, "password reset",
		"account_id", account.ID.String(),
		"sessions_revoked", n,
		"grants_invalidated", grants)
	return nil
}

// ActiveSessions lists the account's unrevoked, unexpired sessions.
func (s *Service) ActiveSessions(ctx context.Context, accountID ulid.ULID) (out []SessionSummary, err error) {
	ctx, end := s.begin(ctx, OpActiveSessions)
	defer end(&err)

	sessions, err := s.sessions.ListActive(ctx, accountID, s.now())
	if err != nil {
		return nil, oops.Code("AUTH_LIST_SESSIONS_FAILED").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	out = make([]SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sess.Summary())
	}
	return out, nil
}

// Authenticate verifies an access token and returns its subject account ID.
func (s *Service) Authenticate(_ context.Context, accessToken string) (ulid.ULID, error) {
	claims, err := s.codec.Verify(KindAccess, accessToken)
	if err != nil {
		return ulid.ULID{}, err
	}
	id, err := ulid.Parse(claims.Subject)
	if err != nil {
		return ulid.ULID{}, invalidToken("malformed subject")
	}
	return id, nil
}

// Account returns the account with the given ID.
func (s *Service) Account(ctx context.Context, id ulid.ULID) (*Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").With("account_id", id.String()).Wrap(err)
	}
	return account, nil
}

// HasCapability reports whether the account is active and holds a
// permission matching name. Unknown accounts have no capabilities.
func (s *Service) HasCapability(ctx context.Context, accountID ulid.ULID, name string) (bool, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, oops.Code("ACCOUNT_CAPABILITY_FAILED").
			With("account_id", accountID.String()).
			With("capability", name).
			Wrap(err)
	}
	return account.HasCapability(name), nil
}

// Deactivate clears the account's active flag and revokes its sessions.
func (s *Service) Deactivate(ctx context.Context, accountID ulid.ULID) (err error) {
	ctx, end := s.begin(ctx, OpDeactivate)
	defer end(&err)

	if err := s.accounts.SetActive(ctx, accountID, false); err != nil {
		return oops.Code("ACCOUNT_DEACTIVATE_FAILED").With("account_id", accountID.String()).Wrap(err)
	}
	if _, err := s.sessions.RevokeAll(ctx, accountID); err != nil {
		return oops.Code("ACCOUNT_DEACTIVATE_FAILED").
			With("account_id", accountID.String()).
			With("operation", "revoke sessions").
			Wrap(err)
	}
	s.logger.InfoContext(ctx, "account deactivated", "account_id", accountID.String())
	return nil
}

// SetPermissions replaces the account's permission patterns.
func (s *Service) SetPermissions(ctx context.Context, accountID ulid.ULID, permissions []string) (err error) {
	ctx, end := s.begin(ctx, OpSetPermissions)
	defer end(&err)

	if err := ValidatePermissions(permissions); err != nil {
		return err
	}
	if err := s.accounts.SetPermissions(ctx, accountID, permissions); err != nil {
		return oops.Code("ACCOUNT_SET_PERMISSIONS_FAILED").With("account_id", accountID.String()).Wrap(err)
	}
	return nil
}

// openSession records the authentication and issues a token pair.
func (s *Service) openSession(ctx context.Context, account *Account, client ClientMeta) (*TokenPair, error) {
	now := s.now()
	if err := s.accounts.UpdateLastAuthenticated(ctx, account.ID, now); err != nil {
		return nil, oops.Code("AUTH_SESSION_OPEN_FAILED").
			With("operation", "update last authenticated").
			With("account_id", account.ID.String()).
			Wrap(err)
	}
	account.LastAuthenticatedAt = &now
	return s.issue(ctx, account, client)
}

// issue mints an access and refresh token and persists the refresh
// session. No token is returned unless the session row was stored.
func (s *Service) issue(ctx context.Context, account *Account, client ClientMeta) (*TokenPair, error) {
	subject := account.ID.String()

	access, accessClaims, err := s.codec.Mint(KindAccess, subject, WithClaim("email", account.Email))
	if err != nil {
		return nil, oops.Code("AUTH_ISSUE_FAILED").With("operation", "mint access token").Wrap(err)
	}
	refresh, refreshClaims, err := s.codec.Mint(KindRefresh, subject)
	if err != nil {
		return nil, oops.Code("AUTH_ISSUE_FAILED").With("operation", "mint refresh token").Wrap(err)
	}

	session, err := NewRefreshSession(account.ID, HashToken(refresh), refreshClaims.ExpiresAt, client, s.now())
	if err != nil {
		return nil, oops.Code("AUTH_ISSUE_FAILED").With("operation", "new refresh session").Wrap(err)
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			With("account_id", subject).
			Wrap(err)
	}

	s.observer.ObserveTokenIssued(string(KindAccess))
	s.observer.ObserveTokenIssued(string(KindRefresh))

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessClaims.ExpiresAt,
		RefreshExpiresAt: refreshClaims.ExpiresAt,
	}, nil
}
