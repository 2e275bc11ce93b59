// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authd/internal/auth"
	"github.com/holomush/authd/internal/auth/memstore"
	"github.com/holomush/authd/pkg/errutil"
)

const (
	testName     = "Ada Lovelace"
	testEmail    = "ada@example.com"
	testPassword = "Correct1Horse"
)

type recordingObserver struct {
	mu         sync.Mutex
	operations map[string]int
	issued     map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{operations: map[string]int{}, issued: map[string]int{}}
}

func (o *recordingObserver) ObserveOperation(op, result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.operations[op+"/"+result]++
}

func (o *recordingObserver) ObserveTokenIssued(kind string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.issued[kind]++
}

func (o *recordingObserver) count(op, result string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.operations[op+"/"+result]
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyPasswordReset(ctx context.Context, account *auth.Account, token string, expiresAt time.Time) error {
	args := m.Called(ctx, account, token, expiresAt)
	return args.Error(0)
}

type harness struct {
	clock    *testClock
	store    *memstore.Store
	codec    *auth.Codec
	observer *recordingObserver
	svc      *auth.Service
}

type harnessConfig struct {
	cfg      auth.ServiceConfig
	sessions auth.SessionRepository
	resets   auth.ResetRepository
	opts     []auth.ServiceOption
}

func newHarness(t *testing.T, mutate ...func(*harnessConfig)) *harness {
	t.Helper()
	h := &harness{
		clock:    newTestClock(),
		store:    memstore.New(),
		observer: newRecordingObserver(),
	}
	h.codec = newTestCodec(t, h.clock)

	hc := &harnessConfig{
		cfg:      auth.ServiceConfig{Policy: auth.DefaultPasswordPolicy()},
		sessions: h.store.Sessions(),
		resets:   h.store.Resets(),
	}
	for _, m := range mutate {
		m(hc)
	}

	opts := append([]auth.ServiceOption{
		auth.WithClock(h.clock.Now),
		auth.WithObserver(h.observer),
	}, hc.opts...)

	svc, err := auth.NewService(h.store.Accounts(), hc.sessions, hc.resets, h.codec, newFastHasher(), hc.cfg, opts...)
	require.NoError(t, err)
	h.svc = svc
	return h
}

func exposeResetToken(hc *harnessConfig) { hc.cfg.ExposeResetToken = true }

func (h *harness) signup(t *testing.T) *auth.AuthResult {
	t.Helper()
	res, err := h.svc.Signup(context.Background(), auth.SignupInput{
		Name:     testName,
		Email:    testEmail,
		Password: testPassword,
		Client:   auth.ClientMeta{IPAddress: "198.51.100.1", UserAgent: "test-agent"},
	})
	require.NoError(t, err)
	return res
}

func TestNewService_RequiresDependencies(t *testing.T) {
	store := memstore.New()
	clock := newTestClock()
	codec := newTestCodec(t, clock)
	hasher := newFastHasher()
	cfg := auth.ServiceConfig{Policy: auth.DefaultPasswordPolicy()}

	_, err := auth.NewService(nil, store.Sessions(), store.Resets(), codec, hasher, cfg)
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_DEPENDENCY")

	_, err = auth.NewService(store.Accounts(), nil, store.Resets(), codec, hasher, cfg)
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_DEPENDENCY")

	_, err = auth.NewService(store.Accounts(), store.Sessions(), store.Resets(), nil, hasher, cfg)
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_DEPENDENCY")

	_, err = auth.NewService(store.Accounts(), store.Sessions(), store.Resets(), codec, nil, cfg)
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_DEPENDENCY")

	_, err = auth.NewService(store.Accounts(), store.Sessions(), store.Resets(), codec, hasher,
		auth.ServiceConfig{Policy: auth.PasswordPolicy{MinLength: 4}})
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_CONFIG")

	_, err = auth.NewService(store.Accounts(), store.Sessions(), store.Resets(), codec, hasher, cfg, auth.WithLogger(nil))
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_DEPENDENCY")
}

func TestSignup(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account and first session", func(t *testing.T) {
		h := newHarness(t)
		res := h.signup(t)

		assert.Equal(t, testEmail, res.Account.Email)
		assert.True(t, res.Account.Active)
		require.NotNil(t, res.Account.LastAuthenticatedAt)
		assert.Equal(t, h.clock.Now(), *res.Account.LastAuthenticatedAt)
		assert.NotEmpty(t, res.Tokens.AccessToken)
		assert.NotEmpty(t, res.Tokens.RefreshToken)

		sessions, err := h.svc.ActiveSessions(ctx, res.Account.ID)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, "198.51.100.1", sessions[0].IPAddress)

		id, err := h.svc.Authenticate(ctx, res.Tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, res.Account.ID, id)

		assert.Equal(t, 1, h.observer.count(auth.OpSignup, "success"))
	})

	t.Run("duplicate email conflicts regardless of case", func(t *testing.T) {
		h := newHarness(t)
		h.signup(t)

		_, err := h.svc.Signup(ctx, auth.SignupInput{Name: "Other", Email: "ADA@example.com ", Password: testPassword})
		assert.ErrorIs(t, err, auth.ErrConflict)
		assert.Equal(t, 1, h.observer.count(auth.OpSignup, "conflict"))
	})

	t.Run("weak password is a policy violation", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.Signup(ctx, auth.SignupInput{Name: testName, Email: testEmail, Password: "weak"})
		assert.ErrorIs(t, err, auth.ErrPolicyViolation)

		_, err = h.store.Accounts().GetByEmail(ctx, testEmail)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("malformed input is rejected", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.Signup(ctx, auth.SignupInput{Name: "", Email: testEmail, Password: testPassword})
		assert.ErrorIs(t, err, auth.ErrInvalidInput)
		_, err = h.svc.Signup(ctx, auth.SignupInput{Name: testName, Email: "not-an-email", Password: testPassword})
		assert.ErrorIs(t, err, auth.ErrInvalidInput)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials open a new session", func(t *testing.T) {
		h := newHarness(t)
		signup := h.signup(t)
		h.clock.Advance(time.Minute)

		res, err := h.svc.Login(ctx, " ADA@Example.com", testPassword, auth.ClientMeta{})
		require.NoError(t, err)
		assert.Equal(t, signup.Account.ID, res.Account.ID)
		assert.Equal(t, h.clock.Now(), *res.Account.LastAuthenticatedAt)

		sessions, err := h.svc.ActiveSessions(ctx, signup.Account.ID)
		require.NoError(t, err)
		assert.Len(t, sessions, 2)
	})

	t.Run("failures are indistinguishable", func(t *testing.T) {
		h := newHarness(t)
		signup := h.signup(t)

		_, wrongPassword := h.svc.Login(ctx, testEmail, "Wrong1Password", auth.ClientMeta{})
		_, unknownEmail := h.svc.Login(ctx, "nobody@example.com", testPassword, auth.ClientMeta{})

		require.NoError(t, h.svc.Deactivate(ctx, signup.Account.ID))
		_, inactive := h.svc.Login(ctx, testEmail, testPassword, auth.ClientMeta{})

		for _, err := range []error{wrongPassword, unknownEmail, inactive} {
			errutil.AssertKind(t, err, auth.ErrInvalidCredentials, auth.CodeInvalidCredentials)
			assert.Equal(t, wrongPassword.Error(), err.Error())
		}
	})

	t.Run("rate limited after repeated failures", func(t *testing.T) {
		limiter := newCountingLimiter(2)
		h := newHarness(t, func(hc *harnessConfig) {
			hc.opts = append(hc.opts, auth.WithLimiter(limiter))
		})
		h.signup(t)

		for range 2 {
			_, err := h.svc.Login(ctx, testEmail, "Wrong1Password", auth.ClientMeta{})
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		}
		_, err := h.svc.Login(ctx, testEmail, testPassword, auth.ClientMeta{})
		assert.ErrorIs(t, err, auth.ErrRateLimited)

		_, err = h.svc.Login(ctx, "nobody@example.com", testPassword, auth.ClientMeta{})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("success resets the failure count", func(t *testing.T) {
		limiter := newCountingLimiter(2)
		h := newHarness(t, func(hc *harnessConfig) {
			hc.opts = append(hc.opts, auth.WithLimiter(limiter))
		})
		h.signup(t)

		_, err := h.svc.Login(ctx, testEmail, "Wrong1Password", auth.ClientMeta{})
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
		_, err = h.svc.Login(ctx, testEmail, testPassword, auth.ClientMeta{})
		require.NoError(t, err)
		assert.Zero(t, limiter.failures(testEmail))
	})

	t.Run("upgrades stale hash", func(t *testing.T) {
		h := newHarness(t)
		signup := h.signup(t)

		weak := auth.NewArgon2idHasher(auth.WithArgon2Params(auth.Argon2Params{
			Time: 1, MemoryKiB: 512, Threads: 1, SaltLength: 16, KeyLength: 32,
		}))
		stale, err := weak.Hash(ctx, testPassword)
		require.NoError(t, err)
		require.NoError(t, h.store.Accounts().UpdatePassword(ctx, signup.Account.ID, stale))

		_, err = h.svc.Login(ctx, testEmail, testPassword, auth.ClientMeta{})
		require.NoError(t, err)

		account, err := h.store.Accounts().GetByID(ctx, signup.Account.ID)
		require.NoError(t, err)
		assert.NotEqual(t, stale, account.PasswordHash)
		assert.False(t, newFastHasher().NeedsUpgrade(account.PasswordHash))
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates the pair and consumes the old token", func(t *testing.T) {
		h := newHarness(t)
		signup := h.signup(t)
		old := signup.Tokens.RefreshToken

		pair, err := h.svc.Refresh(ctx, old)
		require.NoError(t, err)
		assert.NotEqual(t, old, pair.RefreshToken)

		_, err = h.svc.Refresh(ctx, old)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)

		_, err = h.svc.Refresh(ctx, pair.RefreshToken)
		assert.NoError(t, err)
	})

	t.Run("new session inherits client metadata", func(t *testing.T) {
		h := newHarness(t)
		signup := h.signup(t)

		pair, err := h.svc.Refresh(ctx, signup.Tokens.RefreshToken)
		require.NoError(t, err)

		sess, err := h.store.Sessions().GetByTokenHash(ctx, auth.HashToken(pair.RefreshToken))
		require.NoError(t, err)
		assert.Equal(t, "198.51.100.1", sess.IPAddress)
		assert.Equal(t, "test-agent", sess.UserAgent)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		h := newHarness(t)
		signup := h.signup(t)
		_, err := h.svc.Refresh(ctx, signup.Tokens.AccessToken)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		h := newHarness(t)
		signup := h.signup(t)
		h.clock.Advance(8 * 24 * time.Hour)

		_, err := h.svc.Refresh(ctx, signup.Tokens.RefreshToken)
		errutil.AssertKind(t, err, auth.ErrExpiredToken, auth.CodeExpiredToken)
	})

	t.Run("persisted expiry is enforced", func(t *testing.T) {
		h := newHarness(t)
		signup := h.signup(t)

		// Replace the stored session with one that expires sooner than the token.
		hash := auth.HashToken(signup.Tokens.RefreshToken)
		_, err := h.store.Sessions().DeleteExpired(ctx, h.clock.Now().Add(30*24*time.Hour))
		require.NoError(t, err)
		short, err := auth.NewRefreshSession(signup.Account.ID, hash, h.clock.Now().Add(time.Minute), auth.ClientMeta{}, h.clock.Now())
		require.NoError(t, err)
		require.NoError(t, h.store.Sessions().Create(ctx, short))

		h.clock.Advance(2 * time.Minute)
		_, err = h.svc.Refresh(ctx, signup.Tokens.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrExpiredToken)

		sess, err := h.store.Sessions().GetByTokenHash(ctx, hash)
		require.NoError(t, err)
		assert.True(t, sess.Revoked)
	})

	t.Run("inactive account cannot refresh", func(t *testing.T) {
		h := newHarness(t)
		signup := h.signup(t)
		require.NoError(t, h.store.Accounts().SetActive(ctx, signup.Account.ID, false))

		_, err := h.svc.Refresh(ctx, signup.Tokens.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes the session and is idempotent", func(t *testing.T) {
		h := newHarness(t)
		signup := h.signup(t)

		require.NoError(t, h.svc.Logout(ctx, signup.Tokens.RefreshToken))
		require.NoError(t, h.svc.Logout(ctx, signup.Tokens.RefreshToken))
		require.NoError(t, h.svc.Logout(ctx, "unknown"))
		require.NoError(t, h.svc.Logout(ctx, ""))

		_, err := h.svc.Refresh(ctx, signup.Tokens.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("logout all revokes every session", func(t *testing.T) {
		h := newHarness(t)
		signup := h.signup(t)
		login, err := h.svc.Login(ctx, testEmail, testPassword, auth.ClientMeta{})
		require.NoError(t, err)

		require.NoError(t, h.svc.LogoutAll(ctx, signup.Account.ID))

		for _, token := range []string{signup.Tokens.RefreshToken, login.Tokens.RefreshToken} {
			_, err := h.svc.Refresh(ctx, token)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		}
		sessions, err := h.svc.ActiveSessions(ctx, signup.Account.ID)
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})
}

func TestSignupLoginRotationSequence(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.svc.Signup(ctx, auth.SignupInput{Name: "A", Email: "a@x.com", Password: "Abc12345!"})
	require.NoError(t, err)

	_, err = h.svc.Login(ctx, "a@x.com", "wrong", auth.ClientMeta{})
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	login, err := h.svc.Login(ctx, "a@x.com", "Abc12345!", auth.ClientMeta{})
	require.NoError(t, err)
	r1 := login.Tokens.RefreshToken
	require.NotEmpty(t, r1)

	rotated, err := h.svc.Refresh(ctx, r1)
	require.NoError(t, err)
	r2 := rotated.RefreshToken
	assert.NotEqual(t, r1, r2)

	_, err = h.svc.Refresh(ctx, r1)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestForgotPasswordUnknownEmailPersistsNothing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, exposeResetToken)

	res, err := h.svc.ForgotPassword(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Equal(t, auth.DefaultResetMessage, res.Message)
	assert.Empty(t, res.Token)

	n, err := h.store.Resets().DeleteExpired(ctx, h.clock.Now().Add(365*24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n, "no grant row may exist")
}

func TestForgotPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email gets the generic response", func(t *testing.T) {
		notifier := &mockNotifier{}
		h := newHarness(t, exposeResetToken, func(hc *harnessConfig) {
			hc.opts = append(hc.opts, auth.WithNotifier(notifier))
		})

		res, err := h.svc.ForgotPassword(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Equal(t, auth.DefaultResetMessage, res.Message)
		assert.Empty(t, res.Token)
		notifier.AssertNotCalled(t, "NotifyPasswordReset", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("known email delivers a token", func(t *testing.T) {
		notifier := &mockNotifier{}
		notifier.On("NotifyPasswordReset", mock.Anything, mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(nil)
		h := newHarness(t, func(hc *harnessConfig) {
			hc.opts = append(hc.opts, auth.WithNotifier(notifier))
		})
		h.signup(t)

		res, err := h.svc.ForgotPassword(ctx, testEmail)
		require.NoError(t, err)
		assert.Equal(t, auth.DefaultResetMessage, res.Message)
		assert.Empty(t, res.Token, "token must not be exposed by default")
		notifier.AssertNumberOfCalls(t, "NotifyPasswordReset", 1)
	})

	t.Run("delivery failure does not change the response", func(t *testing.T) {
		notifier := &mockNotifier{}
		notifier.On("NotifyPasswordReset", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("smtp down"))
		h := newHarness(t, func(hc *harnessConfig) {
			hc.opts = append(hc.opts, auth.WithNotifier(notifier))
		})
		h.signup(t)

		res, err := h.svc.ForgotPassword(ctx, testEmail)
		require.NoError(t, err)
		assert.Equal(t, auth.DefaultResetMessage, res.Message)
	})

	t.Run("inactive account gets the generic response", func(t *testing.T) {
		h := newHarness(t, exposeResetToken)
		signup := h.signup(t)
		require.NoError(t, h.svc.Deactivate(ctx, signup.Account.ID))

		res, err := h.svc.ForgotPassword(ctx, testEmail)
		require.NoError(t, err)
		assert.Empty(t, res.Token)
	})
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()
	const newPassword = "Brand1NewPassword"

	requestReset := func(t *testing.T, h *harness) string {
		t.Helper()
		res, err := h.svc.ForgotPassword(ctx, testEmail)
		require.NoError(t, err)
		require.NotEmpty(t, res.Token)
		return res.Token
	}

	t.Run("replaces password and revokes sessions", func(t *testing.T) {
		h := newHarness(t, exposeResetToken)
		signup := h.signup(t)
		token := requestReset(t, h)

		require.NoError(t, h.svc.ResetPassword(ctx, token, newPassword))

		_, err := h.svc.Refresh(ctx, signup.Tokens.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)

		_, err = h.svc.Login(ctx, testEmail, testPassword, auth.ClientMeta{})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

		_, err = h.svc.Login(ctx, testEmail, newPassword, auth.ClientMeta{})
		assert.NoError(t, err)
	})

	t.Run("token is single use", func(t *testing.T) {
		h := newHarness(t, exposeResetToken)
		h.signup(t)
		token := requestReset(t, h)

		require.NoError(t, h.svc.ResetPassword(ctx, token, newPassword))
		err := h.svc.ResetPassword(ctx, token, "Another1Password")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("reset invalidates older outstanding grants", func(t *testing.T) {
		h := newHarness(t, exposeResetToken)
		h.signup(t)
		first := requestReset(t, h)
		second := requestReset(t, h)
		require.NotEqual(t, first, second)

		require.NoError(t, h.svc.ResetPassword(ctx, first, newPassword))

		err := h.svc.ResetPassword(ctx, second, "Intruder1Password")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)

		_, err = h.svc.Login(ctx, testEmail, "Intruder1Password", auth.ClientMeta{})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		_, err = h.svc.Login(ctx, testEmail, newPassword, auth.ClientMeta{})
		assert.NoError(t, err)
	})

	t.Run("policy violation leaves the grant usable", func(t *testing.T) {
		h := newHarness(t, exposeResetToken)
		h.signup(t)
		token := requestReset(t, h)

		err := h.svc.ResetPassword(ctx, token, "weak")
		assert.ErrorIs(t, err, auth.ErrPolicyViolation)
		assert.NoError(t, h.svc.ResetPassword(ctx, token, newPassword))
	})

	t.Run("expired token", func(t *testing.T) {
		h := newHarness(t, exposeResetToken)
		h.signup(t)
		token := requestReset(t, h)
		h.clock.Advance(2 * time.Hour)

		err := h.svc.ResetPassword(ctx, token, newPassword)
		assert.ErrorIs(t, err, auth.ErrExpiredToken)
	})

	t.Run("refresh token is not a reset token", func(t *testing.T) {
		h := newHarness(t, exposeResetToken)
		signup := h.signup(t)
		err := h.svc.ResetPassword(ctx, signup.Tokens.RefreshToken, newPassword)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("signed token without a grant is invalid", func(t *testing.T) {
		h := newHarness(t)
		signup := h.signup(t)
		forged, _, err := h.codec.Mint(auth.KindReset, signup.Account.ID.String())
		require.NoError(t, err)

		err = h.svc.ResetPassword(ctx, forged, newPassword)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestCapabilities(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	signup := h.signup(t)
	id := signup.Account.ID

	ok, err := h.svc.HasCapability(ctx, id, "read")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, h.svc.SetPermissions(ctx, id, []string{"comments:*"}))
	ok, err = h.svc.HasCapability(ctx, id, "comments:delete")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = h.svc.HasCapability(ctx, id, "read")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, h.svc.SetPermissions(ctx, id, []string{""}), auth.ErrInvalidInput)

	ok, err = h.svc.HasCapability(ctx, ulid.Make(), "read")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.svc.Account(ctx, ulid.Make())
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "success", auth.ResultLabel(nil))
	assert.Equal(t, "expired_token", auth.ResultLabel(oops.Code("OUTER").Wrap(auth.ErrExpiredToken)))
	assert.Equal(t, "rate_limited", auth.ResultLabel(auth.ErrRateLimited))
	assert.Equal(t, "error", auth.ResultLabel(errors.New("boom")))
}

// countingLimiter limits a key after max recorded failures.
type countingLimiter struct {
	mu    sync.Mutex
	max   int
	count map[string]int
}

func newCountingLimiter(maxFailures int) *countingLimiter {
	return &countingLimiter{max: maxFailures, count: map[string]int{}}
}

func (l *countingLimiter) Allow(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count[key] >= l.max {
		return auth.ErrRateLimited
	}
	return nil
}

func (l *countingLimiter) RecordFailure(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count[key]++
	return nil
}

func (l *countingLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.count, key)
	return nil
}

func (l *countingLimiter) failures(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count[key]
}
