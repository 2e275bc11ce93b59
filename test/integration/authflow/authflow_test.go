// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package authflow_test

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/authd/internal/auth"
	"github.com/holomush/authd/internal/sweeper"
)

const password = "correct horse battery staple"

func uniqueEmail() string {
	return "user-" + ulid.Make().String() + "@example.com"
}

var _ = Describe("Auth flows over PostgreSQL", func() {
	var (
		svc   *auth.Service
		email string
		res   *auth.AuthResult
	)

	BeforeEach(func() {
		svc = newService()
		email = uniqueEmail()

		var err error
		res, err = svc.Signup(env.ctx, auth.SignupInput{
			Name:     "Integration",
			Email:    email,
			Password: password,
			Client:   auth.ClientMeta{IPAddress: "203.0.113.7", UserAgent: "ginkgo"},
		})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			_, _ = env.pool.Exec(env.ctx, `DELETE FROM accounts WHERE id = $1`, res.Account.ID.String())
		})
	})

	Describe("signup", func() {
		It("persists the account and opens one session", func() {
			stored, err := env.accounts.GetByEmail(env.ctx, email)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.ID).To(Equal(res.Account.ID))
			Expect(stored.PasswordHash).To(HavePrefix("$argon2id$"))

			sessions, err := svc.ActiveSessions(env.ctx, res.Account.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(HaveLen(1))
			Expect(sessions[0].IPAddress).To(Equal("203.0.113.7"))
		})

		It("rejects a duplicate email regardless of case", func() {
			_, err := svc.Signup(env.ctx, auth.SignupInput{
				Name:     "Dup",
				Email:    "  " + strings.ToUpper(email),
				Password: password,
			})
			Expect(err).To(MatchError(auth.ErrConflict))
		})
	})

	Describe("refresh rotation", func() {
		It("rotates once and rejects replay", func() {
			pair, err := svc.Refresh(env.ctx, res.Tokens.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(pair.RefreshToken).NotTo(Equal(res.Tokens.RefreshToken))

			_, err = svc.Refresh(env.ctx, res.Tokens.RefreshToken)
			Expect(err).To(MatchError(auth.ErrInvalidToken))

			_, err = svc.Refresh(env.ctx, pair.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
		})

		It("lets exactly one of many concurrent exchanges win", func() {
			const callers = 10
			var (
				wins  atomic.Int32
				wg    sync.WaitGroup
				start = make(chan struct{})
			)
			for range callers {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					<-start
					if _, err := svc.Refresh(env.ctx, res.Tokens.RefreshToken); err == nil {
						wins.Add(1)
					} else {
						Expect(err).To(MatchError(auth.ErrInvalidToken))
					}
				}()
			}
			close(start)
			wg.Wait()
			Expect(wins.Load()).To(Equal(int32(1)))
		})

		It("stops working after logout all", func() {
			login, err := svc.Login(env.ctx, email, password, auth.ClientMeta{})
			Expect(err).NotTo(HaveOccurred())

			Expect(svc.LogoutAll(env.ctx, res.Account.ID)).To(Succeed())

			_, err = svc.Refresh(env.ctx, res.Tokens.RefreshToken)
			Expect(err).To(MatchError(auth.ErrInvalidToken))
			_, err = svc.Refresh(env.ctx, login.Tokens.RefreshToken)
			Expect(err).To(MatchError(auth.ErrInvalidToken))

			sessions, err := svc.ActiveSessions(env.ctx, res.Account.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(BeEmpty())
		})
	})

	Describe("password recovery", func() {
		It("resets the password once and revokes every session", func() {
			req, err := svc.ForgotPassword(env.ctx, email)
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Token).NotTo(BeEmpty())

			const newPassword = "an entirely new passphrase"
			Expect(svc.ResetPassword(env.ctx, req.Token, newPassword)).To(Succeed())
			Expect(svc.ResetPassword(env.ctx, req.Token, "yet another passphrase")).
				To(MatchError(auth.ErrInvalidToken))

			_, err = svc.Refresh(env.ctx, res.Tokens.RefreshToken)
			Expect(err).To(MatchError(auth.ErrInvalidToken))

			_, err = svc.Login(env.ctx, email, password, auth.ClientMeta{})
			Expect(err).To(MatchError(auth.ErrInvalidCredentials))
			_, err = svc.Login(env.ctx, email, newPassword, auth.ClientMeta{})
			Expect(err).NotTo(HaveOccurred())
		})

		It("retires older outstanding reset links", func() {
			older, err := svc.ForgotPassword(env.ctx, email)
			Expect(err).NotTo(HaveOccurred())
			newer, err := svc.ForgotPassword(env.ctx, email)
			Expect(err).NotTo(HaveOccurred())

			Expect(svc.ResetPassword(env.ctx, newer.Token, "an entirely new passphrase")).To(Succeed())
			Expect(svc.ResetPassword(env.ctx, older.Token, "a hijacking passphrase1")).
				To(MatchError(auth.ErrInvalidToken))
		})

		It("answers unknown emails the same way", func() {
			req, err := svc.ForgotPassword(env.ctx, uniqueEmail())
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Token).To(BeEmpty())
			Expect(req.Message).NotTo(BeEmpty())
		})
	})

	Describe("login throttling", func() {
		It("locks out after repeated failures and clears on reset", func() {
			for range 3 {
				_, err := svc.Login(env.ctx, email, "wrong password!", auth.ClientMeta{})
				Expect(err).To(MatchError(auth.ErrInvalidCredentials))
			}

			_, err := svc.Login(env.ctx, email, password, auth.ClientMeta{})
			Expect(err).To(MatchError(auth.ErrRateLimited))

			env.redis.FastForward(2 * time.Minute)

			_, err = svc.Login(env.ctx, email, password, auth.ClientMeta{})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("deactivation", func() {
		It("blocks login and refresh", func() {
			Expect(svc.Deactivate(env.ctx, res.Account.ID)).To(Succeed())

			_, err := svc.Login(env.ctx, email, password, auth.ClientMeta{})
			Expect(err).To(MatchError(auth.ErrInvalidCredentials))
			_, err = svc.Refresh(env.ctx, res.Tokens.RefreshToken)
			Expect(err).To(MatchError(auth.ErrInvalidToken))
		})
	})
})

var _ = Describe("Sweeper over PostgreSQL", func() {
	It("deletes only expired sessions and reset grants", func() {
		ctx := env.ctx
		now := time.Now().UTC().Truncate(time.Microsecond)

		account, err := auth.NewAccount("Sweep", uniqueEmail(), "hash", now)
		Expect(err).NotTo(HaveOccurred())
		Expect(env.accounts.Create(ctx, account)).To(Succeed())
		DeferCleanup(func() {
			_, _ = env.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, account.ID.String())
		})

		expired, err := auth.NewRefreshSession(account.ID, auth.HashToken(ulid.Make().String()),
			now.Add(time.Minute), auth.ClientMeta{}, now)
		Expect(err).NotTo(HaveOccurred())
		live, err := auth.NewRefreshSession(account.ID, auth.HashToken(ulid.Make().String()),
			now.Add(48*time.Hour), auth.ClientMeta{}, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(env.sessions.Create(ctx, expired)).To(Succeed())
		Expect(env.sessions.Create(ctx, live)).To(Succeed())

		grant, err := auth.NewPasswordReset(account.ID, auth.HashToken(ulid.Make().String()), now.Add(time.Minute), now)
		Expect(err).NotTo(HaveOccurred())
		Expect(env.resets.Create(ctx, grant)).To(Succeed())

		sw, err := sweeper.New(env.sessions, env.resets, sweeper.Config{Interval: time.Hour},
			sweeper.WithClock(func() time.Time { return now.Add(time.Hour) }))
		Expect(err).NotTo(HaveOccurred())

		result, err := sw.SweepOnce(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Sessions).To(BeNumerically(">=", 1))
		Expect(result.Resets).To(BeNumerically(">=", 1))

		_, err = env.sessions.GetByTokenHash(ctx, expired.TokenHash)
		Expect(err).To(MatchError(auth.ErrNotFound))
		_, err = env.sessions.GetByTokenHash(ctx, live.TokenHash)
		Expect(err).NotTo(HaveOccurred())
	})
})
