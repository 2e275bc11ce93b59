// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"unicode"
	"unicode/utf8"

	"github.com/samber/oops"
)

// Password policy bounds.
const (
	DefaultMinPasswordLength = 8
	DefaultMaxPasswordLength = 128
)

// PasswordPolicy describes the strength rules for account secrets. Lengths
// count runes, not bytes.
type PasswordPolicy struct {
	MinLength      int
	MaxLength      int
	RequireSpecial bool
}

// DefaultPasswordPolicy requires 8 to 128 characters with a lower-case
// letter, an upper-case letter and a digit.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength: DefaultMinPasswordLength,
		MaxLength: DefaultMaxPasswordLength,
	}
}

// Check returns an error wrapping ErrPolicyViolation naming the first rule
// the secret breaks.
func (p PasswordPolicy) Check(secret string) error {
	n := utf8.RuneCountInString(secret)
	if n < p.MinLength {
		return policyViolation("min_length", "password must be at least %d characters", p.MinLength)
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		return policyViolation("max_length", "password must be at most %d characters", p.MaxLength)
	}

	var lower, upper, digit, special bool
	for _, r := range secret {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	switch {
	case !lower:
		return policyViolation("lower", "password must contain a lower-case letter")
	case !upper:
		return policyViolation("upper", "password must contain an upper-case letter")
	case !digit:
		return policyViolation("digit", "password must contain a digit")
	case p.RequireSpecial && !special:
		return policyViolation("special", "password must contain a special character")
	}
	return nil
}

// MeetsPolicy reports whether secret satisfies the policy.
func (p PasswordPolicy) MeetsPolicy(secret string) bool {
	return p.Check(secret) == nil
}

func policyViolation(rule, format string, args ...any) error {
	return oops.Code(CodePolicyViolation).
		With("rule", rule).
		Wrapf(ErrPolicyViolation, format, args...)
}
