// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err carries the oops code.
func AssertErrorCode(tb testing.TB, err error, code string) {
	tb.Helper()
	require.Error(tb, err)
	_, ok := oops.AsOops(err)
	require.True(tb, ok, "expected oops error, got %T: %v", err, err)
	assert.Equal(tb, code, Code(err), "error: %v", err)
}

// AssertErrorContext asserts that err is an oops error with the given context key/value.
func AssertErrorContext(tb testing.TB, err error, key string, value any) {
	tb.Helper()
	require.Error(tb, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(tb, ok, "expected oops error, got %T: %v", err, err)
	ctx := oopsErr.Context()
	if assert.Contains(tb, ctx, key) {
		assert.Equal(tb, value, ctx[key])
	}
}

// AssertKind asserts that err matches the sentinel and carries the code
// paired with it.
func AssertKind(tb testing.TB, err, sentinel error, code string) {
	tb.Helper()
	require.Error(tb, err)
	assert.True(tb, errors.Is(err, sentinel), "expected %v in chain, got %v", sentinel, err)
	assert.Equal(tb, code, Code(err), "error: %v", err)
}
