// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package auth_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley/parley/internal/auth"
)

func TestGenerateResetCode(t *testing.T) {
	t.Run("always six digits in range", func(t *testing.T) {
		for range 200 {
			code, err := auth.GenerateResetCode()
			require.NoError(t, err)
			require.Len(t, code, 6)

			n, err := strconv.Atoi(code)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, n, 100000)
			assert.LessOrEqual(t, n, 999999)
		}
	})

	t.Run("codes vary", func(t *testing.T) {
		seen := make(map[string]bool)
		for range 50 {
			code, err := auth.GenerateResetCode()
			require.NoError(t, err)
			seen[code] = true
		}
		// 50 draws from 900k values collide vanishingly rarely.
		assert.Greater(t, len(seen), 1)
	})
}
