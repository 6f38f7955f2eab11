// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package errutil_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley/parley/pkg/errutil"
)

func captureLog(t *testing.T, fn func(logger *slog.Logger)) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	fn(slog.New(slog.NewJSONHandler(&buf, nil)))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestLogError(t *testing.T) {
	t.Run("plain error logs the message", func(t *testing.T) {
		record := captureLog(t, func(logger *slog.Logger) {
			errutil.LogError(logger, "request failed", errors.New("boom"))
		})
		assert.Equal(t, "request failed", record["msg"])
		assert.Equal(t, "boom", record["error"])
		assert.NotContains(t, record, "code")
	})

	t.Run("oops error logs code and context", func(t *testing.T) {
		err := oops.Code("USER_NOT_FOUND").With("username", "alice").Errorf("no such user")
		record := captureLog(t, func(logger *slog.Logger) {
			errutil.LogError(logger, "lookup failed", err)
		})
		assert.Equal(t, "lookup failed", record["msg"])
		assert.Equal(t, "USER_NOT_FOUND", record["code"])

		ctx, ok := record["context"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "alice", ctx["username"])
	})
}
