// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package notify delivers short messages over an out-of-band channel.
// The credential core depends only on the success/failure signal.
package notify

import (
	"context"
	"log/slog"
)

// Notifier hands a human-readable message to an out-of-band channel.
type Notifier interface {
	// Send delivers body to the destination phone number.
	Send(ctx context.Context, phone, body string) error
}

// LogNotifier writes messages to the log instead of sending them.
// Intended for development and tests.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Send logs the message and reports success.
func (n *LogNotifier) Send(_ context.Context, phone, body string) error {
	n.logger.Info("out-of-band message (log notifier)",
		"phone", phone,
		"body", body,
	)
	return nil
}

// Compile-time interface check.
var _ Notifier = (*LogNotifier)(nil)
