// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/parley/parley/internal/notify"
	"github.com/parley/parley/internal/user"
)

// ResetService manages the one-time reset-code protocol. Per user the
// code moves through NoActiveCode -> CodeIssued -> Verified/Consumed,
// with each new issuance superseding the previous code by overwriting
// the stored hash.
type ResetService struct {
	users    user.Repository
	hasher   PasswordHasher
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewResetService creates a new ResetService.
func NewResetService(users user.Repository, hasher PasswordHasher, notifier notify.Notifier, logger *slog.Logger) (*ResetService, error) {
	if users == nil {
		return nil, oops.Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if notifier == nil {
		return nil, oops.Errorf("notifier is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResetService{users: users, hasher: hasher, notifier: notifier, logger: logger}, nil
}

// IssueResetCode generates a fresh 6-digit code, stores its hash with
// the generation time, and hands the plaintext to the out-of-band
// notifier. The plaintext is never persisted.
//
// Ordering is store-then-send: a delivery failure is reported but does
// not roll back the already-stored code, which stays live until
// superseded or consumed. Concurrent issuance for the same user is
// last-write-wins.
func (s *ResetService) IssueResetCode(ctx context.Context, username string) (string, time.Time, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", time.Time{}, err
	}

	code, err := GenerateResetCode()
	if err != nil {
		return "", time.Time{}, err
	}

	hash, err := s.hasher.Hash(code)
	if err != nil {
		return "", time.Time{}, oops.Code("RESET_ISSUE_FAILED").
			With("operation", "hash reset code").
			With("username", username).
			Wrap(err)
	}

	generatedAt := time.Now()
	if err := s.users.UpdateResetCode(ctx, username, hash, generatedAt); err != nil {
		return "", time.Time{}, err
	}

	if err := s.notifier.Send(ctx, u.Phone, fmt.Sprintf("Your Parley reset code is: %s", code)); err != nil {
		s.logger.Warn("reset code stored but delivery failed",
			"username", username,
			"error", err,
		)
		return code, generatedAt, oops.Code("RESET_DELIVERY_FAILED").
			With("username", username).
			Wrap(err)
	}

	return code, generatedAt, nil
}

// VerifyResetCode reports whether the candidate code matches the user's
// active code. False when the user is unknown or has no active code;
// a mismatch is a normal false, never an error. No expiry is checked:
// a code stays valid until superseded or consumed.
func (s *ResetService) VerifyResetCode(ctx context.Context, username, code string) (bool, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if u.ResetCodeHash == nil {
		return false, nil
	}

	valid, err := s.hasher.Verify(code, *u.ResetCodeHash)
	if err != nil {
		return false, oops.Code("RESET_VERIFY_FAILED").
			With("operation", "verify reset code").
			With("username", username).
			Wrap(err)
	}
	return valid, nil
}

// ConsumeResetCode replaces the user's password. It must be sequenced
// after a successful VerifyResetCode by the caller; it does not
// re-verify, and it does not clear the stored code hash; the code
// remains verifiable until a new one is issued.
func (s *ResetService) ConsumeResetCode(ctx context.Context, username, newPassword string) error {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("RESET_CONSUME_FAILED").
			With("operation", "hash new password").
			With("username", username).
			Wrap(err)
	}
	return s.users.UpdatePassword(ctx, username, hash)
}
