// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"

	"github.com/parley/parley/internal/user"
)

// dummyPasswordHash is verified against when a user doesn't exist, so
// the lookup-miss path still pays a hashing cost before returning false.
// The comparison result is always discarded; this is not a credential.
//
//nolint:gosec // G101: intentionally fake hash for timing consistency, not a credential.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Service provides registration and password authentication.
type Service struct {
	users  user.Repository
	hasher PasswordHasher
}

// NewService creates a new auth Service.
func NewService(users user.Repository, hasher PasswordHasher) (*Service, error) {
	if users == nil {
		return nil, oops.Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	return &Service{users: users, hasher: hasher}, nil
}

// Register creates a new user with a hashed password. The returned
// record carries the hash, never the plaintext. A taken username
// surfaces as user.ErrDuplicate.
func (s *Service) Register(ctx context.Context, username, password, firstName, lastName, phone string) (*user.User, error) {
	if err := user.ValidateUsername(username); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	now := time.Now()
	u := &user.User{
		Username:     username,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        phone,
		JoinedAt:     now,
		LastLoginAt:  now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate reports whether username/password is valid. Wrong
// credentials are a normal false, never an error; an unknown user still
// runs a hash verification so the miss path costs the same.
func (s *Service) Authenticate(ctx context.Context, username, password string) (bool, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			_, _ = s.hasher.Verify(password, dummyPasswordHash) //nolint:errcheck // result discarded, timing only
			return false, nil
		}
		return false, err
	}

	valid, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return false, oops.Code("AUTH_VERIFY_FAILED").
			With("operation", "verify password").
			With("username", username).
			Wrap(err)
	}
	return valid, nil
}

// RecordLogin sets the user's last login time to now. Calling it for an
// unknown username is a caller programming error and is reported as
// user.ErrNotFound rather than silently ignored.
func (s *Service) RecordLogin(ctx context.Context, username string) error {
	return s.users.UpdateLastLogin(ctx, username, time.Now())
}
