// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package auth provides credential lifecycle primitives for Parley:
// password hashing, bearer-token issuance, and the reset-code protocol.
package auth

import (
	"errors"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 12

// ErrEmptySecret is returned when attempting to hash an empty secret.
var ErrEmptySecret = errors.New("secret cannot be empty")

// PasswordHasher provides one-way hashing and verification for passwords
// and reset codes.
type PasswordHasher interface {
	// Hash produces a salted one-way hash of the secret.
	Hash(secret string) (string, error)

	// Verify checks if the secret matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid hash.
	Verify(secret, hash string) (bool, error)
}

// BcryptHasher implements PasswordHasher using bcrypt with a configurable
// work factor.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher. A cost outside bcrypt's valid
// range falls back to DefaultBcryptCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash produces a salted bcrypt hash of the secret.
func (h *BcryptHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", oops.Code("AUTH_EMPTY_SECRET").Wrap(ErrEmptySecret)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}
	return string(hash), nil
}

// Verify checks if the secret matches the hash. A mismatch is a normal
// false, never an error.
func (h *BcryptHasher) Verify(secret, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
}

// Compile-time interface check.
var _ PasswordHasher = (*BcryptHasher)(nil)
