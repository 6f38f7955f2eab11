// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package user defines user accounts and their persistence contract.
package user

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/samber/oops"
)

// Sentinel errors for the user entity.
var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrDuplicate is returned when a username is already taken.
	ErrDuplicate = errors.New("username already taken")
)

// Username validation constraints.
const (
	MinUsernameLength = 1
	MaxUsernameLength = 50
)

// usernameRegex matches usernames that start with a letter and contain
// only letters, numbers, and underscores.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// User represents a registered account.
//
// PasswordHash is always a one-way hash, never the plaintext password.
// ResetCodeHash, when present, is paired with a non-nil
// ResetCodeGeneratedAt; both are nil until a reset code is issued.
type User struct {
	Username             string
	PasswordHash         string
	FirstName            string
	LastName             string
	Phone                string
	JoinedAt             time.Time
	LastLoginAt          time.Time
	ResetCodeHash        *string
	ResetCodeGeneratedAt *time.Time
}

// Profile is the public view of a user, safe to return to other users.
type Profile struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// Profile returns the public view of the user.
func (u *User) Profile() Profile {
	return Profile{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

// ValidateUsername validates a username against rules.
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("USER_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("USER_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("USER_INVALID_USERNAME").
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// Repository manages user persistence.
//
// Implementations surface ErrNotFound and ErrDuplicate so callers can map
// store constraint violations to the domain error taxonomy.
type Repository interface {
	// Create stores a new user. Returns ErrDuplicate if the username
	// is already taken.
	Create(ctx context.Context, u *User) error

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// List returns the public profiles of all users, ordered by
	// last name then first name.
	List(ctx context.Context) ([]Profile, error)

	// UpdateLastLogin sets the last login timestamp for a user.
	UpdateLastLogin(ctx context.Context, username string, at time.Time) error

	// UpdateResetCode stores a hashed reset code and its generation time,
	// overwriting any previous code.
	UpdateResetCode(ctx context.Context, username, codeHash string, generatedAt time.Time) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}
