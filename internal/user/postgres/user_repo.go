// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package postgres provides the PostgreSQL implementation of the user repository.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/parley/parley/internal/store"
	"github.com/parley/parley/internal/user"
)

// UserRepository implements user.Repository using PostgreSQL.
type UserRepository struct {
	pool store.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool store.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create stores a new user.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (
			username, password_hash, first_name, last_name, phone,
			joined_at, last_login_at, reset_code_hash, reset_code_generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		u.Username,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.Phone,
		u.JoinedAt,
		u.LastLoginAt,
		u.ResetCodeHash,
		u.ResetCodeGeneratedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("USER_DUPLICATE").
				With("username", u.Username).
				Wrap(user.ErrDuplicate)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", u.Username).
			Wrap(store.Unavailable(err))
	}
	return nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT username, password_hash, first_name, last_name, phone,
		       joined_at, last_login_at, reset_code_hash, reset_code_generated_at
		FROM users
		WHERE username = $1
	`, username)

	u, err := r.scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("username", username).
			Wrap(user.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").
			With("operation", "get user by username").
			With("username", username).
			Wrap(store.Unavailable(err))
	}
	return u, nil
}

// List returns the public profiles of all users.
func (r *UserRepository) List(ctx context.Context) ([]user.Profile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT username, first_name, last_name, phone
		FROM users
		ORDER BY last_name, first_name
	`)
	if err != nil {
		return nil, oops.Code("USER_LIST_FAILED").
			With("operation", "list users").
			Wrap(store.Unavailable(err))
	}
	defer rows.Close()

	var profiles []user.Profile
	for rows.Next() {
		var p user.Profile
		if err := rows.Scan(&p.Username, &p.FirstName, &p.LastName, &p.Phone); err != nil {
			return nil, oops.Code("USER_LIST_FAILED").
				With("operation", "scan user row").
				Wrap(store.Unavailable(err))
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("USER_LIST_FAILED").
			With("operation", "iterate users").
			Wrap(store.Unavailable(err))
	}
	return profiles, nil
}

// UpdateLastLogin sets the last login timestamp for a user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, username string, at time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET last_login_at = $2 WHERE username = $1
	`, username, at)
	if err != nil {
		return oops.Code("USER_UPDATE_LOGIN_FAILED").
			With("operation", "update last login").
			With("username", username).
			Wrap(store.Unavailable(err))
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("username", username).
			Wrap(user.ErrNotFound)
	}
	return nil
}

// UpdateResetCode stores a hashed reset code, superseding any previous one.
func (r *UserRepository) UpdateResetCode(ctx context.Context, username, codeHash string, generatedAt time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET reset_code_hash = $2, reset_code_generated_at = $3
		WHERE username = $1
	`, username, codeHash, generatedAt)
	if err != nil {
		return oops.Code("USER_UPDATE_RESET_CODE_FAILED").
			With("operation", "update reset code").
			With("username", username).
			Wrap(store.Unavailable(err))
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("username", username).
			Wrap(user.ErrNotFound)
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2 WHERE username = $1
	`, username, passwordHash)
	if err != nil {
		return oops.Code("USER_UPDATE_PASSWORD_FAILED").
			With("operation", "update password").
			With("username", username).
			Wrap(store.Unavailable(err))
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("username", username).
			Wrap(user.ErrNotFound)
	}
	return nil
}

// scanUser scans a single row into a User.
// Callers are responsible for handling pgx.ErrNoRows.
func (r *UserRepository) scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(
		&u.Username,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Phone,
		&u.JoinedAt,
		&u.LastLoginAt,
		&u.ResetCodeHash,
		&u.ResetCodeGeneratedAt,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
	}
	return &u, nil
}

// Compile-time interface check.
var _ user.Repository = (*UserRepository)(nil)
