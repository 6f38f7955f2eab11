// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package postgres provides the PostgreSQL implementation of the message repository.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/parley/parley/internal/message"
	"github.com/parley/parley/internal/store"
	"github.com/parley/parley/internal/user"
)

// MessageRepository implements message.Repository using PostgreSQL.
type MessageRepository struct {
	pool store.Pool
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(pool store.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// Create stores a new message. A foreign key violation on either
// username column surfaces as user.ErrNotFound.
func (r *MessageRepository) Create(ctx context.Context, m *message.Message) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO messages (id, from_username, to_username, body, sent_at, read_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.ID.String(), m.FromUsername, m.ToUsername, m.Body, m.SentAt, m.ReadAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return oops.Code("MESSAGE_UNKNOWN_PARTY").
				With("from", m.FromUsername).
				With("to", m.ToUsername).
				Wrap(user.ErrNotFound)
		}
		return oops.Code("MESSAGE_CREATE_FAILED").
			With("operation", "insert message").
			With("id", m.ID.String()).
			Wrap(store.Unavailable(err))
	}
	return nil
}

// Get retrieves a message by ID.
func (r *MessageRepository) Get(ctx context.Context, id ulid.ULID) (*message.Message, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, from_username, to_username, body, sent_at, read_at
		FROM messages
		WHERE id = $1
	`, id.String())

	m, err := r.scanMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("MESSAGE_NOT_FOUND").
			With("id", id.String()).
			Wrap(message.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("MESSAGE_GET_FAILED").
			With("operation", "get message by id").
			With("id", id.String()).
			Wrap(store.Unavailable(err))
	}
	return m, nil
}

// SetRead sets read_at on an unread message. The condition keeps the
// first timestamp under concurrent markers; zero rows affected means the
// message was already read, which is not an error.
func (r *MessageRepository) SetRead(ctx context.Context, id ulid.ULID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE messages SET read_at = $2
		WHERE id = $1 AND read_at IS NULL
	`, id.String(), at)
	if err != nil {
		return oops.Code("MESSAGE_SET_READ_FAILED").
			With("operation", "set read_at").
			With("id", id.String()).
			Wrap(store.Unavailable(err))
	}
	return nil
}

// ListFrom returns messages sent by a user joined with recipient profiles.
func (r *MessageRepository) ListFrom(ctx context.Context, username string) ([]message.WithProfile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.from_username, m.to_username, m.body, m.sent_at, m.read_at,
		       u.username, u.first_name, u.last_name, u.phone
		FROM messages AS m
		JOIN users AS u ON m.to_username = u.username
		WHERE m.from_username = $1
		ORDER BY m.sent_at
	`, username)
	if err != nil {
		return nil, oops.Code("MESSAGE_LIST_FROM_FAILED").
			With("operation", "list messages from user").
			With("username", username).
			Wrap(store.Unavailable(err))
	}
	return r.collectWithProfiles(rows, username)
}

// ListTo returns messages received by a user joined with sender profiles.
func (r *MessageRepository) ListTo(ctx context.Context, username string) ([]message.WithProfile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.from_username, m.to_username, m.body, m.sent_at, m.read_at,
		       u.username, u.first_name, u.last_name, u.phone
		FROM messages AS m
		JOIN users AS u ON m.from_username = u.username
		WHERE m.to_username = $1
		ORDER BY m.sent_at
	`, username)
	if err != nil {
		return nil, oops.Code("MESSAGE_LIST_TO_FAILED").
			With("operation", "list messages to user").
			With("username", username).
			Wrap(store.Unavailable(err))
	}
	return r.collectWithProfiles(rows, username)
}

// collectWithProfiles drains rows of the message-plus-profile shape.
func (r *MessageRepository) collectWithProfiles(rows pgx.Rows, username string) ([]message.WithProfile, error) {
	defer rows.Close()

	var out []message.WithProfile
	for rows.Next() {
		var (
			idStr  string
			m      message.WithProfile
			readAt *time.Time
		)
		err := rows.Scan(
			&idStr,
			&m.FromUsername,
			&m.ToUsername,
			&m.Body,
			&m.SentAt,
			&readAt,
			&m.Counterpart.Username,
			&m.Counterpart.FirstName,
			&m.Counterpart.LastName,
			&m.Counterpart.Phone,
		)
		if err != nil {
			return nil, oops.Code("MESSAGE_SCAN_FAILED").
				With("operation", "scan message row").
				With("username", username).
				Wrap(store.Unavailable(err))
		}

		id, err := ulid.Parse(idStr)
		if err != nil {
			return nil, oops.Code("MESSAGE_INVALID_ID").
				With("operation", "parse message id").
				With("id", idStr).
				Wrap(err)
		}
		m.ID = id
		m.ReadAt = readAt
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("MESSAGE_LIST_FAILED").
			With("operation", "iterate messages").
			With("username", username).
			Wrap(store.Unavailable(err))
	}
	return out, nil
}

// scanMessage scans a single row into a Message.
// Callers are responsible for handling pgx.ErrNoRows.
func (r *MessageRepository) scanMessage(row pgx.Row) (*message.Message, error) {
	var (
		idStr string
		m     message.Message
	)
	err := row.Scan(&idStr, &m.FromUsername, &m.ToUsername, &m.Body, &m.SentAt, &m.ReadAt)
	if err != nil {
		return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("MESSAGE_INVALID_ID").
			With("operation", "parse message id").
			With("id", idStr).
			Wrap(err)
	}
	m.ID = id
	return &m, nil
}

// Compile-time interface check.
var _ message.Repository = (*MessageRepository)(nil)
