// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package message defines direct messages and the authorization rules
// governing who may read and mutate them.
package message

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/parley/parley/internal/user"
)

// Sentinel errors for the message entity.
var (
	// ErrNotFound is returned when a requested message does not exist.
	ErrNotFound = errors.New("message not found")

	// ErrForbidden is returned when the acting user is neither the
	// sender nor the recipient allowed for the operation.
	ErrForbidden = errors.New("forbidden")
)

// Message represents a direct message between two users.
//
// ReadAt transitions once from nil to a timestamp and is never cleared.
type Message struct {
	ID           ulid.ULID
	FromUsername string
	ToUsername   string
	Body         string
	SentAt       time.Time
	ReadAt       *time.Time
}

// NewMessage creates a validated Message with a fresh ID, the current
// send time, and an unread state.
func NewMessage(from, to, body string) (*Message, error) {
	if from == "" {
		return nil, oops.Code("MESSAGE_INVALID_SENDER").Errorf("sender username cannot be empty")
	}
	if to == "" {
		return nil, oops.Code("MESSAGE_INVALID_RECIPIENT").Errorf("recipient username cannot be empty")
	}
	if body == "" {
		return nil, oops.Code("MESSAGE_INVALID_BODY").Errorf("message body cannot be empty")
	}

	return &Message{
		ID:           ulid.Make(),
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
		SentAt:       time.Now(),
	}, nil
}

// IsParty reports whether username is the sender or the recipient.
func (m *Message) IsParty(username string) bool {
	return username == m.FromUsername || username == m.ToUsername
}

// WithProfile is a message joined with the counterpart user's public
// profile: the recipient for outbox listings, the sender for inbox
// listings.
type WithProfile struct {
	Message
	Counterpart user.Profile
}

// Repository manages message persistence.
type Repository interface {
	// Create stores a new message. Returns user.ErrNotFound when the
	// sender or recipient does not exist.
	Create(ctx context.Context, m *Message) error

	// Get retrieves a message by ID.
	Get(ctx context.Context, id ulid.ULID) (*Message, error)

	// SetRead sets read_at on an unread message. A message already
	// marked read is left untouched so the first timestamp wins.
	SetRead(ctx context.Context, id ulid.ULID, at time.Time) error

	// ListFrom returns messages sent by a user, joined with each
	// recipient's profile, ordered by send time.
	ListFrom(ctx context.Context, username string) ([]WithProfile, error)

	// ListTo returns messages received by a user, joined with each
	// sender's profile, ordered by send time.
	ListTo(ctx context.Context, username string) ([]WithProfile, error)
}
