// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package message

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service enforces two-party visibility and the read-state transition
// for message operations.
type Service struct {
	messages Repository
}

// NewService creates a new message Service.
func NewService(messages Repository) (*Service, error) {
	if messages == nil {
		return nil, oops.Errorf("messages repository is required")
	}
	return &Service{messages: messages}, nil
}

// Send creates a message from one user to another. Both usernames must
// reference existing users; the store's referential integrity surfaces
// as user.ErrNotFound through the repository.
func (s *Service) Send(ctx context.Context, from, to, body string) (*Message, error) {
	m, err := NewMessage(from, to, body)
	if err != nil {
		return nil, err
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// View returns a message if the requester is the sender or the recipient.
func (s *Service) View(ctx context.Context, id ulid.ULID, requester string) (*Message, error) {
	m, err := s.messages.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsParty(requester) {
		return nil, oops.Code("MESSAGE_FORBIDDEN").
			With("message_id", id.String()).
			With("requester", requester).
			Wrap(ErrForbidden)
	}
	return m, nil
}

// MarkRead marks a message read on behalf of its recipient. Only the
// recipient may mark a message read; the sender never can. The read
// timestamp is set once; marking an already-read message is a no-op
// that returns the existing timestamp unchanged.
func (s *Service) MarkRead(ctx context.Context, id ulid.ULID, requester string) (*Message, error) {
	m, err := s.messages.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if requester != m.ToUsername {
		return nil, oops.Code("MESSAGE_FORBIDDEN").
			With("message_id", id.String()).
			With("requester", requester).
			Wrap(ErrForbidden)
	}
	if m.ReadAt != nil {
		return m, nil
	}

	if err := s.messages.SetRead(ctx, id, time.Now()); err != nil {
		return nil, err
	}

	// Reload so a concurrent marker's timestamp wins consistently.
	m, err = s.messages.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("MESSAGE_MARK_READ_FAILED").
				With("message_id", id.String()).
				Wrap(err)
		}
		return nil, err
	}
	return m, nil
}

// From returns the requester's outbox joined with recipient profiles.
func (s *Service) From(ctx context.Context, username string) ([]WithProfile, error) {
	return s.messages.ListFrom(ctx, username)
}

// To returns the requester's inbox joined with sender profiles.
func (s *Service) To(ctx context.Context, username string) ([]WithProfile, error) {
	return s.messages.ListTo(ctx, username)
}
