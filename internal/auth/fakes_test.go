// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package auth_test

import (
	"context"
	"sort"
	"time"

	"github.com/parley/parley/internal/user"
)

// fakeUserRepo is an in-memory user.Repository for service tests.
// failWith, when set, is returned from every method.
type fakeUserRepo struct {
	users    map[string]*user.User
	failWith error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*user.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	if r.failWith != nil {
		return r.failWith
	}
	if _, exists := r.users[u.Username]; exists {
		return user.ErrDuplicate
	}
	cp := *u
	r.users[u.Username] = &cp
	return nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*user.User, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	u, ok := r.users[username]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) List(_ context.Context) ([]user.Profile, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	profiles := make([]user.Profile, 0, len(r.users))
	for _, u := range r.users {
		profiles = append(profiles, u.Profile())
	}
	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].LastName != profiles[j].LastName {
			return profiles[i].LastName < profiles[j].LastName
		}
		return profiles[i].FirstName < profiles[j].FirstName
	})
	return profiles, nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, username string, at time.Time) error {
	if r.failWith != nil {
		return r.failWith
	}
	u, ok := r.users[username]
	if !ok {
		return user.ErrNotFound
	}
	u.LastLoginAt = at
	return nil
}

func (r *fakeUserRepo) UpdateResetCode(_ context.Context, username, codeHash string, generatedAt time.Time) error {
	if r.failWith != nil {
		return r.failWith
	}
	u, ok := r.users[username]
	if !ok {
		return user.ErrNotFound
	}
	u.ResetCodeHash = &codeHash
	u.ResetCodeGeneratedAt = &generatedAt
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, username, passwordHash string) error {
	if r.failWith != nil {
		return r.failWith
	}
	u, ok := r.users[username]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

// Compile-time interface check.
var _ user.Repository = (*fakeUserRepo)(nil)

// fakeNotifier records sent messages and optionally fails delivery.
type fakeNotifier struct {
	sent     []sentSMS
	failWith error
}

type sentSMS struct {
	phone string
	body  string
}

func (n *fakeNotifier) Send(_ context.Context, phone, body string) error {
	if n.failWith != nil {
		return n.failWith
	}
	n.sent = append(n.sent, sentSMS{phone: phone, body: body})
	return nil
}
