// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/parley/parley/internal/auth"
	"github.com/parley/parley/internal/httpapi"
	"github.com/parley/parley/internal/message"
	"github.com/parley/parley/internal/notify"
	"github.com/parley/parley/internal/user"
)

// fakeUserRepo is an in-memory user.Repository backing handler tests.
type fakeUserRepo struct {
	users map[string]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*user.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	if _, exists := r.users[u.Username]; exists {
		return user.ErrDuplicate
	}
	cp := *u
	r.users[u.Username] = &cp
	return nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*user.User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) List(_ context.Context) ([]user.Profile, error) {
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
	u, ok := r.users[username]
	if !ok {
		return user.ErrNotFound
	}
	u.LastLoginAt = at
	return nil
}

func (r *fakeUserRepo) UpdateResetCode(_ context.Context, username, codeHash string, generatedAt time.Time) error {
	u, ok := r.users[username]
	if !ok {
		return user.ErrNotFound
	}
	u.ResetCodeHash = &codeHash
	u.ResetCodeGeneratedAt = &generatedAt
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, username, passwordHash string) error {
	u, ok := r.users[username]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

var _ user.Repository = (*fakeUserRepo)(nil)

// fakeMessageRepo is an in-memory message.Repository checking sender and
// recipient against the user repo, like the store's foreign keys do.
type fakeMessageRepo struct {
	users    *fakeUserRepo
	messages map[ulid.ULID]*message.Message
}

func newFakeMessageRepo(users *fakeUserRepo) *fakeMessageRepo {
	return &fakeMessageRepo{users: users, messages: make(map[ulid.ULID]*message.Message)}
}

func (r *fakeMessageRepo) Create(_ context.Context, m *message.Message) error {
	if _, ok := r.users.users[m.FromUsername]; !ok {
		return user.ErrNotFound
	}
	if _, ok := r.users.users[m.ToUsername]; !ok {
		return user.ErrNotFound
	}
	cp := *m
	r.messages[m.ID] = &cp
	return nil
}

func (r *fakeMessageRepo) Get(_ context.Context, id ulid.ULID) (*message.Message, error) {
	m, ok := r.messages[id]
	if !ok {
		return nil, message.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMessageRepo) SetRead(_ context.Context, id ulid.ULID, at time.Time) error {
	m, ok := r.messages[id]
	if !ok {
		return message.ErrNotFound
	}
	if m.ReadAt == nil {
		m.ReadAt = &at
	}
	return nil
}

func (r *fakeMessageRepo) ListFrom(_ context.Context, username string) ([]message.WithProfile, error) {
	var out []message.WithProfile
	for _, m := range r.messages {
		if m.FromUsername == username {
			out = append(out, message.WithProfile{Message: *m, Counterpart: r.users.users[m.ToUsername].Profile()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out, nil
}

func (r *fakeMessageRepo) ListTo(_ context.Context, username string) ([]message.WithProfile, error) {
	var out []message.WithProfile
	for _, m := range r.messages {
		if m.ToUsername == username {
			out = append(out, message.WithProfile{Message: *m, Counterpart: r.users.users[m.FromUsername].Profile()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out, nil
}

var _ message.Repository = (*fakeMessageRepo)(nil)

// testServer bundles the API handler with its backing fakes.
type testServer struct {
	handler  http.Handler
	tokens   *auth.TokenIssuer
	auth     *auth.Service
	reset    *auth.ResetService
	messages *message.Service
	users    *fakeUserRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	users := newFakeUserRepo()
	messages := newFakeMessageRepo(users)
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := auth.NewTokenIssuer([]byte("test-secret"))
	require.NoError(t, err)
	authSvc, err := auth.NewService(users, hasher)
	require.NoError(t, err)
	resetSvc, err := auth.NewResetService(users, hasher, notify.NewLogNotifier(logger), logger)
	require.NoError(t, err)
	messageSvc, err := message.NewService(messages)
	require.NoError(t, err)

	srv, err := httpapi.NewServer(authSvc, tokens, resetSvc, messageSvc, users, nil, logger)
	require.NoError(t, err)

	return &testServer{
		handler:  srv.Router(),
		tokens:   tokens,
		auth:     authSvc,
		reset:    resetSvc,
		messages: messageSvc,
		users:    users,
	}
}

// register creates a user and returns a valid token for them.
func (ts *testServer) register(t *testing.T, username string) string {
	t.Helper()
	_, err := ts.auth.Register(context.Background(), username, "secret123", "Test", "User", "+15550001111")
	require.NoError(t, err)
	token, err := ts.tokens.Issue(username)
	require.NoError(t, err)
	return token
}

// do performs a request against the router and decodes the JSON response.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]json.RawMessage) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var decoded map[string]json.RawMessage
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), "body: %s", rec.Body.String())
	}
	return rec.Code, decoded
}

// field unmarshals one top-level response field into out.
func field(t *testing.T, resp map[string]json.RawMessage, key string, out any) {
	t.Helper()
	raw, ok := resp[key]
	require.True(t, ok, "response missing field %q", key)
	require.NoError(t, json.Unmarshal(raw, out))
}
