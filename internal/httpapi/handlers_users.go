// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package httpapi

import (
	"net/http"
	"time"

	"goji.io/pat"

	"github.com/parley/parley/internal/message"
	"github.com/parley/parley/internal/user"
)

type userResponse struct {
	Username    string    `json:"username"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Phone       string    `json:"phone"`
	JoinedAt    time.Time `json:"joined_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// messageListItem is one entry of an inbox or outbox listing. The
// counterpart profile is the recipient for outbox rows and the sender
// for inbox rows.
type messageListItem struct {
	ID          string       `json:"id"`
	Body        string       `json:"body"`
	SentAt      time.Time    `json:"sent_at"`
	ReadAt      *time.Time   `json:"read_at"`
	Counterpart user.Profile `json:"counterpart"`
}

func toMessageList(rows []message.WithProfile) []messageListItem {
	items := make([]messageListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, messageListItem{
			ID:          row.ID.String(),
			Body:        row.Body,
			SentAt:      row.SentAt,
			ReadAt:      row.ReadAt,
			Counterpart: row.Counterpart,
		})
	}
	return items
}

// handleListUsers returns the public profiles of all users.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.users.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"users": profiles})
}

// handleGetUser returns a single user's details.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	username := pat.Param(r, "username")

	u, err := s.users.GetByUsername(r.Context(), username)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"user": userResponse{
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		JoinedAt:    u.JoinedAt,
		LastLoginAt: u.LastLoginAt,
	}})
}

// handleMessagesFrom returns the outbox of the named user. Only the
// user themselves may list it.
func (s *Server) handleMessagesFrom(w http.ResponseWriter, r *http.Request) {
	username := pat.Param(r, "username")
	if !s.requireSelf(w, r, username) {
		return
	}

	rows, err := s.messages.From(r.Context(), username)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"messages": toMessageList(rows)})
}

// handleMessagesTo returns the inbox of the named user. Only the user
// themselves may list it.
func (s *Server) handleMessagesTo(w http.ResponseWriter, r *http.Request) {
	username := pat.Param(r, "username")
	if !s.requireSelf(w, r, username) {
		return
	}

	rows, err := s.messages.To(r.Context(), username)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"messages": toMessageList(rows)})
}

// requireSelf writes a 403 and returns false unless the authenticated
// requester is the named user.
func (s *Server) requireSelf(w http.ResponseWriter, r *http.Request, username string) bool {
	requester, ok := requesterFrom(r.Context())
	if !ok || requester != username {
		s.writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return false
	}
	return true
}
