// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package httpapi

import (
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"goji.io/pat"

	"github.com/parley/parley/internal/message"
)

type sendMessageRequest struct {
	To   string `json:"to_username"`
	Body string `json:"body"`
}

type messageResponse struct {
	ID           string     `json:"id"`
	FromUsername string     `json:"from_username"`
	ToUsername   string     `json:"to_username"`
	Body         string     `json:"body"`
	SentAt       time.Time  `json:"sent_at"`
	ReadAt       *time.Time `json:"read_at"`
}

func toMessageResponse(m *message.Message) messageResponse {
	return messageResponse{
		ID:           m.ID.String(),
		FromUsername: m.FromUsername,
		ToUsername:   m.ToUsername,
		Body:         m.Body,
		SentAt:       m.SentAt,
		ReadAt:       m.ReadAt,
	}
}

// handleSendMessage sends a message from the authenticated user.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(r.Context())
	if !ok {
		s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	m, err := s.messages.Send(r.Context(), requester, req.To, req.Body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.MessagesTotal.WithLabelValues("send").Inc()
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"message": toMessageResponse(m)})
}

// handleGetMessage returns a message to its sender or recipient.
func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(r.Context())
	if !ok {
		s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
		return
	}

	id, err := ulid.Parse(pat.Param(r, "id"))
	if err != nil {
		s.writeError(w, message.ErrNotFound)
		return
	}

	m, err := s.messages.View(r.Context(), id, requester)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.MessagesTotal.WithLabelValues("view").Inc()
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"message": toMessageResponse(m)})
}

// handleMarkRead marks a message read on behalf of its recipient.
func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(r.Context())
	if !ok {
		s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
		return
	}

	id, err := ulid.Parse(pat.Param(r, "id"))
	if err != nil {
		s.writeError(w, message.ErrNotFound)
		return
	}

	m, err := s.messages.MarkRead(r.Context(), id, requester)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.MessagesTotal.WithLabelValues("mark_read").Inc()
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"message": toMessageResponse(m)})
}
