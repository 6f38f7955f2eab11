// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/samber/oops"

	"github.com/parley/parley/internal/auth"
	"github.com/parley/parley/internal/message"
	"github.com/parley/parley/internal/store"
	"github.com/parley/parley/internal/user"
	"github.com/parley/parley/pkg/errutil"
)

// writeJSON encodes v as the response body with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("response encode failed", "error", err)
	}
}

// writeError maps a domain error to an HTTP status and a JSON error body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		errutil.LogError(s.logger, "request failed", err)
	}
	s.writeJSON(w, status, map[string]string{"error": publicMessage(err, status)})
}

// statusFor maps the error taxonomy to HTTP statuses. Every sentinel in
// the taxonomy appears here; anything unrecognized is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, message.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, user.ErrNotFound), errors.Is(err, message.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, user.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, auth.ErrEmptySecret):
		return http.StatusBadRequest
	}

	// Validation failures carry a code but no sentinel.
	switch codeOf(err) {
	case "USER_INVALID_USERNAME",
		"MESSAGE_INVALID_SENDER",
		"MESSAGE_INVALID_RECIPIENT",
		"MESSAGE_INVALID_BODY":
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// codeOf returns the oops code of err, or "" for plain or uncoded errors.
func codeOf(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok {
			return code
		}
	}
	return ""
}

// publicMessage picks the body text for an error response. Store faults
// and unknown errors are not echoed to clients.
func publicMessage(err error, status int) string {
	switch status {
	case http.StatusServiceUnavailable:
		return "service unavailable"
	case http.StatusInternalServerError:
		return "internal error"
	default:
		return err.Error()
	}
}

// decodeJSON parses the request body into v.
func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// badRequest writes a 400 with the given message.
func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}
