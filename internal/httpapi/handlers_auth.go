// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package httpapi

import (
	"net/http"

	"github.com/parley/parley/pkg/errutil"
)

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Username string `json:"username"`
}

type updatePasswordRequest struct {
	Username string `json:"username"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

// handleRegister registers a user, records the login, and returns a token.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	u, err := s.auth.Register(r.Context(), req.Username, req.Password, req.FirstName, req.LastName, req.Phone)
	if err != nil {
		s.writeError(w, err)
		return
	}

	token, err := s.tokens.Issue(u.Username)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]string{"token": token})
}

// handleLogin authenticates a user and returns a token. Wrong
// credentials are a 400, matching the invalid-user/password response
// shape of the rest of the auth routes.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	ok, err := s.auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		if s.metrics != nil {
			s.metrics.LoginsTotal.WithLabelValues("failure").Inc()
		}
		s.badRequest(w, "invalid username or password")
		return
	}

	if err := s.auth.RecordLogin(r.Context(), req.Username); err != nil {
		s.writeError(w, err)
		return
	}

	token, err := s.tokens.Issue(req.Username)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues("success").Inc()
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// handleForgotPassword issues a reset code and hands it to the
// out-of-band channel. The code is already stored when delivery is
// attempted; a delivery failure is reported without un-storing it.
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	_, _, err := s.reset.IssueResetCode(r.Context(), req.Username)
	if err != nil {
		if codeOf(err) == "RESET_DELIVERY_FAILED" {
			errutil.LogError(s.logger, "reset code delivery failed", err)
			s.writeJSON(w, http.StatusBadGateway, map[string]string{"error": "could not deliver reset code"})
			return
		}
		s.writeError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.ResetCodesIssued.Inc()
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Check your phone for a reset code"})
}

// handleUpdatePassword verifies a reset code and consumes it by setting
// the new password.
func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	ok, err := s.reset.VerifyResetCode(r.Context(), req.Username, req.Code)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		s.badRequest(w, "invalid reset code")
		return
	}

	if err := s.reset.ConsumeResetCode(r.Context(), req.Username, req.Password); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}
