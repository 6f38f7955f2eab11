// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package httpapi exposes the credential and messaging operations over
// HTTP, mapping each route 1:1 to a core operation and each domain error
// kind to a status code.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/samber/oops"
	"goji.io"
	"goji.io/pat"

	"github.com/parley/parley/internal/auth"
	"github.com/parley/parley/internal/message"
	"github.com/parley/parley/internal/observability"
	"github.com/parley/parley/internal/user"
)

// Server wires the core services to HTTP routes.
type Server struct {
	auth     *auth.Service
	tokens   *auth.TokenIssuer
	reset    *auth.ResetService
	messages *message.Service
	users    user.Repository
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewServer creates an HTTP API server over the given services.
// metrics may be nil when observability is disabled.
func NewServer(
	authSvc *auth.Service,
	tokens *auth.TokenIssuer,
	reset *auth.ResetService,
	messages *message.Service,
	users user.Repository,
	metrics *observability.Metrics,
	logger *slog.Logger,
) (*Server, error) {
	if authSvc == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("token issuer is required")
	}
	if reset == nil {
		return nil, oops.Errorf("reset service is required")
	}
	if messages == nil {
		return nil, oops.Errorf("message service is required")
	}
	if users == nil {
		return nil, oops.Errorf("users repository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		auth:     authSvc,
		tokens:   tokens,
		reset:    reset,
		messages: messages,
		users:    users,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Router builds the route multiplexer. Auth routes are public; user and
// message routes require a bearer token.
func (s *Server) Router() http.Handler {
	mux := goji.NewMux()
	mux.Use(s.recordMetrics)

	mux.HandleFunc(pat.Post("/auth/register"), s.handleRegister)
	mux.HandleFunc(pat.Post("/auth/login"), s.handleLogin)
	mux.HandleFunc(pat.Post("/auth/forgot-password"), s.handleForgotPassword)
	mux.HandleFunc(pat.Post("/auth/update-password"), s.handleUpdatePassword)

	mux.Handle(pat.Get("/users"), s.requireToken(http.HandlerFunc(s.handleListUsers)))
	usersMux := goji.SubMux()
	usersMux.Use(s.requireToken)
	usersMux.HandleFunc(pat.Get("/:username"), s.handleGetUser)
	usersMux.HandleFunc(pat.Get("/:username/from"), s.handleMessagesFrom)
	usersMux.HandleFunc(pat.Get("/:username/to"), s.handleMessagesTo)
	mux.Handle(pat.New("/users/*"), usersMux)

	mux.Handle(pat.Post("/messages"), s.requireToken(http.HandlerFunc(s.handleSendMessage)))
	messagesMux := goji.SubMux()
	messagesMux.Use(s.requireToken)
	messagesMux.HandleFunc(pat.Get("/:id"), s.handleGetMessage)
	messagesMux.HandleFunc(pat.Post("/:id/read"), s.handleMarkRead)
	mux.Handle(pat.New("/messages/*"), messagesMux)

	return mux
}
