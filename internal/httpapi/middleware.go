// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"goji.io/middleware"
)

// ctxKey is the private type for context keys set by this package.
type ctxKey int

// usernameKey carries the authenticated username through the request context.
const usernameKey ctxKey = iota

// requireToken verifies the bearer token and stores the asserted
// username in the request context.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			return
		}

		username, err := s.tokens.Verify(tokenString)
		if err != nil {
			s.writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), usernameKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requesterFrom returns the authenticated username from the context.
func requesterFrom(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok
}

// statusRecorder captures the response status for request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// recordMetrics counts each request by matched route pattern and status.
func (s *Server) recordMetrics(next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if p := middleware.Pattern(r.Context()); p != nil {
			if str, ok := p.(interface{ String() string }); ok {
				route = r.Method + " " + str.String()
			}
		}
		s.metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}
