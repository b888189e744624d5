// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package authz

import (
	"net/http"

	"github.com/tomtom215/smokewatch/internal/auth"
	"github.com/tomtom215/smokewatch/internal/logging"
)

// Middleware provides authorization middleware using Casbin.
type Middleware struct {
	enforcer *Enforcer
}

// NewMiddleware creates a new authorization middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// Authorize enforces a fixed object and action regardless of the request path.
func (m *Middleware) Authorize(object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.allow(w, r, object, action) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// AuthorizeRequest derives the action from the HTTP method and authorizes
// the request path. It must run after auth.Authenticate.
func (m *Middleware) AuthorizeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.allow(w, r, r.URL.Path, methodToAction(r.Method)) {
			next.ServeHTTP(w, r)
		}
	})
}

func (m *Middleware) allow(w http.ResponseWriter, r *http.Request, object, action string) bool {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		auth.WriteError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "access token required")
		return false
	}

	allowed, err := m.enforcer.Enforce(string(claims.Role), object, action)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization error")
		auth.WriteError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return false
	}

	if !allowed {
		logging.Ctx(r.Context()).Debug().
			Str("role", string(claims.Role)).
			Str("object", object).
			Str("action", action).
			Msg("Authorization denied")
		auth.WriteError(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
		return false
	}
	return true
}

// methodToAction maps HTTP methods to Casbin actions.
func methodToAction(method string) string {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return ActionWrite
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionRead
	}
}
