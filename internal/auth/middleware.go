// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/models"
)

type contextKey string

// ClaimsContextKey is the context key for authenticated claims
const ClaimsContextKey contextKey = "claims"

// APIKeyHeader carries the ingest API key for agents that do not send a
// Bearer header.
const APIKeyHeader = "X-API-Key"

// IngestPrincipalID is the UserID of claims built from an ingest API key.
const IngestPrincipalID = "ingest-service"

// Middleware authenticates requests with access tokens or ingest API keys.
type Middleware struct {
	tokens     *TokenManager
	ingestKeys [][]byte
}

// NewMiddleware creates authentication middleware. Empty keys are ignored.
func NewMiddleware(tokens *TokenManager, ingestKeys []string) *Middleware {
	m := &Middleware{tokens: tokens}
	for _, k := range ingestKeys {
		if k = strings.TrimSpace(k); k != "" {
			m.ingestKeys = append(m.ingestKeys, []byte(k))
		}
	}
	return m
}

// Tokens exposes the token manager for handlers that issue tokens.
func (m *Middleware) Tokens() *TokenManager {
	return m.tokens
}

// Authenticate requires a valid access token or ingest API key and stores
// the resulting claims in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, status, msg := m.authenticate(r)
		if claims == nil {
			WriteError(w, r, status, "UNAUTHORIZED", msg)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

func (m *Middleware) authenticate(r *http.Request) (*Claims, int, string) {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		if m.matchIngestKey(key) {
			return IngestClaims(), 0, ""
		}
		logging.Ctx(r.Context()).Warn().
			Str("key", logging.SanitizeToken(key)).
			Msg("Rejected ingest API key")
		return nil, http.StatusUnauthorized, "invalid api key"
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, http.StatusUnauthorized, "access token required"
	}

	token, ok := bearerToken(authHeader)
	if !ok {
		return nil, http.StatusUnauthorized, "invalid authorization header"
	}

	if m.matchIngestKey(token) {
		return IngestClaims(), 0, ""
	}

	claims, err := m.tokens.ValidateAccessToken(token)
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Token validation failed")
		return nil, http.StatusUnauthorized, "invalid or expired token"
	}
	return claims, 0, ""
}

// matchIngestKey compares against every configured key in constant time.
func (m *Middleware) matchIngestKey(candidate string) bool {
	c := []byte(candidate)
	matched := 0
	for _, k := range m.ingestKeys {
		matched |= subtle.ConstantTimeCompare(k, c)
	}
	return matched == 1
}

// IngestClaims is the principal of camera agents authenticated by API key or
// arriving over MQTT.
func IngestClaims() *Claims {
	return &Claims{UserID: IngestPrincipalID, Role: models.RoleIngestService}
}

// bearerToken extracts the token from "Bearer <token>". The scheme is case
// insensitive.
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// RequireRole rejects principals whose role is not listed with 403.
// It must run after Authenticate.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				WriteError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "access token required")
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			WriteError(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
		})
	}
}

// ClaimsFromContext returns the authenticated claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok && claims != nil
}

// ContextWithClaims attaches claims to ctx.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

type errorBody struct {
	Success bool        `json:"success"`
	Error   errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteError writes the error half of the API envelope. Middleware that
// runs before the api package's handlers uses it.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="smokewatch"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:      code,
			Message:   message,
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
	})
}
