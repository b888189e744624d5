// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomtom215/smokewatch/internal/models"
)

const testIngestKey = "ingest-key-0123456789"

func newTestMiddleware(t *testing.T) *Middleware {
	t.Helper()
	return NewMiddleware(newTestTokenManager(t), []string{"", testIngestKey})
}

// echoClaims writes the principal role so tests can assert who got through.
var echoClaims = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "no claims", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(claims.Role))
})

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	mw := newTestMiddleware(t)
	token, err := mw.Tokens().GenerateAccessToken(testUser())
	if err != nil {
		t.Fatal(err)
	}
	refresh, _ := mw.Tokens().GenerateRefreshToken(testUser())

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
		wantBody   string
	}{
		{"missing header", "", "", http.StatusUnauthorized, "access token required"},
		{"wrong scheme", "Authorization", "Basic abc", http.StatusUnauthorized, "invalid authorization header"},
		{"invalid token", "Authorization", "Bearer nope", http.StatusUnauthorized, "invalid or expired token"},
		{"refresh token", "Authorization", "Bearer " + refresh, http.StatusUnauthorized, "invalid or expired token"},
		{"valid token", "Authorization", "Bearer " + token, http.StatusOK, "security_staff"},
		{"lowercase scheme", "Authorization", "bearer " + token, http.StatusOK, "security_staff"},
		{"ingest key as bearer", "Authorization", "Bearer " + testIngestKey, http.StatusOK, "ingest_service"},
		{"ingest key header", APIKeyHeader, testIngestKey, http.StatusOK, "ingest_service"},
		{"wrong ingest key", APIKeyHeader, "nope", http.StatusUnauthorized, "invalid api key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/venues", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			mw.Authenticate(echoClaims).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want substring %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestAuthenticateErrorEnvelope(t *testing.T) {
	t.Parallel()

	mw := newTestMiddleware(t)
	rec := httptest.NewRecorder()
	mw.Authenticate(echoClaims).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate header")
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"success":false`) || !strings.Contains(body, `"code":"UNAUTHORIZED"`) {
		t.Errorf("body = %s", body)
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	handler := RequireRole(models.RoleSystemAdmin, models.RoleVenueAdmin)(echoClaims)

	tests := []struct {
		name       string
		claims     *Claims
		wantStatus int
	}{
		{"no claims", nil, http.StatusUnauthorized},
		{"system admin", &Claims{Role: models.RoleSystemAdmin}, http.StatusOK},
		{"venue admin", &Claims{Role: models.RoleVenueAdmin}, http.StatusOK},
		{"staff", &Claims{Role: models.RoleSecurityStaff}, http.StatusForbidden},
		{"ingest", &Claims{Role: models.RoleIngestService}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.claims != nil {
				req = req.WithContext(ContextWithClaims(req.Context(), tt.claims))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"BEARER abc ", "abc", true},
		{"Bearer ", "", false},
		{"Bearer", "", false},
		{"Token abc", "", false},
	}
	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}
