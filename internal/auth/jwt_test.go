// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/smokewatch/internal/config"
	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/models"
)

func init() {
	logging.Silence()
}

// testSecurityConfig returns a standard test security config for JWT
func testSecurityConfig() *config.SecurityConfig {
	return &config.SecurityConfig{
		JWTSecret:          "access-secret-that-is-at-least-32-characters",
		RefreshTokenSecret: "refresh-secret-that-is-at-least-32-characters",
		JWTExpiresIn:       15 * time.Minute,
		RefreshExpiresIn:   7 * 24 * time.Hour,
	}
}

func testUser() *models.User {
	venue := "venue-1"
	return &models.User{
		ID:      "user-1",
		Email:   "guard@example.com",
		Role:    models.RoleSecurityStaff,
		VenueID: &venue,
	}
}

func newTestTokenManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(testSecurityConfig())
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}
	return m
}

func TestNewTokenManager(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *config.SecurityConfig)
		wantErr bool
	}{
		{"valid", func(*config.SecurityConfig) {}, false},
		{"empty access secret", func(c *config.SecurityConfig) { c.JWTSecret = "" }, true},
		{"empty refresh secret", func(c *config.SecurityConfig) { c.RefreshTokenSecret = "" }, true},
		{"shared secret", func(c *config.SecurityConfig) { c.RefreshTokenSecret = c.JWTSecret }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testSecurityConfig()
			tt.mutate(cfg)
			_, err := NewTokenManager(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewTokenManager() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	t.Parallel()

	m := newTestTokenManager(t)
	token, err := m.GenerateAccessToken(testUser())
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := m.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "guard@example.com" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Role != models.RoleSecurityStaff {
		t.Errorf("Role = %q", claims.Role)
	}
	if claims.VenueID != "venue-1" {
		t.Errorf("VenueID = %q", claims.VenueID)
	}
	if claims.Issuer != Issuer {
		t.Errorf("Issuer = %q, want %q", claims.Issuer, Issuer)
	}
	if claims.ID == "" {
		t.Error("jti is empty")
	}
}

func TestTokensAreUnique(t *testing.T) {
	t.Parallel()

	m := newTestTokenManager(t)
	a, _ := m.GenerateAccessToken(testUser())
	b, _ := m.GenerateAccessToken(testUser())
	if a == b {
		t.Error("two tokens issued in the same second are identical")
	}
}

func TestRefreshTokenNotAcceptedAsAccess(t *testing.T) {
	t.Parallel()

	m := newTestTokenManager(t)
	pair, err := m.GenerateTokenPair(testUser())
	if err != nil {
		t.Fatalf("GenerateTokenPair() error = %v", err)
	}

	if _, err := m.ValidateAccessToken(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh token as access: err = %v, want ErrInvalidToken", err)
	}
	if _, err := m.ValidateRefreshToken(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access token as refresh: err = %v, want ErrInvalidToken", err)
	}
	if _, err := m.ValidateRefreshToken(pair.RefreshToken); err != nil {
		t.Errorf("ValidateRefreshToken() error = %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	t.Parallel()

	m := newTestTokenManager(t)
	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }
	token, err := m.GenerateAccessToken(testUser())
	if err != nil {
		t.Fatal(err)
	}

	m.now = time.Now
	if _, err := m.ValidateAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: err = %v, want ErrInvalidToken", err)
	}
}

func TestRejectsForeignTokens(t *testing.T) {
	t.Parallel()

	m := newTestTokenManager(t)
	cfg := testSecurityConfig()

	wrongIssuer := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, _ := wrongIssuer.SignedString([]byte(cfg.JWTSecret))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"wrong issuer", signed},
		{"alg none", unsigned},
		{"garbage", "not.a.token"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.ValidateAccessToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestClaimsCanAccessVenue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		claims Claims
		venue  string
		want   bool
	}{
		{"system admin any venue", Claims{Role: models.RoleSystemAdmin}, "v2", true},
		{"ingest any venue", Claims{Role: models.RoleIngestService}, "v2", true},
		{"venue admin own venue", Claims{Role: models.RoleVenueAdmin, VenueID: "v1"}, "v1", true},
		{"venue admin other venue", Claims{Role: models.RoleVenueAdmin, VenueID: "v1"}, "v2", false},
		{"staff without venue", Claims{Role: models.RoleSecurityStaff}, "", false},
	}
	for _, tt := range tests {
		if got := tt.claims.CanAccessVenue(tt.venue); got != tt.want {
			t.Errorf("%s: CanAccessVenue() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
