// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/smokewatch/internal/config"
	"github.com/tomtom215/smokewatch/internal/models"
)

// Issuer is the iss claim of every token this service signs.
const Issuer = "smokewatch"

// ErrInvalidToken is returned for malformed, expired or foreign tokens.
var ErrInvalidToken = errors.New("invalid token")

// Claims represents JWT claims
type Claims struct {
	UserID  string      `json:"userId"`
	Email   string      `json:"email"`
	Role    models.Role `json:"role"`
	VenueID string      `json:"venueId,omitempty"`
	jwt.RegisteredClaims
}

// IsSystemAdmin reports whether the principal sees every venue.
func (c *Claims) IsSystemAdmin() bool {
	return c.Role == models.RoleSystemAdmin
}

// CanAccessVenue reports whether the principal may act on venueID.
// System admins and ingest agents are not venue scoped.
func (c *Claims) CanAccessVenue(venueID string) bool {
	switch c.Role {
	case models.RoleSystemAdmin, models.RoleIngestService:
		return true
	}
	return c.VenueID != "" && c.VenueID == venueID
}

// TokenPair is returned by login, register and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenManager handles JWT token creation and validation
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenManager creates a token manager from the security configuration.
//
// Access and refresh tokens are signed with different secrets so a leaked
// refresh token can never be replayed as an access token. Both secrets are
// required; config validation enforces their minimum length.
func NewTokenManager(cfg *config.SecurityConfig) (*TokenManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT secret is required but was empty")
	}
	if cfg.RefreshTokenSecret == "" {
		return nil, fmt.Errorf("refresh token secret is required but was empty")
	}
	if cfg.JWTSecret == cfg.RefreshTokenSecret {
		return nil, fmt.Errorf("JWT secret and refresh token secret must differ")
	}

	return &TokenManager{
		accessSecret:  []byte(cfg.JWTSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.JWTExpiresIn,
		refreshTTL:    cfg.RefreshExpiresIn,
		now:           time.Now,
	}, nil
}

// GenerateAccessToken signs a short-lived token carrying the user's role and venue.
func (m *TokenManager) GenerateAccessToken(u *models.User) (string, error) {
	return m.sign(u, m.accessSecret, m.accessTTL)
}

// GenerateRefreshToken signs a long-lived token used only by /auth/refresh.
func (m *TokenManager) GenerateRefreshToken(u *models.User) (string, error) {
	return m.sign(u, m.refreshSecret, m.refreshTTL)
}

// GenerateTokenPair issues a fresh access and refresh token.
func (m *TokenManager) GenerateTokenPair(u *models.User) (*TokenPair, error) {
	access, err := m.GenerateAccessToken(u)
	if err != nil {
		return nil, err
	}
	refresh, err := m.GenerateRefreshToken(u)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ValidateAccessToken verifies signature, algorithm, issuer and expiry.
func (m *TokenManager) ValidateAccessToken(tokenString string) (*Claims, error) {
	return m.validate(tokenString, m.accessSecret)
}

// ValidateRefreshToken is ValidateAccessToken for the refresh secret.
func (m *TokenManager) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return m.validate(tokenString, m.refreshSecret)
}

func (m *TokenManager) sign(u *models.User, secret []byte, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID:  u.ID,
		Email:   u.Email,
		Role:    u.Role,
		VenueID: u.VenueIDValue(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    Issuer,
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) validate(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
