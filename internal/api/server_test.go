// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/smokewatch/internal/auth"
	"github.com/tomtom215/smokewatch/internal/authz"
	"github.com/tomtom215/smokewatch/internal/config"
	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/models"
)

func init() {
	logging.Silence()
}

const (
	testJWTSecret     = "access-secret-for-tests-0123456789abcdef"
	testRefreshSecret = "refresh-secret-for-tests-0123456789abcdef"
	testIngestKey     = "ingest-key-for-tests-0123456789"
	testPassword      = "Passw0rd-strong"

	venueA = "6f1c2f52-2f7e-4d0b-9a55-1b2f6d9b2a01"
	venueB = "6f1c2f52-2f7e-4d0b-9a55-1b2f6d9b2a02"
)

// testServer wires the real router, auth and casbin policy to in-memory
// fakes.
type testServer struct {
	t          *testing.T
	store      *memStore
	detections *fakeDetections
	stats      *fakeStats
	audit      *fakeAudit
	tokens     *auth.TokenManager
	cfg        *config.Config
	handler    *Handler
	http       http.Handler
	users      int
}

func newTestServer(t *testing.T, opts ...func(*config.Config)) *testServer {
	t.Helper()

	cfg := &config.Config{
		API: config.APIConfig{DefaultPageSize: 10, MaxPageSize: 100},
		Security: config.SecurityConfig{
			JWTSecret:          testJWTSecret,
			JWTExpiresIn:       15 * time.Minute,
			RefreshTokenSecret: testRefreshSecret,
			RefreshExpiresIn:   24 * time.Hour,
			BcryptCost:         bcrypt.MinCost,
			OpenRegistration:   true,
			IngestAPIKeys:      []string{testIngestKey},
			RateLimitDisabled:  true,
			EnableTestRoutes:   true,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	tokens, err := auth.NewTokenManager(&cfg.Security)
	require.NoError(t, err)

	enforcer, err := authz.NewEnforcer(&authz.EnforcerConfig{})
	require.NoError(t, err)
	t.Cleanup(enforcer.Close)

	ts := &testServer{
		t:          t,
		store:      newMemStore(),
		detections: &fakeDetections{},
		stats:      &fakeStats{},
		audit:      &fakeAudit{},
		tokens:     tokens,
		cfg:        cfg,
	}
	ts.handler = NewHandler(Deps{
		Store:      ts.store,
		Detections: ts.detections,
		Statistics: ts.stats,
		Audit:      ts.audit,
		Tokens:     tokens,
		Config:     cfg,
		Version:    "test",
	})

	router := NewRouter(RouterDeps{
		Handler:  ts.handler,
		Auth:     auth.NewMiddleware(tokens, cfg.Security.IngestAPIKeys),
		Authz:    authz.NewMiddleware(enforcer),
		Security: &cfg.Security,
		API:      &cfg.API,
	})
	t.Cleanup(func() { _ = router.Close() })
	ts.http = router.SetupChi()

	ts.seedVenue(venueA)
	ts.seedVenue(venueB)
	return ts
}

// seedVenue creates a venue with floors "1" (zone z1, camera zc1) and "2"
// (zone z2).
func (ts *testServer) seedVenue(id string) *models.Venue {
	v := &models.Venue{
		ID:       id,
		Name:     "Venue " + id,
		Address:  "1 Main St",
		IsActive: true,
		Floors: models.Floors{
			{FloorNumber: "1", FloorName: "Ground", Zones: []models.Zone{
				{ID: "z1", Name: "Lobby", Cameras: []models.ZoneCamera{{ID: "zc1", Name: "Door"}}},
			}},
			{FloorNumber: "2", FloorName: "First", Zones: []models.Zone{
				{ID: "z2", Name: "Bar", Cameras: []models.ZoneCamera{}},
			}},
		},
	}
	require.NoError(ts.t, ts.store.CreateVenue(context.Background(), v))
	return v
}

func (ts *testServer) seedUser(role models.Role, venueID string) *models.User {
	ts.t.Helper()
	ts.users++
	hash, err := auth.HashPassword(testPassword, bcrypt.MinCost)
	require.NoError(ts.t, err)

	u := &models.User{
		Email:        fmt.Sprintf("%s%d@example.com", strings.ReplaceAll(string(role), "_", ""), ts.users),
		PasswordHash: hash,
		FullName:     "Test " + string(role),
		Role:         role,
		IsActive:     true,
	}
	if venueID != "" {
		u.VenueID = &venueID
	}
	require.NoError(ts.t, ts.store.CreateUser(context.Background(), u))
	return u
}

func (ts *testServer) token(u *models.User) string {
	ts.t.Helper()
	token, err := ts.tokens.GenerateAccessToken(u)
	require.NoError(ts.t, err)
	return token
}

// login seeds a user with role and returns its access token.
func (ts *testServer) login(role models.Role, venueID string) (*models.User, string) {
	u := ts.seedUser(role, venueID)
	return u, ts.token(u)
}

// do sends a request through the full middleware stack. body may be nil, a
// string sent verbatim, or a value encoded as JSON.
func (ts *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	ts.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.http.ServeHTTP(rec, req)
	return rec
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return env
}

// decodeData asserts status and decodes the data field into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, status int, dst interface{}) testEnvelope {
	t.Helper()
	require.Equal(t, status, rec.Code, "body: %s", rec.Body.String())
	env := decodeEnvelope(t, rec)
	if dst != nil {
		require.NoError(t, json.Unmarshal(env.Data, dst))
	}
	return env
}

// errorCode asserts status and returns the error code of the envelope.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder, status int) string {
	t.Helper()
	require.Equal(t, status, rec.Code, "body: %s", rec.Body.String())
	env := decodeEnvelope(t, rec)
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	return env.Error.Code
}
