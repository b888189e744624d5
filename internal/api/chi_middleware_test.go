// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimit_EnvelopeOnLimit(t *testing.T) {
	t.Parallel()
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Minute
	handler := NewChiMiddleware(cfg).RateLimit()(okHandler)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/venues", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/venues", nil))
	assert.Equal(t, ErrCodeTooManyRequests, errorCode(t, rec, http.StatusTooManyRequests))
}

func TestRateLimit_Disabled(t *testing.T) {
	t.Parallel()
	m := NewChiMiddlewareFromSecurity(nil, 1, time.Minute, true)

	for _, mw := range []func(http.Handler) http.Handler{m.RateLimit(), m.RateLimitLogin(), m.RateLimitIngest()} {
		handler := mw(okHandler)
		for i := 0; i < 5; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	}
}

func TestCORS_Preflight(t *testing.T) {
	t.Parallel()
	m := NewChiMiddlewareFromSecurity([]string{"https://ops.example.com"}, 100, time.Minute, false)
	handler := m.CORS()(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/detections", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://ops.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/detections", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
