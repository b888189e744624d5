// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package testinfra

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// WebhookCapture is one captured request.
type WebhookCapture struct {
	Method  string
	Path    string
	Headers http.Header
	Body    []byte
}

// MockWebhookServer captures every incoming request for verification.
type MockWebhookServer struct {
	Server *httptest.Server

	mu       sync.Mutex
	captures []WebhookCapture

	// default 200, see SetStatus
	responseStatus int

	// ResponseFunc, when set, replaces the default response.
	ResponseFunc func(w http.ResponseWriter, r *http.Request, attempt int)
}

// NewMockWebhookServer starts a capture server closed on test cleanup.
func NewMockWebhookServer(t *testing.T) *MockWebhookServer {
	t.Helper()

	mws := &MockWebhookServer{responseStatus: http.StatusOK}
	mws.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()

		mws.mu.Lock()
		mws.captures = append(mws.captures, WebhookCapture{
			Method:  r.Method,
			Path:    r.URL.Path,
			Headers: r.Header.Clone(),
			Body:    body,
		})
		attempt := len(mws.captures)
		status := mws.responseStatus
		fn := mws.ResponseFunc
		mws.mu.Unlock()

		if fn != nil {
			fn(w, r, attempt)
			return
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(mws.Server.Close)

	return mws
}

// URL returns the server URL.
func (m *MockWebhookServer) URL() string {
	return m.Server.URL
}

// SetStatus changes the default response status.
func (m *MockWebhookServer) SetStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responseStatus = status
}

// Captures returns a copy of all captured requests.
func (m *MockWebhookServer) Captures() []WebhookCapture {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]WebhookCapture, len(m.captures))
	copy(out, m.captures)
	return out
}

// WaitForCaptures waits until at least n requests arrived or timeout.
func (m *MockWebhookServer) WaitForCaptures(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		count := len(m.captures)
		m.mu.Unlock()
		if count >= n {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}
