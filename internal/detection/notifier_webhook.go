// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package detection

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/smokewatch/internal/config"
)

// WebhookNotifier sends alerts to a generic webhook endpoint.
type WebhookNotifier struct {
	webhookURL string
	headers    map[string]string
	client     *http.Client
	enabled    bool
	mu         sync.RWMutex

	// Rate limiting
	lastSent  time.Time
	rateLimit time.Duration
}

// WebhookPayload is the JSON payload sent to the webhook endpoint.
type WebhookPayload struct {
	Alert     *Alert    `json:"alert"`
	EventType string    `json:"eventType"` // smoke_detected
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// NewWebhookNotifier creates a new generic webhook notifier.
func NewWebhookNotifier(cfg config.WebhookConfig) *WebhookNotifier {
	rateLimit := cfg.RateLimit
	if rateLimit == 0 {
		rateLimit = 500 * time.Millisecond
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	return &WebhookNotifier{
		webhookURL: cfg.URL,
		headers:    headers,
		enabled:    cfg.Enabled,
		rateLimit:  rateLimit,
		client:     &http.Client{Timeout: timeout},
	}
}

// Name returns the notifier name.
func (n *WebhookNotifier) Name() string {
	return "webhook"
}

// Enabled returns whether this notifier is enabled.
func (n *WebhookNotifier) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled && n.webhookURL != ""
}

// Send delivers an alert to the webhook endpoint.
func (n *WebhookNotifier) Send(ctx context.Context, alert *Alert) error {
	n.mu.RLock()
	if !n.enabled || n.webhookURL == "" {
		n.mu.RUnlock()
		return nil
	}
	webhookURL := n.webhookURL
	headers := n.headers
	n.mu.RUnlock()

	if err := n.wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(WebhookPayload{
		Alert:     alert,
		EventType: "smoke_detected",
		Timestamp: time.Now().UTC(),
		Source:    "smokewatch",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return n.do(req)
}

func (n *WebhookNotifier) do(req *http.Request) error {
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	n.mu.Lock()
	n.lastSent = time.Now()
	n.mu.Unlock()

	if resp.StatusCode >= 400 {
		return &StatusError{Notifier: n.Name(), Code: resp.StatusCode}
	}
	return nil
}

// wait enforces the minimum interval between two sends.
func (n *WebhookNotifier) wait(ctx context.Context) error {
	n.mu.RLock()
	remaining := n.rateLimit - time.Since(n.lastSent)
	n.mu.RUnlock()
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
