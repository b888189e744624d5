// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package detection

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/smokewatch/internal/config"
	"github.com/tomtom215/smokewatch/internal/testinfra"
)

func testAlert() *Alert {
	return &Alert{
		DetectionID: "d1",
		VenueID:     "v1",
		VenueName:   "Arena",
		FloorNumber: "1",
		ZoneID:      "z1",
		ZoneName:    "Lobby",
		CameraID:    "c1",
		Confidence:  0.92,
		Severity:    SeverityCritical,
		Title:       "Smoke detected at Arena",
		DetectedAt:  time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func TestWebhookNotifier_Send(t *testing.T) {
	srv := testinfra.NewMockWebhookServer(t)
	n := NewWebhookNotifier(config.WebhookConfig{
		Enabled:   true,
		URL:       srv.URL() + "/hook",
		Headers:   map[string]string{"Authorization": "Bearer secret"},
		RateLimit: time.Millisecond,
	})

	if err := n.Send(context.Background(), testAlert()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	captures := srv.Captures()
	if len(captures) != 1 {
		t.Fatalf("captures = %d, want 1", len(captures))
	}
	c := captures[0]
	if c.Method != http.MethodPost || c.Path != "/hook" {
		t.Errorf("request = %s %s", c.Method, c.Path)
	}
	if got := c.Headers.Get("Authorization"); got != "Bearer secret" {
		t.Errorf("Authorization = %q", got)
	}
	if got := c.Headers.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}

	var payload WebhookPayload
	if err := json.Unmarshal(c.Body, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.EventType != "smoke_detected" || payload.Source != "smokewatch" {
		t.Errorf("payload envelope = %+v", payload)
	}
	if payload.Alert == nil || payload.Alert.DetectionID != "d1" {
		t.Errorf("payload alert = %+v", payload.Alert)
	}
}

func TestWebhookNotifier_StatusError(t *testing.T) {
	srv := testinfra.NewMockWebhookServer(t)
	srv.SetStatus(http.StatusBadGateway)
	n := NewWebhookNotifier(config.WebhookConfig{Enabled: true, URL: srv.URL(), RateLimit: time.Millisecond})

	err := n.Send(context.Background(), testAlert())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if se.Code != http.StatusBadGateway || !se.Retryable() {
		t.Errorf("status error = %+v retryable=%v", se, se.Retryable())
	}
}

func TestWebhookNotifier_Disabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.WebhookConfig
	}{
		{"disabled", config.WebhookConfig{Enabled: false, URL: "http://127.0.0.1:1"}},
		{"no url", config.WebhookConfig{Enabled: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewWebhookNotifier(tt.cfg)
			if n.Enabled() {
				t.Error("Enabled() = true")
			}
			if err := n.Send(context.Background(), testAlert()); err != nil {
				t.Errorf("Send() on disabled notifier = %v", err)
			}
		})
	}
}

func TestWebhookNotifier_RateLimit(t *testing.T) {
	srv := testinfra.NewMockWebhookServer(t)
	n := NewWebhookNotifier(config.WebhookConfig{Enabled: true, URL: srv.URL(), RateLimit: 100 * time.Millisecond})

	start := time.Now()
	for i := 0; i < 2; i++ {
		if err := n.Send(context.Background(), testAlert()); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("two sends took %v, want >= 100ms", elapsed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.Send(ctx, testAlert()); !errors.Is(err, context.Canceled) {
		t.Errorf("Send() with canceled ctx = %v", err)
	}
}

func TestDiscordNotifier_Send(t *testing.T) {
	srv := testinfra.NewMockWebhookServer(t)
	n := NewDiscordNotifier(config.WebhookConfig{Enabled: true, URL: srv.URL(), RateLimit: time.Millisecond})
	if n.Name() != "discord" {
		t.Errorf("Name() = %q", n.Name())
	}

	if err := n.Send(context.Background(), testAlert()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	var payload discordWebhookPayload
	if err := json.Unmarshal(srv.Captures()[0].Body, &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.Embeds) != 1 {
		t.Fatalf("embeds = %d", len(payload.Embeds))
	}
	embed := payload.Embeds[0]
	if embed.Color != 0xFF0000 {
		t.Errorf("color = %#x, want red for critical", embed.Color)
	}
	if embed.Timestamp != "2026-03-14T12:00:00Z" {
		t.Errorf("timestamp = %q", embed.Timestamp)
	}
	if embed.Fields[3].Value != "Lobby" || embed.Fields[4].Value != "c1" {
		t.Errorf("zone/camera fields = %+v", embed.Fields[3:])
	}
}

func TestDiscordNotifier_StatusErrorNamed(t *testing.T) {
	srv := testinfra.NewMockWebhookServer(t)
	srv.SetStatus(http.StatusTooManyRequests)
	n := NewDiscordNotifier(config.WebhookConfig{Enabled: true, URL: srv.URL(), RateLimit: time.Millisecond})

	err := n.Send(context.Background(), testAlert())
	var se *StatusError
	if !errors.As(err, &se) || se.Notifier != "discord" || !se.Retryable() {
		t.Errorf("error = %v", err)
	}
}

func TestSeverityColor(t *testing.T) {
	tests := map[Severity]int{
		SeverityCritical: 0xFF0000,
		SeverityWarning:  0xFFA500,
		SeverityInfo:     0x3498DB,
		Severity("?"):    0x95A5A6,
	}
	for sev, want := range tests {
		if got := severityColor(sev); got != want {
			t.Errorf("severityColor(%s) = %#x, want %#x", sev, got, want)
		}
	}
}
