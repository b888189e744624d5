// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package detection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/smokewatch/internal/config"
)

// DiscordNotifier sends alerts to Discord via webhooks. It shares the
// transport and rate limiting of WebhookNotifier and differs only in the
// payload.
type DiscordNotifier struct {
	*WebhookNotifier
}

// NewDiscordNotifier creates a new Discord notifier.
func NewDiscordNotifier(cfg config.WebhookConfig) *DiscordNotifier {
	if cfg.RateLimit == 0 {
		cfg.RateLimit = time.Second
	}
	cfg.Headers = nil
	return &DiscordNotifier{WebhookNotifier: NewWebhookNotifier(cfg)}
}

// Name returns the notifier name.
func (n *DiscordNotifier) Name() string {
	return "discord"
}

// Send delivers an alert to Discord.
func (n *DiscordNotifier) Send(ctx context.Context, alert *Alert) error {
	n.mu.RLock()
	if !n.enabled || n.webhookURL == "" {
		n.mu.RUnlock()
		return nil
	}
	webhookURL := n.webhookURL
	n.mu.RUnlock()

	if err := n.wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(discordWebhookPayload{Embeds: []discordEmbed{buildEmbed(alert)}})
	if err != nil {
		return fmt.Errorf("failed to marshal Discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create Discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if err := n.do(req); err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			se.Notifier = n.Name()
		}
		return err
	}
	return nil
}

// buildEmbed creates a Discord embed from an alert.
func buildEmbed(alert *Alert) discordEmbed {
	fields := []discordEmbedField{
		{Name: "Severity", Value: string(alert.Severity), Inline: true},
		{Name: "Confidence", Value: fmt.Sprintf("%.0f%%", alert.Confidence*100), Inline: true},
		{Name: "Floor", Value: alert.FloorNumber, Inline: true},
		{Name: "Zone", Value: firstNonEmpty(alert.ZoneName, alert.ZoneID), Inline: true},
		{Name: "Camera", Value: firstNonEmpty(alert.CameraName, alert.CameraID), Inline: true},
	}

	return discordEmbed{
		Title:       alert.Title,
		Description: alert.Message,
		Color:       severityColor(alert.Severity),
		Timestamp:   alert.DetectedAt.UTC().Format(time.RFC3339),
		Fields:      fields,
		Footer:      discordEmbedFooter{Text: "Smokewatch"},
	}
}

// severityColor returns the Discord embed color for a severity level.
func severityColor(severity Severity) int {
	switch severity {
	case SeverityCritical:
		return 0xFF0000 // Red
	case SeverityWarning:
		return 0xFFA500 // Orange
	case SeverityInfo:
		return 0x3498DB // Blue
	default:
		return 0x95A5A6 // Gray
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "-"
}

type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Footer      discordEmbedFooter  `json:"footer,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbedFooter struct {
	Text string `json:"text"`
}
