// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package eventbus

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/smokewatch/internal/models"
)

// Topics.
const (
	TopicDetectionCreated  = "detections.created"
	TopicDetectionUpdated  = "detections.updated"
	TopicStatisticsUpdated = "statistics.updated"
)

// Metadata keys set on every published message.
const (
	MetadataCorrelationID = "correlation_id"
	MetadataPublishedAt   = "published_at"
)

// Event sources.
const (
	SourceHTTP = "http"
	SourceMQTT = "mqtt"
)

// DetectionEvent is the payload of detections.created and detections.updated.
type DetectionEvent struct {
	Detection      *models.Detection      `json:"detection"`
	PreviousStatus models.DetectionStatus `json:"previousStatus,omitempty"`
	Source         string                 `json:"source,omitempty"`
	ActorID        string                 `json:"actorId,omitempty"`
}

// StatisticsEvent is the payload of statistics.updated.
type StatisticsEvent struct {
	VenueID    string            `json:"venueId"`
	Date       string            `json:"date"`
	Statistic  *models.Statistic `json:"statistic,omitempty"`
	ComputedAt time.Time         `json:"computedAt"`
}

// Decode unmarshals a message payload into dest.
func Decode(msg *message.Message, dest interface{}) error {
	if err := json.Unmarshal(msg.Payload, dest); err != nil {
		return fmt.Errorf("decode %s: %w", msg.UUID, err)
	}
	return nil
}
