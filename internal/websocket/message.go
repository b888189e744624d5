// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package websocket

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/smokewatch/internal/models"
)

// Message types for WebSocket communication
const (
	MessageTypeConnection      = "connection"
	MessageTypeDetection       = "detection"
	MessageTypeDetectionUpdate = "detection_update"
	MessageTypeStatistics      = "statistics"
	MessageTypePing            = "ping"
	MessageTypePong            = "pong"
)

// Message represents a WebSocket message
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// ConnectionData is the payload of the connection message sent on register.
type ConnectionData struct {
	Message string      `json:"message"`
	UserID  string      `json:"userId"`
	Role    models.Role `json:"role"`
	VenueID string      `json:"venueId,omitempty"`
}

// DetectionPayload is the client-facing view of a detection. Only the
// annotated image is forwarded.
type DetectionPayload struct {
	ID               string                   `json:"id"`
	VenueID          string                   `json:"venueId"`
	FloorNumber      string                   `json:"floorNumber"`
	ZoneID           string                   `json:"zoneId"`
	CameraID         string                   `json:"cameraId"`
	Location         models.DetectionLocation `json:"location"`
	DetectionDetails models.DetectionDetails  `json:"detectionDetails"`
	ImageData        AnnotatedImage           `json:"imageData"`
	DetectedAt       time.Time                `json:"detectedAt"`
	Status           models.DetectionStatus   `json:"status"`
	HandledBy        *string                  `json:"handledBy,omitempty"`
	HandledAt        *time.Time               `json:"handledAt,omitempty"`
}

type AnnotatedImage struct {
	AnnotatedImage string `json:"annotatedImage,omitempty"`
}

// NewDetectionPayload builds the broadcast payload for d.
func NewDetectionPayload(d *models.Detection) DetectionPayload {
	return DetectionPayload{
		ID:               d.ID,
		VenueID:          d.VenueID,
		FloorNumber:      d.FloorNumber,
		ZoneID:           d.ZoneID,
		CameraID:         d.CameraID,
		Location:         d.Location,
		DetectionDetails: d.DetectionDetails,
		ImageData:        AnnotatedImage{AnnotatedImage: d.ImageData.AnnotatedImage},
		DetectedAt:       d.DetectedAt,
		Status:           d.Status,
		HandledBy:        d.HandledBy,
		HandledAt:        d.HandledAt,
	}
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
