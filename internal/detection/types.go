// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package detection

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/smokewatch/internal/models"
)

// Store is the persistence used by this package. *database.DB satisfies it.
type Store interface {
	GetVenue(ctx context.Context, id string) (*models.Venue, error)
	FindCamera(ctx context.Context, venueID, floorNumber, zoneID, cameraID string) (*models.Camera, error)
	CreateDetection(ctx context.Context, d *models.Detection) error
	GetDetection(ctx context.Context, id string) (*models.Detection, error)
	UpdateDetection(ctx context.Context, d *models.Detection) error
	RecordNotifications(ctx context.Context, id string, details models.NotificationDetails, promote bool) (models.DetectionStatus, error)
	RecordCameraDetection(ctx context.Context, cameraID string, at time.Time, confidence float64) error
	RecordCameraOutcome(ctx context.Context, cameraID string, falseAlarm bool) error
}

// EventPublisher publishes bus events. *eventbus.Publisher satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

// VenueBroadcaster pushes a message to the websocket clients of a venue and
// returns the user IDs it reached. *websocket.Hub satisfies it.
type VenueBroadcaster interface {
	BroadcastToVenue(msgType, venueID string, data interface{}) []string
}

// StatsInvalidator drops cached statistics of a venue.
type StatsInvalidator interface {
	Invalidate(ctx context.Context, venueID string)
}

// Notifier sends alerts to external systems.
type Notifier interface {
	// Send delivers an alert to the notification channel.
	Send(ctx context.Context, alert *Alert) error

	// Name returns the notifier name (e.g., "discord", "webhook").
	Name() string

	// Enabled returns whether this notifier is enabled.
	Enabled() bool
}

// Severity of an alert, derived from detection confidence.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// SeverityFor maps a confidence in [0,1] to a severity.
func SeverityFor(confidence float64) Severity {
	switch {
	case confidence >= 0.8:
		return SeverityCritical
	case confidence >= 0.5:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Alert is the notifier view of a detection.
type Alert struct {
	DetectionID string                 `json:"detectionId"`
	VenueID     string                 `json:"venueId"`
	VenueName   string                 `json:"venueName,omitempty"`
	FloorNumber string                 `json:"floorNumber"`
	FloorName   string                 `json:"floorName,omitempty"`
	ZoneID      string                 `json:"zoneId"`
	ZoneName    string                 `json:"zoneName,omitempty"`
	CameraID    string                 `json:"cameraId"`
	CameraName  string                 `json:"cameraName,omitempty"`
	Confidence  float64                `json:"confidence"`
	Severity    Severity               `json:"severity"`
	Status      models.DetectionStatus `json:"status"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	DetectedAt  time.Time              `json:"detectedAt"`
}

// NewAlert builds an alert for d. venue may be nil.
func NewAlert(d *models.Detection, venue *models.Venue) *Alert {
	a := &Alert{
		DetectionID: d.ID,
		VenueID:     d.VenueID,
		FloorNumber: d.FloorNumber,
		ZoneID:      d.ZoneID,
		CameraID:    d.CameraID,
		Confidence:  d.DetectionDetails.Confidence,
		Severity:    SeverityFor(d.DetectionDetails.Confidence),
		Status:      d.Status,
		DetectedAt:  d.DetectedAt,
	}

	if vc := d.VenueContext(venue); vc != nil {
		a.VenueName = vc.Name
		if f := vc.Floor; f != nil {
			a.FloorName = f.FloorName
			if z := f.Zone; z != nil {
				a.ZoneName = z.Name
				if c := z.Camera; c != nil {
					a.CameraName = c.Name
				}
			}
		}
	}

	where := a.ZoneID
	if a.ZoneName != "" {
		where = a.ZoneName
	}
	venueName := a.VenueID
	if a.VenueName != "" {
		venueName = a.VenueName
	}
	a.Title = "Smoke detected at " + venueName
	a.Message = fmt.Sprintf("Smoke detected on floor %s in %s (confidence %.0f%%)",
		a.FloorNumber, where, a.Confidence*100)
	return a
}

// CreateRequest is the body of POST /detections and the MQTT ingest payload.
type CreateRequest struct {
	VenueID          string                   `json:"venueId" validate:"required"`
	FloorNumber      string                   `json:"floorNumber" validate:"required,floor_number"`
	ZoneID           string                   `json:"zoneId" validate:"required"`
	CameraID         string                   `json:"cameraId" validate:"required"`
	Location         models.DetectionLocation `json:"location"`
	DetectionDetails models.DetectionDetails  `json:"detectionDetails"`
	ImageData        models.ImageData         `json:"imageData"`
	SystemMetrics    *models.SystemMetrics    `json:"systemMetrics,omitempty"`

	// Source is eventbus.SourceHTTP or eventbus.SourceMQTT.
	Source string `json:"-"`
}

// UpdateRequest is the body of PUT /detections/{id}. Nil fields are left
// unchanged.
type UpdateRequest struct {
	Status *models.DetectionStatus `json:"status" validate:"omitempty,detection_status"`
	Notes  *string                 `json:"notes" validate:"omitempty,max=2000"`
}
