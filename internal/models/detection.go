// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package models

import (
	"database/sql/driver"
	"time"
)

// DetectionStatus is the lifecycle state of a detection:
// pending → notified → handled | false_alarm. A pending detection may also
// be handled directly.
type DetectionStatus string

const (
	DetectionPending    DetectionStatus = "pending"
	DetectionNotified   DetectionStatus = "notified"
	DetectionHandled    DetectionStatus = "handled"
	DetectionFalseAlarm DetectionStatus = "false_alarm"
)

func (s DetectionStatus) Valid() bool {
	switch s {
	case DetectionPending, DetectionNotified, DetectionHandled, DetectionFalseAlarm:
		return true
	}
	return false
}

// Resolved reports whether a person has closed the detection.
func (s DetectionStatus) Resolved() bool {
	return s == DetectionHandled || s == DetectionFalseAlarm
}

// Detection is a smoke detection reported by a camera agent.
type Detection struct {
	ID                  string              `db:"id" json:"id"`
	VenueID             string              `db:"venue_id" json:"venueId"`
	FloorNumber         string              `db:"floor_number" json:"floorNumber"`
	ZoneID              string              `db:"zone_id" json:"zoneId"`
	CameraID            string              `db:"camera_id" json:"cameraId"`
	Location            DetectionLocation   `db:"location" json:"location"`
	DetectionDetails    DetectionDetails    `db:"detection_details" json:"detectionDetails"`
	DetectedAt          time.Time           `db:"detected_at" json:"detectedAt"`
	Status              DetectionStatus     `db:"status" json:"status"`
	HandledBy           *string             `db:"handled_by" json:"handledBy,omitempty"`
	HandledAt           *time.Time          `db:"handled_at" json:"handledAt,omitempty"`
	NotificationDetails NotificationDetails `db:"notification_details" json:"notificationDetails,omitempty"`
	Notes               *string             `db:"notes" json:"notes,omitempty"`
	ImageData           ImageData           `db:"image_data" json:"imageData"`
	SystemMetrics       *SystemMetrics      `db:"system_metrics" json:"systemMetrics,omitempty"`
	CreatedAt           time.Time           `db:"created_at" json:"createdAt"`

	Venue   *DetectionVenue `db:"-" json:"venue,omitempty"`
	Handler *UserSummary    `db:"-" json:"handler,omitempty"`
}

type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

type DetectionLocation struct {
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	BoundingBox BoundingBox `json:"boundingBox"`
	Confidence  float64     `json:"confidence" validate:"gte=0,lte=1"`
}

func (l DetectionLocation) Value() (driver.Value, error) { return jsonValue(l) }
func (l *DetectionLocation) Scan(src interface{}) error { return scanJSON(src, l) }

type DetectionDetails struct {
	Confidence         float64 `json:"confidence" validate:"gte=0,lte=1"`
	DetectionSequences int     `json:"detectionSequences" validate:"gte=0"`
	FPS                float64 `json:"fps" validate:"gte=0"`
}

func (d DetectionDetails) Value() (driver.Value, error) { return jsonValue(d) }
func (d *DetectionDetails) Scan(src interface{}) error { return scanJSON(src, d) }

// ImageData carries base64 frames from the camera agent.
type ImageData struct {
	OriginalImage  string  `json:"originalImage"`
	ProcessedImage string  `json:"processedImage"`
	AnnotatedImage string  `json:"annotatedImage"`
	Confidence     float64 `json:"confidence"`
}

func (i ImageData) Value() (driver.Value, error) { return jsonValue(i) }
func (i *ImageData) Scan(src interface{}) error { return scanJSON(src, i) }

type SystemMetrics struct {
	CPUPercent      float64        `json:"cpuPercent"`
	RAMPercent      float64        `json:"ramPercent"`
	DetectionRate   float64        `json:"detectionRate"`
	TotalDetections int            `json:"totalDetections"`
	ElapsedTime     float64        `json:"elapsedTime"`
	BufferMetrics   *BufferMetrics `json:"bufferMetrics,omitempty"`
}

type BufferMetrics struct {
	BufferSize             int     `json:"bufferSize"`
	DetectionFrequency     float64 `json:"detectionFrequency"`
	FalsePositiveRate      float64 `json:"falsePositiveRate"`
	TimeSinceLastDetection float64 `json:"timeSinceLastDetection"`
	ConsecutiveDetections  int     `json:"consecutiveDetections"`
}

func (m SystemMetrics) Value() (driver.Value, error) { return jsonValue(m) }
func (m *SystemMetrics) Scan(src interface{}) error { return scanJSON(src, m) }

// Notification delivery channels and outcomes.
const (
	NotifyEmail   = "email"
	NotifySMS     = "sms"
	NotifyPush    = "push"
	NotifyWebhook = "webhook"

	NotifySent      = "sent"
	NotifyDelivered = "delivered"
	NotifyFailed    = "failed"
)

// NotificationDetail records one delivery attempt for a detection.
type NotificationDetail struct {
	SentTo []string  `json:"sentTo"`
	SentAt time.Time `json:"sentAt"`
	Method string    `json:"method"`
	Status string    `json:"status"`
}

// Succeeded reports whether the attempt reached its target.
func (n NotificationDetail) Succeeded() bool {
	return n.Status == NotifySent || n.Status == NotifyDelivered
}

type NotificationDetails []NotificationDetail

func (n NotificationDetails) Value() (driver.Value, error) {
	if n == nil {
		return "[]", nil
	}
	return jsonValue([]NotificationDetail(n))
}

func (n *NotificationDetails) Scan(src interface{}) error {
	return scanJSON(src, (*[]NotificationDetail)(n))
}

// DetectionVenue is the venue context attached to detection responses.
type DetectionVenue struct {
	ID    string               `json:"id"`
	Name  string               `json:"name"`
	Floor *DetectionVenueFloor `json:"floor,omitempty"`
}

type DetectionVenueFloor struct {
	FloorNumber string              `json:"floorNumber"`
	FloorName   string              `json:"floorName"`
	Zone        *DetectionVenueZone `json:"zone,omitempty"`
}

type DetectionVenueZone struct {
	ID     string                `json:"id"`
	Name   string                `json:"name"`
	Camera *DetectionVenueCamera `json:"camera,omitempty"`
}

type DetectionVenueCamera struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// VenueContext builds the nested venue/floor/zone/camera summary for d.
func (d *Detection) VenueContext(v *Venue) *DetectionVenue {
	if v == nil {
		return nil
	}
	out := &DetectionVenue{ID: v.ID, Name: v.Name}
	f, z := v.FindZone(d.FloorNumber, d.ZoneID)
	if f == nil {
		return out
	}
	out.Floor = &DetectionVenueFloor{FloorNumber: f.FloorNumber, FloorName: f.FloorName}
	if z == nil {
		return out
	}
	out.Floor.Zone = &DetectionVenueZone{ID: z.ID, Name: z.Name}
	if c := z.FindCamera(d.CameraID); c != nil {
		out.Floor.Zone.Camera = &DetectionVenueCamera{ID: c.ID, Name: c.Name, Location: c.Location}
	}
	return out
}

// DetectionFilter narrows detection listings.
type DetectionFilter struct {
	VenueID       string
	FloorNumber   string
	ZoneID        string
	CameraID      string
	Status        DetectionStatus
	StartDate     *time.Time
	EndDate       *time.Time
	MinConfidence *float64
	SortBy        string // detectedAt | handledAt | confidence
	SortOrder     string // ASC | DESC
	Page          int
	Limit         int
}

// DetectionSummary is the response of GET /detections/statistics.
type DetectionSummary struct {
	TotalDetections int            `json:"totalDetections"`
	ByStatus        map[string]int `json:"byStatus"`
	AvgHandlingTime float64        `json:"avgHandlingTime"`
	ByZone          []ZoneCount    `json:"byZone"`
	ByCamera        []CameraCount  `json:"byCamera"`
}

type ZoneCount struct {
	ZoneID      string `db:"zone_id" json:"zoneId"`
	FloorNumber string `db:"floor_number" json:"floorNumber"`
	Count       int    `db:"count" json:"count"`
}

type CameraCount struct {
	CameraID string `db:"camera_id" json:"cameraId"`
	Count    int    `db:"count" json:"count"`
}
