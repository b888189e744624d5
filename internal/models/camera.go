// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package models

import (
	"database/sql/driver"
	"time"
)

// CameraStatus is the operational status of a registered camera.
type CameraStatus string

const (
	CameraActive      CameraStatus = "active"
	CameraInactive    CameraStatus = "inactive"
	CameraMaintenance CameraStatus = "maintenance"
)

func (s CameraStatus) Valid() bool {
	switch s {
	case CameraActive, CameraInactive, CameraMaintenance:
		return true
	}
	return false
}

// Camera is a registered camera device.
type Camera struct {
	ID                    string            `db:"id" json:"id"`
	Name                  string            `db:"name" json:"name"`
	IPAddress             string            `db:"ip_address" json:"ipAddress"`
	Location              string            `db:"location" json:"location"`
	FloorNumber           string            `db:"floor_number" json:"floorNumber"`
	ZoneID                string            `db:"zone_id" json:"zoneId"`
	VenueID               string            `db:"venue_id" json:"venueId"`
	Coordinates           Point             `db:"coordinates" json:"coordinates"`
	CoverageRadius        float64           `db:"coverage_radius" json:"coverageRadius"`
	CoverageAngle         float64           `db:"coverage_angle" json:"coverageAngle"`
	SmokeDetectionEnabled bool              `db:"smoke_detection_enabled" json:"smokeDetectionEnabled"`
	Status                CameraStatus      `db:"status" json:"status"`
	LastMaintenanceDate   *time.Time        `db:"last_maintenance_date" json:"lastMaintenanceDate,omitempty"`
	Statistics            *CameraStatistics `db:"statistics" json:"statistics,omitempty"`
	TechnicalDetails      *TechnicalDetails `db:"technical_details" json:"technicalDetails,omitempty"`
	CreatedAt             time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time         `db:"updated_at" json:"updatedAt"`
}

// CameraStatistics are running counters maintained by the detection fan-out
// and patched by system administrators.
type CameraStatistics struct {
	TotalDetections   int        `json:"totalDetections"`
	TruePositives     int        `json:"truePositives"`
	FalsePositives    int        `json:"falsePositives"`
	AverageConfidence float64    `json:"averageConfidence"`
	LastDetectionAt   *time.Time `json:"lastDetectionAt,omitempty"`
	UptimePercentage  float64    `json:"uptimePercentage"`
}

func (s CameraStatistics) Value() (driver.Value, error) { return jsonValue(s) }
func (s *CameraStatistics) Scan(src interface{}) error { return scanJSON(src, s) }

type TechnicalDetails struct {
	Model              string     `json:"model,omitempty"`
	Manufacturer       string     `json:"manufacturer,omitempty"`
	Resolution         string     `json:"resolution,omitempty"`
	Firmware           string     `json:"firmware,omitempty"`
	LastFirmwareUpdate *time.Time `json:"lastFirmwareUpdate,omitempty"`
}

func (d TechnicalDetails) Value() (driver.Value, error) { return jsonValue(d) }
func (d *TechnicalDetails) Scan(src interface{}) error { return scanJSON(src, d) }

// CameraFilter narrows camera listings. Empty fields are ignored.
type CameraFilter struct {
	VenueID     string
	FloorNumber string
	ZoneID      string
	Status      CameraStatus
}
