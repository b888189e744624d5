// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package models

import (
	"database/sql/driver"
	"time"
)

// Venue is a physical site. Floors, zones and zone cameras are stored as a
// single JSON document on the venue row.
type Venue struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Address     string         `db:"address" json:"address"`
	Location    *GeoPoint      `db:"location" json:"location,omitempty"`
	Description *string        `db:"description" json:"description,omitempty"`
	Phone       *string        `db:"phone" json:"phone,omitempty"`
	Email       *string        `db:"email" json:"email,omitempty"`
	IsActive    bool           `db:"is_active" json:"isActive"`
	Floors      Floors         `db:"floors" json:"floors"`
	Settings    *VenueSettings `db:"settings" json:"settings,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

type GeoPoint struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

func (g GeoPoint) Value() (driver.Value, error) { return jsonValue(g) }
func (g *GeoPoint) Scan(src interface{}) error { return scanJSON(src, g) }

// Point is a position on a floor plan.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Value() (driver.Value, error) { return jsonValue(p) }
func (p *Point) Scan(src interface{}) error { return scanJSON(src, p) }

// Rect is an axis-aligned rectangle: (X1,Y1) top-left, (X2,Y2) bottom-right.
type Rect struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2" validate:"gtefield=X1"`
	Y2 float64 `json:"y2" validate:"gtefield=Y1"`
}

// Contains reports whether p lies inside r (inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X1 && p.X <= r.X2 && p.Y >= r.Y1 && p.Y <= r.Y2
}

type Dimensions struct {
	Width  float64 `json:"width" validate:"gte=0"`
	Length float64 `json:"length" validate:"gte=0"`
}

type Floor struct {
	FloorNumber string      `json:"floorNumber" validate:"required,floor_number"`
	FloorName   string      `json:"floorName" validate:"required,max=100"`
	Dimensions  *Dimensions `json:"dimensions,omitempty"`
	Zones       []Zone      `json:"zones" validate:"dive"`
}

// FindZone returns the zone with id, or nil.
func (f *Floor) FindZone(id string) *Zone {
	for i := range f.Zones {
		if f.Zones[i].ID == id {
			return &f.Zones[i]
		}
	}
	return nil
}

type Zone struct {
	ID          string       `json:"id"`
	Name        string       `json:"name" validate:"required,max=100"`
	Coordinates Rect         `json:"coordinates"`
	Cameras     []ZoneCamera `json:"cameras" validate:"dive"`
}

// FindCamera returns the zone camera with id, or nil.
func (z *Zone) FindCamera(id string) *ZoneCamera {
	for i := range z.Cameras {
		if z.Cameras[i].ID == id {
			return &z.Cameras[i]
		}
	}
	return nil
}

// ZoneCamera is the floor-plan placement of a camera inside a zone.
type ZoneCamera struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name" validate:"required,max=100"`
	Location              string     `json:"location"`
	Coordinates           Point      `json:"coordinates"`
	CoverageRadius        float64    `json:"coverageRadius" validate:"gte=0"`
	CoverageAngle         float64    `json:"coverageAngle" validate:"gte=0,lte=360"`
	SmokeDetectionEnabled bool       `json:"smokeDetectionEnabled"`
	Status                string     `json:"status" validate:"omitempty,oneof=active inactive"`
	LastMaintenanceDate   *time.Time `json:"lastMaintenanceDate,omitempty"`
}

// Floors is the JSON floors column.
type Floors []Floor

func (f Floors) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	return jsonValue([]Floor(f))
}

func (f *Floors) Scan(src interface{}) error { return scanJSON(src, (*[]Floor)(f)) }

// FindFloor returns the floor with the given number, or nil.
func (v *Venue) FindFloor(floorNumber string) *Floor {
	for i := range v.Floors {
		if v.Floors[i].FloorNumber == floorNumber {
			return &v.Floors[i]
		}
	}
	return nil
}

// FindZone resolves floor and zone in one call.
func (v *Venue) FindZone(floorNumber, zoneID string) (*Floor, *Zone) {
	f := v.FindFloor(floorNumber)
	if f == nil {
		return nil, nil
	}
	return f, f.FindZone(zoneID)
}

// AssignIDs gives every zone and zone camera without an id a fresh one and
// defaults camera status to active. Existing ids are preserved so updates
// keep references from detections and assignments intact.
func (v *Venue) AssignIDs(newID func() string) {
	for fi := range v.Floors {
		for zi := range v.Floors[fi].Zones {
			z := &v.Floors[fi].Zones[zi]
			if z.ID == "" {
				z.ID = newID()
			}
			if z.Cameras == nil {
				z.Cameras = []ZoneCamera{}
			}
			for ci := range z.Cameras {
				c := &z.Cameras[ci]
				if c.ID == "" {
					c.ID = newID()
				}
				if c.Status == "" {
					c.Status = "active"
				}
			}
		}
	}
}

// Counts returns the number of floors, zones and zone cameras.
func (v *Venue) Counts() (floors, zones, cameras int) {
	floors = len(v.Floors)
	for _, f := range v.Floors {
		zones += len(f.Zones)
		for _, z := range f.Zones {
			cameras += len(z.Cameras)
		}
	}
	return floors, zones, cameras
}

type VenueSettings struct {
	NotificationEmail         string                `json:"notificationEmail,omitempty" validate:"omitempty,email"`
	SmokeDetectionSensitivity string                `json:"smokeDetectionSensitivity,omitempty" validate:"omitempty,sensitivity"`
	NotificationChannels      *NotificationChannels `json:"notificationChannels,omitempty"`
	Analytics                 *AnalyticsSettings    `json:"analytics,omitempty"`
}

func (s VenueSettings) Value() (driver.Value, error) { return jsonValue(s) }
func (s *VenueSettings) Scan(src interface{}) error { return scanJSON(src, s) }

// NotificationChannels toggles outbound channels for a venue. A nil pointer
// means "not configured" and is treated as enabled.
type NotificationChannels struct {
	Email            *bool `json:"email,omitempty"`
	SMS              *bool `json:"sms,omitempty"`
	PushNotification *bool `json:"pushNotification,omitempty"`
	Webhook          *bool `json:"webhook,omitempty"`
}

type AnalyticsSettings struct {
	KeepHistoricalData bool   `json:"keepHistoricalData"`
	DataRetentionDays  int    `json:"dataRetentionDays" validate:"gte=0"`
	HeatmapResolution  string `json:"heatmapResolution" validate:"omitempty,sensitivity"`
	GenerateReports    bool   `json:"generateReports"`
	ReportFrequency    string `json:"reportFrequency" validate:"omitempty,oneof=daily weekly monthly"`
}

// ChannelEnabled reports whether a named outbound channel is enabled for
// the venue. Unconfigured channels default to enabled.
func (v *Venue) ChannelEnabled(channel string) bool {
	if v.Settings == nil || v.Settings.NotificationChannels == nil {
		return true
	}
	var flag *bool
	switch c := v.Settings.NotificationChannels; channel {
	case "email":
		flag = c.Email
	case "sms":
		flag = c.SMS
	case "push":
		flag = c.PushNotification
	case "webhook":
		flag = c.Webhook
	}
	return flag == nil || *flag
}

// VenueSummary is a row in the venue list.
type VenueSummary struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Address          string `json:"address"`
	IsActive         bool   `json:"isActive"`
	TotalFloors      int    `json:"totalFloors"`
	TotalZones       int    `json:"totalZones"`
	TotalCameras     int    `json:"totalCameras"`
	ActiveDetections int    `json:"activeDetections"`
}

// VenueFilter narrows venue listings. Search matches name or address.
type VenueFilter struct {
	Search    string
	IsActive  *bool
	SortBy    string // name | createdAt | updatedAt
	SortOrder string
	Page      int
	Limit     int
}
