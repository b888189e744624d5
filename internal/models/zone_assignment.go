// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package models

import "time"

// ZoneAssignment binds a security_staff user to a zone. A user has at most
// one active assignment; ending it records who ended it and when.
type ZoneAssignment struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"userId"`
	VenueID     string     `db:"venue_id" json:"venueId"`
	FloorNumber string     `db:"floor_number" json:"floorNumber"`
	ZoneID      string     `db:"zone_id" json:"zoneId"`
	IsActive    bool       `db:"is_active" json:"isActive"`
	AssignedBy  string     `db:"assigned_by" json:"assignedBy"`
	EndedAt     *time.Time `db:"ended_at" json:"endedAt,omitempty"`
	EndedBy     *string    `db:"ended_by" json:"endedBy,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`

	User  *UserSummary `db:"-" json:"user,omitempty"`
	Venue *VenueRef    `db:"-" json:"venue,omitempty"`
}

// VenueRef is the minimal venue reference embedded in listings.
type VenueRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AssignmentFilter narrows assignment listings. IsActive nil means any.
type AssignmentFilter struct {
	UserID      string
	VenueID     string
	FloorNumber string
	ZoneID      string
	IsActive    *bool
}
