// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package models

import (
	"database/sql/driver"
	"time"
)

// User is an account. PasswordHash and RefreshToken never leave the server.
type User struct {
	ID                      string                  `db:"id" json:"id"`
	Email                   string                  `db:"email" json:"email"`
	PasswordHash            string                  `db:"password_hash" json:"-"`
	FullName                string                  `db:"full_name" json:"fullName"`
	Phone                   *string                 `db:"phone" json:"phone,omitempty"`
	Role                    Role                    `db:"role" json:"role"`
	VenueID                 *string                 `db:"venue_id" json:"venueId,omitempty"`
	IsActive                bool                    `db:"is_active" json:"isActive"`
	LastLoginAt             *time.Time              `db:"last_login_at" json:"lastLoginAt,omitempty"`
	RefreshToken            *string                 `db:"refresh_token" json:"-"`
	NotificationPreferences NotificationPreferences `db:"notification_preferences" json:"notificationPreferences"`
	CreatedAt               time.Time               `db:"created_at" json:"createdAt"`
	UpdatedAt               time.Time               `db:"updated_at" json:"updatedAt"`
}

// VenueIDValue returns the venue id or "" when the user is not bound to a venue.
func (u *User) VenueIDValue() string {
	if u.VenueID == nil {
		return ""
	}
	return *u.VenueID
}

// NotificationPreferences are the channels a user opted into.
type NotificationPreferences struct {
	Email            bool `json:"email"`
	SMS              bool `json:"sms"`
	PushNotification bool `json:"pushNotification"`
}

func (p NotificationPreferences) Value() (driver.Value, error) { return jsonValue(p) }
func (p *NotificationPreferences) Scan(src interface{}) error { return scanJSON(src, p) }

// UserSummary is embedded in detection and assignment responses.
type UserSummary struct {
	ID       string  `db:"id" json:"id"`
	FullName string  `db:"full_name" json:"fullName"`
	Email    string  `db:"email" json:"email"`
	Phone    *string `db:"phone" json:"phone,omitempty"`
}

// PublicUser is the user object returned by the auth endpoints.
type PublicUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     Role   `json:"role"`
	VenueID  string `json:"venueId,omitempty"`
}

// Public converts u to its auth response form.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
		VenueID:  u.VenueIDValue(),
	}
}
