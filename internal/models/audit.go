// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package models

import "time"

// Audit actions.
const (
	AuditLoginSuccess     = "auth.login.success"
	AuditLoginFailure     = "auth.login.failure"
	AuditRegister         = "auth.register"
	AuditPasswordChange   = "auth.password.change"
	AuditLogout           = "auth.logout"
	AuditVenueCreate      = "venue.create"
	AuditVenueUpdate      = "venue.update"
	AuditVenueDelete      = "venue.delete"
	AuditCameraCreate     = "camera.create"
	AuditCameraDelete     = "camera.delete"
	AuditCameraStatus     = "camera.status"
	AuditAssignmentCreate = "assignment.create"
	AuditAssignmentEnd    = "assignment.end"
)

// AuditEvent is a security-relevant action.
type AuditEvent struct {
	ID           string    `db:"id" json:"id"`
	ActorID      *string   `db:"actor_id" json:"actorId,omitempty"`
	ActorRole    *string   `db:"actor_role" json:"actorRole,omitempty"`
	Action       string    `db:"action" json:"action"`
	ResourceType string    `db:"resource_type" json:"resourceType"`
	ResourceID   *string   `db:"resource_id" json:"resourceId,omitempty"`
	Outcome      string    `db:"outcome" json:"outcome"`
	IP           string    `db:"ip" json:"ip"`
	UserAgent    string    `db:"user_agent" json:"userAgent"`
	Details      JSONMap   `db:"details" json:"details,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// AuditFilter narrows audit listings.
type AuditFilter struct {
	ActorID      string
	Action       string
	ResourceType string
	Since        *time.Time
	Limit        int
	Offset       int
}
