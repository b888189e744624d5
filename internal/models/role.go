// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package models

import (
	"fmt"
	"strings"
)

// Role is the authorization role of a principal. The values match the
// subjects in internal/authz/policy.csv.
type Role string

const (
	// RoleSystemAdmin sees every venue and manages the system.
	RoleSystemAdmin Role = "system_admin"

	// RoleVenueAdmin manages a single venue.
	RoleVenueAdmin Role = "venue_admin"

	// RoleSecurityStaff handles detections in zones they are assigned to.
	RoleSecurityStaff Role = "security_staff"

	// RoleIngestService is granted to camera agents authenticating with a
	// static API key. It is never stored on a user row.
	RoleIngestService Role = "ingest_service"
)

// UserRoles lists the roles a user account may hold.
var UserRoles = []Role{RoleSystemAdmin, RoleVenueAdmin, RoleSecurityStaff}

// ParseRole accepts the canonical lower-case names as well as the
// upper-case spelling (SYSTEM_ADMIN) used by older clients.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether r is a user role.
func (r Role) Valid() bool {
	for _, v := range UserRoles {
		if r == v {
			return true
		}
	}
	return false
}

// IsAdmin reports whether r is system_admin or venue_admin.
func (r Role) IsAdmin() bool {
	return r == RoleSystemAdmin || r == RoleVenueAdmin
}

func (r Role) String() string { return string(r) }
