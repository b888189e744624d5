// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

/*
Package models defines the data structures shared by the store, the services
and the HTTP layer.

Key Structures:

  - Venue: a site with floors, zones and zone cameras stored as JSON
  - Camera: a registered camera with maintenance status and statistics
  - Detection: a smoke detection event with its status lifecycle
  - ZoneAssignment: a time-bounded staff-to-zone mapping
  - Statistic: the materialised per-venue daily aggregate
  - User, Role: accounts and their authorization role
  - AuditEvent: security-relevant actions

JSON columns implement driver.Valuer and sql.Scanner so sqlx can read and
write them directly. Values are encoded as text because lib/pq sends []byte
parameters as bytea.

Wire format uses camelCase field names (venueId, floorNumber) to stay
compatible with existing dashboard and camera-agent clients.
*/
package models
