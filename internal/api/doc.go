// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

/*
Package api provides the HTTP REST API layer for Smokewatch.

Key Components:

  - Router: chi route configuration and middleware stack
  - Handler: request handlers, split by resource across handlers_*.go
  - Response formatting: the {success, data, error, meta} envelope
  - Error handling: sentinel and validation errors mapped to status codes

API Categories (all under /api/v1):

 1. Authentication (auth/register, auth/login, auth/refresh, auth/logout,
    auth/change-password, auth/me)
 2. Venues with their floors, zones and camera placements
 3. Cameras, including status and statistics patches
 4. Detections, created by camera agents with an ingest API key
 5. Zone assignments of security staff
 6. Statistics per venue: daily, hourly, heatmap, cameras, trends and
    performance
 7. Audit log (system_admin)
 8. WebSocket stream of detection events (ws)

Health endpoints are served at /health and /api/v1/health, Prometheus
metrics at /metrics.

Middleware Stack:

Every request passes request ID, real IP, request logging, panic recovery,
CORS, security headers, Prometheus metrics and gzip compression. Resource
routes then apply an httprate limit, JWT or API key authentication, and the
casbin route policy. Venue scoping for venue_admin and security_staff is
enforced by the handlers.

Response Format:

	{
	  "success": true,
	  "data": {...},
	  "meta": {"request_id": "...", "timestamp": "...", "pagination": {...}}
	}

Errors carry {"code", "message", "details", "request_id"} in "error".
*/
package api
