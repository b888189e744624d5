// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package api

import (
	"net/http"

	"github.com/tomtom215/smokewatch/internal/models"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// ListAuditEvents handles GET /audit.
//
// Query parameters: actorId, action, resourceType, since (RFC 3339 or
// YYYY-MM-DD), limit (default 50, max 500), offset.
func (h *Handler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		writeError(w, r, &apiError{status: http.StatusServiceUnavailable, code: ErrCodeServiceUnavailable, message: "audit log is not available"})
		return
	}

	q := r.URL.Query()
	since, err := getTimeParam(r, "since")
	if err != nil {
		writeError(w, r, err)
		return
	}

	limit := getIntParam(r, "limit", defaultAuditLimit)
	if limit < 1 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	offset := getIntParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	events, err := h.audit.List(r.Context(), models.AuditFilter{
		ActorID:      q.Get("actorId"),
		Action:       q.Get("action"),
		ResourceType: q.Get("resourceType"),
		Since:        since,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if events == nil {
		events = []models.AuditEvent{}
	}
	WriteSuccess(w, r, events)
}
