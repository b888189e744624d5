// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/smokewatch/internal/audit"
	"github.com/tomtom215/smokewatch/internal/database"
	"github.com/tomtom215/smokewatch/internal/models"
)

const resourceAssignment = "zone_assignment"

var errAlreadyAssigned = badRequest("user already has an active zone assignment")

// ListAssignments handles GET /zone-assignments.
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	venueID, err := scopedVenue(principal(r), q.Get("venueId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	isActive, err := getBoolParam(r, "isActive")
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows, err := h.store.ListAssignments(r.Context(), models.AssignmentFilter{
		UserID:      q.Get("userId"),
		VenueID:     venueID,
		FloorNumber: q.Get("floorNumber"),
		ZoneID:      q.Get("zoneId"),
		IsActive:    isActive,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	WriteList(w, r, rows, NewPagination(len(rows), len(rows), 1, len(rows)))
}

// GetAssignment handles GET /zone-assignments/{id}.
func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	a, err := h.loadAssignment(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireVenueAccess(r, a.VenueID); err != nil {
		writeError(w, r, err)
		return
	}
	WriteSuccess(w, r, a)
}

// CreateAssignment handles POST /zone-assignments. Only security staff can
// be assigned, and only to one zone at a time.
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireVenueAccess(r, req.VenueID); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.store.GetUserByID(r.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			err = errUserNotFound
		}
		writeError(w, r, err)
		return
	}
	if user.Role != models.RoleSecurityStaff {
		writeError(w, r, badRequest("only security staff can be assigned to zones"))
		return
	}

	if err := h.checkZone(r, req.VenueID, req.FloorNumber, req.ZoneID); err != nil {
		writeError(w, r, err)
		return
	}

	_, err = h.store.GetActiveAssignmentForUser(r.Context(), user.ID)
	switch {
	case err == nil:
		writeError(w, r, errAlreadyAssigned)
		return
	case !errors.Is(err, database.ErrNotFound):
		writeError(w, r, err)
		return
	}

	a := &models.ZoneAssignment{
		ID:          h.newID(),
		UserID:      user.ID,
		VenueID:     req.VenueID,
		FloorNumber: req.FloorNumber,
		ZoneID:      req.ZoneID,
		AssignedBy:  principal(r).UserID,
	}
	if err := h.store.CreateAssignment(r.Context(), a); err != nil {
		// lost a race with a concurrent create for the same user
		if errors.Is(err, database.ErrConflict) {
			err = errAlreadyAssigned
		}
		writeError(w, r, err)
		return
	}

	h.record(r, models.AuditAssignmentCreate, resourceAssignment, a.ID, audit.OutcomeSuccess)
	WriteCreated(w, r, a)
}

// UpdateAssignment handles PUT /zone-assignments/{id}. Moving within the
// venue re-validates floor and zone; isActive=false ends the assignment.
func (h *Handler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	var req UpdateAssignmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.loadAssignment(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireVenueAccess(r, a.VenueID); err != nil {
		writeError(w, r, err)
		return
	}

	moved := false
	if req.FloorNumber != nil && *req.FloorNumber != a.FloorNumber {
		a.FloorNumber = *req.FloorNumber
		moved = true
	}
	if req.ZoneID != nil && *req.ZoneID != a.ZoneID {
		a.ZoneID = *req.ZoneID
		moved = true
	}
	if moved {
		if err := h.checkZone(r, a.VenueID, a.FloorNumber, a.ZoneID); err != nil {
			writeError(w, r, err)
			return
		}
	}

	ended := false
	if req.IsActive != nil && !*req.IsActive && a.IsActive {
		now := h.now().UTC()
		caller := principal(r).UserID
		a.IsActive = false
		a.EndedAt = &now
		a.EndedBy = &caller
		ended = true
	}

	if err := h.store.UpdateAssignment(r.Context(), a); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			err = errAssignmentNotFound
		}
		writeError(w, r, err)
		return
	}

	if ended {
		h.record(r, models.AuditAssignmentEnd, resourceAssignment, a.ID, audit.OutcomeSuccess)
	}
	WriteSuccess(w, r, a)
}

func (h *Handler) loadAssignment(r *http.Request) (*models.ZoneAssignment, error) {
	a, err := h.store.GetAssignment(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, database.ErrNotFound) {
		return nil, errAssignmentNotFound
	}
	return a, err
}
