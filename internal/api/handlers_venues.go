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
	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/models"
)

const resourceVenue = "venue"

// ListVenues handles GET /venues.
func (h *Handler) ListVenues(w http.ResponseWriter, r *http.Request) {
	isActive, err := getBoolParam(r, "isActive")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, limit := h.pageParams(r)
	q := r.URL.Query()

	venues, total, err := h.store.ListVenues(r.Context(), models.VenueFilter{
		Search:    q.Get("search"),
		IsActive:  isActive,
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	WriteList(w, r, venues, NewPagination(total, len(venues), page, limit))
}

// GetVenue handles GET /venues/{id}.
func (h *Handler) GetVenue(w http.ResponseWriter, r *http.Request) {
	venue, err := h.loadVenue(r, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	WriteSuccess(w, r, venue)
}

// CreateVenue handles POST /venues. Zones and zone cameras get ids here.
func (h *Handler) CreateVenue(w http.ResponseWriter, r *http.Request) {
	var req CreateVenueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	venue := &models.Venue{
		Name:        req.Name,
		Address:     req.Address,
		Location:    req.Location,
		Description: req.Description,
		Phone:       req.Phone,
		Email:       req.Email,
		IsActive:    true,
		Floors:      req.Floors,
		Settings:    req.Settings,
	}
	if req.IsActive != nil {
		venue.IsActive = *req.IsActive
	}
	if venue.Floors == nil {
		venue.Floors = models.Floors{}
	}
	venue.AssignIDs(h.newID)

	if err := h.store.CreateVenue(r.Context(), venue); err != nil {
		writeError(w, r, err)
		return
	}

	h.record(r, models.AuditVenueCreate, resourceVenue, venue.ID, audit.OutcomeSuccess)
	logging.Ctx(r.Context()).Info().Str("venue_id", venue.ID).Msg("Venue created")
	WriteCreated(w, r, venue)
}

// UpdateVenue handles PUT /venues/{id}. Supplied fields replace the stored
// ones; a supplied floors list replaces all floors, keeping existing zone
// and camera ids and assigning ids to new ones.
func (h *Handler) UpdateVenue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := requireVenueAccess(r, id); err != nil {
		writeError(w, r, err)
		return
	}

	var req UpdateVenueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	venue, err := h.loadVenue(r, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	applyVenueUpdate(venue, &req)
	venue.AssignIDs(h.newID)

	if err := h.store.UpdateVenue(r.Context(), venue); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			err = errVenueNotFound
		}
		writeError(w, r, err)
		return
	}

	h.record(r, models.AuditVenueUpdate, resourceVenue, venue.ID, audit.OutcomeSuccess)
	WriteSuccess(w, r, venue)
}

func applyVenueUpdate(v *models.Venue, req *UpdateVenueRequest) {
	if req.Name != nil {
		v.Name = *req.Name
	}
	if req.Address != nil {
		v.Address = *req.Address
	}
	if req.Location != nil {
		v.Location = req.Location
	}
	if req.Description != nil {
		v.Description = req.Description
	}
	if req.Phone != nil {
		v.Phone = req.Phone
	}
	if req.Email != nil {
		v.Email = req.Email
	}
	if req.IsActive != nil {
		v.IsActive = *req.IsActive
	}
	if req.Floors != nil {
		v.Floors = *req.Floors
	}
	if req.Settings != nil {
		v.Settings = req.Settings
	}
}

// DeleteVenue handles DELETE /venues/{id}. Venues are deactivated, never
// removed, and their non-admin users are deactivated with them.
func (h *Handler) DeleteVenue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.SetVenueActive(r.Context(), id, false); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			err = errVenueNotFound
		}
		writeError(w, r, err)
		return
	}

	h.record(r, models.AuditVenueDelete, resourceVenue, id, audit.OutcomeSuccess)
	logging.Ctx(r.Context()).Info().Str("venue_id", id).Msg("Venue deactivated")
	WriteSuccess(w, r, map[string]string{"message": "venue deactivated"})
}

func (h *Handler) loadVenue(r *http.Request, id string) (*models.Venue, error) {
	venue, err := h.store.GetVenue(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, errVenueNotFound
	}
	return venue, err
}
