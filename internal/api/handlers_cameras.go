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

const resourceCamera = "camera"

var (
	errFloorNotFound = notFound("floor not found")
	errZoneNotFound  = notFound("zone not found")
)

// ListCameras handles GET /cameras.
func (h *Handler) ListCameras(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	venueID, err := scopedVenue(principal(r), q.Get("venueId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := models.CameraStatus(q.Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, r, badRequest("status must be one of: active, inactive, maintenance"))
		return
	}

	cameras, err := h.store.ListCameras(r.Context(), models.CameraFilter{
		VenueID:     venueID,
		FloorNumber: q.Get("floorNumber"),
		ZoneID:      q.Get("zoneId"),
		Status:      status,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, limit := h.pageParams(r)
	total := len(cameras)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	pageItems := cameras[start:end]
	WriteList(w, r, pageItems, NewPagination(total, len(pageItems), page, limit))
}

// GetCamera handles GET /cameras/{id}.
func (h *Handler) GetCamera(w http.ResponseWriter, r *http.Request) {
	camera, err := h.loadCamera(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	WriteSuccess(w, r, camera)
}

// CreateCamera handles POST /cameras.
func (h *Handler) CreateCamera(w http.ResponseWriter, r *http.Request) {
	var req CreateCameraRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireVenueAccess(r, req.VenueID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.checkZone(r, req.VenueID, req.FloorNumber, req.ZoneID); err != nil {
		writeError(w, r, err)
		return
	}

	camera := &models.Camera{
		Name:                  req.Name,
		IPAddress:             req.IPAddress,
		Location:              req.Location,
		FloorNumber:           req.FloorNumber,
		ZoneID:                req.ZoneID,
		VenueID:               req.VenueID,
		Coordinates:           req.Coordinates,
		CoverageRadius:        req.CoverageRadius,
		CoverageAngle:         req.CoverageAngle,
		SmokeDetectionEnabled: true,
		Status:                req.Status,
		LastMaintenanceDate:   req.LastMaintenanceDate,
		TechnicalDetails:      req.TechnicalDetails,
	}
	if req.SmokeDetectionEnabled != nil {
		camera.SmokeDetectionEnabled = *req.SmokeDetectionEnabled
	}

	if err := h.store.CreateCamera(r.Context(), camera); err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, models.AuditCameraCreate, resourceCamera, camera.ID, audit.OutcomeSuccess)
	WriteCreated(w, r, camera)
}

// UpdateCamera handles PUT /cameras/{id}. Moving a camera to another venue
// checks that the venue exists; a changed location checks floor and zone.
func (h *Handler) UpdateCamera(w http.ResponseWriter, r *http.Request) {
	var req UpdateCameraRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	camera, err := h.loadCamera(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireVenueAccess(r, camera.VenueID); err != nil {
		writeError(w, r, err)
		return
	}

	locationChanged := (req.VenueID != nil && *req.VenueID != camera.VenueID) ||
		(req.FloorNumber != nil && *req.FloorNumber != camera.FloorNumber) ||
		(req.ZoneID != nil && *req.ZoneID != camera.ZoneID)
	applyCameraUpdate(camera, &req)

	if locationChanged {
		if err := requireVenueAccess(r, camera.VenueID); err != nil {
			writeError(w, r, err)
			return
		}
		if err := h.checkZone(r, camera.VenueID, camera.FloorNumber, camera.ZoneID); err != nil {
			writeError(w, r, err)
			return
		}
	}

	if err := h.store.UpdateCamera(r.Context(), camera); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			err = errCameraNotFound
		}
		writeError(w, r, err)
		return
	}
	WriteSuccess(w, r, camera)
}

func applyCameraUpdate(c *models.Camera, req *UpdateCameraRequest) {
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.IPAddress != nil {
		c.IPAddress = *req.IPAddress
	}
	if req.Location != nil {
		c.Location = *req.Location
	}
	if req.VenueID != nil {
		c.VenueID = *req.VenueID
	}
	if req.FloorNumber != nil {
		c.FloorNumber = *req.FloorNumber
	}
	if req.ZoneID != nil {
		c.ZoneID = *req.ZoneID
	}
	if req.Coordinates != nil {
		c.Coordinates = *req.Coordinates
	}
	if req.CoverageRadius != nil {
		c.CoverageRadius = *req.CoverageRadius
	}
	if req.CoverageAngle != nil {
		c.CoverageAngle = *req.CoverageAngle
	}
	if req.SmokeDetectionEnabled != nil {
		c.SmokeDetectionEnabled = *req.SmokeDetectionEnabled
	}
	if req.Status != nil {
		c.Status = *req.Status
	}
	if req.LastMaintenanceDate != nil {
		c.LastMaintenanceDate = req.LastMaintenanceDate
	}
	if req.TechnicalDetails != nil {
		c.TechnicalDetails = req.TechnicalDetails
	}
}

// DeleteCamera handles DELETE /cameras/{id}.
func (h *Handler) DeleteCamera(w http.ResponseWriter, r *http.Request) {
	camera, err := h.loadCamera(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireVenueAccess(r, camera.VenueID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.DeleteCamera(r.Context(), camera.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			err = errCameraNotFound
		}
		writeError(w, r, err)
		return
	}
	h.record(r, models.AuditCameraDelete, resourceCamera, camera.ID, audit.OutcomeSuccess)
	WriteSuccess(w, r, map[string]string{"message": "camera deleted"})
}

// UpdateCameraStatus handles PATCH /cameras/{id}/status.
func (h *Handler) UpdateCameraStatus(w http.ResponseWriter, r *http.Request) {
	var req CameraStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	camera, err := h.loadCamera(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireVenueAccess(r, camera.VenueID); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.store.UpdateCameraStatus(r.Context(), camera.ID, req.Status)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			err = errCameraNotFound
		}
		writeError(w, r, err)
		return
	}

	e := audit.FromRequest(r, models.AuditCameraStatus, resourceCamera, camera.ID, audit.OutcomeSuccess)
	e.Details = models.JSONMap{"from": string(camera.Status), "to": string(req.Status)}
	h.recordEvent(r, e)
	WriteSuccess(w, r, updated)
}

// UpdateCameraStatistics handles PATCH /cameras/{id}/statistics. The body
// is merged into the stored statistics object.
func (h *Handler) UpdateCameraStatistics(w http.ResponseWriter, r *http.Request) {
	var patch models.JSONMap
	if err := decodeBody(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	if len(patch) == 0 {
		writeError(w, r, badRequest("statistics patch must not be empty"))
		return
	}

	camera, err := h.store.MergeCameraStatistics(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			err = errCameraNotFound
		}
		writeError(w, r, err)
		return
	}
	WriteSuccess(w, r, camera)
}

func (h *Handler) loadCamera(r *http.Request) (*models.Camera, error) {
	camera, err := h.store.GetCamera(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, database.ErrNotFound) {
		return nil, errCameraNotFound
	}
	return camera, err
}

// checkZone verifies that the venue exists and has the floor and zone.
func (h *Handler) checkZone(r *http.Request, venueID, floorNumber, zoneID string) error {
	venue, err := h.loadVenue(r, venueID)
	if err != nil {
		return err
	}
	floor, zone := venue.FindZone(floorNumber, zoneID)
	if floor == nil {
		return errFloorNotFound
	}
	if zone == nil {
		return errZoneNotFound
	}
	return nil
}
