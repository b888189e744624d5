// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/smokewatch/internal/database"
	"github.com/tomtom215/smokewatch/internal/detection"
	"github.com/tomtom215/smokewatch/internal/eventbus"
	"github.com/tomtom215/smokewatch/internal/models"
)

var errDetectionNotFound = notFound("detection not found")

// ListDetections handles GET /detections.
//
// Query parameters:
//   - venueId, floorNumber, zoneId, cameraId, status
//   - startDate, endDate: RFC 3339 or YYYY-MM-DD
//   - minConfidence: 0..1
//   - sortBy: detectedAt | handledAt | confidence; sortOrder: asc | desc
//   - page, limit
func (h *Handler) ListDetections(w http.ResponseWriter, r *http.Request) {
	f, err := h.detectionFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows, total, err := h.store.ListDetections(r.Context(), *f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []models.Detection{}
	}
	WriteList(w, r, rows, NewPagination(total, len(rows), f.Page, f.Limit))
}

func (h *Handler) detectionFilter(r *http.Request) (*models.DetectionFilter, error) {
	q := r.URL.Query()

	venueID, err := scopedVenue(principal(r), q.Get("venueId"))
	if err != nil {
		return nil, err
	}

	status := models.DetectionStatus(q.Get("status"))
	if status != "" && !status.Valid() {
		return nil, badRequest("status must be one of: pending, notified, handled, false_alarm")
	}

	start, err := getTimeParam(r, "startDate")
	if err != nil {
		return nil, err
	}
	end, err := getTimeParam(r, "endDate")
	if err != nil {
		return nil, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, badRequest("endDate must not be before startDate")
	}

	minConfidence, err := getFloatParam(r, "minConfidence")
	if err != nil {
		return nil, err
	}
	if minConfidence != nil && (*minConfidence < 0 || *minConfidence > 1) {
		return nil, badRequest("minConfidence must be between 0 and 1")
	}

	sortBy := q.Get("sortBy")
	switch sortBy {
	case "", "detectedAt", "handledAt", "confidence":
	default:
		return nil, badRequest("sortBy must be one of: detectedAt, handledAt, confidence")
	}
	sortOrder := strings.ToUpper(q.Get("sortOrder"))
	if sortOrder != "" && sortOrder != "ASC" && sortOrder != "DESC" {
		return nil, badRequest("sortOrder must be asc or desc")
	}

	page, limit := h.pageParams(r)
	return &models.DetectionFilter{
		VenueID:       venueID,
		FloorNumber:   q.Get("floorNumber"),
		ZoneID:        q.Get("zoneId"),
		CameraID:      q.Get("cameraId"),
		Status:        status,
		StartDate:     start,
		EndDate:       end,
		MinConfidence: minConfidence,
		SortBy:        sortBy,
		SortOrder:     sortOrder,
		Page:          page,
		Limit:         limit,
	}, nil
}

// DetectionStatistics handles GET /detections/statistics.
func (h *Handler) DetectionStatistics(w http.ResponseWriter, r *http.Request) {
	venueID, err := scopedVenue(principal(r), r.URL.Query().Get("venueId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, err := getTimeParam(r, "startDate")
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := getTimeParam(r, "endDate")
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := h.store.DetectionSummary(r.Context(), venueID, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	WriteSuccess(w, r, summary)
}

// GetDetection handles GET /detections/{id}.
func (h *Handler) GetDetection(w http.ResponseWriter, r *http.Request) {
	d, err := h.store.GetDetection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			err = errDetectionNotFound
		}
		writeError(w, r, err)
		return
	}
	if err := requireVenueAccess(r, d.VenueID); err != nil {
		writeError(w, r, err)
		return
	}
	WriteSuccess(w, r, d)
}

// CreateDetection handles POST /detections. Camera agents authenticate
// with an ingest API key; the detection runs through the same service as
// MQTT ingest.
func (h *Handler) CreateDetection(w http.ResponseWriter, r *http.Request) {
	var req detection.CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Source = eventbus.SourceHTTP

	d, err := h.detections.Create(r.Context(), principal(r), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	WriteCreated(w, r, d)
}

// UpdateDetection handles PUT /detections/{id}.
func (h *Handler) UpdateDetection(w http.ResponseWriter, r *http.Request) {
	var req detection.UpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	d, err := h.detections.Update(r.Context(), principal(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	WriteSuccess(w, r, d)
}
