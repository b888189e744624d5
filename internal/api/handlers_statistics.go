// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/smokewatch/internal/database"
)

const defaultTrendDays = 7

// calculateDailyRequest is the optional body of POST .../daily.
type calculateDailyRequest struct {
	Date string `json:"date"`
}

// statsVenue returns the {venueId} path parameter after checking that the
// caller may read it.
func statsVenue(r *http.Request) (string, error) {
	venueID := chi.URLParam(r, "venueId")
	if err := requireVenueAccess(r, venueID); err != nil {
		return "", err
	}
	return venueID, nil
}

// statsError maps a missing venue to 404 before the generic mapping.
func statsError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, database.ErrNotFound) {
		err = errVenueNotFound
	}
	writeError(w, r, err)
}

func (h *Handler) parseStatsDate(value string) (time.Time, error) {
	day, err := h.stats.ParseDate(value)
	if err != nil {
		return time.Time{}, badRequest(err.Error())
	}
	return day, nil
}

// CalculateDailyStatistics handles POST /statistics/venues/{venueId}/daily.
// The date comes from the date query parameter or body and defaults to
// today.
func (h *Handler) CalculateDailyStatistics(w http.ResponseWriter, r *http.Request) {
	venueID, err := statsVenue(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" && r.ContentLength > 0 {
		var req calculateDailyRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		date = req.Date
	}
	day, err := h.parseStatsDate(date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	stat, err := h.stats.CalculateDaily(r.Context(), venueID, day)
	if err != nil {
		statsError(w, r, err)
		return
	}
	WriteCreated(w, r, stat)
}

// GetDailyStatistics handles GET /statistics/venues/{venueId}/daily and
// /daily/{date}.
func (h *Handler) GetDailyStatistics(w http.ResponseWriter, r *http.Request) {
	venueID, err := statsVenue(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	day, err := h.parseStatsDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	stat, err := h.stats.GetDaily(r.Context(), venueID, day)
	if err != nil {
		statsError(w, r, err)
		return
	}
	WriteSuccess(w, r, stat)
}

// HourlyStatistics handles GET /statistics/venues/{venueId}/hourly?date=.
func (h *Handler) HourlyStatistics(w http.ResponseWriter, r *http.Request) {
	venueID, err := statsVenue(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	day, err := h.parseStatsDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	hourly, err := h.stats.Hourly(r.Context(), venueID, day)
	if err != nil {
		statsError(w, r, err)
		return
	}
	WriteSuccess(w, r, hourly)
}

// HeatmapStatistics handles GET /statistics/venues/{venueId}/heatmap.
// Both dates are YYYY-MM-DD; endDate is inclusive.
func (h *Handler) HeatmapStatistics(w http.ResponseWriter, r *http.Request) {
	venueID, err := statsVenue(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var start, end *time.Time
	if v := r.URL.Query().Get("startDate"); v != "" {
		day, err := h.parseStatsDate(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		start = &day
	}
	if v := r.URL.Query().Get("endDate"); v != "" {
		day, err := h.parseStatsDate(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next := day.AddDate(0, 0, 1)
		end = &next
	}

	cells, err := h.stats.Heatmap(r.Context(), venueID, start, end)
	if err != nil {
		statsError(w, r, err)
		return
	}
	WriteSuccess(w, r, cells)
}

// CameraStatistics handles GET /statistics/venues/{venueId}/cameras.
func (h *Handler) CameraStatistics(w http.ResponseWriter, r *http.Request) {
	venueID, err := statsVenue(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cameras, err := h.stats.Cameras(r.Context(), venueID)
	if err != nil {
		statsError(w, r, err)
		return
	}
	WriteSuccess(w, r, cameras)
}

// TrendStatistics handles GET /statistics/venues/{venueId}/trends?days=.
func (h *Handler) TrendStatistics(w http.ResponseWriter, r *http.Request) {
	venueID, err := statsVenue(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	days := defaultTrendDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, badRequest("days must be an integer"))
			return
		}
		days = n
	}

	points, err := h.stats.Trends(r.Context(), venueID, days)
	if err != nil {
		statsError(w, r, err)
		return
	}
	WriteSuccess(w, r, points)
}

// PerformanceStatistics handles GET /statistics/venues/{venueId}/performance.
func (h *Handler) PerformanceStatistics(w http.ResponseWriter, r *http.Request) {
	venueID, err := statsVenue(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	perf, err := h.stats.Performance(r.Context(), venueID)
	if err != nil {
		statsError(w, r, err)
		return
	}
	WriteSuccess(w, r, perf)
}
