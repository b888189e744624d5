// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package statistics

import (
	"context"
	"strconv"
	"time"

	"github.com/tomtom215/smokewatch/internal/cache"
	"github.com/tomtom215/smokewatch/internal/models"
)

// Hourly returns 24 buckets for the day, hours without detections
// included with a zero count.
func (s *Service) Hourly(ctx context.Context, venueID string, date time.Time) (models.HourlyStats, error) {
	from := s.startOfDay(date)
	key := cache.Key(venuePrefix(venueID), "hourly", from.Format(dateLayout))

	var out models.HourlyStats
	if s.cached(ctx, key, &out) {
		return out, nil
	}

	if _, err := s.store.GetVenue(ctx, venueID); err != nil {
		return nil, err
	}
	rows, err := s.store.HourlyCounts(ctx, venueID, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	out = make(models.HourlyStats, 24)
	for h := range out {
		out[h].Hour = h
	}
	for _, r := range rows {
		if r.Hour >= 0 && r.Hour < 24 {
			out[r.Hour] = r
		}
	}

	s.remember(ctx, key, out)
	return out, nil
}

// Heatmap returns detection density per zone and floor. Both bounds are
// required.
func (s *Service) Heatmap(ctx context.Context, venueID string, start, end *time.Time) ([]models.HeatmapCell, error) {
	if start == nil || end == nil {
		return nil, ErrRangeRequired
	}
	if !end.After(*start) {
		return nil, ErrInvalidRange
	}

	key := cache.Key(venuePrefix(venueID), cache.GenerateKey("heatmap", [2]int64{start.UnixNano(), end.UnixNano()}))

	var out []models.HeatmapCell
	if s.cached(ctx, key, &out) {
		return out, nil
	}

	if _, err := s.store.GetVenue(ctx, venueID); err != nil {
		return nil, err
	}
	out, err := s.store.ZoneHeatmap(ctx, venueID, *start, *end)
	if err != nil {
		return nil, err
	}

	s.remember(ctx, key, out)
	return out, nil
}

// Cameras returns every registered camera of the venue with its
// detections over the last 24 hours.
func (s *Service) Cameras(ctx context.Context, venueID string) ([]models.CameraPerformance, error) {
	key := cache.Key(venuePrefix(venueID), "cameras")

	var out []models.CameraPerformance
	if s.cached(ctx, key, &out) {
		return out, nil
	}

	if _, err := s.store.GetVenue(ctx, venueID); err != nil {
		return nil, err
	}
	cams, err := s.store.ListCameras(ctx, models.CameraFilter{VenueID: venueID})
	if err != nil {
		return nil, err
	}
	now := s.now()
	counts, err := s.store.CameraDetectionCounts(ctx, venueID, now.Add(-24*time.Hour), now)
	if err != nil {
		return nil, err
	}

	byCamera := make(map[string]int, len(counts))
	for _, c := range counts {
		byCamera[c.CameraID] = c.DetectionCount
	}

	out = make([]models.CameraPerformance, 0, len(cams))
	for _, c := range cams {
		p := models.CameraPerformance{
			CameraID:          c.ID,
			Name:              c.Name,
			FloorNumber:       c.FloorNumber,
			ZoneID:            c.ZoneID,
			Status:            c.Status,
			LastDayDetections: byCamera[c.ID],
		}
		if c.Statistics != nil {
			p.Uptime = c.Statistics.UptimePercentage
		}
		out = append(out, p)
	}

	s.remember(ctx, key, out)
	return out, nil
}

// Trends returns one point per day with detections over the last days.
func (s *Service) Trends(ctx context.Context, venueID string, days int) ([]models.TrendPoint, error) {
	if days < 1 || days > MaxTrendDays {
		return nil, ErrInvalidDays
	}

	key := cache.Key(venuePrefix(venueID), "trends", strconv.Itoa(days))

	var out []models.TrendPoint
	if s.cached(ctx, key, &out) {
		return out, nil
	}

	if _, err := s.store.GetVenue(ctx, venueID); err != nil {
		return nil, err
	}
	now := s.now()
	out, err := s.store.DailyTotals(ctx, venueID, now.AddDate(0, 0, -days), now)
	if err != nil {
		return nil, err
	}

	s.remember(ctx, key, out)
	return out, nil
}

// Performance summarises today, the week since Sunday and the calendar
// month.
func (s *Service) Performance(ctx context.Context, venueID string) (*models.PerformanceSummary, error) {
	key := cache.Key(venuePrefix(venueID), "performance")

	var out models.PerformanceSummary
	if s.cached(ctx, key, &out) {
		return &out, nil
	}

	if _, err := s.store.GetVenue(ctx, venueID); err != nil {
		return nil, err
	}

	today := s.startOfDay(s.now())
	week := today.AddDate(0, 0, -int(today.Weekday()))
	month := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, s.loc)

	var err error
	if out.Today, err = s.store.PerformanceWindow(ctx, venueID, today); err != nil {
		return nil, err
	}
	if out.ThisWeek, err = s.store.PerformanceWindow(ctx, venueID, week); err != nil {
		return nil, err
	}
	if out.ThisMonth, err = s.store.PerformanceWindow(ctx, venueID, month); err != nil {
		return nil, err
	}

	s.remember(ctx, key, out)
	return &out, nil
}
