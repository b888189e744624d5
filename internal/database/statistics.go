// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package database

import (
	"context"
	"time"

	"github.com/tomtom215/smokewatch/internal/models"
)

// Aggregate queries take a half-open window [from, to). Durations are in
// minutes. Hour and day buckets are taken in the statistics time zone, not
// in the session zone of the connection.

const (
	handlingMinutes = `EXTRACT(EPOCH FROM (handled_at - detected_at)) / 60`
	confidenceExpr  = `(detection_details->>'confidence')::float8`
	windowFilter    = `venue_id = $1 AND detected_at >= $2 AND detected_at < $3`
	localDetectedAt = `(detected_at AT TIME ZONE $4)`
)

const statisticColumns = `id, venue_id, date, hourly_stats, zone_stats, camera_stats, daily_metrics,
	peak_hours, trend_data, performance_metrics, created_at, last_updated_at`

// DailyDetectionMetrics returns totals, handling time and mean confidence.
func (db *DB) DailyDetectionMetrics(ctx context.Context, venueID string, from, to time.Time) (models.DailyMetrics, error) {
	var m models.DailyMetrics
	start := time.Now()
	err := db.conn.GetContext(ctx, &m, `
		SELECT COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'handled') AS handled,
			COUNT(*) FILTER (WHERE status = 'false_alarm') AS false_alarms,
			COALESCE(AVG(`+handlingMinutes+`) FILTER (WHERE status = 'handled' AND handled_at IS NOT NULL), 0) AS avg_handling_time,
			COALESCE(AVG(`+confidenceExpr+`), 0) AS avg_confidence
		FROM detection_events WHERE `+windowFilter, venueID, from, to)
	return m, db.observe("aggregate", "detection_events", start, err)
}

// HourlyCounts returns the hours that saw detections, with the mean
// handling time of those resolved.
func (db *DB) HourlyCounts(ctx context.Context, venueID string, from, to time.Time) (models.HourlyStats, error) {
	rows := models.HourlyStats{}
	start := time.Now()
	err := db.conn.SelectContext(ctx, &rows, `
		SELECT EXTRACT(HOUR FROM `+localDetectedAt+`)::int AS hour, COUNT(*) AS count,
			AVG(`+handlingMinutes+`) FILTER (WHERE handled_at IS NOT NULL) AS avg_response_time
		FROM detection_events WHERE `+windowFilter+`
		GROUP BY 1 ORDER BY 1`, venueID, from, to, db.timeZone())
	return rows, db.observe("aggregate", "detection_events", start, err)
}

// ZoneHeatmap returns per zone+floor counts and mean location confidence.
func (db *DB) ZoneHeatmap(ctx context.Context, venueID string, from, to time.Time) ([]models.HeatmapCell, error) {
	rows := []models.HeatmapCell{}
	start := time.Now()
	err := db.conn.SelectContext(ctx, &rows, `
		SELECT zone_id, floor_number, COUNT(*) AS count,
			COALESCE(AVG((location->>'confidence')::float8), 0) AS avg_confidence
		FROM detection_events WHERE `+windowFilter+`
		GROUP BY zone_id, floor_number ORDER BY count DESC`, venueID, from, to)
	return rows, db.observe("aggregate", "detection_events", start, err)
}

// CameraDetectionCounts returns per camera outcome counts. Uptime is read
// from the registered camera, 100 when the camera is unregistered.
func (db *DB) CameraDetectionCounts(ctx context.Context, venueID string, from, to time.Time) (models.CameraStats, error) {
	rows := models.CameraStats{}
	start := time.Now()
	err := db.conn.SelectContext(ctx, &rows, `
		SELECT d.camera_id, COUNT(*) AS detection_count,
			COUNT(*) FILTER (WHERE d.status = 'handled') AS true_positives,
			COUNT(*) FILTER (WHERE d.status = 'false_alarm') AS false_positives,
			COALESCE(AVG((d.detection_details->>'confidence')::float8), 0) AS avg_confidence,
			COALESCE((SELECT (c.statistics->>'uptimePercentage')::float8
			          FROM cameras c WHERE c.id::text = d.camera_id), 100) AS uptime
		FROM detection_events d
		WHERE d.venue_id = $1 AND d.detected_at >= $2 AND d.detected_at < $3
		GROUP BY d.camera_id ORDER BY detection_count DESC`, venueID, from, to)
	return rows, db.observe("aggregate", "detection_events", start, err)
}

// CountDetections counts detections in the window.
func (db *DB) CountDetections(ctx context.Context, venueID string, from, to time.Time) (int, error) {
	var n int
	start := time.Now()
	err := db.conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM detection_events WHERE `+windowFilter, venueID, from, to)
	return n, db.observe("count", "detection_events", start, err)
}

// DailyTotals returns one point per calendar day that saw detections.
func (db *DB) DailyTotals(ctx context.Context, venueID string, from, to time.Time) ([]models.TrendPoint, error) {
	rows := []models.TrendPoint{}
	start := time.Now()
	err := db.conn.SelectContext(ctx, &rows, `
		SELECT to_char(date_trunc('day', `+localDetectedAt+`), 'YYYY-MM-DD') AS date,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'handled') AS handled,
			COUNT(*) FILTER (WHERE status = 'false_alarm') AS false_alarms,
			COALESCE(AVG(`+handlingMinutes+`) FILTER (WHERE status = 'handled' AND handled_at IS NOT NULL), 0) AS avg_handling_time
		FROM detection_events WHERE `+windowFilter+`
		GROUP BY 1 ORDER BY 1`, venueID, from, to, db.timeZone())
	return rows, db.observe("aggregate", "detection_events", start, err)
}

// PerformanceWindow summarises detections since the given instant.
func (db *DB) PerformanceWindow(ctx context.Context, venueID string, since time.Time) (models.PerformanceWindow, error) {
	var w models.PerformanceWindow
	start := time.Now()
	err := db.conn.GetContext(ctx, &w, `
		SELECT COUNT(*) AS total,
			COALESCE(AVG(`+handlingMinutes+`) FILTER (WHERE handled_at IS NOT NULL), 0) AS avg_response_time,
			CASE WHEN COUNT(*) = 0 THEN 0
			     ELSE COUNT(*) FILTER (WHERE status = 'false_alarm') * 100.0 / COUNT(*) END AS false_alarm_rate
		FROM detection_events WHERE venue_id = $1 AND detected_at >= $2`, venueID, since)
	return w, db.observe("aggregate", "detection_events", start, err)
}

// ResponseTimeStats returns min, max and mean handling time of handled
// detections, zero when none.
func (db *DB) ResponseTimeStats(ctx context.Context, venueID string, from, to time.Time) (models.ResponseTime, error) {
	var r models.ResponseTime
	start := time.Now()
	err := db.conn.GetContext(ctx, &r, `
		SELECT COALESCE(MIN(`+handlingMinutes+`), 0) AS min,
			COALESCE(MAX(`+handlingMinutes+`), 0) AS max,
			COALESCE(AVG(`+handlingMinutes+`), 0) AS avg
		FROM detection_events
		WHERE `+windowFilter+` AND status = 'handled' AND handled_at IS NOT NULL`, venueID, from, to)
	return r, db.observe("aggregate", "detection_events", start, err)
}

// SystemHealth derives uptime from the share of hours with detections and
// averages the agent resource metrics.
func (db *DB) SystemHealth(ctx context.Context, venueID string, from, to time.Time) (models.SystemHealth, error) {
	var row struct {
		ActiveHours int     `db:"active_hours"`
		AvgCPU      float64 `db:"avg_cpu"`
		AvgRAM      float64 `db:"avg_ram"`
	}
	start := time.Now()
	err := db.conn.GetContext(ctx, &row, `
		SELECT COUNT(DISTINCT EXTRACT(HOUR FROM `+localDetectedAt+`)) AS active_hours,
			COALESCE(AVG((system_metrics->>'cpuPercent')::float8), 0) AS avg_cpu,
			COALESCE(AVG((system_metrics->>'ramPercent')::float8), 0) AS avg_ram
		FROM detection_events WHERE `+windowFilter, venueID, from, to, db.timeZone())
	if err = db.observe("aggregate", "detection_events", start, err); err != nil {
		return models.SystemHealth{}, err
	}
	return models.SystemHealth{
		Uptime:         float64(row.ActiveHours) / 24 * 100,
		AvgCPUUsage:    row.AvgCPU,
		AvgMemoryUsage: row.AvgRAM,
	}, nil
}

// UpsertStatistic stores s, replacing the row for the same venue and date.
func (db *DB) UpsertStatistic(ctx context.Context, s *models.Statistic) error {
	if s.ID == "" {
		s.ID = newID()
	}
	now := db.now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.LastUpdatedAt = &now

	start := time.Now()
	err := db.conn.QueryRowxContext(ctx, `
		INSERT INTO statistics (`+statisticColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (venue_id, date) DO UPDATE SET
			hourly_stats = EXCLUDED.hourly_stats,
			zone_stats = EXCLUDED.zone_stats,
			camera_stats = EXCLUDED.camera_stats,
			daily_metrics = EXCLUDED.daily_metrics,
			peak_hours = EXCLUDED.peak_hours,
			trend_data = EXCLUDED.trend_data,
			performance_metrics = EXCLUDED.performance_metrics,
			last_updated_at = EXCLUDED.last_updated_at
		RETURNING id, created_at`,
		s.ID, s.VenueID, s.Date.Format("2006-01-02"), s.HourlyStats, s.ZoneStats, s.CameraStats,
		s.DailyMetrics, s.PeakHours, s.TrendData, s.PerformanceMetrics, s.CreatedAt, s.LastUpdatedAt,
	).Scan(&s.ID, &s.CreatedAt)
	return db.observe("upsert", "statistics", start, err)
}

// GetStatistic returns the stored statistics of one venue day.
func (db *DB) GetStatistic(ctx context.Context, venueID string, date time.Time) (*models.Statistic, error) {
	var s models.Statistic
	start := time.Now()
	err := db.conn.GetContext(ctx, &s,
		`SELECT `+statisticColumns+` FROM statistics WHERE venue_id = $1 AND date = $2`,
		venueID, date.Format("2006-01-02"))
	if err = db.observe("select", "statistics", start, err); err != nil {
		return nil, err
	}
	return &s, nil
}

// timeZone is the zone name passed to AT TIME ZONE.
func (db *DB) timeZone() string {
	if db.cfg != nil && db.cfg.TimeZone != "" {
		return db.cfg.TimeZone
	}
	return "UTC"
}
