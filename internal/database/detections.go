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

const detectionColumns = `id, venue_id, floor_number, zone_id, camera_id, location, detection_details,
	detected_at, status, handled_by, handled_at, notification_details, notes, image_data,
	system_metrics, created_at`

var detectionSortColumns = map[string]string{
	"detectedAt": "detected_at",
	"handledAt":  "handled_at",
	"confidence": "(detection_details->>'confidence')::float8",
}

// CreateDetection inserts d as pending unless a status is already set.
func (db *DB) CreateDetection(ctx context.Context, d *models.Detection) error {
	if d.ID == "" {
		d.ID = newID()
	}
	if d.Status == "" {
		d.Status = models.DetectionPending
	}
	now := db.now().UTC()
	if d.DetectedAt.IsZero() {
		d.DetectedAt = now
	}
	d.CreatedAt = now

	start := time.Now()
	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO detection_events (`+detectionColumns+`)
		VALUES (:id, :venue_id, :floor_number, :zone_id, :camera_id, :location, :detection_details,
			:detected_at, :status, :handled_by, :handled_at, :notification_details, :notes, :image_data,
			:system_metrics, :created_at)`, d)
	return db.observe("insert", "detection_events", start, err)
}

// GetDetection returns one detection with venue and handler context.
func (db *DB) GetDetection(ctx context.Context, id string) (*models.Detection, error) {
	var d models.Detection
	start := time.Now()
	err := db.conn.GetContext(ctx, &d, `SELECT `+detectionColumns+` FROM detection_events WHERE id = $1`, id)
	if err = db.observe("select", "detection_events", start, err); err != nil {
		return nil, err
	}
	list := []models.Detection{d}
	if err := db.attachDetectionContext(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func detectionWhere(f *models.DetectionFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.VenueID != "" {
		w.add("venue_id = ?", f.VenueID)
	}
	if f.FloorNumber != "" {
		w.add("floor_number = ?", f.FloorNumber)
	}
	if f.ZoneID != "" {
		w.add("zone_id = ?", f.ZoneID)
	}
	if f.CameraID != "" {
		w.add("camera_id = ?", f.CameraID)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	switch {
	case f.StartDate != nil && f.EndDate != nil:
		w.add("detected_at BETWEEN ? AND ?", *f.StartDate, *f.EndDate)
	case f.StartDate != nil:
		w.add("detected_at >= ?", *f.StartDate)
	case f.EndDate != nil:
		w.add("detected_at <= ?", *f.EndDate)
	}
	if f.MinConfidence != nil {
		w.add("(location->>'confidence')::float8 >= ?", *f.MinConfidence)
	}
	return w
}

// ListDetections returns one page of detections matching f and the total
// match count.
func (db *DB) ListDetections(ctx context.Context, f models.DetectionFilter) ([]models.Detection, int, error) {
	w := detectionWhere(&f)

	var total int
	start := time.Now()
	err := db.conn.GetContext(ctx, &total, `SELECT COUNT(*) FROM detection_events`+w.sql(), w.args...)
	if err = db.observe("count", "detection_events", start, err); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + detectionColumns + ` FROM detection_events` + w.sql() +
		orderBy(f.SortBy, f.SortOrder, detectionSortColumns, "detectedAt") +
		w.paginate(f.Page, f.Limit)

	rows := []models.Detection{}
	start = time.Now()
	err = db.conn.SelectContext(ctx, &rows, query, w.args...)
	if err = db.observe("select", "detection_events", start, err); err != nil {
		return nil, 0, err
	}
	if err := db.attachDetectionContext(ctx, rows); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// attachDetectionContext fills the venue and handler summaries of each row
// with two batched lookups.
func (db *DB) attachDetectionContext(ctx context.Context, rows []models.Detection) error {
	if len(rows) == 0 {
		return nil
	}
	venueIDs := make([]string, 0, len(rows))
	handlerIDs := make([]string, 0)
	seenVenue := make(map[string]bool)
	seenHandler := make(map[string]bool)
	for i := range rows {
		if !seenVenue[rows[i].VenueID] {
			seenVenue[rows[i].VenueID] = true
			venueIDs = append(venueIDs, rows[i].VenueID)
		}
		if h := rows[i].HandledBy; h != nil && !seenHandler[*h] {
			seenHandler[*h] = true
			handlerIDs = append(handlerIDs, *h)
		}
	}

	venues, err := db.GetVenuesByIDs(ctx, venueIDs)
	if err != nil {
		return err
	}
	handlers, err := db.GetUserSummaries(ctx, handlerIDs)
	if err != nil {
		return err
	}

	for i := range rows {
		rows[i].Venue = rows[i].VenueContext(venues[rows[i].VenueID])
		if h := rows[i].HandledBy; h != nil {
			if s, ok := handlers[*h]; ok {
				rows[i].Handler = &s
			}
		}
	}
	return nil
}

// UpdateDetection writes the resolution fields of d.
func (db *DB) UpdateDetection(ctx context.Context, d *models.Detection) error {
	start := time.Now()
	res, err := db.conn.NamedExecContext(ctx, `
		UPDATE detection_events SET status = :status, handled_by = :handled_by,
			handled_at = :handled_at, notes = :notes
		WHERE id = :id`, d)
	return db.observe("update", "detection_events", start, requireRow(res, err))
}

// RecordNotifications appends delivery records to the detection. When
// promote is set a pending detection becomes notified. The resulting status
// is returned.
func (db *DB) RecordNotifications(ctx context.Context, id string, details models.NotificationDetails, promote bool) (models.DetectionStatus, error) {
	var status models.DetectionStatus
	start := time.Now()
	err := db.conn.GetContext(ctx, &status, `
		UPDATE detection_events SET
			notification_details = COALESCE(notification_details, '[]'::jsonb) || $2::jsonb,
			status = CASE WHEN $3 AND status = 'pending' THEN 'notified' ELSE status END
		WHERE id = $1
		RETURNING status`, id, details, promote)
	return status, db.observe("update", "detection_events", start, err)
}

// DetectionSummary aggregates detections of one venue (or all venues when
// venueID is empty) within an optional date range.
func (db *DB) DetectionSummary(ctx context.Context, venueID string, startDate, endDate *time.Time) (*models.DetectionSummary, error) {
	w := detectionWhere(&models.DetectionFilter{VenueID: venueID, StartDate: startDate, EndDate: endDate})
	summary := &models.DetectionSummary{
		ByStatus: map[string]int{},
		ByZone:   []models.ZoneCount{},
		ByCamera: []models.CameraCount{},
	}

	var byStatus []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	start := time.Now()
	err := db.conn.SelectContext(ctx, &byStatus,
		`SELECT status, COUNT(*) AS count FROM detection_events`+w.sql()+` GROUP BY status`, w.args...)
	if err = db.observe("aggregate", "detection_events", start, err); err != nil {
		return nil, err
	}
	for _, s := range byStatus {
		summary.ByStatus[s.Status] = s.Count
		summary.TotalDetections += s.Count
	}

	start = time.Now()
	err = db.conn.GetContext(ctx, &summary.AvgHandlingTime, `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (handled_at - detected_at)) / 60), 0)
		FROM detection_events`+w.sql()+and(w, "status = 'handled' AND handled_at IS NOT NULL"), w.args...)
	if err = db.observe("aggregate", "detection_events", start, err); err != nil {
		return nil, err
	}

	start = time.Now()
	err = db.conn.SelectContext(ctx, &summary.ByZone, `
		SELECT zone_id, floor_number, COUNT(*) AS count FROM detection_events`+w.sql()+`
		GROUP BY zone_id, floor_number ORDER BY count DESC`, w.args...)
	if err = db.observe("aggregate", "detection_events", start, err); err != nil {
		return nil, err
	}

	start = time.Now()
	err = db.conn.SelectContext(ctx, &summary.ByCamera, `
		SELECT camera_id, COUNT(*) AS count FROM detection_events`+w.sql()+`
		GROUP BY camera_id ORDER BY count DESC`, w.args...)
	if err = db.observe("aggregate", "detection_events", start, err); err != nil {
		return nil, err
	}
	return summary, nil
}

// and extends an existing WHERE clause (or starts one) with a constant
// condition.
func and(w *whereBuilder, condition string) string {
	if len(w.conditions) == 0 {
		return " WHERE " + condition
	}
	return " AND " + condition
}
