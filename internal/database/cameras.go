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

const cameraColumns = `id, name, ip_address, location, floor_number, zone_id, venue_id, coordinates,
	coverage_radius, coverage_angle, smoke_detection_enabled, status, last_maintenance_date,
	statistics, technical_details, created_at, updated_at`

// CreateCamera inserts c with default statistics when none are given.
func (db *DB) CreateCamera(ctx context.Context, c *models.Camera) error {
	if c.ID == "" {
		c.ID = newID()
	}
	if c.Status == "" {
		c.Status = models.CameraActive
	}
	if c.Statistics == nil {
		c.Statistics = &models.CameraStatistics{UptimePercentage: 100}
	}
	now := db.now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	start := time.Now()
	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO cameras (`+cameraColumns+`)
		VALUES (:id, :name, :ip_address, :location, :floor_number, :zone_id, :venue_id, :coordinates,
			:coverage_radius, :coverage_angle, :smoke_detection_enabled, :status, :last_maintenance_date,
			:statistics, :technical_details, :created_at, :updated_at)`, c)
	return db.observe("insert", "cameras", start, err)
}

// GetCamera returns the camera with the given id.
func (db *DB) GetCamera(ctx context.Context, id string) (*models.Camera, error) {
	var c models.Camera
	start := time.Now()
	err := db.conn.GetContext(ctx, &c, `SELECT `+cameraColumns+` FROM cameras WHERE id = $1`, id)
	if err = db.observe("select", "cameras", start, err); err != nil {
		return nil, err
	}
	return &c, nil
}

// FindCamera looks up a registered camera by id within one zone. It is
// used to accept detections from cameras registered after the venue.
func (db *DB) FindCamera(ctx context.Context, venueID, floorNumber, zoneID, cameraID string) (*models.Camera, error) {
	var c models.Camera
	start := time.Now()
	err := db.conn.GetContext(ctx, &c, `
		SELECT `+cameraColumns+` FROM cameras
		WHERE id::text = $1 AND venue_id = $2 AND floor_number = $3 AND zone_id = $4`,
		cameraID, venueID, floorNumber, zoneID)
	if err = db.observe("select", "cameras", start, err); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCameras returns cameras matching f, newest first.
func (db *DB) ListCameras(ctx context.Context, f models.CameraFilter) ([]models.Camera, error) {
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
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}

	cameras := []models.Camera{}
	start := time.Now()
	err := db.conn.SelectContext(ctx, &cameras,
		`SELECT `+cameraColumns+` FROM cameras`+w.sql()+` ORDER BY created_at DESC`, w.args...)
	if err = db.observe("select", "cameras", start, err); err != nil {
		return nil, err
	}
	return cameras, nil
}

// UpdateCamera writes every mutable column of c.
func (db *DB) UpdateCamera(ctx context.Context, c *models.Camera) error {
	c.UpdatedAt = db.now().UTC()
	start := time.Now()
	res, err := db.conn.NamedExecContext(ctx, `
		UPDATE cameras SET name = :name, ip_address = :ip_address, location = :location,
			venue_id = :venue_id, floor_number = :floor_number, zone_id = :zone_id, coordinates = :coordinates,
			coverage_radius = :coverage_radius, coverage_angle = :coverage_angle,
			smoke_detection_enabled = :smoke_detection_enabled, status = :status,
			last_maintenance_date = :last_maintenance_date, technical_details = :technical_details,
			updated_at = :updated_at
		WHERE id = :id`, c)
	return db.observe("update", "cameras", start, requireRow(res, err))
}

// DeleteCamera removes the camera row.
func (db *DB) DeleteCamera(ctx context.Context, id string) error {
	start := time.Now()
	res, err := db.conn.ExecContext(ctx, `DELETE FROM cameras WHERE id = $1`, id)
	return db.observe("delete", "cameras", start, requireRow(res, err))
}

// UpdateCameraStatus changes the status. Entering maintenance stamps
// last_maintenance_date.
func (db *DB) UpdateCameraStatus(ctx context.Context, id string, status models.CameraStatus) (*models.Camera, error) {
	var c models.Camera
	now := db.now().UTC()
	start := time.Now()
	err := db.conn.GetContext(ctx, &c, `
		UPDATE cameras SET status = $2, updated_at = $3,
			last_maintenance_date = CASE WHEN $2 = 'maintenance' THEN $3 ELSE last_maintenance_date END
		WHERE id = $1
		RETURNING `+cameraColumns, id, status, now)
	if err = db.observe("update", "cameras", start, err); err != nil {
		return nil, err
	}
	return &c, nil
}

// MergeCameraStatistics shallow-merges patch into the statistics document.
func (db *DB) MergeCameraStatistics(ctx context.Context, id string, patch models.JSONMap) (*models.Camera, error) {
	var c models.Camera
	start := time.Now()
	err := db.conn.GetContext(ctx, &c, `
		UPDATE cameras SET statistics = COALESCE(statistics, '{}'::jsonb) || $2::jsonb, updated_at = $3
		WHERE id = $1
		RETURNING `+cameraColumns, id, patch, db.now().UTC())
	if err = db.observe("update", "cameras", start, err); err != nil {
		return nil, err
	}
	return &c, nil
}

// RecordCameraDetection bumps the running counters of a registered camera.
// Detections from zone-only cameras match no row and are ignored.
func (db *DB) RecordCameraDetection(ctx context.Context, cameraID string, at time.Time, confidence float64) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		UPDATE cameras SET statistics = COALESCE(statistics, '{}'::jsonb) || jsonb_build_object(
			'totalDetections', COALESCE((statistics->>'totalDetections')::int, 0) + 1,
			'lastDetectionAt', $2::timestamptz,
			'averageConfidence',
				(COALESCE((statistics->>'averageConfidence')::float8, 0)
				 * COALESCE((statistics->>'totalDetections')::int, 0) + $3::float8)
				/ (COALESCE((statistics->>'totalDetections')::int, 0) + 1)),
			updated_at = NOW()
		WHERE id::text = $1`, cameraID, at.UTC(), confidence)
	return db.observe("update", "cameras", start, err)
}

// RecordCameraOutcome counts a resolved detection as a true or false
// positive for the camera.
func (db *DB) RecordCameraOutcome(ctx context.Context, cameraID string, falseAlarm bool) error {
	key := "truePositives"
	if falseAlarm {
		key = "falsePositives"
	}
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		UPDATE cameras SET statistics = COALESCE(statistics, '{}'::jsonb)
			|| jsonb_build_object($2::text, COALESCE((statistics->>$2)::int, 0) + 1),
			updated_at = NOW()
		WHERE id::text = $1`, cameraID, key)
	return db.observe("update", "cameras", start, err)
}
