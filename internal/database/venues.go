// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tomtom215/smokewatch/internal/models"
)

const venueColumns = `id, name, address, location, description, phone, email, is_active,
	floors, settings, created_at, updated_at`

var venueSortColumns = map[string]string{
	"name":      "v.name",
	"createdAt": "v.created_at",
	"updatedAt": "v.updated_at",
}

// venueListRow is a venue with its count of unresolved detections.
type venueListRow struct {
	models.Venue
	ActiveDetections int `db:"active_detections"`
}

// CreateVenue inserts v. Zone and zone camera ids must already be assigned.
func (db *DB) CreateVenue(ctx context.Context, v *models.Venue) error {
	if v.ID == "" {
		v.ID = newID()
	}
	now := db.now().UTC()
	v.CreatedAt, v.UpdatedAt = now, now

	start := time.Now()
	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO venues (`+venueColumns+`)
		VALUES (:id, :name, :address, :location, :description, :phone, :email, :is_active,
			:floors, :settings, :created_at, :updated_at)`, v)
	return db.observe("insert", "venues", start, err)
}

// GetVenue returns the venue with the given id, active or not.
func (db *DB) GetVenue(ctx context.Context, id string) (*models.Venue, error) {
	var v models.Venue
	start := time.Now()
	err := db.conn.GetContext(ctx, &v, `SELECT `+venueColumns+` FROM venues WHERE id = $1`, id)
	if err = db.observe("select", "venues", start, err); err != nil {
		return nil, err
	}
	return &v, nil
}

// GetVenuesByIDs loads several venues at once, keyed by id.
func (db *DB) GetVenuesByIDs(ctx context.Context, ids []string) (map[string]*models.Venue, error) {
	out := make(map[string]*models.Venue, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Venue
	start := time.Now()
	err := db.conn.SelectContext(ctx, &rows,
		`SELECT `+venueColumns+` FROM venues WHERE id::text = ANY($1)`, pq.Array(ids))
	if err = db.observe("select", "venues", start, err); err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// ListVenues returns one page of venue summaries and the total match count.
func (db *DB) ListVenues(ctx context.Context, f models.VenueFilter) ([]models.VenueSummary, int, error) {
	w := &whereBuilder{}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		w.add("(v.name ILIKE ? OR v.address ILIKE ?)", pattern, pattern)
	}
	if f.IsActive != nil {
		w.add("v.is_active = ?", *f.IsActive)
	}

	var total int
	start := time.Now()
	err := db.conn.GetContext(ctx, &total, `SELECT COUNT(*) FROM venues v`+w.sql(), w.args...)
	if err = db.observe("count", "venues", start, err); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT v.id, v.name, v.address, v.location, v.description, v.phone, v.email, v.is_active,
			v.floors, v.settings, v.created_at, v.updated_at,
			(SELECT COUNT(*) FROM detection_events d
			 WHERE d.venue_id = v.id AND d.status IN ('pending', 'notified')) AS active_detections
		FROM venues v` + w.sql() +
		orderBy(f.SortBy, f.SortOrder, venueSortColumns, "createdAt") +
		w.paginate(f.Page, f.Limit)

	var rows []venueListRow
	start = time.Now()
	err = db.conn.SelectContext(ctx, &rows, query, w.args...)
	if err = db.observe("select", "venues", start, err); err != nil {
		return nil, 0, err
	}

	out := make([]models.VenueSummary, 0, len(rows))
	for i := range rows {
		floors, zones, cameras := rows[i].Counts()
		out = append(out, models.VenueSummary{
			ID:               rows[i].ID,
			Name:             rows[i].Name,
			Address:          rows[i].Address,
			IsActive:         rows[i].IsActive,
			TotalFloors:      floors,
			TotalZones:       zones,
			TotalCameras:     cameras,
			ActiveDetections: rows[i].ActiveDetections,
		})
	}
	return out, total, nil
}

// UpdateVenue writes every mutable column of v.
func (db *DB) UpdateVenue(ctx context.Context, v *models.Venue) error {
	v.UpdatedAt = db.now().UTC()
	start := time.Now()
	res, err := db.conn.NamedExecContext(ctx, `
		UPDATE venues SET name = :name, address = :address, location = :location,
			description = :description, phone = :phone, email = :email, is_active = :is_active,
			floors = :floors, settings = :settings, updated_at = :updated_at
		WHERE id = :id`, v)
	return db.observe("update", "venues", start, requireRow(res, err))
}

// SetVenueActive flips the active flag. Deactivation also disables the
// venue's non system_admin users in the same transaction.
func (db *DB) SetVenueActive(ctx context.Context, id string, active bool) error {
	now := db.now().UTC()
	start := time.Now()
	err := db.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE venues SET is_active = $2, updated_at = $3 WHERE id = $1`, id, active, now)
		if err := requireRow(res, err); err != nil {
			return err
		}
		if active {
			return nil
		}
		_, err = deactivateVenueUsers(ctx, tx, id, now)
		return err
	})
	return db.observe("update", "venues", start, err)
}

// ListActiveVenueIDs returns the ids of all active venues.
func (db *DB) ListActiveVenueIDs(ctx context.Context) ([]string, error) {
	var ids []string
	start := time.Now()
	err := db.conn.SelectContext(ctx, &ids, `SELECT id FROM venues WHERE is_active ORDER BY created_at`)
	return ids, db.observe("select", "venues", start, err)
}
