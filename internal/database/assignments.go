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

const assignmentColumns = `id, user_id, venue_id, floor_number, zone_id, is_active, assigned_by,
	ended_at, ended_by, created_at, updated_at`

// CreateAssignment inserts a as active. A second active assignment for the
// same user violates idx_assignments_active_user and returns ErrConflict.
func (db *DB) CreateAssignment(ctx context.Context, a *models.ZoneAssignment) error {
	if a.ID == "" {
		a.ID = newID()
	}
	a.IsActive = true
	now := db.now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now

	start := time.Now()
	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO zone_assignments (`+assignmentColumns+`)
		VALUES (:id, :user_id, :venue_id, :floor_number, :zone_id, :is_active, :assigned_by,
			:ended_at, :ended_by, :created_at, :updated_at)`, a)
	return db.observe("insert", "zone_assignments", start, err)
}

// GetAssignment returns one assignment with user and venue summaries.
func (db *DB) GetAssignment(ctx context.Context, id string) (*models.ZoneAssignment, error) {
	var a models.ZoneAssignment
	start := time.Now()
	err := db.conn.GetContext(ctx, &a, `SELECT `+assignmentColumns+` FROM zone_assignments WHERE id = $1`, id)
	if err = db.observe("select", "zone_assignments", start, err); err != nil {
		return nil, err
	}
	list := []models.ZoneAssignment{a}
	if err := db.attachAssignmentContext(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// GetActiveAssignmentForUser returns the user's active assignment.
func (db *DB) GetActiveAssignmentForUser(ctx context.Context, userID string) (*models.ZoneAssignment, error) {
	var a models.ZoneAssignment
	start := time.Now()
	err := db.conn.GetContext(ctx, &a, `
		SELECT `+assignmentColumns+` FROM zone_assignments WHERE user_id = $1 AND is_active`, userID)
	if err = db.observe("select", "zone_assignments", start, err); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAssignments returns assignments matching f, newest first.
func (db *DB) ListAssignments(ctx context.Context, f models.AssignmentFilter) ([]models.ZoneAssignment, error) {
	w := &whereBuilder{}
	if f.UserID != "" {
		w.add("user_id = ?", f.UserID)
	}
	if f.VenueID != "" {
		w.add("venue_id = ?", f.VenueID)
	}
	if f.FloorNumber != "" {
		w.add("floor_number = ?", f.FloorNumber)
	}
	if f.ZoneID != "" {
		w.add("zone_id = ?", f.ZoneID)
	}
	if f.IsActive != nil {
		w.add("is_active = ?", *f.IsActive)
	}

	rows := []models.ZoneAssignment{}
	start := time.Now()
	err := db.conn.SelectContext(ctx, &rows,
		`SELECT `+assignmentColumns+` FROM zone_assignments`+w.sql()+` ORDER BY created_at DESC`, w.args...)
	if err = db.observe("select", "zone_assignments", start, err); err != nil {
		return nil, err
	}
	if err := db.attachAssignmentContext(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (db *DB) attachAssignmentContext(ctx context.Context, rows []models.ZoneAssignment) error {
	if len(rows) == 0 {
		return nil
	}
	userIDs := make([]string, 0, len(rows))
	venueIDs := make([]string, 0, len(rows))
	for i := range rows {
		userIDs = append(userIDs, rows[i].UserID)
		venueIDs = append(venueIDs, rows[i].VenueID)
	}
	users, err := db.GetUserSummaries(ctx, userIDs)
	if err != nil {
		return err
	}
	venues, err := db.GetVenuesByIDs(ctx, venueIDs)
	if err != nil {
		return err
	}
	for i := range rows {
		if u, ok := users[rows[i].UserID]; ok {
			rows[i].User = &u
		}
		if v, ok := venues[rows[i].VenueID]; ok {
			rows[i].Venue = &models.VenueRef{ID: v.ID, Name: v.Name}
		}
	}
	return nil
}

// UpdateAssignment writes the mutable columns of a.
func (db *DB) UpdateAssignment(ctx context.Context, a *models.ZoneAssignment) error {
	a.UpdatedAt = db.now().UTC()
	start := time.Now()
	res, err := db.conn.NamedExecContext(ctx, `
		UPDATE zone_assignments SET floor_number = :floor_number, zone_id = :zone_id,
			is_active = :is_active, ended_at = :ended_at, ended_by = :ended_by, updated_at = :updated_at
		WHERE id = :id`, a)
	return db.observe("update", "zone_assignments", start, requireRow(res, err))
}
