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

const auditColumns = `id, actor_id, actor_role, action, resource_type, resource_id, outcome, ip,
	user_agent, details, created_at`

// InsertAuditEvent appends e to the audit trail.
func (db *DB) InsertAuditEvent(ctx context.Context, e *models.AuditEvent) error {
	if e.ID == "" {
		e.ID = newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = db.now().UTC()
	}
	start := time.Now()
	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO audit_events (`+auditColumns+`)
		VALUES (:id, :actor_id, :actor_role, :action, :resource_type, :resource_id, :outcome, :ip,
			:user_agent, :details, :created_at)`, e)
	return db.observe("insert", "audit_events", start, err)
}

// ListAuditEvents returns audit events matching f, newest first.
func (db *DB) ListAuditEvents(ctx context.Context, f models.AuditFilter) ([]models.AuditEvent, error) {
	w := &whereBuilder{}
	if f.ActorID != "" {
		w.add("actor_id = ?", f.ActorID)
	}
	if f.Action != "" {
		w.add("action = ?", f.Action)
	}
	if f.ResourceType != "" {
		w.add("resource_type = ?", f.ResourceType)
	}
	if f.Since != nil {
		w.add("created_at >= ?", *f.Since)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + auditColumns + ` FROM audit_events` + w.sql() +
		` ORDER BY created_at DESC LIMIT ` + w.arg(limit) + ` OFFSET ` + w.arg(offset)

	events := []models.AuditEvent{}
	start := time.Now()
	err := db.conn.SelectContext(ctx, &events, query, w.args...)
	if err = db.observe("select", "audit_events", start, err); err != nil {
		return nil, err
	}
	return events, nil
}
