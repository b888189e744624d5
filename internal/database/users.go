// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tomtom215/smokewatch/internal/models"
)

const userColumns = `id, email, password_hash, full_name, phone, role, venue_id, is_active,
	last_login_at, refresh_token, notification_preferences, created_at, updated_at`

// CreateUser inserts u, assigning an id and timestamps when unset.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = newID()
	}
	now := db.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	start := time.Now()
	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :email, :password_hash, :full_name, :phone, :role, :venue_id, :is_active,
			:last_login_at, :refresh_token, :notification_preferences, :created_at, :updated_at)`, u)
	return db.observe("insert", "users", start, err)
}

// GetUserByID returns the user with the given id.
func (db *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	start := time.Now()
	err := db.conn.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err = db.observe("select", "users", start, err); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail looks a user up case-insensitively.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	start := time.Now()
	err := db.conn.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	if err = db.observe("select", "users", start, err); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUserLogin stamps a successful login and stores the refresh token.
func (db *DB) UpdateUserLogin(ctx context.Context, id, refreshToken string) error {
	now := db.now().UTC()
	start := time.Now()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE users SET last_login_at = $2, refresh_token = $3, updated_at = $2
		WHERE id = $1`, id, now, refreshToken)
	return db.observe("update", "users", start, requireRow(res, err))
}

// SetRefreshToken stores or clears (nil) the user's refresh token.
func (db *DB) SetRefreshToken(ctx context.Context, id string, token *string) error {
	start := time.Now()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE users SET refresh_token = $2, updated_at = $3 WHERE id = $1`,
		id, token, db.now().UTC())
	return db.observe("update", "users", start, requireRow(res, err))
}

// UpdatePassword replaces the hash and revokes the refresh token.
func (db *DB) UpdatePassword(ctx context.Context, id, hash string) error {
	start := time.Now()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE users SET password_hash = $2, refresh_token = NULL, updated_at = $3 WHERE id = $1`,
		id, hash, db.now().UTC())
	return db.observe("update", "users", start, requireRow(res, err))
}

// DeactivateVenueUsers disables every non system_admin account bound to the
// venue and returns how many were changed.
func (db *DB) DeactivateVenueUsers(ctx context.Context, venueID string) (int64, error) {
	start := time.Now()
	res, err := deactivateVenueUsers(ctx, db.conn, venueID, db.now().UTC())
	if err = db.observe("update", "users", start, err); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func deactivateVenueUsers(ctx context.Context, ex sqlx.ExecerContext, venueID string, now time.Time) (sql.Result, error) {
	return ex.ExecContext(ctx, `
		UPDATE users SET is_active = FALSE, refresh_token = NULL, updated_at = $2
		WHERE venue_id = $1 AND role <> $3 AND is_active`,
		venueID, now, models.RoleSystemAdmin)
}

// CountUsersByRole counts accounts holding role.
func (db *DB) CountUsersByRole(ctx context.Context, role models.Role) (int, error) {
	var n int
	start := time.Now()
	err := db.conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE role = $1`, role)
	return n, db.observe("count", "users", start, err)
}

// GetUserSummaries returns contact summaries keyed by user id. Unknown ids
// are absent from the map.
func (db *DB) GetUserSummaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error) {
	out := make(map[string]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.UserSummary
	start := time.Now()
	err := db.conn.SelectContext(ctx, &rows, `
		SELECT id, full_name, email, phone FROM users WHERE id::text = ANY($1)`, pq.Array(ids))
	if err = db.observe("select", "users", start, err); err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = r
	}
	return out, nil
}
