// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/tomtom215/smokewatch/internal/config"
	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/metrics"
)

// DB wraps the PostgreSQL pool and provides data access methods.
type DB struct {
	conn *sqlx.DB
	cfg  *config.DatabaseConfig
	now  func() time.Time
}

// New opens the pool, waits for PostgreSQL to accept connections and, when
// enabled, applies pending migrations.
func New(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	conn, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	db := &DB{conn: conn, cfg: cfg, now: time.Now}

	if err := db.waitForConnection(ctx); err != nil {
		closeQuietly(conn)
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := Migrate(cfg.DSN()); err != nil {
			closeQuietly(conn)
			return nil, err
		}
	}

	logging.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Name).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("Database connected")

	return db, nil
}

// NewWithConn wraps an existing connection. Used by tests with sqlmock.
func NewWithConn(conn *sql.DB) *DB {
	return &DB{
		conn: sqlx.NewDb(conn, "postgres"),
		cfg:  &config.DatabaseConfig{},
		now:  time.Now,
	}
}

// waitForConnection pings with exponential backoff until the server answers
// or ConnectRetryMax elapses.
func (db *DB) waitForConnection(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = db.cfg.ConnectRetryMax

	attempt := 0
	ping := func() error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, db.connectTimeout())
		defer cancel()
		return db.conn.PingContext(pingCtx)
	}
	notify := func(err error, next time.Duration) {
		logging.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("retry_in", next).
			Msg("Database not ready, retrying")
	}

	if err := backoff.RetryNotify(ping, backoff.WithContext(bo, ctx), notify); err != nil {
		return fmt.Errorf("failed to connect to database after %d attempts: %w", attempt, err)
	}
	return nil
}

func (db *DB) connectTimeout() time.Duration {
	if db.cfg.ConnectTimeout > 0 {
		return db.cfg.ConnectTimeout
	}
	return 5 * time.Second
}

// Close closes the pool.
func (db *DB) Close() error {
	if db == nil || db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Ping checks that the database answers.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Stats returns pool statistics for health reporting.
func (db *DB) Stats() sql.DBStats {
	return db.conn.Stats()
}

// observe records query metrics and translates driver errors.
func (db *DB) observe(operation, table string, start time.Time, err error) error {
	recorded := err
	if errors.Is(err, sql.ErrNoRows) {
		recorded = nil
	}
	metrics.RecordDBQuery(operation, table, time.Since(start), recorded)
	return mapError(err)
}

// inTx runs fn inside a transaction, rolling back on error.
func (db *DB) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Warn().Err(rbErr).Msg("Transaction rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}
