// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

// Package database is the PostgreSQL data layer for Smokewatch.
//
// # Overview
//
// All persistent state lives in PostgreSQL and is reached through
// jmoiron/sqlx on top of lib/pq. The package owns the connection pool,
// schema migrations and one store file per aggregate:
//
//   - database.go: connection lifecycle, pool limits, startup ping retry
//   - migrations.go: embedded golang-migrate migrations
//   - query.go: WHERE clause builder with $n placeholders and sort whitelists
//   - users.go, venues.go, cameras.go: account and venue configuration
//   - detections.go: detection events, notification bookkeeping, summaries
//   - assignments.go: zone assignments of security staff
//   - statistics.go: aggregate queries and the materialised daily statistics
//   - audit.go: the security audit trail
//
// # Errors
//
// Lookups that match no row return ErrNotFound; unique violations return
// ErrConflict. Both are wrapped so callers test with errors.Is.
//
// # JSON Columns
//
// Floors, settings, detection payloads and aggregates are jsonb columns.
// The model types implement driver.Valuer and sql.Scanner, so stores pass
// them straight through.
//
// # Thread Safety
//
// DB is safe for concurrent use; it only holds the *sqlx.DB pool.
package database
