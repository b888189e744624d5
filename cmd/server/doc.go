// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

// Command server runs the smokewatch backend.
//
// Startup order:
//
//  1. Configuration (koanf: defaults, config.yaml, .env, environment)
//  2. PostgreSQL: migrations when DATABASE_AUTO_MIGRATE=true, then the pool
//  3. Initial system administrator from SECURITY_ADMIN_EMAIL/PASSWORD
//  4. Statistics cache (memory or Redis) and the audit logger
//  5. Event bus (in-process channel or NATS, optionally embedded)
//  6. WebSocket hub, notification engine and the detection fan-out
//  7. Casbin authorization, the chi router and the HTTP server
//  8. Supervisor tree: statistics scheduler, hub, event router, engine,
//     MQTT ingest and the HTTP server
//
// SIGINT and SIGTERM cancel the tree; the HTTP server drains for
// SERVER_SHUTDOWN_TIMEOUT before open resources are closed in reverse order.
//
// Minimal local run:
//
//	export SECURITY_JWT_SECRET=$(openssl rand -hex 32)
//	export SECURITY_REFRESH_TOKEN_SECRET=$(openssl rand -hex 32)
//	export SECURITY_ADMIN_EMAIL=admin@example.com
//	export SECURITY_ADMIN_PASSWORD=change-me-1234
//	export DATABASE_AUTO_MIGRATE=true
//	./smokewatch
package main
