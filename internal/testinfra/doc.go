// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

// Package testinfra provides shared test infrastructure.
//
// # PostgreSQL Container
//
// Integration tests (build tag "integration") run the data layer against a
// real PostgreSQL started with testcontainers-go:
//
//	func TestStore(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//
//	    db, err := database.New(ctx, pg.Config())
//	    // ...
//	}
//
// # Webhook Capture Server
//
// MockWebhookServer records outbound HTTP deliveries so notifier tests can
// assert on method, headers and body. It has no build tag and is usable
// from unit tests.
//
// # CI Considerations
//
// Container tests require Docker and are skipped gracefully when it is
// unavailable. First runs download the postgres image.
package testinfra
