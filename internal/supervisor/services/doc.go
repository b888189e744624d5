// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

/*
Package services provides suture.Service wrappers for smokewatch components.

Each wrapper translates a lifecycle shape into suture's Serve(ctx) error and
names the service for supervisor logs:

  - HTTPServerService: ListenAndServe/Shutdown with a drain timeout
  - RunnerService: RunWithContext, used by the WebSocket hub and the
    notification engine
  - NamedService: components that already implement Serve(ctx), such as
    the event router, the statistics scheduler and the MQTT subscriber

Returning an error from Serve makes the parent supervisor restart the
service with backoff; returning ctx.Err() after cancellation is a normal
stop.
*/
package services
