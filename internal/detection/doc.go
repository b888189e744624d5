// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

/*
Package detection records smoke detections and fans them out to the people
who must react.

The flow for a new detection:

	POST /api/v1/detections (or MQTT ingest)
	    -> Service.Create      validate venue/floor/zone/camera, store as pending
	    -> eventbus            detections.created
	    -> Fanout.HandleCreated
	         websocket push to scoped clients   (notificationDetails: push)
	         Engine queue -> Notifiers           (notificationDetails: webhook)
	         camera counters + statistics cache invalidation

When the event bus rejects the publish (for example with the circuit breaker
open) the service runs the fan-out synchronously in the request.

Notifiers (generic webhook and Discord) run on the Engine's worker pool.
Each has its own circuit breaker and retries with exponential backoff, and
a detection is promoted from pending to notified as soon as any channel
delivered it.
*/
package detection
