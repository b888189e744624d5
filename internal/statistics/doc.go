// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

/*
Package statistics aggregates detection events into per venue reports.

Service computes the materialised daily Statistic of a venue and answers
the reporting endpoints (hourly buckets, zone heatmap, camera performance,
trends and performance windows). Every read is cached under the venue's
key prefix, and Invalidate drops the whole prefix when the detection
fan-out records new activity.

Day boundaries are taken in the configured server timezone. Windows are
half-open, so a detection at exactly midnight belongs to the day that
starts at that midnight. Durations are in minutes.

Scheduler runs CalculateDaily for yesterday and today on a cron schedule
for every active venue, pushes the result to the venue's WebSocket
clients and publishes it on the event bus.
*/
package statistics
