// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry with promauto and
exposed at /metrics through promhttp.

# Available Metrics

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
  - api_active_requests: In-flight requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)

Database Metrics:
  - db_query_duration_seconds: Query execution time (histogram)
    Labels: operation, table
  - db_query_errors_total: Failed queries (counter)

Detection Metrics:
  - detections_created_total: Labels: source (http, mqtt)
  - detections_resolved_total: Labels: status
  - notifications_sent_total: Labels: channel, status
  - detection_fanout_duration_seconds: Fan-out latency (histogram)

Event Bus Metrics:
  - eventbus_published_total: Labels: topic, result (ok, fallback, error)
  - eventbus_consumed_total: Labels: topic, result

Other:
  - cache_hits_total / cache_misses_total: Labels: cache_type
  - statistics_job_runs_total / statistics_job_duration_seconds
  - websocket_connections, websocket_messages_sent_total, websocket_errors_total
  - circuit_breaker_state, circuit_breaker_state_transitions_total
  - mqtt_messages_total: Labels: result
  - app_info, app_uptime_seconds

# Usage Example

	start := time.Now()
	err := db.QueryRowContext(ctx, query).Scan(&n)
	metrics.RecordDBQuery("select", "detection_events", time.Since(start), err)
*/
package metrics
