// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

/*
Package middleware provides the infrastructure middleware of the HTTP API.

All middleware has the chi signature func(http.Handler) http.Handler:

  - RequestID: honours or generates X-Request-ID and attaches it, with a
    fresh correlation id, to the logging context
  - RequestLogger: one structured log line per request
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern so path parameters do not explode cardinality
  - SecurityHeaders: nosniff, frame denial, referrer policy, no-store and
    HSTS behind TLS
  - MaxBodySize: per route group request body cap

The api package installs them in this order:

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.PrometheusMetrics)
	r.Use(rateLimit)

Authentication and role checks live in the auth package.
*/
package middleware
