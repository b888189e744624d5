// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

/*
Package cache provides the read cache used by the statistics service.

Two backends implement the Cache interface:

  - MemoryCache: an in-process TTL map with a background cleanup loop.
  - RedisCache: a go-redis client shared by every instance behind a load
    balancer.

Values are stored JSON-encoded in both backends, so callers always decode
into a destination pointer:

	var out models.Statistic
	ok, err := c.Get(ctx, cache.Key("stats", venueID, "daily", date), &out)

Keys are colon separated. Invalidation works on key prefixes, which lets
the statistics service drop every cached read for one venue with a single
DeletePrefix call.

Hits and misses are exported through the metrics package under the
backend name.
*/
package cache
