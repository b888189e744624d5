// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

// Package authz provides route authorization using Casbin.
//
// # Architecture
//
//	Request -> auth.Authenticate -> authz.AuthorizeRequest -> Handler
//
// The subject is the principal's role, the object is the request path and
// the action is derived from the HTTP method:
//   - GET, HEAD, OPTIONS -> "read"
//   - POST, PUT, PATCH -> "write"
//   - DELETE -> "delete"
//
// # RBAC Model
//
// The embedded model.conf matches objects with keyMatch2 so policies can use
// chi-style parameters (/api/v1/venues/:id). The embedded policy.csv encodes
// the API route table. All user roles inherit from the "authenticated"
// pseudo-role, which carries the read-mostly routes every signed-in user
// may call.
//
// Route authorization cannot express ownership: a venue_admin may write
// /api/v1/venues/:id, and the handler checks that :id is their venue.
//
// # Caching
//
// Decisions are cached per (role, path, action) for EnforcerConfig.CacheTTL.
// The policy is static at runtime, so the cache is only cleared by Close or
// a policy reload.
package authz
