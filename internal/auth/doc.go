// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

/*
Package auth provides authentication for the smokewatch API.

Key Components:

  - TokenManager: HS256 access and refresh tokens with separate secrets and lifetimes
  - Password helpers: bcrypt hashing and a minimum strength policy
  - Middleware: Bearer token and ingest API key authentication, role checks
  - RateLimiter: per-IP token buckets guarding the login and register endpoints

Principals:

Every authenticated request carries a *Claims value in its context. Users get
claims from their access token. Camera agents present a static API key and
receive synthetic claims with the ingest_service role; those claims never have
a venue, so venue scoping for agents happens on the submitted payload.

Usage:

	tokens, err := auth.NewTokenManager(&cfg.Security)
	mw := auth.NewMiddleware(tokens, cfg.Security.IngestAPIKeys)

	r.Group(func(r chi.Router) {
	    r.Use(mw.Authenticate)
	    r.With(auth.RequireRole(models.RoleSystemAdmin)).Get("/audit", h.ListAudit)
	})
*/
package auth
