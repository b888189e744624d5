// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package api

import "net/http"

// The /api/test routes let deployment checks verify the auth chain. They
// are only mounted when security.enable_test_routes is set.

// TestPublic handles GET /api/test/public.
func (h *Handler) TestPublic(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]string{"message": "public route"})
}

// TestProtected handles GET /api/test/protected.
func (h *Handler) TestProtected(w http.ResponseWriter, r *http.Request) {
	claims := principal(r)
	WriteSuccess(w, r, map[string]interface{}{
		"message": "protected route",
		"userId":  claims.UserID,
		"role":    claims.Role,
	})
}

// TestAdmin handles GET /api/test/admin.
func (h *Handler) TestAdmin(w http.ResponseWriter, r *http.Request) {
	claims := principal(r)
	WriteSuccess(w, r, map[string]interface{}{
		"message": "admin route",
		"userId":  claims.UserID,
	})
}
