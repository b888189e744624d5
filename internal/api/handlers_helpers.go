// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/smokewatch/internal/audit"
	"github.com/tomtom215/smokewatch/internal/auth"
	"github.com/tomtom215/smokewatch/internal/models"
	"github.com/tomtom215/smokewatch/internal/validation"
)

const dateLayout = "2006-01-02"

// decodeJSON decodes the request body into the struct dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if err := decodeBody(w, r, dst); err != nil {
		return err
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		return verr
	}
	return nil
}

// decodeBody decodes the request body without validation, for bodies that
// are not structs. The size cap is installed per route group by the router.
// The body is read in full first because the streaming decoder does not
// surface reader errors such as *http.MaxBytesError.
func decodeBody(_ http.ResponseWriter, r *http.Request, dst interface{}) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &apiError{status: http.StatusRequestEntityTooLarge, code: ErrCodeBadRequest, message: "request body too large"}
		}
		return badRequest("failed to read request body")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return badRequest("request body is required")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return badRequest("invalid JSON body")
	}
	return nil
}

// pageParams reads page and limit, clamped to the configured sizes.
func (h *Handler) pageParams(r *http.Request) (page, limit int) {
	def, max := 10, 100
	if h.config != nil {
		if h.config.API.DefaultPageSize > 0 {
			def = h.config.API.DefaultPageSize
		}
		if h.config.API.MaxPageSize > 0 {
			max = h.config.API.MaxPageSize
		}
	}
	page = getIntParam(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit = getIntParam(r, "limit", def)
	if limit < 1 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	// page*limit must stay a valid OFFSET and slice bound
	if maxPage := math.MaxInt32 / limit; page > maxPage {
		page = maxPage
	}
	return page, limit
}

// getIntParam extracts an integer query parameter with a default value
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// getBoolParam returns nil when key is absent.
func getBoolParam(r *http.Request, key string) (*bool, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, badRequest(fmt.Sprintf("%s must be true or false", key))
	}
	return &b, nil
}

// getFloatParam returns nil when key is absent.
func getFloatParam(r *http.Request, key string) (*float64, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, badRequest(fmt.Sprintf("%s must be a number", key))
	}
	return &f, nil
}

// getTimeParam accepts RFC 3339 timestamps and plain dates. It returns nil
// when key is absent.
func getTimeParam(r *http.Request, key string) (*time.Time, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return &t, nil
	}
	return nil, badRequest(fmt.Sprintf("%s must be an RFC 3339 timestamp or YYYY-MM-DD", key))
}

// principal returns the authenticated claims. Routes using it sit behind
// auth.Authenticate.
func principal(r *http.Request) *auth.Claims {
	claims, _ := auth.ClaimsFromContext(r.Context())
	return claims
}

// scopedVenue returns the venue a list query is restricted to. System
// admins and ingest agents may ask for any venue or none; everyone else is
// pinned to their own.
func scopedVenue(claims *auth.Claims, requested string) (string, error) {
	if claims == nil {
		return "", unauthorized("access token required")
	}
	switch claims.Role {
	case models.RoleSystemAdmin, models.RoleIngestService:
		return requested, nil
	}
	if claims.VenueID == "" {
		return "", errVenueForbidden
	}
	if requested != "" && requested != claims.VenueID {
		return "", errVenueForbidden
	}
	return claims.VenueID, nil
}

// requireVenueAccess rejects principals scoped to another venue.
func requireVenueAccess(r *http.Request, venueID string) error {
	claims := principal(r)
	if claims == nil {
		return unauthorized("access token required")
	}
	if !claims.CanAccessVenue(venueID) {
		return errVenueForbidden
	}
	return nil
}

// record sends an audit event for the current request.
func (h *Handler) record(r *http.Request, action, resourceType, resourceID, outcome string) {
	h.recordEvent(r, audit.FromRequest(r, action, resourceType, resourceID, outcome))
}

func (h *Handler) recordEvent(r *http.Request, e *models.AuditEvent) {
	if h.audit == nil {
		return
	}
	h.audit.Record(r.Context(), e)
}
