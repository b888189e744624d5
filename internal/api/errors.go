// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/smokewatch/internal/database"
	"github.com/tomtom215/smokewatch/internal/detection"
	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/statistics"
	"github.com/tomtom215/smokewatch/internal/validation"
)

// apiError is a handler decision that maps directly to a response.
type apiError struct {
	status  int
	code    string
	message string
}

func (e *apiError) Error() string { return e.message }

func badRequest(message string) *apiError {
	return &apiError{status: http.StatusBadRequest, code: ErrCodeBadRequest, message: message}
}

func unauthorized(message string) *apiError {
	return &apiError{status: http.StatusUnauthorized, code: ErrCodeUnauthorized, message: message}
}

func forbidden(message string) *apiError {
	return &apiError{status: http.StatusForbidden, code: ErrCodeForbidden, message: message}
}

func notFound(message string) *apiError {
	return &apiError{status: http.StatusNotFound, code: ErrCodeNotFound, message: message}
}

var (
	errVenueNotFound      = notFound("venue not found")
	errCameraNotFound     = notFound("camera not found")
	errUserNotFound       = notFound("user not found")
	errAssignmentNotFound = notFound("zone assignment not found")
	errVenueForbidden     = forbidden("access to this venue is not allowed")
)

// writeError maps err to a status and envelope. Unexpected errors are
// logged with the request id and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)

	var ae *apiError
	if errors.As(err, &ae) {
		rw.Error(ae.status, ae.code, ae.message)
		return
	}

	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		e := verr.ToAPIError()
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidation, e.Message, e.Details)
		return
	}

	switch {
	case errors.Is(err, detection.ErrVenueNotFound),
		errors.Is(err, detection.ErrFloorNotFound),
		errors.Is(err, detection.ErrZoneNotFound),
		errors.Is(err, detection.ErrCameraNotFound),
		errors.Is(err, detection.ErrDetectionNotFound):
		rw.Error(http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, database.ErrNotFound):
		rw.Error(http.StatusNotFound, ErrCodeNotFound, "resource not found")
	case errors.Is(err, detection.ErrForbidden):
		rw.Error(http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, database.ErrConflict):
		rw.Error(http.StatusConflict, ErrCodeConflict, "resource already exists")
	case errors.Is(err, database.ErrInvalidReference):
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "referenced resource does not exist")
	case errors.Is(err, statistics.ErrRangeRequired),
		errors.Is(err, statistics.ErrInvalidRange),
		errors.Is(err, statistics.ErrInvalidDays):
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		logging.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		rw.Error(http.StatusInternalServerError, ErrCodeInternalError, "an internal error occurred")
	}
}
