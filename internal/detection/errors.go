// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package detection

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrVenueNotFound     = errors.New("venue not found")
	ErrFloorNotFound     = errors.New("floor not found")
	ErrZoneNotFound      = errors.New("zone not found")
	ErrCameraNotFound    = errors.New("camera not found in zone")
	ErrDetectionNotFound = errors.New("detection not found")

	// ErrForbidden is returned when the principal is scoped to another venue.
	ErrForbidden = errors.New("access to this venue is not allowed")
)

// StatusError is returned by notifiers when the endpoint answers >= 400.
type StatusError struct {
	Notifier string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Notifier, e.Code)
}

// Retryable reports whether another attempt may succeed.
func (e *StatusError) Retryable() bool {
	return e.Code >= http.StatusInternalServerError || e.Code == http.StatusTooManyRequests
}
