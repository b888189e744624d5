// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

// Package validation provides struct validation using go-playground/validator v10.
//
// # Overview
//
// The package provides:
//   - Thread-safe singleton validator (initialized once, cached struct info)
//   - Field names reported by their JSON name (floorNumber, not FloorNumber)
//   - Domain tags: role, detection_status, camera_status, sensitivity, floor_number
//   - Conversion to the API VALIDATION_ERROR envelope
//
// # Quick Start
//
//	type CreateCameraRequest struct {
//	    Name        string `json:"name" validate:"required,max=100"`
//	    FloorNumber string `json:"floorNumber" validate:"required,floor_number"`
//	    Status      string `json:"status" validate:"omitempty,camera_status"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // respond 400 with apiErr.Code, apiErr.Message, apiErr.Details
//	}
//
// # Custom Tags
//
//	role              system_admin | venue_admin | security_staff
//	detection_status  pending | notified | handled | false_alarm
//	camera_status     active | inactive | maintenance
//	sensitivity       low | medium | high
//	floor_number      1-10 characters of letters, digits, '-' or '_' ("1", "B2", "M")
package validation
