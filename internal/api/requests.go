// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package api

import (
	"time"

	"github.com/tomtom215/smokewatch/internal/models"
)

// Request bodies, validated with go-playground/validator tags. Update
// requests use pointers so absent fields are left unchanged.

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string      `json:"email" validate:"required,email,max=255"`
	Password string      `json:"password" validate:"required,min=8,max=128"`
	FullName string      `json:"fullName" validate:"required,max=100"`
	Phone    *string     `json:"phone" validate:"omitempty,max=20"`
	Role     models.Role `json:"role" validate:"omitempty,role"`
	VenueID  *string     `json:"venueId" validate:"omitempty,uuid"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// ChangePasswordRequest is the body of POST /auth/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
	User         models.PublicUser `json:"user"`
}

// CreateVenueRequest is the body of POST /venues.
type CreateVenueRequest struct {
	Name        string                `json:"name" validate:"required,max=100"`
	Address     string                `json:"address" validate:"required,max=500"`
	Location    *models.GeoPoint      `json:"location"`
	Description *string               `json:"description" validate:"omitempty,max=1000"`
	Phone       *string               `json:"phone" validate:"omitempty,max=20"`
	Email       *string               `json:"email" validate:"omitempty,email"`
	IsActive    *bool                 `json:"isActive"`
	Floors      models.Floors         `json:"floors" validate:"dive"`
	Settings    *models.VenueSettings `json:"settings"`
}

// UpdateVenueRequest is the body of PUT /venues/{id}.
type UpdateVenueRequest struct {
	Name        *string               `json:"name" validate:"omitempty,min=1,max=100"`
	Address     *string               `json:"address" validate:"omitempty,min=1,max=500"`
	Location    *models.GeoPoint      `json:"location"`
	Description *string               `json:"description" validate:"omitempty,max=1000"`
	Phone       *string               `json:"phone" validate:"omitempty,max=20"`
	Email       *string               `json:"email" validate:"omitempty,email"`
	IsActive    *bool                 `json:"isActive"`
	Floors      *models.Floors        `json:"floors" validate:"omitempty,dive"`
	Settings    *models.VenueSettings `json:"settings"`
}

// CreateCameraRequest is the body of POST /cameras.
type CreateCameraRequest struct {
	Name                  string                   `json:"name" validate:"required,max=100"`
	IPAddress             string                   `json:"ipAddress" validate:"required,ip"`
	Location              string                   `json:"location" validate:"max=200"`
	FloorNumber           string                   `json:"floorNumber" validate:"required,floor_number"`
	ZoneID                string                   `json:"zoneId" validate:"required"`
	VenueID               string                   `json:"venueId" validate:"required"`
	Coordinates           models.Point             `json:"coordinates"`
	CoverageRadius        float64                  `json:"coverageRadius" validate:"gte=0"`
	CoverageAngle         float64                  `json:"coverageAngle" validate:"gte=0,lte=360"`
	SmokeDetectionEnabled *bool                    `json:"smokeDetectionEnabled"`
	Status                models.CameraStatus      `json:"status" validate:"omitempty,camera_status"`
	LastMaintenanceDate   *time.Time               `json:"lastMaintenanceDate"`
	TechnicalDetails      *models.TechnicalDetails `json:"technicalDetails"`
}

// UpdateCameraRequest is the body of PUT /cameras/{id}.
type UpdateCameraRequest struct {
	Name                  *string                  `json:"name" validate:"omitempty,min=1,max=100"`
	IPAddress             *string                  `json:"ipAddress" validate:"omitempty,ip"`
	Location              *string                  `json:"location" validate:"omitempty,max=200"`
	FloorNumber           *string                  `json:"floorNumber" validate:"omitempty,floor_number"`
	ZoneID                *string                  `json:"zoneId" validate:"omitempty,min=1"`
	VenueID               *string                  `json:"venueId" validate:"omitempty,min=1"`
	Coordinates           *models.Point            `json:"coordinates"`
	CoverageRadius        *float64                 `json:"coverageRadius" validate:"omitempty,gte=0"`
	CoverageAngle         *float64                 `json:"coverageAngle" validate:"omitempty,gte=0,lte=360"`
	SmokeDetectionEnabled *bool                    `json:"smokeDetectionEnabled"`
	Status                *models.CameraStatus     `json:"status" validate:"omitempty,camera_status"`
	LastMaintenanceDate   *time.Time               `json:"lastMaintenanceDate"`
	TechnicalDetails      *models.TechnicalDetails `json:"technicalDetails"`
}

// CameraStatusRequest is the body of PATCH /cameras/{id}/status.
type CameraStatusRequest struct {
	Status models.CameraStatus `json:"status" validate:"required,camera_status"`
}

// CreateAssignmentRequest is the body of POST /zone-assignments.
type CreateAssignmentRequest struct {
	UserID      string `json:"userId" validate:"required"`
	VenueID     string `json:"venueId" validate:"required"`
	FloorNumber string `json:"floorNumber" validate:"required,floor_number"`
	ZoneID      string `json:"zoneId" validate:"required"`
}

// UpdateAssignmentRequest is the body of PUT /zone-assignments/{id}.
type UpdateAssignmentRequest struct {
	FloorNumber *string `json:"floorNumber" validate:"omitempty,floor_number"`
	ZoneID      *string `json:"zoneId" validate:"omitempty,min=1"`
	IsActive    *bool   `json:"isActive"`
}
