// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package api

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/smokewatch/internal/auth"
	"github.com/tomtom215/smokewatch/internal/config"
	"github.com/tomtom215/smokewatch/internal/detection"
	"github.com/tomtom215/smokewatch/internal/models"
)

// Store is the persistence the handlers use directly. *database.DB
// implements it.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserLogin(ctx context.Context, id, refreshToken string) error
	SetRefreshToken(ctx context.Context, id string, token *string) error
	UpdatePassword(ctx context.Context, id, hash string) error

	CreateVenue(ctx context.Context, v *models.Venue) error
	GetVenue(ctx context.Context, id string) (*models.Venue, error)
	ListVenues(ctx context.Context, f models.VenueFilter) ([]models.VenueSummary, int, error)
	UpdateVenue(ctx context.Context, v *models.Venue) error
	SetVenueActive(ctx context.Context, id string, active bool) error

	CreateCamera(ctx context.Context, c *models.Camera) error
	GetCamera(ctx context.Context, id string) (*models.Camera, error)
	ListCameras(ctx context.Context, f models.CameraFilter) ([]models.Camera, error)
	UpdateCamera(ctx context.Context, c *models.Camera) error
	DeleteCamera(ctx context.Context, id string) error
	UpdateCameraStatus(ctx context.Context, id string, status models.CameraStatus) (*models.Camera, error)
	MergeCameraStatistics(ctx context.Context, id string, patch models.JSONMap) (*models.Camera, error)

	GetDetection(ctx context.Context, id string) (*models.Detection, error)
	ListDetections(ctx context.Context, f models.DetectionFilter) ([]models.Detection, int, error)
	DetectionSummary(ctx context.Context, venueID string, startDate, endDate *time.Time) (*models.DetectionSummary, error)

	CreateAssignment(ctx context.Context, a *models.ZoneAssignment) error
	GetAssignment(ctx context.Context, id string) (*models.ZoneAssignment, error)
	GetActiveAssignmentForUser(ctx context.Context, userID string) (*models.ZoneAssignment, error)
	ListAssignments(ctx context.Context, f models.AssignmentFilter) ([]models.ZoneAssignment, error)
	UpdateAssignment(ctx context.Context, a *models.ZoneAssignment) error
}

// DetectionService creates and updates detections. *detection.Service
// implements it.
type DetectionService interface {
	Create(ctx context.Context, principal *auth.Claims, req *detection.CreateRequest) (*models.Detection, error)
	Update(ctx context.Context, principal *auth.Claims, id string, req *detection.UpdateRequest) (*models.Detection, error)
}

// StatisticsService serves the statistics endpoints. *statistics.Service
// implements it.
type StatisticsService interface {
	ParseDate(v string) (time.Time, error)
	CalculateDaily(ctx context.Context, venueID string, date time.Time) (*models.Statistic, error)
	GetDaily(ctx context.Context, venueID string, date time.Time) (*models.Statistic, error)
	Hourly(ctx context.Context, venueID string, date time.Time) (models.HourlyStats, error)
	Heatmap(ctx context.Context, venueID string, start, end *time.Time) ([]models.HeatmapCell, error)
	Cameras(ctx context.Context, venueID string) ([]models.CameraPerformance, error)
	Trends(ctx context.Context, venueID string, days int) ([]models.TrendPoint, error)
	Performance(ctx context.Context, venueID string) (*models.PerformanceSummary, error)
}

// AuditLog records and lists audit events. *audit.Logger implements it.
type AuditLog interface {
	Record(ctx context.Context, e *models.AuditEvent)
	List(ctx context.Context, f models.AuditFilter) ([]models.AuditEvent, error)
}

// HealthCheck is one dependency probed by /health/ready.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps holds the handler dependencies.
type Deps struct {
	Store      Store
	Detections DetectionService
	Statistics StatisticsService
	Audit      AuditLog
	Tokens     *auth.TokenManager
	Config     *config.Config
	Checks     []HealthCheck
	Version    string
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files by resource: handlers_auth.go,
// handlers_venues.go, handlers_cameras.go, handlers_detections.go,
// handlers_assignments.go, handlers_statistics.go, handlers_audit.go and
// handlers_health.go.
type Handler struct {
	store      Store
	detections DetectionService
	stats      StatisticsService
	audit      AuditLog
	tokens     *auth.TokenManager
	config     *config.Config
	checks     []HealthCheck
	version    string

	startTime time.Time
	now       func() time.Time
	newID     func() string
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		store:      d.Store,
		detections: d.Detections,
		stats:      d.Statistics,
		audit:      d.Audit,
		tokens:     d.Tokens,
		config:     d.Config,
		checks:     d.Checks,
		version:    d.Version,
		startTime:  time.Now(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}
