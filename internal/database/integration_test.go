// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/smokewatch/internal/models"
	"github.com/tomtom215/smokewatch/internal/testinfra"
)

func TestPostgresLifecycle(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	pg, err := testinfra.NewPostgresContainer(ctx)
	require.NoError(t, err)
	defer testinfra.CleanupContainer(t, ctx, pg)

	db, err := New(ctx, pg.Config())
	require.NoError(t, err)
	defer closeWithLog(db, "database")

	// re-running migrations is a no-op
	require.NoError(t, Migrate(pg.Config().DSN()))

	venue := &models.Venue{
		Name:     "Arena",
		Address:  "1 Main St",
		IsActive: true,
		Floors: models.Floors{{
			FloorNumber: "1",
			FloorName:   "Ground",
			Zones: []models.Zone{{
				ID:      "zone-1",
				Name:    "Lobby",
				Cameras: []models.ZoneCamera{{ID: "cam-1", Name: "Door", Status: "active"}},
			}},
		}},
	}
	require.NoError(t, db.CreateVenue(ctx, venue))

	admin := &models.User{Email: "admin@example.com", PasswordHash: "x", FullName: "Admin", Role: models.RoleSystemAdmin, IsActive: true}
	staff := &models.User{Email: "Guard@Example.com", PasswordHash: "x", FullName: "Guard", Role: models.RoleSecurityStaff, VenueID: &venue.ID, IsActive: true}
	require.NoError(t, db.CreateUser(ctx, admin))
	require.NoError(t, db.CreateUser(ctx, staff))

	dup := &models.User{Email: "guard@example.com", PasswordHash: "x", FullName: "Dup", Role: models.RoleSecurityStaff, IsActive: true}
	assert.ErrorIs(t, db.CreateUser(ctx, dup), ErrConflict)

	got, err := db.GetUserByEmail(ctx, "GUARD@example.com")
	require.NoError(t, err)
	assert.Equal(t, staff.ID, got.ID)

	_, err = db.GetUserByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	// detections and notification bookkeeping
	d := &models.Detection{
		VenueID:          venue.ID,
		FloorNumber:      "1",
		ZoneID:           "zone-1",
		CameraID:         "cam-1",
		Location:         models.DetectionLocation{X: 1, Y: 1, Confidence: 0.9},
		DetectionDetails: models.DetectionDetails{Confidence: 0.85, DetectionSequences: 3, FPS: 12},
		DetectedAt:       time.Now().Add(-30 * time.Minute),
	}
	require.NoError(t, db.CreateDetection(ctx, d))

	status, err := db.RecordNotifications(ctx, d.ID, models.NotificationDetails{{
		SentTo: []string{"ws"}, SentAt: time.Now(), Method: models.NotifyPush, Status: models.NotifyDelivered,
	}}, true)
	require.NoError(t, err)
	assert.Equal(t, models.DetectionNotified, status)

	handledAt := time.Now()
	d.Status = models.DetectionHandled
	d.HandledBy = &staff.ID
	d.HandledAt = &handledAt
	require.NoError(t, db.UpdateDetection(ctx, d))

	loaded, err := db.GetDetection(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Handler)
	assert.Equal(t, "Guard", loaded.Handler.FullName)
	require.Len(t, loaded.NotificationDetails, 1)
	assert.Equal(t, "Door", loaded.Venue.Floor.Zone.Camera.Name)

	from := time.Now().Add(-24 * time.Hour)
	to := time.Now().Add(time.Hour)
	metrics, err := db.DailyDetectionMetrics(ctx, venue.ID, from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.TotalDetections)
	assert.Equal(t, 1, metrics.HandledDetections)
	assert.InDelta(t, 30, metrics.AvgHandlingTime, 1)

	// assignments: one active per user
	a := &models.ZoneAssignment{UserID: staff.ID, VenueID: venue.ID, FloorNumber: "1", ZoneID: "zone-1", AssignedBy: admin.ID}
	require.NoError(t, db.CreateAssignment(ctx, a))
	second := &models.ZoneAssignment{UserID: staff.ID, VenueID: venue.ID, FloorNumber: "1", ZoneID: "zone-1", AssignedBy: admin.ID}
	assert.ErrorIs(t, db.CreateAssignment(ctx, second), ErrConflict)

	// statistics upsert keeps a single row per day
	day := time.Now().UTC().Truncate(24 * time.Hour)
	require.NoError(t, db.UpsertStatistic(ctx, &models.Statistic{VenueID: venue.ID, Date: day, DailyMetrics: metrics}))
	s2 := &models.Statistic{VenueID: venue.ID, Date: day}
	require.NoError(t, db.UpsertStatistic(ctx, s2))
	stored, err := db.GetStatistic(ctx, venue.ID, day)
	require.NoError(t, err)
	assert.Equal(t, s2.ID, stored.ID)

	// soft delete deactivates venue staff but not system admins
	require.NoError(t, db.SetVenueActive(ctx, venue.ID, false))
	got, err = db.GetUserByID(ctx, staff.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	got, err = db.GetUserByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}
