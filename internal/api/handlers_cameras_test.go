// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package api

import (
	"context"
	"math"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/smokewatch/internal/models"
)

func cameraBody(venueID, floor, zone string) map[string]interface{} {
	return map[string]interface{}{
		"name":        "Entrance",
		"ipAddress":   "10.0.0.10",
		"floorNumber": floor,
		"zoneId":      zone,
		"venueId":     venueID,
	}
}

func TestCreateCamera(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	_, venueAdmin := ts.login(models.RoleVenueAdmin, venueA)

	var cam models.Camera
	decodeData(t, ts.do(http.MethodPost, "/api/v1/cameras", venueAdmin, cameraBody(venueA, "1", "z1")), http.StatusCreated, &cam)
	assert.NotEmpty(t, cam.ID)
	assert.True(t, cam.SmokeDetectionEnabled)
	assert.Equal(t, models.CameraActive, cam.Status)
	assert.Contains(t, ts.audit.actions(), models.AuditCameraCreate)
}

func TestCreateCamera_LocationChecks(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	_, admin := ts.login(models.RoleSystemAdmin, "")
	_, venueAdmin := ts.login(models.RoleVenueAdmin, venueA)

	tests := []struct {
		name  string
		token string
		body  map[string]interface{}
		want  int
		msg   string
	}{
		{"unknown venue", admin, cameraBody("nope", "1", "z1"), http.StatusNotFound, "venue not found"},
		{"unknown floor", admin, cameraBody(venueA, "9", "z1"), http.StatusNotFound, "floor not found"},
		{"zone on other floor", admin, cameraBody(venueA, "1", "z2"), http.StatusNotFound, "zone not found"},
		{"other venue", venueAdmin, cameraBody(venueB, "1", "z1"), http.StatusForbidden, ""},
		{"bad ip", admin, func() map[string]interface{} {
			b := cameraBody(venueA, "1", "z1")
			b["ipAddress"] = "999.1.1.1"
			return b
		}(), http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/api/v1/cameras", tt.token, tt.body)
			errorCode(t, rec, tt.want)
			if tt.msg != "" {
				assert.Contains(t, rec.Body.String(), tt.msg)
			}
		})
	}
	assert.Empty(t, ts.store.cameras)
}

func seedCamera(t *testing.T, ts *testServer, venueID string) *models.Camera {
	t.Helper()
	c := &models.Camera{Name: "Cam", IPAddress: "10.0.0.1", FloorNumber: "1", ZoneID: "z1", VenueID: venueID, Status: models.CameraActive}
	require.NoError(t, ts.store.CreateCamera(context.Background(), c))
	return c
}

func TestListCameras_HugePageIsClamped(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	_, admin := ts.login(models.RoleSystemAdmin, "")

	var cams []models.Camera
	env := decodeData(t, ts.do(http.MethodGet, "/api/v1/cameras?page=9223372036854775807&limit=10", admin, nil), http.StatusOK, &cams)
	assert.Empty(t, cams)
	require.NotNil(t, env.Meta.Pagination)
	assert.Equal(t, math.MaxInt32/10, env.Meta.Pagination.Page)
	assert.Positive(t, env.Meta.Pagination.Offset)
	assert.False(t, env.Meta.Pagination.HasMore)
}

func TestListCameras_ScopedToVenue(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	seedCamera(t, ts, venueA)
	seedCamera(t, ts, venueA)
	seedCamera(t, ts, venueB)
	_, staff := ts.login(models.RoleSecurityStaff, venueA)

	var cams []models.Camera
	env := decodeData(t, ts.do(http.MethodGet, "/api/v1/cameras", staff, nil), http.StatusOK, &cams)
	assert.Len(t, cams, 2)
	assert.Equal(t, 2, env.Meta.Pagination.Total)

	rec := ts.do(http.MethodGet, "/api/v1/cameras?venueId="+venueB, staff, nil)
	errorCode(t, rec, http.StatusForbidden)

	// camera agents see every venue
	decodeData(t, ts.do(http.MethodGet, "/api/v1/cameras", testIngestKey, nil), http.StatusOK, &cams)
	assert.Len(t, cams, 3)

	decodeData(t, ts.do(http.MethodGet, "/api/v1/cameras?limit=2&page=2", testIngestKey, nil), http.StatusOK, &cams)
	assert.Len(t, cams, 1)

	rec = ts.do(http.MethodGet, "/api/v1/cameras?status=broken", testIngestKey, nil)
	errorCode(t, rec, http.StatusBadRequest)
}

func TestUpdateCamera(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	cam := seedCamera(t, ts, venueA)
	_, venueAdmin := ts.login(models.RoleVenueAdmin, venueA)
	_, admin := ts.login(models.RoleSystemAdmin, "")

	var updated models.Camera
	decodeData(t, ts.do(http.MethodPut, "/api/v1/cameras/"+cam.ID, venueAdmin, map[string]interface{}{
		"name": "Renamed", "floorNumber": "2", "zoneId": "z2",
	}), http.StatusOK, &updated)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "z2", updated.ZoneID)
	assert.Equal(t, "10.0.0.1", updated.IPAddress)

	rec := ts.do(http.MethodPut, "/api/v1/cameras/"+cam.ID, venueAdmin, map[string]interface{}{"zoneId": "z1"})
	errorCode(t, rec, http.StatusNotFound)

	// moving to another venue re-checks the venue
	rec = ts.do(http.MethodPut, "/api/v1/cameras/"+cam.ID, admin, map[string]interface{}{"venueId": "nope"})
	assert.Contains(t, rec.Body.String(), "venue not found")
	errorCode(t, rec, http.StatusNotFound)

	decodeData(t, ts.do(http.MethodPut, "/api/v1/cameras/"+cam.ID, admin, map[string]interface{}{
		"venueId": venueB, "floorNumber": "1", "zoneId": "z1",
	}), http.StatusOK, &updated)
	assert.Equal(t, venueB, ts.store.cameras[cam.ID].VenueID)

	rec = ts.do(http.MethodPut, "/api/v1/cameras/"+cam.ID, venueAdmin, map[string]interface{}{"name": "Mine"})
	errorCode(t, rec, http.StatusForbidden)
}

func TestCameraStatusAndDelete(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	cam := seedCamera(t, ts, venueA)
	_, venueAdmin := ts.login(models.RoleVenueAdmin, venueA)
	_, staff := ts.login(models.RoleSecurityStaff, venueA)

	rec := ts.do(http.MethodPatch, "/api/v1/cameras/"+cam.ID+"/status", staff, map[string]string{"status": "maintenance"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(http.MethodPatch, "/api/v1/cameras/"+cam.ID+"/status", venueAdmin, map[string]string{"status": "unknown"})
	errorCode(t, rec, http.StatusBadRequest)

	var updated models.Camera
	decodeData(t, ts.do(http.MethodPatch, "/api/v1/cameras/"+cam.ID+"/status", venueAdmin,
		map[string]string{"status": "maintenance"}), http.StatusOK, &updated)
	assert.Equal(t, models.CameraMaintenance, updated.Status)
	assert.Contains(t, ts.audit.actions(), models.AuditCameraStatus)

	rec = ts.do(http.MethodDelete, "/api/v1/cameras/"+cam.ID, venueAdmin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, ts.store.cameras)

	rec = ts.do(http.MethodDelete, "/api/v1/cameras/"+cam.ID, venueAdmin, nil)
	errorCode(t, rec, http.StatusNotFound)
}

func TestUpdateCameraStatistics(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	cam := seedCamera(t, ts, venueA)
	_, admin := ts.login(models.RoleSystemAdmin, "")
	_, venueAdmin := ts.login(models.RoleVenueAdmin, venueA)

	rec := ts.do(http.MethodPatch, "/api/v1/cameras/"+cam.ID+"/statistics", venueAdmin, map[string]int{"totalDetections": 3})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var updated models.Camera
	decodeData(t, ts.do(http.MethodPatch, "/api/v1/cameras/"+cam.ID+"/statistics", admin,
		map[string]interface{}{"totalDetections": 3, "uptimePercentage": 99.5}), http.StatusOK, &updated)
	require.NotNil(t, updated.Statistics)
	assert.Equal(t, 3, updated.Statistics.TotalDetections)
	assert.InDelta(t, 99.5, updated.Statistics.UptimePercentage, 1e-9)

	rec = ts.do(http.MethodPatch, "/api/v1/cameras/"+cam.ID+"/statistics", admin, map[string]int{})
	errorCode(t, rec, http.StatusBadRequest)

	rec = ts.do(http.MethodPatch, "/api/v1/cameras/missing/statistics", admin, map[string]int{"totalDetections": 1})
	errorCode(t, rec, http.StatusNotFound)
}
