// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package models

import (
	"fmt"
	"testing"
)

func sampleVenue() *Venue {
	return &Venue{
		ID:   "venue-1",
		Name: "Arena",
		Floors: Floors{
			{
				FloorNumber: "1",
				FloorName:   "Ground",
				Zones: []Zone{
					{ID: "zone-a", Name: "Lobby", Cameras: []ZoneCamera{{ID: "cam-1", Name: "Door", Location: "North"}}},
					{Name: "Bar", Cameras: []ZoneCamera{{Name: "Tap"}, {Name: "Till", Status: "inactive"}}},
				},
			},
			{FloorNumber: "B1", FloorName: "Basement"},
		},
	}
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"system_admin", RoleSystemAdmin, false},
		{"VENUE_ADMIN", RoleVenueAdmin, false},
		{" security_staff ", RoleSecurityStaff, false},
		{"ingest_service", "", true},
		{"root", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseRole(%q) = %q, %v", tt.in, got, err)
		}
	}
	if !RoleVenueAdmin.IsAdmin() || RoleSecurityStaff.IsAdmin() {
		t.Error("IsAdmin mismatch")
	}
}

func TestVenueAssignIDs(t *testing.T) {
	t.Parallel()

	v := sampleVenue()
	n := 0
	v.AssignIDs(func() string { n++; return fmt.Sprintf("gen-%d", n) })

	lobby := v.Floors[0].Zones[0]
	if lobby.ID != "zone-a" || lobby.Cameras[0].ID != "cam-1" {
		t.Error("existing ids must be preserved")
	}
	if lobby.Cameras[0].Status != "active" {
		t.Errorf("default status = %q, want active", lobby.Cameras[0].Status)
	}
	bar := v.Floors[0].Zones[1]
	if bar.ID == "" || bar.Cameras[0].ID == "" || bar.Cameras[1].ID == "" {
		t.Error("missing ids were not assigned")
	}
	if bar.Cameras[1].Status != "inactive" {
		t.Error("explicit status must be preserved")
	}
	if n != 3 {
		t.Errorf("generated %d ids, want 3", n)
	}
}

func TestVenueLookupsAndCounts(t *testing.T) {
	t.Parallel()

	v := sampleVenue()
	if f, z := v.FindZone("1", "zone-a"); f == nil || z == nil || z.Name != "Lobby" {
		t.Fatal("FindZone did not resolve lobby")
	}
	if f, z := v.FindZone("1", "missing"); f == nil || z != nil {
		t.Error("missing zone should return floor and nil zone")
	}
	if f, _ := v.FindZone("9", "zone-a"); f != nil {
		t.Error("unknown floor should return nil")
	}
	floors, zones, cams := v.Counts()
	if floors != 2 || zones != 2 || cams != 3 {
		t.Errorf("Counts() = %d,%d,%d", floors, zones, cams)
	}
}

func TestFloorsValueScan(t *testing.T) {
	t.Parallel()

	v := sampleVenue()
	val, err := v.Floors.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	s, ok := val.(string)
	if !ok {
		t.Fatalf("Value() returned %T, want string for lib/pq jsonb", val)
	}

	var got Floors
	if err := got.Scan([]byte(s)); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(got) != 2 || got[0].Zones[0].Cameras[0].Name != "Door" {
		t.Errorf("Scan() = %+v", got)
	}

	var empty Floors
	if err := empty.Scan(nil); err != nil || empty != nil {
		t.Errorf("Scan(nil) = %v, %v", empty, err)
	}
	if val, _ := empty.Value(); val != "[]" {
		t.Errorf("nil Floors Value() = %v, want []", val)
	}
	if err := empty.Scan(42); err == nil {
		t.Error("Scan(int) should fail")
	}
}

func TestChannelEnabled(t *testing.T) {
	t.Parallel()

	v := sampleVenue()
	if !v.ChannelEnabled("webhook") {
		t.Error("unconfigured channel should default to enabled")
	}
	off := false
	v.Settings = &VenueSettings{NotificationChannels: &NotificationChannels{Webhook: &off}}
	if v.ChannelEnabled("webhook") {
		t.Error("webhook disabled explicitly")
	}
	if !v.ChannelEnabled("push") {
		t.Error("push not configured, should be enabled")
	}
}

func TestDetectionVenueContext(t *testing.T) {
	t.Parallel()

	v := sampleVenue()
	d := &Detection{VenueID: v.ID, FloorNumber: "1", ZoneID: "zone-a", CameraID: "cam-1"}
	ctx := d.VenueContext(v)
	if ctx.Floor == nil || ctx.Floor.Zone == nil || ctx.Floor.Zone.Camera == nil {
		t.Fatalf("incomplete context %+v", ctx)
	}
	if ctx.Floor.Zone.Camera.Location != "North" {
		t.Errorf("camera location = %q", ctx.Floor.Zone.Camera.Location)
	}

	d.ZoneID = "gone"
	if ctx := d.VenueContext(v); ctx.Floor == nil || ctx.Floor.Zone != nil {
		t.Errorf("unknown zone should stop at floor: %+v", ctx)
	}
	if d.VenueContext(nil) != nil {
		t.Error("nil venue should give nil context")
	}
}

func TestDetectionStatus(t *testing.T) {
	t.Parallel()

	if !DetectionFalseAlarm.Resolved() || DetectionNotified.Resolved() {
		t.Error("Resolved mismatch")
	}
	if DetectionStatus("closed").Valid() {
		t.Error("closed is not a status")
	}
	if !(NotificationDetail{Status: NotifyDelivered}).Succeeded() || (NotificationDetail{Status: NotifyFailed}).Succeeded() {
		t.Error("Succeeded mismatch")
	}
}
