// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoneName(t *testing.T) {
	t.Parallel()

	istanbul, err := time.LoadLocation("Europe/Istanbul")
	require.NoError(t, err)

	dir := t.TempDir()
	zoneinfo := filepath.Join(dir, "zoneinfo", "America")
	require.NoError(t, os.MkdirAll(zoneinfo, 0o755))
	zoneFile := filepath.Join(zoneinfo, "Chicago")
	require.NoError(t, os.WriteFile(zoneFile, []byte("TZif"), 0o600))
	link := filepath.Join(dir, "localtime")
	require.NoError(t, os.Symlink(zoneFile, link))

	tests := []struct {
		name      string
		loc       *time.Location
		tzEnv     string
		localtime string
		want      string
	}{
		{"named zone", istanbul, "", "", "Europe/Istanbul"},
		{"utc", time.UTC, "", "", "UTC"},
		{"nil", nil, "", "", "UTC"},
		{"local from TZ", time.Local, "Asia/Tokyo", "", "Asia/Tokyo"},
		{"local from TZ with colon", time.Local, ":Asia/Tokyo", "", "Asia/Tokyo"},
		{"local from localtime link", time.Local, "", link, "America/Chicago"},
		{"local without hints", time.Local, "", filepath.Join(dir, "missing"), "UTC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, zoneName(tt.loc, tt.tzEnv, tt.localtime))
		})
	}
}
