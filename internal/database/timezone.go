// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package database

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const localtimePath = "/etc/localtime"

// ZoneName returns an IANA zone name PostgreSQL understands for loc.
// time.Local reports itself as "Local", so its name is taken from TZ or
// from the /etc/localtime link. UTC is returned when neither names a zone.
func ZoneName(loc *time.Location) string {
	return zoneName(loc, os.Getenv("TZ"), localtimePath)
}

func zoneName(loc *time.Location, tzEnv, localtime string) string {
	if loc == nil {
		return "UTC"
	}
	if name := loc.String(); name != "Local" {
		return name
	}

	if tz := strings.TrimPrefix(tzEnv, ":"); tz != "" && !filepath.IsAbs(tz) {
		return tz
	}

	target, err := filepath.EvalSymlinks(localtime)
	if err != nil {
		return "UTC"
	}
	if _, name, ok := strings.Cut(filepath.ToSlash(target), "zoneinfo/"); ok && name != "" {
		return name
	}
	return "UTC"
}
