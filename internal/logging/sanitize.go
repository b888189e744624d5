// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package logging

import (
	"strings"
)

const maxLogValueLen = 200

// SanitizeValue strips control characters and truncates user-supplied
// strings before they reach a log line.
func SanitizeValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	if len(out) > maxLogValueLen {
		return out[:maxLogValueLen] + "..."
	}
	return out
}

// SanitizeEmail keeps the first character of the local part and the domain.
func SanitizeEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return SanitizeValue(email[:1] + "***" + email[at:])
}

// SanitizeToken never logs more than a short prefix of a credential.
func SanitizeToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:8] + "..."
}
