// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package services

import "context"

// Server is anything with a context-aware Serve, such as the event router,
// the statistics scheduler and the MQTT subscriber.
type Server interface {
	Serve(ctx context.Context) error
}

// NamedService gives a Server a stable name in supervisor events.
type NamedService struct {
	Server
	name string
}

// Named wraps srv so suture logs it as name.
func Named(name string, srv Server) *NamedService {
	return &NamedService{Server: srv, name: name}
}

func (s *NamedService) String() string {
	return s.name
}
