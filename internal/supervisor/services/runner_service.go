// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package services

import "context"

// ContextRunner is satisfied by *websocket.Hub and *detection.Engine.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// RunnerService adapts a ContextRunner to suture.Service. The runner
// already returns when ctx is canceled, so the wrapper only names it for
// supervisor logs.
type RunnerService struct {
	runner ContextRunner
	name   string
}

// NewWebSocketHubService wraps the WebSocket hub.
//
//	hub := websocket.NewHub()
//	tree.AddMessagingService(services.NewWebSocketHubService(hub))
func NewWebSocketHubService(hub ContextRunner) *RunnerService {
	return &RunnerService{runner: hub, name: "websocket-hub"}
}

// NewNotificationEngineService wraps the detection notification engine,
// which drains the alert queue and delivers push notifications.
func NewNotificationEngineService(engine ContextRunner) *RunnerService {
	return &RunnerService{runner: engine, name: "notification-engine"}
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	return s.runner.RunWithContext(ctx)
}

func (s *RunnerService) String() string {
	return s.name
}
