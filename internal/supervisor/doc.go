// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

/*
Package supervisor runs the long-lived parts of smokewatch under a suture v4
supervision tree.

	smokewatch (root)
	├── data-layer
	│   └── statistics-scheduler
	├── messaging-layer
	│   ├── websocket-hub
	│   ├── event-router
	│   ├── notification-engine
	│   └── mqtt-ingest (when enabled)
	└── api-layer
	    └── http-server

Services that return an error are restarted with suture's backoff. Supervisor
events are logged through sutureslog into the zerolog pipeline (see
logging.NewSlogLogger).

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
	err = tree.Serve(ctx)

Adapters for components with other lifecycle shapes live in the services
subpackage.
*/
package supervisor
