// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

/*
Package websocket pushes detection and statistics events to connected clients.

Architecture:

	Handler.ServeHTTP ──authenticate──► upgrade ──► Hub.Register
	                                                    │
	detection fan-out ──► Hub.BroadcastToVenue ──► scoped clients
	statistics job    ──► Hub.BroadcastToVenue
	Hub.Broadcast     ──► every client

Scoping:

Each Client carries the Identity of the token it connected with. A message
addressed to a venue reaches system_admin clients and clients whose venue
matches; everything else is filtered out. Broadcast bypasses scoping and is
reserved for system-wide notices.

Delivery:

Sends never block. A client whose 256-message buffer is full is dropped and
its connection closed; it is expected to reconnect and reload state over
REST. There is no replay or ordering guarantee across clients.

Authentication:

The access token comes from the token query parameter (browsers cannot set
headers on WebSocket requests) or an Authorization Bearer header. Failures
are reported after the upgrade with close code 1008 (policy violation) so
browser clients can read the reason.

Message format:

	{"type": "detection", "data": {...}, "timestamp": "2026-03-14T12:00:00Z"}

Types: connection, detection, detection_update, statistics, ping, pong.
*/
package websocket
