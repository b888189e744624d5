// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

/*
Package eventbus decouples detection writes from notification fan-out using
Watermill.

Two transports are supported:

  - memory: a gochannel pub/sub inside the process (default)
  - nats: core NATS through watermill-nats, optionally backed by an embedded
    nats-server started in the same process

Publishing goes through a gobreaker circuit breaker so a broken transport
fails fast and callers can fall back to synchronous delivery:

	bus, err := eventbus.New(cfg.Events, logging.NewWatermillLogger())
	err = bus.Publisher().Publish(ctx, eventbus.TopicDetectionCreated, event)

Consumers are registered on a Router, which runs as a supervised service and
is rebuilt on every restart:

	router := eventbus.NewRouter(bus, cfg.Events)
	router.AddConsumer("fanout-created", eventbus.TopicDetectionCreated, handler)
	go router.Serve(ctx)

Every message carries a correlation_id metadata entry which is restored into
the handler context so log lines from the HTTP request and the consumer can
be joined.
*/
package eventbus
