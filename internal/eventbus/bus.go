// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package eventbus

import (
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/smokewatch/internal/config"
)

// Backends.
const (
	BackendMemory = "memory"
	BackendNATS   = "nats"
)

// ErrBreakerOpen is reported by Health while publishing is short-circuited.
var ErrBreakerOpen = errors.New("event bus circuit breaker is open")

// Bus owns the transport: the shared publisher, a subscriber factory and,
// for the embedded NATS mode, the in-process server.
type Bus struct {
	backend string
	cfg     config.EventsConfig
	logger  watermill.LoggerAdapter

	url      string
	embedded *EmbeddedServer
	channel  *gochannel.GoChannel

	publisher *Publisher
}

// New connects the configured backend.
func New(cfg config.EventsConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	b := &Bus{backend: cfg.Backend, cfg: cfg, logger: logger}

	breaker := NewCircuitBreaker(BreakerConfig{
		Name:             "eventbus",
		FailureThreshold: cfg.BreakerThreshold,
		OpenPeriod:       cfg.BreakerOpenPeriod,
	})

	switch cfg.Backend {
	case BackendMemory, "":
		b.backend = BackendMemory
		b.channel = gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)
		b.publisher = NewPublisher(b.channel, breaker)

	case BackendNATS:
		b.url = cfg.NATS.URL
		if cfg.NATS.Embedded {
			srv, err := StartEmbeddedServer(cfg.NATS.EmbeddedHost, cfg.NATS.EmbeddedPort)
			if err != nil {
				return nil, err
			}
			b.embedded = srv
			b.url = srv.ClientURL()
			logger.Info("Embedded NATS server started", watermill.LogFields{"url": b.url})
		}

		pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
			URL:         b.url,
			NatsOptions: b.natsOptions("smokewatch-publisher"),
			Marshaler:   &wmNats.NATSMarshaler{},
			JetStream:   wmNats.JetStreamConfig{Disabled: true},
		}, logger)
		if err != nil {
			b.shutdownEmbedded()
			return nil, fmt.Errorf("create watermill publisher: %w", err)
		}
		b.publisher = NewPublisher(pub, breaker)

	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}

	return b, nil
}

func (b *Bus) natsOptions(name string) []natsgo.Option {
	logger := b.logger
	return []natsgo.Option{
		natsgo.Name(name),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(b.cfg.NATS.MaxReconnects),
		natsgo.ReconnectWait(b.cfg.NATS.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, watermill.LogFields{"client": name})
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"client": name,
				"url":    nc.ConnectedUrl(),
			})
		}),
	}
}

// Backend returns memory or nats.
func (b *Bus) Backend() string {
	return b.backend
}

// Publisher returns the shared publisher.
func (b *Bus) Publisher() *Publisher {
	return b.publisher
}

// NewSubscriber returns a subscriber for one router run. Closing it does not
// affect the publisher.
func (b *Bus) NewSubscriber() (message.Subscriber, error) {
	if b.channel != nil {
		return nopCloseSubscriber{b.channel}, nil
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              b.url,
		QueueGroupPrefix: b.cfg.NATS.QueueGroup,
		SubscribersCount: 1,
		CloseTimeout:     b.cfg.CloseTimeout,
		NatsOptions:      b.natsOptions("smokewatch-subscriber"),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, b.logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}
	return sub, nil
}

// Health reports whether events can currently be published.
func (b *Bus) Health() error {
	if b.embedded != nil && !b.embedded.IsRunning() {
		return errors.New("embedded NATS server is not running")
	}
	if IsOpen(b.publisher.Breaker()) {
		return ErrBreakerOpen
	}
	return nil
}

// Close closes the publisher and stops the embedded server.
func (b *Bus) Close() error {
	err := b.publisher.Close()
	b.shutdownEmbedded()
	return err
}

func (b *Bus) shutdownEmbedded() {
	if b.embedded != nil {
		b.embedded.Shutdown()
		b.embedded = nil
	}
}

// nopCloseSubscriber keeps the shared gochannel open when a router closes
// its subscriber. Subscriptions still end when their context is canceled.
type nopCloseSubscriber struct {
	message.Subscriber
}

func (nopCloseSubscriber) Close() error { return nil }
