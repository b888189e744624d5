// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/smokewatch/internal/config"
	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/metrics"
)

// HandlerFunc processes one event. ctx carries the message correlation id.
type HandlerFunc func(ctx context.Context, msg *message.Message) error

// RouterConfig holds configuration for the Watermill Router.
type RouterConfig struct {
	CloseTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
}

// DefaultRouterConfig returns production defaults for the Router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
		RetryMultiplier:      2.0,
	}
}

// RouterConfigFrom maps the events configuration.
func RouterConfigFrom(cfg config.EventsConfig) RouterConfig {
	rc := DefaultRouterConfig()
	if cfg.CloseTimeout > 0 {
		rc.CloseTimeout = cfg.CloseTimeout
	}
	if cfg.RetryMax >= 0 {
		rc.RetryMaxRetries = cfg.RetryMax
	}
	if cfg.RetryInitial > 0 {
		rc.RetryInitialInterval = cfg.RetryInitial
	}
	return rc
}

type consumer struct {
	name    string
	topic   string
	handler HandlerFunc
}

// Router runs registered consumers on a Watermill router. Each Serve call
// builds a fresh router and subscriber, so the supervisor can restart it.
type Router struct {
	bus    *Bus
	config RouterConfig
	logger watermill.LoggerAdapter

	mu        sync.Mutex
	consumers []consumer
	running   chan struct{}
}

// NewRouter creates a router over bus.
func NewRouter(bus *Bus, cfg RouterConfig) *Router {
	return &Router{
		bus:     bus,
		config:  cfg,
		logger:  bus.logger,
		running: make(chan struct{}),
	}
}

// AddConsumer registers handler for topic. Consumers added while the
// router is serving take effect on the next restart.
func (r *Router) AddConsumer(name, topic string, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumers = append(r.consumers, consumer{name: name, topic: topic, handler: handler})
}

// Running is closed once the first router run has started all handlers.
func (r *Router) Running() <-chan struct{} {
	return r.running
}

// Serve runs the router until ctx is canceled.
func (r *Router) Serve(ctx context.Context) error {
	sub, err := r.bus.NewSubscriber()
	if err != nil {
		return err
	}
	defer func() {
		if err := sub.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close event subscriber")
		}
	}()

	wmRouter, err := r.build(sub)
	if err != nil {
		return err
	}

	go func() {
		select {
		case <-wmRouter.Running():
			r.markRunning()
		case <-ctx.Done():
		}
	}()

	if err := wmRouter.Run(ctx); err != nil {
		return fmt.Errorf("event router: %w", err)
	}
	return ctx.Err()
}

func (r *Router) markRunning() {
	r.mu.Lock()
	defer r.mu.Unlock()
	select {
	case <-r.running:
	default:
		close(r.running)
	}
}

func (r *Router) build(sub message.Subscriber) (*message.Router, error) {
	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: r.config.CloseTimeout}, r.logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	// Outer to inner: settle, Recoverer, Retry.
	wmRouter.AddMiddleware(settle)
	wmRouter.AddMiddleware(middleware.Recoverer)
	wmRouter.AddMiddleware(middleware.Retry{
		MaxRetries:      r.config.RetryMaxRetries,
		InitialInterval: r.config.RetryInitialInterval,
		MaxInterval:     r.config.RetryMaxInterval,
		Multiplier:      r.config.RetryMultiplier,
		Logger:          r.logger,
	}.Middleware)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.consumers {
		wmRouter.AddConsumerHandler(c.name, c.topic, sub, wrap(c.handler))
	}
	return wmRouter, nil
}

func wrap(h HandlerFunc) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		ctx := msg.Context()
		if id := msg.Metadata.Get(MetadataCorrelationID); id != "" {
			ctx = logging.ContextWithCorrelationID(ctx, id)
		}
		return h(ctx, msg)
	}
}

// settle acks a message whose handler still fails after all retries. The
// failure is logged and counted; redelivering it forever would block the
// in-memory transport.
func settle(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		topic := message.SubscribeTopicFromCtx(msg.Context())
		out, err := h(msg)
		metrics.RecordConsume(topic, err)
		if err != nil {
			logging.Error().
				Err(err).
				Str("topic", topic).
				Str("handler", message.HandlerNameFromCtx(msg.Context())).
				Str("message_uuid", msg.UUID).
				Str("correlation_id", msg.Metadata.Get(MetadataCorrelationID)).
				Msg("Event handler failed, dropping message")
			return nil, nil
		}
		return out, nil
	}
}
