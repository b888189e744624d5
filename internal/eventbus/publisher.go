// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/metrics"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// Publisher wraps a Watermill publisher with circuit breaker protection.
type Publisher struct {
	publisher message.Publisher
	breaker   *Breaker

	mu     sync.RWMutex
	closed bool
}

// NewPublisher wraps pub. breaker may be nil.
func NewPublisher(pub message.Publisher, breaker *Breaker) *Publisher {
	return &Publisher{publisher: pub, breaker: breaker}
}

// Publish marshals payload to JSON and sends it to topic. The correlation id
// from ctx is attached as metadata, a new one is generated when absent.
func (p *Publisher) Publish(ctx context.Context, topic string, payload interface{}) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	correlationID := logging.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = logging.GenerateCorrelationID()
	}
	msg.Metadata.Set(MetadataCorrelationID, correlationID)
	msg.Metadata.Set(MetadataPublishedAt, time.Now().UTC().Format(time.RFC3339Nano))

	if p.breaker != nil {
		_, err = p.breaker.Execute(func() (interface{}, error) {
			return nil, p.publisher.Publish(topic, msg)
		})
	} else {
		err = p.publisher.Publish(topic, msg)
	}
	if err != nil {
		metrics.RecordPublish(topic, "error")
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	metrics.RecordPublish(topic, "ok")
	return nil
}

// Breaker returns the circuit breaker, nil when none is configured.
func (p *Publisher) Breaker() *Breaker {
	return p.breaker
}

// Close closes the underlying publisher once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
