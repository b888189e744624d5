// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

// Package ingest accepts detections from camera agents that publish to an
// MQTT broker instead of calling the HTTP API.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"

	"github.com/tomtom215/smokewatch/internal/auth"
	"github.com/tomtom215/smokewatch/internal/config"
	"github.com/tomtom215/smokewatch/internal/detection"
	"github.com/tomtom215/smokewatch/internal/eventbus"
	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/metrics"
	"github.com/tomtom215/smokewatch/internal/models"
	"github.com/tomtom215/smokewatch/internal/validation"
)

const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultError    = "error"

	disconnectQuiesce = 250 // milliseconds
	maxReconnectDelay = 30 * time.Second
	createTimeout     = 15 * time.Second
)

// DetectionCreator stores a detection on behalf of a principal.
type DetectionCreator interface {
	Create(ctx context.Context, principal *auth.Claims, req *detection.CreateRequest) (*models.Detection, error)
}

// Subscriber consumes create-detection payloads from an MQTT topic.
type Subscriber struct {
	cfg     config.MQTTConfig
	creator DetectionCreator

	newClient func(*mqtt.ClientOptions) mqtt.Client

	mu        sync.RWMutex
	ctx       context.Context
	connected bool
}

// NewSubscriber creates a Subscriber. Serve connects it.
func NewSubscriber(cfg config.MQTTConfig, creator DetectionCreator) *Subscriber {
	return &Subscriber{
		cfg:       cfg,
		creator:   creator,
		newClient: mqtt.NewClient,
		ctx:       context.Background(),
	}
}

// Serve connects to the broker and consumes until ctx is done. The client
// reconnects on its own and subscribes again after every connect, so Serve
// only returns on cancellation or when the first connect fails outright.
func (s *Subscriber) Serve(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	client := s.newClient(s.clientOptions())

	logging.Info().Str("broker", s.cfg.Broker).Str("topic", s.cfg.Topic).Msg("Connecting to MQTT broker")

	token := client.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt connect: %w", err)
		}
	case <-ctx.Done():
		client.Disconnect(disconnectQuiesce)
		return ctx.Err()
	}

	<-ctx.Done()

	if client.IsConnected() {
		client.Unsubscribe(s.cfg.Topic).WaitTimeout(time.Second)
	}
	client.Disconnect(disconnectQuiesce)
	s.setConnected(false)
	logging.Info().Msg("MQTT subscriber stopped")
	return ctx.Err()
}

// Connected reports whether the broker connection is up.
func (s *Subscriber) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *Subscriber) String() string { return "mqtt-ingest" }

func (s *Subscriber) clientOptions() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.cfg.Broker)
	opts.SetClientID(s.cfg.ClientID)
	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username)
		opts.SetPassword(s.cfg.Password)
	}
	opts.SetKeepAlive(s.cfg.KeepAlive)
	opts.SetConnectTimeout(s.cfg.ConnectTimeout)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(maxReconnectDelay)
	// handlers call the database; do not block the network loop
	opts.SetOrderMatters(false)

	opts.OnConnect = s.onConnect
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		s.setConnected(false)
		logging.Warn().Err(err).Str("broker", s.cfg.Broker).Msg("MQTT connection lost, reconnecting")
	}
	return opts
}

func (s *Subscriber) onConnect(c mqtt.Client) {
	s.setConnected(true)
	logging.Info().Str("broker", s.cfg.Broker).Msg("MQTT connection established")

	token := c.Subscribe(s.cfg.Topic, s.cfg.QoS, s.onMessage)
	if !token.WaitTimeout(s.cfg.ConnectTimeout) {
		logging.Error().Str("topic", s.cfg.Topic).Msg("MQTT subscribe timed out")
		return
	}
	if err := token.Error(); err != nil {
		logging.Error().Err(err).Str("topic", s.cfg.Topic).Msg("MQTT subscribe failed")
		return
	}
	logging.Info().Str("topic", s.cfg.Topic).Uint8("qos", s.cfg.QoS).Msg("Subscribed to detection topic")
}

func (s *Subscriber) onMessage(_ mqtt.Client, msg mqtt.Message) {
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()

	_ = s.HandleMessage(ctx, msg.Topic(), msg.Payload())
}

// HandleMessage decodes one payload and creates the detection as the
// ingest principal. The returned error is already logged and counted.
func (s *Subscriber) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(ctx)

	var req detection.CreateRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		metrics.MQTTMessages.WithLabelValues(ResultRejected).Inc()
		log.Warn().Err(err).Str("topic", topic).Int("bytes", len(payload)).Msg("Discarding malformed MQTT detection")
		return err
	}
	req.Source = eventbus.SourceMQTT

	createCtx, cancel := context.WithTimeout(ctx, createTimeout)
	defer cancel()

	d, err := s.creator.Create(createCtx, auth.IngestClaims(), &req)
	if err != nil {
		if isRejection(err) {
			metrics.MQTTMessages.WithLabelValues(ResultRejected).Inc()
			log.Warn().Err(err).Str("topic", topic).Str("venue_id", req.VenueID).Msg("MQTT detection rejected")
		} else {
			metrics.MQTTMessages.WithLabelValues(ResultError).Inc()
			log.Error().Err(err).Str("topic", topic).Str("venue_id", req.VenueID).Msg("Failed to store MQTT detection")
		}
		return err
	}

	metrics.MQTTMessages.WithLabelValues(ResultAccepted).Inc()
	log.Debug().Str("topic", topic).Str("detection_id", d.ID).Msg("MQTT detection accepted")
	return nil
}

// isRejection reports errors caused by the payload rather than by the
// server, which a redelivery cannot fix.
func isRejection(err error) bool {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		return true
	}
	for _, target := range []error{
		detection.ErrVenueNotFound,
		detection.ErrFloorNotFound,
		detection.ErrZoneNotFound,
		detection.ErrCameraNotFound,
		detection.ErrForbidden,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *Subscriber) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}
