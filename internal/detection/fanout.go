// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package detection

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/smokewatch/internal/eventbus"
	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/metrics"
	"github.com/tomtom215/smokewatch/internal/models"
	"github.com/tomtom215/smokewatch/internal/websocket"
)

// Fanout reacts to detection events: websocket push, external notifiers,
// camera counters and statistics cache invalidation. Failures are logged
// and never returned, so a retried event does not push twice.
type Fanout struct {
	store       Store
	broadcaster VenueBroadcaster
	engine      *Engine
	invalidator StatsInvalidator
	now         func() time.Time
}

// NewFanout creates a fan-out. engine and invalidator may be nil.
func NewFanout(store Store, broadcaster VenueBroadcaster, engine *Engine, invalidator StatsInvalidator) *Fanout {
	return &Fanout{
		store:       store,
		broadcaster: broadcaster,
		engine:      engine,
		invalidator: invalidator,
		now:         time.Now,
	}
}

// Register subscribes the fan-out to the detection topics.
func (f *Fanout) Register(router *eventbus.Router) {
	router.AddConsumer("detection-fanout-created", eventbus.TopicDetectionCreated, f.consume(f.HandleCreated))
	router.AddConsumer("detection-fanout-updated", eventbus.TopicDetectionUpdated, f.consume(f.HandleUpdated))
}

func (f *Fanout) consume(handle func(context.Context, *eventbus.DetectionEvent)) eventbus.HandlerFunc {
	return func(ctx context.Context, msg *message.Message) error {
		var ev eventbus.DetectionEvent
		if err := eventbus.Decode(msg, &ev); err != nil {
			return err
		}
		if ev.Detection == nil {
			logging.Ctx(ctx).Warn().Str("message_uuid", msg.UUID).Msg("Detection event without detection, skipped")
			return nil
		}
		handle(ctx, &ev)
		return nil
	}
}

// HandleCreated fans out a new detection.
func (f *Fanout) HandleCreated(ctx context.Context, ev *eventbus.DetectionEvent) {
	start := f.now()
	d := ev.Detection
	log := logging.Ctx(ctx).With().Str("detection_id", d.ID).Str("venue_id", d.VenueID).Logger()

	venue, err := f.store.GetVenue(ctx, d.VenueID)
	if err != nil {
		log.Warn().Err(err).Msg("Venue lookup failed during fan-out")
		venue = nil
	}
	enabled := func(channel string) bool { return venue == nil || venue.ChannelEnabled(channel) }

	if enabled(models.NotifyPush) && f.broadcaster != nil {
		recipients := f.broadcaster.BroadcastToVenue(websocket.MessageTypeDetection, d.VenueID, websocket.NewDetectionPayload(d))
		push := models.NotificationDetail{
			SentTo: recipients,
			SentAt: f.now().UTC(),
			Method: models.NotifyPush,
			Status: models.NotifyDelivered,
		}
		if len(recipients) == 0 {
			push.Status = models.NotifyFailed
		}
		metrics.RecordNotification(models.NotifyPush, push.Status)

		status, err := f.store.RecordNotifications(ctx, d.ID, models.NotificationDetails{push}, push.Succeeded())
		if err != nil {
			log.Error().Err(err).Msg("Failed to record push notification")
		} else {
			d.Status = status
		}
		log.Debug().Int("recipients", len(recipients)).Msg("Detection pushed")
	}

	if enabled(models.NotifyWebhook) && f.engine != nil && f.engine.HasNotifiers() {
		f.engine.Enqueue(NewAlert(d, venue))
	}

	if err := f.store.RecordCameraDetection(ctx, d.CameraID, d.DetectedAt, d.DetectionDetails.Confidence); err != nil {
		log.Warn().Err(err).Msg("Failed to update camera statistics")
	}
	f.invalidate(ctx, d.VenueID)

	metrics.RecordFanout(f.now().Sub(start))
}

// HandleUpdated pushes a status change and counts resolved detections
// against the camera.
func (f *Fanout) HandleUpdated(ctx context.Context, ev *eventbus.DetectionEvent) {
	d := ev.Detection

	if f.broadcaster != nil {
		f.broadcaster.BroadcastToVenue(websocket.MessageTypeDetectionUpdate, d.VenueID, websocket.NewDetectionPayload(d))
	}

	if d.Status.Resolved() && !ev.PreviousStatus.Resolved() {
		if err := f.store.RecordCameraOutcome(ctx, d.CameraID, d.Status == models.DetectionFalseAlarm); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("detection_id", d.ID).Msg("Failed to update camera outcome")
		}
	}
	f.invalidate(ctx, d.VenueID)
}

func (f *Fanout) invalidate(ctx context.Context, venueID string) {
	if f.invalidator != nil {
		f.invalidator.Invalidate(ctx, venueID)
	}
}
