// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package detection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/smokewatch/internal/auth"
	"github.com/tomtom215/smokewatch/internal/database"
	"github.com/tomtom215/smokewatch/internal/eventbus"
	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/metrics"
	"github.com/tomtom215/smokewatch/internal/models"
	"github.com/tomtom215/smokewatch/internal/validation"
)

// Service creates and resolves detections.
type Service struct {
	store     Store
	publisher EventPublisher
	fanout    *Fanout
	now       func() time.Time
}

// NewService creates a service. publisher may be nil, in which case every
// event is fanned out synchronously.
func NewService(store Store, publisher EventPublisher, fanout *Fanout) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		fanout:    fanout,
		now:       time.Now,
	}
}

// Create validates the location of a new detection, stores it as pending
// and publishes detections.created.
func (s *Service) Create(ctx context.Context, principal *auth.Claims, req *CreateRequest) (*models.Detection, error) {
	if verr := validation.ValidateStruct(req); verr != nil {
		return nil, verr
	}
	if principal != nil && !principal.CanAccessVenue(req.VenueID) {
		return nil, ErrForbidden
	}

	venue, err := s.resolveLocation(ctx, req.VenueID, req.FloorNumber, req.ZoneID, req.CameraID)
	if err != nil {
		return nil, err
	}

	d := &models.Detection{
		VenueID:          req.VenueID,
		FloorNumber:      req.FloorNumber,
		ZoneID:           req.ZoneID,
		CameraID:         req.CameraID,
		Location:         req.Location,
		DetectionDetails: req.DetectionDetails,
		ImageData:        req.ImageData,
		SystemMetrics:    req.SystemMetrics,
		Status:           models.DetectionPending,
		DetectedAt:       s.now().UTC(),
	}
	if err := s.store.CreateDetection(ctx, d); err != nil {
		return nil, fmt.Errorf("create detection: %w", err)
	}
	d.Venue = d.VenueContext(venue)

	source := req.Source
	if source == "" {
		source = eventbus.SourceHTTP
	}
	metrics.DetectionsCreated.WithLabelValues(source).Inc()
	logging.Ctx(ctx).Info().
		Str("detection_id", d.ID).
		Str("venue_id", d.VenueID).
		Str("zone_id", d.ZoneID).
		Str("camera_id", d.CameraID).
		Float64("confidence", d.DetectionDetails.Confidence).
		Str("source", source).
		Msg("Detection created")

	ev := &eventbus.DetectionEvent{Detection: d, Source: source, ActorID: principalID(principal)}
	s.publish(ctx, eventbus.TopicDetectionCreated, ev, s.fallbackCreated)
	return d, nil
}

// Update changes status and notes. Resolving a detection stamps the
// principal and time.
func (s *Service) Update(ctx context.Context, principal *auth.Claims, id string, req *UpdateRequest) (*models.Detection, error) {
	if verr := validation.ValidateStruct(req); verr != nil {
		return nil, verr
	}

	d, err := s.store.GetDetection(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrDetectionNotFound
		}
		return nil, fmt.Errorf("load detection: %w", err)
	}
	if principal != nil && !principal.CanAccessVenue(d.VenueID) {
		return nil, ErrForbidden
	}

	previous := d.Status
	if req.Status != nil {
		d.Status = *req.Status
		if d.Status.Resolved() {
			now := s.now().UTC()
			handler := principalID(principal)
			d.HandledBy = &handler
			d.HandledAt = &now
		}
	}
	if req.Notes != nil {
		notes := *req.Notes
		d.Notes = &notes
	}

	if err := s.store.UpdateDetection(ctx, d); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrDetectionNotFound
		}
		return nil, fmt.Errorf("update detection: %w", err)
	}

	if d.Status.Resolved() && !previous.Resolved() {
		metrics.DetectionsResolved.WithLabelValues(string(d.Status)).Inc()
	}
	logging.Ctx(ctx).Info().
		Str("detection_id", d.ID).
		Str("status", string(d.Status)).
		Str("previous_status", string(previous)).
		Msg("Detection updated")

	ev := &eventbus.DetectionEvent{Detection: d, PreviousStatus: previous, ActorID: principalID(principal)}
	s.publish(ctx, eventbus.TopicDetectionUpdated, ev, s.fallbackUpdated)
	return d, nil
}

// resolveLocation checks the venue, floor and zone, and that the camera is
// listed in the zone or registered for it.
func (s *Service) resolveLocation(ctx context.Context, venueID, floorNumber, zoneID, cameraID string) (*models.Venue, error) {
	venue, err := s.store.GetVenue(ctx, venueID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrVenueNotFound
		}
		return nil, fmt.Errorf("load venue: %w", err)
	}

	floor, zone := venue.FindZone(floorNumber, zoneID)
	if floor == nil {
		return nil, ErrFloorNotFound
	}
	if zone == nil {
		return nil, ErrZoneNotFound
	}
	if zone.FindCamera(cameraID) != nil {
		return venue, nil
	}

	if _, err := s.store.FindCamera(ctx, venueID, floorNumber, zoneID, cameraID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrCameraNotFound
		}
		return nil, fmt.Errorf("load camera: %w", err)
	}
	return venue, nil
}

// publish sends ev on the bus and runs fallback in-process when that fails.
func (s *Service) publish(ctx context.Context, topic string, ev *eventbus.DetectionEvent, fallback func(context.Context, *eventbus.DetectionEvent)) {
	ctx = logging.ContextWithNewCorrelationID(ctx)

	if s.publisher != nil {
		err := s.publisher.Publish(ctx, topic, ev)
		if err == nil {
			return
		}
		logging.Ctx(ctx).Warn().Err(err).
			Str("topic", topic).
			Str("detection_id", ev.Detection.ID).
			Msg("Event publish failed, fanning out synchronously")
	}

	metrics.RecordPublish(topic, "fallback")
	fallback(ctx, ev)
}

func (s *Service) fallbackCreated(ctx context.Context, ev *eventbus.DetectionEvent) {
	if s.fanout != nil {
		s.fanout.HandleCreated(ctx, ev)
	}
}

func (s *Service) fallbackUpdated(ctx context.Context, ev *eventbus.DetectionEvent) {
	if s.fanout != nil {
		s.fanout.HandleUpdated(ctx, ev)
	}
}

func principalID(p *auth.Claims) string {
	if p == nil {
		return ""
	}
	return p.UserID
}
