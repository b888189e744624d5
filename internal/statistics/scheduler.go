// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package statistics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/smokewatch/internal/config"
	"github.com/tomtom215/smokewatch/internal/eventbus"
	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/metrics"
	"github.com/tomtom215/smokewatch/internal/websocket"
)

// VenueLister returns the venues the scheduler recalculates.
type VenueLister interface {
	ListActiveVenueIDs(ctx context.Context) ([]string, error)
}

// Broadcaster pushes messages to the WebSocket clients of one venue.
type Broadcaster interface {
	BroadcastToVenue(msgType, venueID string, data interface{}) []string
}

// Publisher publishes events on the bus.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

// Scheduler recalculates statistics of every active venue on a cron
// schedule.
type Scheduler struct {
	svc         *Service
	venues      VenueLister
	broadcaster Broadcaster
	publisher   Publisher
	schedule    string
}

// NewScheduler validates schedule and returns a Scheduler. broadcaster and
// publisher may be nil.
func NewScheduler(svc *Service, venues VenueLister, broadcaster Broadcaster, publisher Publisher, schedule string) (*Scheduler, error) {
	if _, err := config.CronParser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("invalid statistics schedule %q: %w", schedule, err)
	}
	return &Scheduler{
		svc:         svc,
		venues:      venues,
		broadcaster: broadcaster,
		publisher:   publisher,
		schedule:    schedule,
	}, nil
}

// Serve runs the cron loop until ctx is done.
func (s *Scheduler) Serve(ctx context.Context) error {
	logger := logging.NewCronLogger("statistics")
	c := cron.New(
		cron.WithLocation(s.svc.Location()),
		cron.WithParser(config.CronParser),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if _, err := c.AddFunc(s.schedule, func() {
		if err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logging.Error().Err(err).Msg("Scheduled statistics run finished with errors")
		}
	}); err != nil {
		return fmt.Errorf("schedule statistics job: %w", err)
	}

	c.Start()
	logging.Info().
		Str("schedule", s.schedule).
		Str("timezone", s.svc.Location().String()).
		Msg("Statistics scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

// RunOnce calculates yesterday and today for every active venue. A failing
// venue does not stop the others; all failures are returned joined.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()

	ids, err := s.venues.ListActiveVenueIDs(ctx)
	if err != nil {
		err = fmt.Errorf("list active venues: %w", err)
		metrics.RecordStatisticsRun(time.Since(start), err)
		return err
	}

	today := s.svc.startOfDay(s.svc.now())
	days := []time.Time{today.AddDate(0, 0, -1), today}

	var errs []error
	for _, venueID := range ids {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		for _, day := range days {
			if err := s.runVenueDay(ctx, venueID, day); err != nil {
				errs = append(errs, fmt.Errorf("venue %s %s: %w", venueID, day.Format(dateLayout), err))
			}
		}
	}

	err = errors.Join(errs...)
	metrics.RecordStatisticsRun(time.Since(start), err)
	logging.Info().
		Int("venues", len(ids)).
		Int("failures", len(errs)).
		Dur("duration", time.Since(start)).
		Msg("Statistics run completed")
	return err
}

func (s *Scheduler) runVenueDay(ctx context.Context, venueID string, day time.Time) error {
	stat, err := s.svc.CalculateDaily(ctx, venueID, day)
	if err != nil {
		return err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToVenue(websocket.MessageTypeStatistics, venueID, stat)
	}

	if s.publisher != nil {
		ev := eventbus.StatisticsEvent{
			VenueID:    venueID,
			Date:       day.Format(dateLayout),
			Statistic:  stat,
			ComputedAt: s.svc.now().UTC(),
		}
		pubCtx := logging.ContextWithNewCorrelationID(ctx)
		if err := s.publisher.Publish(pubCtx, eventbus.TopicStatisticsUpdated, ev); err != nil {
			// The row is stored; only the notification is lost.
			logging.Warn().Err(err).Str("venue_id", venueID).Msg("Failed to publish statistics update")
		}
	}
	return nil
}

func (s *Scheduler) String() string { return "statistics-scheduler" }
