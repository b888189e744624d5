// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package detection

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/smokewatch/internal/eventbus"
	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/metrics"
	"github.com/tomtom215/smokewatch/internal/models"
)

// NotificationRecorder persists delivery records. *database.DB satisfies it.
type NotificationRecorder interface {
	RecordNotifications(ctx context.Context, id string, details models.NotificationDetails, promote bool) (models.DetectionStatus, error)
}

// EngineConfig configures the notification engine.
type EngineConfig struct {
	Workers   int
	QueueSize int

	// MaxElapsed bounds the retry window of a single delivery.
	MaxElapsed      time.Duration
	InitialInterval time.Duration

	BreakerThreshold  uint32
	BreakerOpenPeriod time.Duration
}

// DefaultEngineConfig returns sensible defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Workers:           4,
		QueueSize:         256,
		MaxElapsed:        30 * time.Second,
		InitialInterval:   250 * time.Millisecond,
		BreakerThreshold:  5,
		BreakerOpenPeriod: time.Minute,
	}
}

type notifierEntry struct {
	notifier Notifier
	breaker  *eventbus.Breaker
}

// Engine delivers alerts to external notifiers on a worker pool and records
// the outcome on the detection.
type Engine struct {
	store  NotificationRecorder
	config EngineConfig
	now    func() time.Time

	mu        sync.RWMutex
	notifiers []notifierEntry

	jobs chan *Alert
}

// NewEngine creates an engine. Notifiers are added with RegisterNotifier.
func NewEngine(store NotificationRecorder, cfg EngineConfig) *Engine {
	def := DefaultEngineConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = def.MaxElapsed
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = def.InitialInterval
	}
	return &Engine{
		store:  store,
		config: cfg,
		now:    time.Now,
		jobs:   make(chan *Alert, cfg.QueueSize),
	}
}

// RegisterNotifier adds a notifier behind its own circuit breaker.
func (e *Engine) RegisterNotifier(n Notifier) {
	cb := eventbus.NewCircuitBreaker(eventbus.BreakerConfig{
		Name:             "notifier_" + n.Name(),
		FailureThreshold: e.config.BreakerThreshold,
		OpenPeriod:       e.config.BreakerOpenPeriod,
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifiers = append(e.notifiers, notifierEntry{notifier: n, breaker: cb})
}

// HasNotifiers reports whether any enabled notifier is registered.
func (e *Engine) HasNotifiers() bool {
	return len(e.enabled()) > 0
}

func (e *Engine) enabled() []notifierEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]notifierEntry, 0, len(e.notifiers))
	for _, entry := range e.notifiers {
		if entry.notifier.Enabled() {
			out = append(out, entry)
		}
	}
	return out
}

// Enqueue schedules delivery of alert. It returns false when the queue is
// full and the alert was dropped.
func (e *Engine) Enqueue(alert *Alert) bool {
	select {
	case e.jobs <- alert:
		return true
	default:
		logging.Warn().
			Str("detection_id", alert.DetectionID).
			Msg("Notification queue full, alert dropped")
		metrics.RecordNotification(models.NotifyWebhook, "dropped")
		return false
	}
}

// RunWithContext runs the delivery workers until ctx is canceled. Alerts
// still queued at shutdown are left for the next run.
func (e *Engine) RunWithContext(ctx context.Context) error {
	logging.Info().Int("workers", e.config.Workers).Msg("Notification engine started")

	var wg sync.WaitGroup
	for i := 0; i < e.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case alert := <-e.jobs:
					e.Process(ctx, alert)
				}
			}
		}()
	}
	wg.Wait()

	logging.Info().Msg("Notification engine stopped")
	return ctx.Err()
}

// Process delivers alert to every enabled notifier and records one webhook
// entry per notifier. The detection is promoted to notified when any
// delivery succeeded.
func (e *Engine) Process(ctx context.Context, alert *Alert) models.NotificationDetails {
	entries := e.enabled()
	if len(entries) == 0 {
		return nil
	}

	details := make(models.NotificationDetails, len(entries))
	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry notifierEntry) {
			defer wg.Done()
			details[i] = e.deliver(ctx, entry, alert)
		}(i, entry)
	}
	wg.Wait()

	promote := false
	for _, d := range details {
		if d.Succeeded() {
			promote = true
			break
		}
	}

	if _, err := e.store.RecordNotifications(ctx, alert.DetectionID, details, promote); err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("detection_id", alert.DetectionID).
			Msg("Failed to record notification results")
	}
	return details
}

func (e *Engine) deliver(ctx context.Context, entry notifierEntry, alert *Alert) models.NotificationDetail {
	name := entry.notifier.Name()

	op := func() error {
		_, err := entry.breaker.Execute(func() (interface{}, error) {
			return nil, entry.notifier.Send(ctx, alert)
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(err)
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.config.InitialInterval
	bo.MaxElapsedTime = e.config.MaxElapsed

	err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), func(err error, wait time.Duration) {
		logging.Ctx(ctx).Warn().Err(err).
			Str("notifier", name).
			Str("detection_id", alert.DetectionID).
			Dur("retry_in", wait).
			Msg("Notification delivery failed, retrying")
	})

	detail := models.NotificationDetail{
		SentTo: []string{name},
		SentAt: e.now().UTC(),
		Method: models.NotifyWebhook,
		Status: models.NotifySent,
	}
	if err != nil {
		detail.Status = models.NotifyFailed
		logging.Ctx(ctx).Error().Err(err).
			Str("notifier", name).
			Str("detection_id", alert.DetectionID).
			Msg("Notification delivery failed")
	}
	metrics.RecordNotification(name, detail.Status)
	return detail
}
