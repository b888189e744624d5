// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package detection

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/smokewatch/internal/models"
)

func fastEngine(store NotificationRecorder) *Engine {
	return NewEngine(store, EngineConfig{
		Workers:           2,
		QueueSize:         8,
		MaxElapsed:        time.Second,
		InitialInterval:   time.Millisecond,
		BreakerThreshold:  10,
		BreakerOpenPeriod: time.Minute,
	})
}

func TestProcessRecordsAndPromotes(t *testing.T) {
	store := newMemStore()
	d := seedDetection(t, store)

	e := fastEngine(store)
	e.RegisterNotifier(&stubNotifier{name: "webhook", enabled: true})
	e.RegisterNotifier(&stubNotifier{name: "discord", enabled: true, errs: []error{&StatusError{Notifier: "discord", Code: http.StatusForbidden}}})
	e.RegisterNotifier(&stubNotifier{name: "disabled", enabled: false})

	details := e.Process(context.Background(), NewAlert(d, nil))
	require.Len(t, details, 2)

	byNotifier := map[string]string{}
	for _, nd := range details {
		assert.Equal(t, models.NotifyWebhook, nd.Method)
		byNotifier[nd.SentTo[0]] = nd.Status
	}
	assert.Equal(t, models.NotifySent, byNotifier["webhook"])
	assert.Equal(t, models.NotifyFailed, byNotifier["discord"])

	stored := store.detection(d.ID)
	assert.Equal(t, models.DetectionNotified, stored.Status)
	assert.Len(t, stored.NotificationDetails, 2)
}

func TestProcessRetriesTransientErrors(t *testing.T) {
	store := newMemStore()
	d := seedDetection(t, store)

	n := &stubNotifier{name: "webhook", enabled: true, errs: []error{
		errTransient,
		&StatusError{Notifier: "webhook", Code: http.StatusServiceUnavailable},
	}}
	e := fastEngine(store)
	e.RegisterNotifier(n)

	details := e.Process(context.Background(), NewAlert(d, nil))
	require.Len(t, details, 1)
	assert.Equal(t, models.NotifySent, details[0].Status)
	assert.Equal(t, 3, n.callCount())
}

func TestProcessDoesNotRetryClientErrors(t *testing.T) {
	store := newMemStore()
	d := seedDetection(t, store)

	n := &stubNotifier{name: "webhook", enabled: true, errs: []error{&StatusError{Code: http.StatusBadRequest}}}
	e := fastEngine(store)
	e.RegisterNotifier(n)

	details := e.Process(context.Background(), NewAlert(d, nil))
	assert.Equal(t, models.NotifyFailed, details[0].Status)
	assert.Equal(t, 1, n.callCount())
	assert.Equal(t, models.DetectionPending, store.detection(d.ID).Status)
}

func TestProcessBreakerShortCircuits(t *testing.T) {
	store := newMemStore()
	d := seedDetection(t, store)

	errs := make([]error, 10)
	for i := range errs {
		errs[i] = errTransient
	}
	n := &stubNotifier{name: "flaky", enabled: true, errs: errs}
	e := NewEngine(store, EngineConfig{
		MaxElapsed:        200 * time.Millisecond,
		InitialInterval:   time.Millisecond,
		BreakerThreshold:  2,
		BreakerOpenPeriod: time.Minute,
	})
	e.RegisterNotifier(n)

	details := e.Process(context.Background(), NewAlert(d, nil))
	assert.Equal(t, models.NotifyFailed, details[0].Status)
	assert.Equal(t, 2, n.callCount(), "open breaker stops retries")

	e.Process(context.Background(), NewAlert(d, nil))
	assert.Equal(t, 2, n.callCount())
}

func TestProcessWithoutNotifiers(t *testing.T) {
	store := newMemStore()
	d := seedDetection(t, store)
	e := fastEngine(store)

	assert.False(t, e.HasNotifiers())
	assert.Nil(t, e.Process(context.Background(), NewAlert(d, nil)))
	assert.Empty(t, store.detection(d.ID).NotificationDetails)
}

func TestProcessRecordFailureIsLogged(t *testing.T) {
	store := newMemStore()
	d := seedDetection(t, store)
	store.recordErr = errors.New("db down")

	e := fastEngine(store)
	e.RegisterNotifier(&stubNotifier{name: "webhook", enabled: true})
	details := e.Process(context.Background(), NewAlert(d, nil))
	assert.Len(t, details, 1)
}

func TestEngineWorkersDrainQueue(t *testing.T) {
	store := newMemStore()
	d := seedDetection(t, store)

	n := &stubNotifier{name: "webhook", enabled: true}
	e := fastEngine(store)
	e.RegisterNotifier(n)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.RunWithContext(ctx) }()

	require.True(t, e.Enqueue(NewAlert(d, nil)))
	require.Eventually(t, func() bool {
		return len(store.detection(d.ID).NotificationDetails) == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	e := NewEngine(newMemStore(), EngineConfig{QueueSize: 1})
	assert.True(t, e.Enqueue(&Alert{DetectionID: "a"}))
	assert.False(t, e.Enqueue(&Alert{DetectionID: "b"}))
}

func TestSeverityFor(t *testing.T) {
	tests := []struct {
		confidence float64
		want       Severity
	}{
		{0.95, SeverityCritical},
		{0.8, SeverityCritical},
		{0.6, SeverityWarning},
		{0.2, SeverityInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SeverityFor(tt.confidence), "confidence %v", tt.confidence)
	}
}

func TestNewAlertWithoutVenue(t *testing.T) {
	a := NewAlert(&models.Detection{ID: "d1", VenueID: "v1", FloorNumber: "2", ZoneID: "z1",
		DetectionDetails: models.DetectionDetails{Confidence: 0.5}}, nil)
	assert.Equal(t, "Smoke detected at v1", a.Title)
	assert.Equal(t, "Smoke detected on floor 2 in z1 (confidence 50%)", a.Message)
}
