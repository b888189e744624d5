// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package detection

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/smokewatch/internal/config"
	"github.com/tomtom215/smokewatch/internal/eventbus"
	"github.com/tomtom215/smokewatch/internal/models"
)

func seedDetection(t *testing.T, store *memStore) *models.Detection {
	t.Helper()
	d := &models.Detection{
		VenueID:          "v1",
		FloorNumber:      "1",
		ZoneID:           "z1",
		CameraID:         "c1",
		DetectionDetails: models.DetectionDetails{Confidence: 0.9},
		Status:           models.DetectionPending,
		DetectedAt:       fixedNow,
	}
	require.NoError(t, store.CreateDetection(context.Background(), d))
	return d
}

func TestHandleCreatedPushAndPromote(t *testing.T) {
	store := newMemStore()
	store.venues["v1"] = testVenue()
	d := seedDetection(t, store)

	bc := &fakeBroadcaster{recipients: []string{"admin", "staff"}}
	inv := &fakeInvalidator{}
	f := NewFanout(store, bc, nil, inv)

	f.HandleCreated(context.Background(), &eventbus.DetectionEvent{Detection: d})

	stored := store.detection(d.ID)
	assert.Equal(t, models.DetectionNotified, stored.Status)
	require.Len(t, stored.NotificationDetails, 1)
	push := stored.NotificationDetails[0]
	assert.Equal(t, models.NotifyPush, push.Method)
	assert.Equal(t, models.NotifyDelivered, push.Status)
	assert.Equal(t, []string{"admin", "staff"}, push.SentTo)

	assert.Equal(t, 1, store.cameraHits["c1"])
	assert.Equal(t, []string{"v1"}, inv.venues)
}

func TestHandleCreatedNoRecipientsStaysPending(t *testing.T) {
	store := newMemStore()
	store.venues["v1"] = testVenue()
	d := seedDetection(t, store)

	f := NewFanout(store, &fakeBroadcaster{}, nil, nil)
	f.HandleCreated(context.Background(), &eventbus.DetectionEvent{Detection: d})

	stored := store.detection(d.ID)
	assert.Equal(t, models.DetectionPending, stored.Status)
	require.Len(t, stored.NotificationDetails, 1)
	assert.Equal(t, models.NotifyFailed, stored.NotificationDetails[0].Status)
}

func TestHandleCreatedRespectsVenueChannels(t *testing.T) {
	store := newMemStore()
	venue := testVenue()
	off := false
	venue.Settings = &models.VenueSettings{
		NotificationChannels: &models.NotificationChannels{PushNotification: &off, Webhook: &off},
	}
	store.venues["v1"] = venue
	d := seedDetection(t, store)

	bc := &fakeBroadcaster{recipients: []string{"u1"}}
	engine := NewEngine(store, EngineConfig{QueueSize: 1})
	engine.RegisterNotifier(&stubNotifier{name: "webhook", enabled: true})
	f := NewFanout(store, bc, engine, nil)

	f.HandleCreated(context.Background(), &eventbus.DetectionEvent{Detection: d})

	assert.Empty(t, bc.messages())
	assert.Empty(t, store.detection(d.ID).NotificationDetails)
	assert.Len(t, engine.jobs, 0)
	assert.Equal(t, 1, store.cameraHits["c1"])
}

func TestHandleCreatedQueuesAlert(t *testing.T) {
	store := newMemStore()
	store.venues["v1"] = testVenue()
	d := seedDetection(t, store)

	engine := NewEngine(store, EngineConfig{QueueSize: 4})
	engine.RegisterNotifier(&stubNotifier{name: "webhook", enabled: true})
	f := NewFanout(store, &fakeBroadcaster{}, engine, nil)

	f.HandleCreated(context.Background(), &eventbus.DetectionEvent{Detection: d})

	require.Len(t, engine.jobs, 1)
	alert := <-engine.jobs
	assert.Equal(t, d.ID, alert.DetectionID)
	assert.Equal(t, "Lobby", alert.ZoneName)
	assert.Equal(t, SeverityCritical, alert.Severity)
}

func TestHandleUpdatedCountsOutcomeOnce(t *testing.T) {
	store := newMemStore()
	d := seedDetection(t, store)
	bc := &fakeBroadcaster{}
	inv := &fakeInvalidator{}
	f := NewFanout(store, bc, nil, inv)

	d.Status = models.DetectionFalseAlarm
	f.HandleUpdated(context.Background(), &eventbus.DetectionEvent{Detection: d, PreviousStatus: models.DetectionNotified})
	// notes edit on an already resolved detection
	f.HandleUpdated(context.Background(), &eventbus.DetectionEvent{Detection: d, PreviousStatus: models.DetectionFalseAlarm})

	assert.Equal(t, []bool{true}, store.outcomes["c1"])
	assert.Equal(t, []string{"detection_update:v1", "detection_update:v1"}, bc.messages())
	assert.Len(t, inv.venues, 2)
}

func TestFanoutOverEventBus(t *testing.T) {
	store := newMemStore()
	store.venues["v1"] = testVenue()

	bus, err := eventbus.New(config.EventsConfig{Backend: eventbus.BackendMemory, CloseTimeout: time.Second}, nil)
	require.NoError(t, err)
	defer bus.Close()

	bc := &fakeBroadcaster{recipients: []string{"u1"}}
	f := NewFanout(store, bc, nil, nil)
	router := eventbus.NewRouter(bus, eventbus.DefaultRouterConfig())
	f.Register(router)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = router.Serve(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()
	<-router.Running()

	svc := NewService(store, bus.Publisher(), f)
	d, err := svc.Create(context.Background(), ingestClaims, validRequest())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return store.detection(d.ID).Status == models.DetectionNotified
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"detection:v1"}, bc.messages())
}

func TestConsumeSkipsEmptyEvent(t *testing.T) {
	f := NewFanout(newMemStore(), &fakeBroadcaster{}, nil, nil)
	called := false
	h := f.consume(func(context.Context, *eventbus.DetectionEvent) { called = true })

	err := h(context.Background(), message.NewMessage("1", []byte(`{}`)))
	assert.NoError(t, err)
	assert.False(t, called)

	err = h(context.Background(), message.NewMessage("2", []byte(`not json`)))
	assert.Error(t, err)
}
