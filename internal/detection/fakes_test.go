// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package detection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/smokewatch/internal/database"
	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/models"
)

func init() {
	logging.Silence()
}

// memStore is an in-memory Store.
type memStore struct {
	mu         sync.Mutex
	venues     map[string]*models.Venue
	cameras    map[string]*models.Camera
	detections map[string]*models.Detection
	outcomes   map[string][]bool
	cameraHits map[string]int
	nextID     int
	recordErr  error
}

func newMemStore() *memStore {
	return &memStore{
		venues:     map[string]*models.Venue{},
		cameras:    map[string]*models.Camera{},
		detections: map[string]*models.Detection{},
		outcomes:   map[string][]bool{},
		cameraHits: map[string]int{},
	}
}

func (s *memStore) GetVenue(_ context.Context, id string) (*models.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.venues[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return v, nil
}

func (s *memStore) FindCamera(_ context.Context, venueID, floorNumber, zoneID, cameraID string) (*models.Camera, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cameras[cameraID]
	if !ok || c.VenueID != venueID || c.FloorNumber != floorNumber || c.ZoneID != zoneID {
		return nil, database.ErrNotFound
	}
	return c, nil
}

func (s *memStore) CreateDetection(_ context.Context, d *models.Detection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	d.ID = fmt.Sprintf("det-%d", s.nextID)
	d.CreatedAt = d.DetectedAt
	cp := *d
	s.detections[d.ID] = &cp
	return nil
}

func (s *memStore) GetDetection(_ context.Context, id string) (*models.Detection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.detections[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *memStore) UpdateDetection(_ context.Context, d *models.Detection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.detections[d.ID]
	if !ok {
		return database.ErrNotFound
	}
	stored.Status = d.Status
	stored.HandledBy = d.HandledBy
	stored.HandledAt = d.HandledAt
	stored.Notes = d.Notes
	return nil
}

func (s *memStore) RecordNotifications(_ context.Context, id string, details models.NotificationDetails, promote bool) (models.DetectionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return "", s.recordErr
	}
	d, ok := s.detections[id]
	if !ok {
		return "", database.ErrNotFound
	}
	d.NotificationDetails = append(d.NotificationDetails, details...)
	if promote && d.Status == models.DetectionPending {
		d.Status = models.DetectionNotified
	}
	return d.Status, nil
}

func (s *memStore) RecordCameraDetection(_ context.Context, cameraID string, _ time.Time, _ float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameraHits[cameraID]++
	return nil
}

func (s *memStore) RecordCameraOutcome(_ context.Context, cameraID string, falseAlarm bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[cameraID] = append(s.outcomes[cameraID], falseAlarm)
	return nil
}

func (s *memStore) detection(id string) *models.Detection {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.detections[id]
	cp.NotificationDetails = append(models.NotificationDetails(nil), cp.NotificationDetails...)
	return &cp
}

// testVenue has floor "1" with zone "z1" listing camera "c1".
func testVenue() *models.Venue {
	return &models.Venue{
		ID:       "v1",
		Name:     "Arena",
		IsActive: true,
		Floors: models.Floors{{
			FloorNumber: "1",
			FloorName:   "Ground",
			Zones: []models.Zone{{
				ID:      "z1",
				Name:    "Lobby",
				Cameras: []models.ZoneCamera{{ID: "c1", Name: "Door"}},
			}},
		}},
	}
}

// fakeBroadcaster records broadcasts and returns fixed recipients.
type fakeBroadcaster struct {
	mu         sync.Mutex
	recipients []string
	sent       []string
}

func (b *fakeBroadcaster) BroadcastToVenue(msgType, venueID string, _ interface{}) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, msgType+":"+venueID)
	return b.recipients
}

func (b *fakeBroadcaster) messages() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.sent...)
}

type fakeInvalidator struct {
	mu     sync.Mutex
	venues []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, venueID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.venues = append(f.venues, venueID)
}

// fakePublisher records topics, failing when err is set.
type fakePublisher struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, topic string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	return nil
}

// stubNotifier returns errs in order, then nil.
type stubNotifier struct {
	name    string
	enabled bool

	mu    sync.Mutex
	calls int
	errs  []error
}

func (n *stubNotifier) Name() string  { return n.name }
func (n *stubNotifier) Enabled() bool { return n.enabled }

func (n *stubNotifier) Send(context.Context, *Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if len(n.errs) > 0 {
		err := n.errs[0]
		n.errs = n.errs[1:]
		return err
	}
	return nil
}

func (n *stubNotifier) callCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

var errTransient = errors.New("connection reset")
