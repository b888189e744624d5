// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package statistics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/smokewatch/internal/database"
	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/models"
)

func init() {
	logging.Silence()
}

var errStore = errors.New("store unavailable")

type window struct {
	from, to time.Time
}

// fakeStore returns canned aggregates and records the windows it was
// asked for.
type fakeStore struct {
	mu sync.Mutex

	venues  map[string]bool
	cameras []models.Camera

	daily     models.DailyMetrics
	hourly    models.HourlyStats
	cells     []models.HeatmapCell
	camStats  models.CameraStats
	counts    func(from, to time.Time) int
	totals    []models.TrendPoint
	perf      map[time.Time]models.PerformanceWindow
	response  models.ResponseTime
	health    models.SystemHealth
	failDaily bool

	stored      map[string]*models.Statistic
	upserts     int
	aggregates  int
	windows     []window
	perfSince   []time.Time
	totalWindow window
}

func newFakeStore(venueIDs ...string) *fakeStore {
	s := &fakeStore{
		venues: map[string]bool{},
		stored: map[string]*models.Statistic{},
		perf:   map[time.Time]models.PerformanceWindow{},
		counts: func(time.Time, time.Time) int { return 0 },
	}
	for _, id := range venueIDs {
		s.venues[id] = true
	}
	return s
}

func (s *fakeStore) GetVenue(_ context.Context, id string) (*models.Venue, error) {
	if !s.venues[id] {
		return nil, database.ErrNotFound
	}
	return &models.Venue{ID: id, Name: "Venue " + id, IsActive: true}, nil
}

func (s *fakeStore) ListCameras(_ context.Context, f models.CameraFilter) ([]models.Camera, error) {
	var out []models.Camera
	for _, c := range s.cameras {
		if c.VenueID == f.VenueID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeStore) ListActiveVenueIDs(context.Context) ([]string, error) {
	var ids []string
	for id := range s.venues {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *fakeStore) note(from, to time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aggregates++
	s.windows = append(s.windows, window{from, to})
}

func (s *fakeStore) DailyDetectionMetrics(_ context.Context, _ string, from, to time.Time) (models.DailyMetrics, error) {
	s.note(from, to)
	if s.failDaily {
		return models.DailyMetrics{}, errStore
	}
	return s.daily, nil
}

func (s *fakeStore) HourlyCounts(_ context.Context, _ string, from, to time.Time) (models.HourlyStats, error) {
	s.note(from, to)
	return s.hourly, nil
}

func (s *fakeStore) ZoneHeatmap(_ context.Context, _ string, from, to time.Time) ([]models.HeatmapCell, error) {
	s.note(from, to)
	return s.cells, nil
}

func (s *fakeStore) CameraDetectionCounts(_ context.Context, _ string, from, to time.Time) (models.CameraStats, error) {
	s.note(from, to)
	return s.camStats, nil
}

func (s *fakeStore) CountDetections(_ context.Context, _ string, from, to time.Time) (int, error) {
	s.note(from, to)
	return s.counts(from, to), nil
}

func (s *fakeStore) DailyTotals(_ context.Context, _ string, from, to time.Time) ([]models.TrendPoint, error) {
	s.note(from, to)
	s.totalWindow = window{from, to}
	return s.totals, nil
}

func (s *fakeStore) PerformanceWindow(_ context.Context, _ string, since time.Time) (models.PerformanceWindow, error) {
	s.mu.Lock()
	s.perfSince = append(s.perfSince, since)
	s.aggregates++
	s.mu.Unlock()
	return s.perf[since], nil
}

func (s *fakeStore) ResponseTimeStats(_ context.Context, _ string, from, to time.Time) (models.ResponseTime, error) {
	s.note(from, to)
	return s.response, nil
}

func (s *fakeStore) SystemHealth(_ context.Context, _ string, from, to time.Time) (models.SystemHealth, error) {
	s.note(from, to)
	return s.health, nil
}

func (s *fakeStore) UpsertStatistic(_ context.Context, st *models.Statistic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	st.ID = "stat-" + st.VenueID + "-" + st.Date.Format(dateLayout)
	s.stored[st.VenueID+"/"+st.Date.Format(dateLayout)] = st
	return nil
}

func (s *fakeStore) GetStatistic(_ context.Context, venueID string, date time.Time) (*models.Statistic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stored[venueID+"/"+date.Format(dateLayout)]
	if !ok {
		return nil, database.ErrNotFound
	}
	return st, nil
}

type broadcast struct {
	msgType string
	venueID string
	data    interface{}
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []broadcast
}

func (b *fakeBroadcaster) BroadcastToVenue(msgType, venueID string, data interface{}) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, broadcast{msgType, venueID, data})
	return []string{"user-1"}
}

type published struct {
	topic   string
	payload interface{}
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{topic, payload})
	return p.err
}
