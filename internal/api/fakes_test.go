// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package api

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/smokewatch/internal/auth"
	"github.com/tomtom215/smokewatch/internal/database"
	"github.com/tomtom215/smokewatch/internal/detection"
	"github.com/tomtom215/smokewatch/internal/models"
	"github.com/tomtom215/smokewatch/internal/statistics"
)

// memStore is an in-memory Store.
type memStore struct {
	mu          sync.Mutex
	seq         int
	users       map[string]*models.User
	venues      map[string]*models.Venue
	cameras     map[string]*models.Camera
	detections  map[string]*models.Detection
	assignments map[string]*models.ZoneAssignment

	failWith error
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]*models.User{},
		venues:      map[string]*models.Venue{},
		cameras:     map[string]*models.Camera{},
		detections:  map[string]*models.Detection{},
		assignments: map[string]*models.ZoneAssignment{},
	}
}

func (s *memStore) id(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return database.ErrConflict
		}
	}
	if u.ID == "" {
		u.ID = s.id("user")
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *memStore) UpdateUserLogin(_ context.Context, id, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return database.ErrNotFound
	}
	now := time.Now().UTC()
	u.LastLoginAt = &now
	u.RefreshToken = &refreshToken
	return nil
}

func (s *memStore) SetRefreshToken(_ context.Context, id string, token *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.RefreshToken = token
	return nil
}

func (s *memStore) UpdatePassword(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.PasswordHash = hash
	u.RefreshToken = nil
	return nil
}

func (s *memStore) CreateVenue(_ context.Context, v *models.Venue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == "" {
		v.ID = s.id("venue")
	}
	cp := *v
	s.venues[v.ID] = &cp
	return nil
}

func (s *memStore) GetVenue(_ context.Context, id string) (*models.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.venues[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (s *memStore) ListVenues(_ context.Context, f models.VenueFilter) ([]models.VenueSummary, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.VenueSummary{}
	for _, v := range s.venues {
		if f.IsActive != nil && v.IsActive != *f.IsActive {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(v.Name), strings.ToLower(f.Search)) {
			continue
		}
		floors, zones, cams := v.Counts()
		out = append(out, models.VenueSummary{
			ID: v.ID, Name: v.Name, Address: v.Address, IsActive: v.IsActive,
			TotalFloors: floors, TotalZones: zones, TotalCameras: cams,
		})
	}
	return out, len(out), nil
}

func (s *memStore) UpdateVenue(_ context.Context, v *models.Venue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.venues[v.ID]; !ok {
		return database.ErrNotFound
	}
	cp := *v
	s.venues[v.ID] = &cp
	return nil
}

func (s *memStore) SetVenueActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.venues[id]
	if !ok {
		return database.ErrNotFound
	}
	v.IsActive = active
	if !active {
		for _, u := range s.users {
			if u.VenueIDValue() == id && u.Role != models.RoleSystemAdmin {
				u.IsActive = false
			}
		}
	}
	return nil
}

func (s *memStore) CreateCamera(_ context.Context, c *models.Camera) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = s.id("camera")
	}
	if c.Status == "" {
		c.Status = models.CameraActive
	}
	cp := *c
	s.cameras[c.ID] = &cp
	return nil
}

func (s *memStore) GetCamera(_ context.Context, id string) (*models.Camera, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cameras[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) ListCameras(_ context.Context, f models.CameraFilter) ([]models.Camera, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Camera{}
	for _, c := range s.cameras {
		if f.VenueID != "" && c.VenueID != f.VenueID {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *memStore) UpdateCamera(_ context.Context, c *models.Camera) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cameras[c.ID]; !ok {
		return database.ErrNotFound
	}
	cp := *c
	s.cameras[c.ID] = &cp
	return nil
}

func (s *memStore) DeleteCamera(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cameras[id]; !ok {
		return database.ErrNotFound
	}
	delete(s.cameras, id)
	return nil
}

func (s *memStore) UpdateCameraStatus(_ context.Context, id string, status models.CameraStatus) (*models.Camera, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cameras[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	c.Status = status
	cp := *c
	return &cp, nil
}

func (s *memStore) MergeCameraStatistics(_ context.Context, id string, patch models.JSONMap) (*models.Camera, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cameras[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if c.Statistics == nil {
		c.Statistics = &models.CameraStatistics{}
	}
	data, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, c.Statistics); err != nil {
		return nil, err
	}
	cp := *c
	return &cp, nil
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

func (s *memStore) ListDetections(_ context.Context, f models.DetectionFilter) ([]models.Detection, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.Detection
	for _, d := range s.detections {
		if f.VenueID != "" && d.VenueID != f.VenueID {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		if f.MinConfidence != nil && d.DetectionDetails.Confidence < *f.MinConfidence {
			continue
		}
		matched = append(matched, *d)
	}
	total := len(matched)
	start := (f.Page - 1) * f.Limit
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *memStore) DetectionSummary(_ context.Context, venueID string, _, _ *time.Time) (*models.DetectionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := &models.DetectionSummary{ByStatus: map[string]int{}}
	for _, d := range s.detections {
		if venueID != "" && d.VenueID != venueID {
			continue
		}
		out.TotalDetections++
		out.ByStatus[string(d.Status)]++
	}
	return out, nil
}

func (s *memStore) CreateAssignment(_ context.Context, a *models.ZoneAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.assignments {
		if existing.UserID == a.UserID && existing.IsActive {
			return database.ErrConflict
		}
	}
	if a.ID == "" {
		a.ID = s.id("assignment")
	}
	a.IsActive = true
	cp := *a
	s.assignments[a.ID] = &cp
	return nil
}

func (s *memStore) GetAssignment(_ context.Context, id string) (*models.ZoneAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) GetActiveAssignmentForUser(_ context.Context, userID string) (*models.ZoneAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assignments {
		if a.UserID == userID && a.IsActive {
			cp := *a
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *memStore) ListAssignments(_ context.Context, f models.AssignmentFilter) ([]models.ZoneAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ZoneAssignment{}
	for _, a := range s.assignments {
		if f.VenueID != "" && a.VenueID != f.VenueID {
			continue
		}
		if f.UserID != "" && a.UserID != f.UserID {
			continue
		}
		if f.IsActive != nil && a.IsActive != *f.IsActive {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (s *memStore) UpdateAssignment(_ context.Context, a *models.ZoneAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[a.ID]; !ok {
		return database.ErrNotFound
	}
	cp := *a
	s.assignments[a.ID] = &cp
	return nil
}

// fakeDetections stands in for the detection service.
type fakeDetections struct {
	mu        sync.Mutex
	created   []*detection.CreateRequest
	principal *auth.Claims
	err       error
}

func (f *fakeDetections) Create(_ context.Context, principal *auth.Claims, req *detection.CreateRequest) (*models.Detection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, req)
	f.principal = principal
	return &models.Detection{
		ID:          "det-new",
		VenueID:     req.VenueID,
		FloorNumber: req.FloorNumber,
		ZoneID:      req.ZoneID,
		CameraID:    req.CameraID,
		Status:      models.DetectionPending,
	}, nil
}

func (f *fakeDetections) Update(_ context.Context, _ *auth.Claims, id string, req *detection.UpdateRequest) (*models.Detection, error) {
	if f.err != nil {
		return nil, f.err
	}
	d := &models.Detection{ID: id, Status: models.DetectionPending}
	if req.Status != nil {
		d.Status = *req.Status
	}
	return d, nil
}

// fakeStats stands in for the statistics service.
type fakeStats struct {
	mu       sync.Mutex
	lastDay  time.Time
	lastDays int
	start    *time.Time
	end      *time.Time
	err      error
}

func (f *fakeStats) ParseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", v)
	}
	return t, nil
}

func (f *fakeStats) CalculateDaily(_ context.Context, venueID string, date time.Time) (*models.Statistic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.lastDay = date
	return &models.Statistic{VenueID: venueID, Date: date}, nil
}

func (f *fakeStats) GetDaily(ctx context.Context, venueID string, date time.Time) (*models.Statistic, error) {
	return f.CalculateDaily(ctx, venueID, date)
}

func (f *fakeStats) Hourly(_ context.Context, _ string, date time.Time) (models.HourlyStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastDay = date
	return models.HourlyStats{}, f.err
}

func (f *fakeStats) Heatmap(_ context.Context, _ string, start, end *time.Time) ([]models.HeatmapCell, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.start, f.end = start, end
	if start == nil || end == nil {
		return nil, statistics.ErrRangeRequired
	}
	return []models.HeatmapCell{}, nil
}

func (f *fakeStats) Cameras(context.Context, string) ([]models.CameraPerformance, error) {
	return []models.CameraPerformance{}, f.err
}

func (f *fakeStats) Trends(_ context.Context, _ string, days int) ([]models.TrendPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastDays = days
	return []models.TrendPoint{}, f.err
}

func (f *fakeStats) Performance(context.Context, string) (*models.PerformanceSummary, error) {
	return &models.PerformanceSummary{}, f.err
}

// fakeAudit records events synchronously.
type fakeAudit struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (a *fakeAudit) Record(_ context.Context, e *models.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, *e)
}

func (a *fakeAudit) List(_ context.Context, f models.AuditFilter) ([]models.AuditEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.AuditEvent
	for _, e := range a.events {
		if f.Action == "" || e.Action == f.Action {
			out = append(out, e)
		}
	}
	return out, nil
}

func (a *fakeAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.events))
	for i, e := range a.events {
		out[i] = e.Action
	}
	return out
}
