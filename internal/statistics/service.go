// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package statistics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/smokewatch/internal/cache"
	"github.com/tomtom215/smokewatch/internal/database"
	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/models"
)

const (
	peakHourCount = 5
	dateLayout    = "2006-01-02"

	// MaxTrendDays bounds the trends endpoint.
	MaxTrendDays = 365
)

var (
	ErrRangeRequired = errors.New("startDate and endDate are required")
	ErrInvalidRange  = errors.New("endDate must be after startDate")
	ErrInvalidDays   = fmt.Errorf("days must be between 1 and %d", MaxTrendDays)
)

// Store is the subset of the database the service reads and writes.
type Store interface {
	GetVenue(ctx context.Context, id string) (*models.Venue, error)
	ListCameras(ctx context.Context, f models.CameraFilter) ([]models.Camera, error)

	DailyDetectionMetrics(ctx context.Context, venueID string, from, to time.Time) (models.DailyMetrics, error)
	HourlyCounts(ctx context.Context, venueID string, from, to time.Time) (models.HourlyStats, error)
	ZoneHeatmap(ctx context.Context, venueID string, from, to time.Time) ([]models.HeatmapCell, error)
	CameraDetectionCounts(ctx context.Context, venueID string, from, to time.Time) (models.CameraStats, error)
	CountDetections(ctx context.Context, venueID string, from, to time.Time) (int, error)
	DailyTotals(ctx context.Context, venueID string, from, to time.Time) ([]models.TrendPoint, error)
	PerformanceWindow(ctx context.Context, venueID string, since time.Time) (models.PerformanceWindow, error)
	ResponseTimeStats(ctx context.Context, venueID string, from, to time.Time) (models.ResponseTime, error)
	SystemHealth(ctx context.Context, venueID string, from, to time.Time) (models.SystemHealth, error)

	UpsertStatistic(ctx context.Context, s *models.Statistic) error
	GetStatistic(ctx context.Context, venueID string, date time.Time) (*models.Statistic, error)
}

// Service computes and serves venue statistics.
type Service struct {
	store Store
	cache cache.Cache
	ttl   time.Duration
	loc   *time.Location
	now   func() time.Time
}

// NewService creates a Service. A nil cache disables read caching and a nil
// location means time.Local.
func NewService(store Store, c cache.Cache, ttl time.Duration, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		store: store,
		cache: c,
		ttl:   ttl,
		loc:   loc,
		now:   time.Now,
	}
}

// Location returns the timezone day boundaries are computed in.
func (s *Service) Location() *time.Location { return s.loc }

// ParseDate parses YYYY-MM-DD in the service timezone. An empty string is
// today.
func (s *Service) ParseDate(v string) (time.Time, error) {
	if v == "" {
		return s.startOfDay(s.now()), nil
	}
	t, err := time.ParseInLocation(dateLayout, v, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", v)
	}
	return t, nil
}

// CalculateDaily computes the statistics of one venue day and stores them,
// replacing any earlier row for the same date.
func (s *Service) CalculateDaily(ctx context.Context, venueID string, date time.Time) (*models.Statistic, error) {
	if _, err := s.store.GetVenue(ctx, venueID); err != nil {
		return nil, err
	}

	from := s.startOfDay(date)
	to := from.AddDate(0, 0, 1)

	daily, err := s.store.DailyDetectionMetrics(ctx, venueID, from, to)
	if err != nil {
		return nil, fmt.Errorf("daily metrics: %w", err)
	}
	hourly, err := s.store.HourlyCounts(ctx, venueID, from, to)
	if err != nil {
		return nil, fmt.Errorf("hourly counts: %w", err)
	}
	cells, err := s.store.ZoneHeatmap(ctx, venueID, from, to)
	if err != nil {
		return nil, fmt.Errorf("zone heatmap: %w", err)
	}
	cameras, err := s.store.CameraDetectionCounts(ctx, venueID, from, to)
	if err != nil {
		return nil, fmt.Errorf("camera counts: %w", err)
	}
	trend, err := s.trendData(ctx, venueID, from, daily.TotalDetections)
	if err != nil {
		return nil, err
	}
	perf, err := s.performanceMetrics(ctx, venueID, from, to, daily)
	if err != nil {
		return nil, err
	}

	stat := &models.Statistic{
		VenueID:            venueID,
		Date:               from,
		HourlyStats:        hourly,
		ZoneStats:          zoneStats(cells),
		CameraStats:        cameras,
		DailyMetrics:       daily,
		PeakHours:          peakHours(hourly, peakHourCount),
		TrendData:          trend,
		PerformanceMetrics: perf,
	}
	if err := s.store.UpsertStatistic(ctx, stat); err != nil {
		return nil, fmt.Errorf("store statistics: %w", err)
	}

	s.Invalidate(ctx, venueID)

	logging.Debug().
		Str("venue_id", venueID).
		Str("date", from.Format(dateLayout)).
		Int("total", daily.TotalDetections).
		Msg("Daily statistics calculated")
	return stat, nil
}

// trendData compares the day with the previous day and the 7, 30 and 365
// days before it.
func (s *Service) trendData(ctx context.Context, venueID string, dayStart time.Time, total int) (*models.TrendData, error) {
	prev, err := s.store.CountDetections(ctx, venueID, dayStart.AddDate(0, 0, -1), dayStart)
	if err != nil {
		return nil, fmt.Errorf("previous day count: %w", err)
	}

	avg := func(days int) (float64, error) {
		n, err := s.store.CountDetections(ctx, venueID, dayStart.AddDate(0, 0, -days), dayStart)
		if err != nil {
			return 0, fmt.Errorf("%d day average: %w", days, err)
		}
		return float64(n) / float64(days), nil
	}

	weekly, err := avg(7)
	if err != nil {
		return nil, err
	}
	monthly, err := avg(30)
	if err != nil {
		return nil, err
	}
	yearly, err := avg(365)
	if err != nil {
		return nil, err
	}

	return &models.TrendData{
		PreviousDay:    prev,
		WeeklyAverage:  weekly,
		MonthlyAverage: monthly,
		YearlyAverage:  yearly,
		PercentageChange: models.PercentageChange{
			Daily:   percentChange(float64(total), float64(prev)),
			Weekly:  percentChange(float64(total), weekly),
			Monthly: percentChange(float64(total), monthly),
		},
	}, nil
}

func (s *Service) performanceMetrics(ctx context.Context, venueID string, from, to time.Time, daily models.DailyMetrics) (*models.PerformanceMetrics, error) {
	rt, err := s.store.ResponseTimeStats(ctx, venueID, from, to)
	if err != nil {
		return nil, fmt.Errorf("response times: %w", err)
	}
	health, err := s.store.SystemHealth(ctx, venueID, from, to)
	if err != nil {
		return nil, fmt.Errorf("system health: %w", err)
	}
	return &models.PerformanceMetrics{
		ResponseTime: rt,
		Accuracy:     accuracy(daily),
		SystemHealth: health,
	}, nil
}

// GetDaily returns the stored statistics of a day, computing them first
// when the day has not been calculated yet.
func (s *Service) GetDaily(ctx context.Context, venueID string, date time.Time) (*models.Statistic, error) {
	day := s.startOfDay(date)
	key := cache.Key(venuePrefix(venueID), "daily", day.Format(dateLayout))

	var out models.Statistic
	if s.cached(ctx, key, &out) {
		return &out, nil
	}

	stat, err := s.store.GetStatistic(ctx, venueID, day)
	if errors.Is(err, database.ErrNotFound) {
		stat, err = s.CalculateDaily(ctx, venueID, day)
	}
	if err != nil {
		return nil, err
	}

	s.remember(ctx, key, stat)
	return stat, nil
}

// Invalidate drops every cached read of the venue.
func (s *Service) Invalidate(ctx context.Context, venueID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, venuePrefix(venueID)+":"); err != nil {
		logging.Warn().Err(err).Str("venue_id", venueID).Msg("Statistics cache invalidation failed")
	}
}

func (s *Service) startOfDay(t time.Time) time.Time {
	t = t.In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}

func venuePrefix(venueID string) string {
	return cache.Key("stats", venueID)
}

// cached reads key into dest. Cache errors count as misses.
func (s *Service) cached(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Statistics cache read failed")
		return false
	}
	return ok
}

func (s *Service) remember(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Statistics cache write failed")
	}
}

func zoneStats(cells []models.HeatmapCell) models.ZoneStats {
	out := make(models.ZoneStats, 0, len(cells))
	for _, c := range cells {
		out = append(out, models.ZoneStat{
			ZoneID:         c.ZoneID,
			FloorNumber:    c.FloorNumber,
			DetectionCount: c.Count,
			AvgConfidence:  c.AvgConfidence,
		})
	}
	return out
}

// peakHours returns the n busiest hours, earliest first among ties.
func peakHours(hourly models.HourlyStats, n int) models.PeakHours {
	sorted := make([]models.HourlyStat, len(hourly))
	copy(sorted, hourly)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Hour < sorted[j].Hour
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}

	out := make(models.PeakHours, 0, len(sorted))
	for _, h := range sorted {
		out = append(out, models.PeakHour{Hour: h.Hour, Count: h.Count})
	}
	return out
}

func accuracy(d models.DailyMetrics) models.Accuracy {
	var a models.Accuracy
	if d.TotalDetections > 0 {
		a.TruePositiveRate = float64(d.HandledDetections) / float64(d.TotalDetections)
		a.FalsePositiveRate = float64(d.FalseAlarms) / float64(d.TotalDetections)
	}
	if resolved := d.HandledDetections + d.FalseAlarms; resolved > 0 {
		p := float64(d.HandledDetections) / float64(resolved)
		a.Precision = &p
	}
	return a
}

// percentChange is zero when the base is zero.
func percentChange(current, base float64) float64 {
	if base == 0 {
		return 0
	}
	return (current - base) / base * 100
}
