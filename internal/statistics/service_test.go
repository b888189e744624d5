// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package statistics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/smokewatch/internal/cache"
	"github.com/tomtom215/smokewatch/internal/database"
	"github.com/tomtom215/smokewatch/internal/models"
)

// Wednesday 2026-03-18 14:30 UTC
var fixedNow = time.Date(2026, 3, 18, 14, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, store *fakeStore) (*Service, *cache.MemoryCache) {
	t.Helper()
	c := cache.NewMemory(time.Minute)
	t.Cleanup(func() { c.Close() })
	svc := NewService(store, c, time.Minute, time.UTC)
	svc.now = func() time.Time { return fixedNow }
	return svc, c
}

func TestCalculateDaily(t *testing.T) {
	store := newFakeStore("v1")
	store.daily = models.DailyMetrics{TotalDetections: 10, HandledDetections: 6, FalseAlarms: 2, AvgHandlingTime: 4.5, AvgConfidence: 0.8}
	store.hourly = models.HourlyStats{
		{Hour: 1, Count: 1}, {Hour: 8, Count: 3}, {Hour: 9, Count: 3},
		{Hour: 12, Count: 1}, {Hour: 13, Count: 1}, {Hour: 20, Count: 1},
	}
	store.cells = []models.HeatmapCell{{ZoneID: "z1", FloorNumber: "1", Count: 7, AvgConfidence: 0.9}}
	store.camStats = models.CameraStats{{CameraID: "c1", DetectionCount: 10, TruePositives: 6, FalsePositives: 2, AvgConfidence: 0.8, Uptime: 100}}
	store.response = models.ResponseTime{Min: 1, Max: 9, Avg: 4.5}
	store.health = models.SystemHealth{Uptime: 25, AvgCPUUsage: 40, AvgMemoryUsage: 55}

	day := time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)
	store.counts = func(from, to time.Time) int {
		require.Equal(t, day, to, "trend windows end at the start of the day")
		switch day.Sub(from) {
		case 24 * time.Hour:
			return 5
		case 7 * 24 * time.Hour:
			return 35
		case 30 * 24 * time.Hour:
			return 0
		default:
			return 730
		}
	}

	svc, _ := newTestService(t, store)
	st, err := svc.CalculateDaily(context.Background(), "v1", day.Add(15*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, day, st.Date)
	assert.Equal(t, 1, store.upserts)
	assert.NotEmpty(t, st.ID)

	// every daily aggregate covers [day, day+1)
	for _, w := range store.windows {
		if w.to.Equal(day) {
			continue
		}
		assert.Equal(t, day, w.from)
		assert.Equal(t, day.AddDate(0, 0, 1), w.to)
	}

	assert.Equal(t, store.daily, st.DailyMetrics)
	assert.Equal(t, models.ZoneStats{{ZoneID: "z1", FloorNumber: "1", DetectionCount: 7, AvgConfidence: 0.9}}, st.ZoneStats)
	assert.Equal(t, store.camStats, st.CameraStats)

	assert.Equal(t, models.PeakHours{
		{Hour: 8, Count: 3}, {Hour: 9, Count: 3}, {Hour: 1, Count: 1}, {Hour: 12, Count: 1}, {Hour: 13, Count: 1},
	}, st.PeakHours)

	require.NotNil(t, st.TrendData)
	assert.Equal(t, 5, st.TrendData.PreviousDay)
	assert.InDelta(t, 5.0, st.TrendData.WeeklyAverage, 1e-9)
	assert.InDelta(t, 0.0, st.TrendData.MonthlyAverage, 1e-9)
	assert.InDelta(t, 2.0, st.TrendData.YearlyAverage, 1e-9)
	assert.InDelta(t, 100.0, st.TrendData.PercentageChange.Daily, 1e-9)
	assert.InDelta(t, 100.0, st.TrendData.PercentageChange.Weekly, 1e-9)
	assert.InDelta(t, 0.0, st.TrendData.PercentageChange.Monthly, 1e-9, "zero base gives zero change")

	require.NotNil(t, st.PerformanceMetrics)
	assert.Equal(t, store.response, st.PerformanceMetrics.ResponseTime)
	assert.Equal(t, store.health, st.PerformanceMetrics.SystemHealth)
	acc := st.PerformanceMetrics.Accuracy
	assert.InDelta(t, 0.6, acc.TruePositiveRate, 1e-9)
	assert.InDelta(t, 0.2, acc.FalsePositiveRate, 1e-9)
	require.NotNil(t, acc.Precision)
	assert.InDelta(t, 0.75, *acc.Precision, 1e-9)
}

func TestCalculateDailyEmptyDay(t *testing.T) {
	store := newFakeStore("v1")
	svc, _ := newTestService(t, store)

	st, err := svc.CalculateDaily(context.Background(), "v1", fixedNow)
	require.NoError(t, err)

	assert.Zero(t, st.DailyMetrics.TotalDetections)
	assert.Empty(t, st.PeakHours)
	assert.Nil(t, st.PerformanceMetrics.Accuracy.Precision)
	assert.Zero(t, st.PerformanceMetrics.Accuracy.TruePositiveRate)
	assert.Zero(t, st.TrendData.PercentageChange.Daily)
}

func TestCalculateDailyUnknownVenue(t *testing.T) {
	svc, _ := newTestService(t, newFakeStore())
	_, err := svc.CalculateDaily(context.Background(), "nope", fixedNow)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestCalculateDailyStoreError(t *testing.T) {
	store := newFakeStore("v1")
	store.failDaily = true
	svc, _ := newTestService(t, store)

	_, err := svc.CalculateDaily(context.Background(), "v1", fixedNow)
	assert.ErrorIs(t, err, errStore)
	assert.Zero(t, store.upserts)
}

func TestCalculateDailyUsesServiceTimezone(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	store := newFakeStore("v1")
	svc := NewService(store, nil, 0, loc)

	// 22:00 UTC on the 17th is already the 18th at UTC+3
	st, err := svc.CalculateDaily(context.Background(), "v1", time.Date(2026, 3, 17, 22, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 18, 0, 0, 0, 0, loc), st.Date)
}

func TestGetDailyComputesWhenMissing(t *testing.T) {
	store := newFakeStore("v1")
	store.daily = models.DailyMetrics{TotalDetections: 4}
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	st, err := svc.GetDaily(ctx, "v1", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 4, st.DailyMetrics.TotalDetections)
	assert.Equal(t, 1, store.upserts)

	// second read is served from cache
	before := store.aggregates
	st2, err := svc.GetDaily(ctx, "v1", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, before, store.aggregates)
	assert.Equal(t, 1, store.upserts)
	assert.Equal(t, st.ID, st2.ID)
}

func TestGetDailyReturnsStoredRow(t *testing.T) {
	store := newFakeStore("v1")
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	store.stored["v1/2026-03-10"] = &models.Statistic{ID: "s1", VenueID: "v1", Date: day, DailyMetrics: models.DailyMetrics{TotalDetections: 9}}
	svc := NewService(store, nil, 0, time.UTC)

	st, err := svc.GetDaily(context.Background(), "v1", day)
	require.NoError(t, err)
	assert.Equal(t, "s1", st.ID)
	assert.Zero(t, store.upserts)
}

func TestInvalidateDropsVenueReads(t *testing.T) {
	store := newFakeStore("v1", "v2")
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.Hourly(ctx, "v1", fixedNow)
	require.NoError(t, err)
	_, err = svc.Hourly(ctx, "v2", fixedNow)
	require.NoError(t, err)

	svc.Invalidate(ctx, "v1")

	before := store.aggregates
	_, err = svc.Hourly(ctx, "v2", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, before, store.aggregates, "v2 still cached")

	_, err = svc.Hourly(ctx, "v1", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, before+1, store.aggregates, "v1 recomputed")
}

func TestParseDate(t *testing.T) {
	svc, _ := newTestService(t, newFakeStore())

	d, err := svc.ParseDate("2026-02-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = svc.ParseDate("")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC), d)

	_, err = svc.ParseDate("18/03/2026")
	assert.Error(t, err)
}

func TestPercentChange(t *testing.T) {
	assert.Zero(t, percentChange(5, 0))
	assert.InDelta(t, -50.0, percentChange(5, 10), 1e-9)
	assert.InDelta(t, 25.0, percentChange(5, 4), 1e-9)
}
