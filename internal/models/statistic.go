// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package models

import (
	"database/sql/driver"
	"time"
)

// Statistic is the materialised daily aggregate for one venue. There is at
// most one row per (venue, date). Durations are in minutes.
type Statistic struct {
	ID                 string              `db:"id" json:"id"`
	VenueID            string              `db:"venue_id" json:"venueId"`
	Date               time.Time           `db:"date" json:"date"`
	HourlyStats        HourlyStats         `db:"hourly_stats" json:"hourlyStats"`
	ZoneStats          ZoneStats           `db:"zone_stats" json:"zoneStats"`
	CameraStats        CameraStats         `db:"camera_stats" json:"cameraStats"`
	DailyMetrics       DailyMetrics        `db:"daily_metrics" json:"dailyMetrics"`
	PeakHours          PeakHours           `db:"peak_hours" json:"peakHours"`
	TrendData          *TrendData          `db:"trend_data" json:"trendData,omitempty"`
	PerformanceMetrics *PerformanceMetrics `db:"performance_metrics" json:"performanceMetrics,omitempty"`
	CreatedAt          time.Time           `db:"created_at" json:"createdAt"`
	LastUpdatedAt      *time.Time          `db:"last_updated_at" json:"lastUpdatedAt,omitempty"`
}

type HourlyStat struct {
	Hour            int      `db:"hour" json:"hour"`
	Count           int      `db:"count" json:"count"`
	AvgResponseTime *float64 `db:"avg_response_time" json:"avgResponseTime,omitempty"`
}

type HourlyStats []HourlyStat

func (h HourlyStats) Value() (driver.Value, error) { return jsonValue(nonNil(h)) }
func (h *HourlyStats) Scan(src interface{}) error { return scanJSON(src, (*[]HourlyStat)(h)) }

type ZoneStat struct {
	ZoneID         string  `db:"zone_id" json:"zoneId"`
	FloorNumber    string  `db:"floor_number" json:"floorNumber"`
	DetectionCount int     `db:"detection_count" json:"detectionCount"`
	AvgConfidence  float64 `db:"avg_confidence" json:"avgConfidence"`
}

type ZoneStats []ZoneStat

func (z ZoneStats) Value() (driver.Value, error) { return jsonValue(nonNil(z)) }
func (z *ZoneStats) Scan(src interface{}) error { return scanJSON(src, (*[]ZoneStat)(z)) }

type CameraStat struct {
	CameraID       string  `db:"camera_id" json:"cameraId"`
	DetectionCount int     `db:"detection_count" json:"detectionCount"`
	TruePositives  int     `db:"true_positives" json:"truePositives"`
	FalsePositives int     `db:"false_positives" json:"falsePositives"`
	AvgConfidence  float64 `db:"avg_confidence" json:"avgConfidence"`
	Uptime         float64 `db:"uptime" json:"uptime"`
}

type CameraStats []CameraStat

func (c CameraStats) Value() (driver.Value, error) { return jsonValue(nonNil(c)) }
func (c *CameraStats) Scan(src interface{}) error { return scanJSON(src, (*[]CameraStat)(c)) }

type DailyMetrics struct {
	TotalDetections   int     `db:"total" json:"totalDetections"`
	HandledDetections int     `db:"handled" json:"handledDetections"`
	FalseAlarms       int     `db:"false_alarms" json:"falseAlarms"`
	AvgHandlingTime   float64 `db:"avg_handling_time" json:"avgHandlingTime"`
	AvgConfidence     float64 `db:"avg_confidence" json:"avgConfidence"`
}

func (d DailyMetrics) Value() (driver.Value, error) { return jsonValue(d) }
func (d *DailyMetrics) Scan(src interface{}) error { return scanJSON(src, d) }

type PeakHour struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type PeakHours []PeakHour

func (p PeakHours) Value() (driver.Value, error) { return jsonValue(nonNil(p)) }
func (p *PeakHours) Scan(src interface{}) error { return scanJSON(src, (*[]PeakHour)(p)) }

type TrendData struct {
	PreviousDay      int              `json:"previousDay"`
	WeeklyAverage    float64          `json:"weeklyAverage"`
	MonthlyAverage   float64          `json:"monthlyAverage"`
	YearlyAverage    float64          `json:"yearlyAverage"`
	PercentageChange PercentageChange `json:"percentageChange"`
}

type PercentageChange struct {
	Daily   float64 `json:"daily"`
	Weekly  float64 `json:"weekly"`
	Monthly float64 `json:"monthly"`
}

func (t TrendData) Value() (driver.Value, error) { return jsonValue(t) }
func (t *TrendData) Scan(src interface{}) error { return scanJSON(src, t) }

type PerformanceMetrics struct {
	ResponseTime ResponseTime `json:"responseTime"`
	Accuracy     Accuracy     `json:"accuracy"`
	SystemHealth SystemHealth `json:"systemHealth"`
}

type ResponseTime struct {
	Min float64 `db:"min" json:"min"`
	Max float64 `db:"max" json:"max"`
	Avg float64 `db:"avg" json:"avg"`
}

// Accuracy.Precision is nil when there are no resolved detections.
type Accuracy struct {
	TruePositiveRate  float64  `json:"truePositiveRate"`
	FalsePositiveRate float64  `json:"falsePositiveRate"`
	Precision         *float64 `json:"precision"`
}

type SystemHealth struct {
	Uptime         float64 `json:"uptime"`
	AvgCPUUsage    float64 `json:"avgCpuUsage"`
	AvgMemoryUsage float64 `json:"avgMemoryUsage"`
}

func (p PerformanceMetrics) Value() (driver.Value, error) { return jsonValue(p) }
func (p *PerformanceMetrics) Scan(src interface{}) error { return scanJSON(src, p) }

// HeatmapCell is one zone in the detection heatmap.
type HeatmapCell struct {
	ZoneID        string  `db:"zone_id" json:"zoneId"`
	FloorNumber   string  `db:"floor_number" json:"floorNumber"`
	Count         int     `db:"count" json:"count"`
	AvgConfidence float64 `db:"avg_confidence" json:"avgConfidence"`
}

// CameraPerformance is one row of the camera statistics endpoint.
type CameraPerformance struct {
	CameraID          string       `json:"cameraId"`
	Name              string       `json:"name"`
	FloorNumber       string       `json:"floorNumber"`
	ZoneID            string       `json:"zoneId"`
	Status            CameraStatus `json:"status"`
	LastDayDetections int          `json:"lastDayDetections"`
	Uptime            float64      `json:"uptime"`
}

// TrendPoint is one day of the trends endpoint.
type TrendPoint struct {
	Date            string  `db:"date" json:"date"`
	Total           int     `db:"total" json:"total"`
	Handled         int     `db:"handled" json:"handled"`
	FalseAlarms     int     `db:"false_alarms" json:"falseAlarms"`
	AvgHandlingTime float64 `db:"avg_handling_time" json:"avgHandlingTime"`
}

// PerformanceWindow summarises one reporting window.
type PerformanceWindow struct {
	Total           int     `db:"total" json:"total"`
	AvgResponseTime float64 `db:"avg_response_time" json:"avgResponseTime"`
	FalseAlarmRate  float64 `db:"false_alarm_rate" json:"falseAlarmRate"`
}

// PerformanceSummary is the response of the performance endpoint.
type PerformanceSummary struct {
	Today     PerformanceWindow `json:"today"`
	ThisWeek  PerformanceWindow `json:"thisWeek"`
	ThisMonth PerformanceWindow `json:"thisMonth"`
}

// nonNil keeps empty aggregates serialised as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
