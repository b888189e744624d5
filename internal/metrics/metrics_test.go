// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordDBQuery_ErrorTruncation verifies error labels are capped at 50 chars
func TestRecordDBQuery_ErrorTruncation(t *testing.T) {
	long := strings.Repeat("c", 100)
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("select", "trunc_test", long[:50]))

	RecordDBQuery("select", "trunc_test", time.Millisecond, errors.New(long))

	after := testutil.ToFloat64(DBQueryErrors.WithLabelValues("select", "trunc_test", long[:50]))
	if after-before != 1 {
		t.Errorf("truncated error label incremented by %v, want 1", after-before)
	}
}

func TestRecordDBQuery_NoErrorNoCounter(t *testing.T) {
	RecordDBQuery("insert", "ok_test", time.Millisecond, nil)
	if v := testutil.ToFloat64(DBQueryErrors.WithLabelValues("insert", "ok_test", "")); v != 0 {
		t.Errorf("error counter = %v for successful query", v)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/venues", "200"))
	RecordAPIRequest("GET", "/api/v1/venues", "200", 25*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/venues", "200"))
	if after-before != 1 {
		t.Errorf("api_requests_total delta = %v", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active requests = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active requests = %v, want %v", got, before)
	}
}

func TestRecordConsumeAndPublish(t *testing.T) {
	RecordPublish("detections.created", "fallback")
	if v := testutil.ToFloat64(EventsPublished.WithLabelValues("detections.created", "fallback")); v < 1 {
		t.Error("publish fallback not counted")
	}

	before := testutil.ToFloat64(EventsConsumed.WithLabelValues("statistics.updated", "error"))
	RecordConsume("statistics.updated", errors.New("boom"))
	if v := testutil.ToFloat64(EventsConsumed.WithLabelValues("statistics.updated", "error")); v != before+1 {
		t.Errorf("consume error delta = %v", v-before)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(CacheHits.WithLabelValues("stats_test"))
	misses := testutil.ToFloat64(CacheMisses.WithLabelValues("stats_test"))

	RecordCacheLookup("stats_test", true)
	RecordCacheLookup("stats_test", false)
	RecordCacheLookup("stats_test", false)

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("stats_test")) - hits; got != 1 {
		t.Errorf("hits delta = %v", got)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("stats_test")) - misses; got != 2 {
		t.Errorf("misses delta = %v", got)
	}
}

func TestRecordBreakerTransition(t *testing.T) {
	RecordBreakerTransition("webhook_test", "closed", "open", 2)
	if v := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("webhook_test")); v != 2 {
		t.Errorf("breaker state = %v, want 2", v)
	}
}

func TestRecordStatisticsRun(t *testing.T) {
	before := testutil.ToFloat64(StatisticsRuns.WithLabelValues("error"))
	RecordStatisticsRun(time.Second, errors.New("db down"))
	if v := testutil.ToFloat64(StatisticsRuns.WithLabelValues("error")); v != before+1 {
		t.Errorf("statistics error runs delta = %v", v-before)
	}
}

func TestTrackUptime(t *testing.T) {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		TrackUptime(time.Now().Add(-time.Minute), time.Millisecond, stop)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	close(stop)
	<-done

	if v := testutil.ToFloat64(AppUptime); v < 60 {
		t.Errorf("uptime = %v, want >= 60", v)
	}
}
