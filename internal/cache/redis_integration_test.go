// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/smokewatch/internal/config"
	"github.com/tomtom215/smokewatch/internal/testinfra"
)

func TestRedisCache(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	rc, err := testinfra.NewRedisContainer(ctx)
	require.NoError(t, err)
	defer testinfra.CleanupContainer(t, ctx, rc)

	c, err := New(ctx, config.CacheConfig{Backend: BackendRedis, RedisURL: rc.URL, TTL: time.Minute})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "stats:v1:daily", sample{Name: "x", Count: 2}, 0))

	var got sample
	ok, err := c.Get(ctx, "stats:v1:daily", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, got.Count)

	ok, err = c.Get(ctx, "stats:v1:missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	// more keys than one SCAN batch
	for i := 0; i < 450; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("stats:v1:h:%d", i), i, 0))
	}
	require.NoError(t, c.Set(ctx, "stats:v2:daily", 1, 0))

	require.NoError(t, c.DeletePrefix(ctx, "stats:v1:"))

	var n int
	ok, _ = c.Get(ctx, "stats:v1:h:17", &n)
	assert.False(t, ok)
	ok, _ = c.Get(ctx, "stats:v1:daily", &got)
	assert.False(t, ok)
	ok, _ = c.Get(ctx, "stats:v2:daily", &n)
	assert.True(t, ok)

	require.NoError(t, c.Set(ctx, "short", 1, time.Second))
	time.Sleep(1500 * time.Millisecond)
	ok, _ = c.Get(ctx, "short", &n)
	assert.False(t, ok)
}

func TestRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedis(ctx, "redis://127.0.0.1:1/0", time.Minute)
	assert.Error(t, err)
}
