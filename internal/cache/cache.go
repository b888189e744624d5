// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/smokewatch/internal/config"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"

	defaultTTL = time.Minute
)

// Cache is implemented by every cache backend.
type Cache interface {
	// Get decodes the value stored under key into dest. It reports false
	// when the key is absent or expired.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores value under key. A ttl of zero uses the backend default.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// New creates the backend selected by cfg. The redis backend is pinged
// before it is returned.
func New(ctx context.Context, cfg config.CacheConfig) (Cache, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	switch strings.ToLower(cfg.Backend) {
	case "", BackendMemory:
		return NewMemory(ttl), nil
	case BackendRedis:
		return NewRedis(ctx, cfg.RedisURL, ttl)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Key joins parts into a colon separated cache key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// GenerateKey creates a compact key from a method name and arbitrary
// parameters.
func GenerateKey(method string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", method, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", method, hash[:16])
}
