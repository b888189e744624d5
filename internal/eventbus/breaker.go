// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package eventbus

import (
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/metrics"
)

// BreakerConfig configures a circuit breaker.
type BreakerConfig struct {
	Name string
	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold uint32
	// OpenPeriod is how long the breaker stays open before a half-open probe.
	OpenPeriod time.Duration
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
}

// DefaultBreakerConfig returns production defaults for name.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		OpenPeriod:       30 * time.Second,
		MaxRequests:      1,
	}
}

// Breaker is the breaker type shared by the publisher and notifiers.
type Breaker = gobreaker.CircuitBreaker[interface{}]

// NewCircuitBreaker creates a breaker that logs and exports its state
// transitions.
func NewCircuitBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	threshold := cfg.FailureThreshold

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.OpenPeriod,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
			metrics.RecordBreakerTransition(name, from.String(), to.String(), stateValue(to))
		},
	}
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	return gobreaker.NewCircuitBreaker[interface{}](settings)
}

// stateValue maps to the circuit_breaker_state gauge encoding.
func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// IsOpen reports whether cb is rejecting calls.
func IsOpen(cb *Breaker) bool {
	return cb != nil && cb.State() == gobreaker.StateOpen
}
