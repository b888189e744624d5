// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/tomtom215/smokewatch/internal/logging"
)

const readinessTimeout = 3 * time.Second

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status  string  `json:"status"`
	Version string  `json:"version"`
	Uptime  float64 `json:"uptime"`
}

// ReadinessStatus is the body of GET /health/ready.
type ReadinessStatus struct {
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks"`
	Host   *HostStatus       `json:"host,omitempty"`
	Uptime float64           `json:"uptime"`
}

// HostStatus reports resource usage of the host the server runs on.
type HostStatus struct {
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryPercent float64 `json:"memoryPercent"`
	MemoryUsedMB  uint64  `json:"memoryUsedMb"`
	MemoryTotalMB uint64  `json:"memoryTotalMb"`
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, HealthStatus{
		Status:  "ok",
		Version: h.version,
		Uptime:  time.Since(h.startTime).Seconds(),
	})
}

// HealthLive handles liveness probe requests (Kubernetes-style)
// Returns 200 OK if the process is alive, regardless of dependencies
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style)
// Returns 200 OK only if every dependency check passes, 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := ReadinessStatus{
		Ready:  true,
		Checks: make(map[string]string, len(h.checks)),
		Uptime: time.Since(h.startTime).Seconds(),
	}
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			status.Ready = false
			status.Checks[c.Name] = err.Error()
			logging.Ctx(ctx).Warn().Err(err).Str("check", c.Name).Msg("Readiness check failed")
			continue
		}
		status.Checks[c.Name] = "ok"
	}
	status.Host = hostStatus(ctx)

	if !status.Ready {
		rw := NewResponseWriter(w, r)
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "service is not ready",
			map[string]interface{}{"checks": status.Checks})
		return
	}
	WriteSuccess(w, r, status)
}

// hostStatus returns nil when the host metrics cannot be read, which
// happens in some containers.
func hostStatus(ctx context.Context) *HostStatus {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Host memory unavailable")
		return nil
	}
	out := &HostStatus{
		MemoryPercent: vm.UsedPercent,
		MemoryUsedMB:  vm.Used / (1 << 20),
		MemoryTotalMB: vm.Total / (1 << 20),
	}
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		out.CPUPercent = pct[0]
	}
	return out
}
