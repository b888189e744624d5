// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package api

import (
	"net/http"

	"github.com/tomtom215/smokewatch/internal/auth"
	"github.com/tomtom215/smokewatch/internal/authz"
	"github.com/tomtom215/smokewatch/internal/config"
)

// Router sets up HTTP routes using the Chi router.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	authz         *authz.Middleware
	chiMiddleware *ChiMiddleware

	// loginLimiter counts login attempts per client IP in addition to the
	// httprate group limit.
	loginLimiter *auth.RateLimiter

	websocket        http.Handler
	enableTestRoutes bool

	bodyLimit          int64
	detectionBodyLimit int64
}

// Request body caps used when RouterDeps.API leaves them unset.
const (
	DefaultMaxBodyBytes          int64 = 1 << 20
	DefaultMaxDetectionBodyBytes int64 = 16 << 20
)

// RouterDeps holds the router dependencies. WebSocket may be nil.
type RouterDeps struct {
	Handler   *Handler
	Auth      *auth.Middleware
	Authz     *authz.Middleware
	WebSocket http.Handler
	Security  *config.SecurityConfig
	API       *config.APIConfig
}

// NewRouter creates a Router from the security settings.
func NewRouter(d RouterDeps) *Router {
	sec := d.Security
	if sec == nil {
		sec = &config.SecurityConfig{}
	}

	router := &Router{
		handler:          d.Handler,
		auth:             d.Auth,
		authz:            d.Authz,
		websocket:        d.WebSocket,
		enableTestRoutes: sec.EnableTestRoutes,
		chiMiddleware: NewChiMiddlewareFromSecurity(
			sec.CORSOrigins,
			sec.RateLimitReqs,
			sec.RateLimitWindow,
			sec.RateLimitDisabled,
		),
	}
	router.bodyLimit, router.detectionBodyLimit = DefaultMaxBodyBytes, DefaultMaxDetectionBodyBytes
	if d.API != nil {
		if d.API.MaxBodyBytes > 0 {
			router.bodyLimit = d.API.MaxBodyBytes
		}
		if d.API.MaxDetectionBodyBytes > 0 {
			router.detectionBodyLimit = d.API.MaxDetectionBodyBytes
		}
	}
	if !sec.RateLimitDisabled {
		router.loginLimiter = auth.NewRateLimiter(RateLimitLogin.Requests, RateLimitLogin.Window)
	}
	return router
}

// Close stops the background cleanup of the login limiter.
func (router *Router) Close() error {
	if router.loginLimiter != nil {
		router.loginLimiter.Stop()
	}
	return nil
}
