// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/smokewatch/internal/auth"
	"github.com/tomtom215/smokewatch/internal/middleware"
	"github.com/tomtom215/smokewatch/internal/models"
)

var userRoles = []models.Role{models.RoleSystemAdmin, models.RoleVenueAdmin, models.RoleSecurityStaff}

// SetupChi configures all HTTP routes using Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimiddleware.Compress(5, "application/json"))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).Error(http.StatusNotFound, ErrCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).Error(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.Handle("/metrics", promhttp.Handler())

	// ========================
	// Health Endpoints
	// ========================
	health := func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	}
	r.Route("/health", health)
	r.Route("/api/v1/health", health)

	r.Route("/api/v1", func(r chi.Router) {
		router.registerAuthRoutes(r)

		// ========================
		// Detection ingest
		// ========================
		// Camera agents post at a higher rate than people click.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitIngest())
			r.Use(middleware.MaxBodySize(router.detectionBodyLimit))
			r.Use(router.auth.Authenticate)
			r.Use(router.authz.AuthorizeRequest)
			r.Post("/detections", router.handler.CreateDetection)
		})

		// ========================
		// Resource Endpoints
		// ========================
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(middleware.MaxBodySize(router.bodyLimit))
			r.Use(router.auth.Authenticate)
			r.Use(router.authz.AuthorizeRequest)

			router.registerVenueRoutes(r)
			router.registerCameraRoutes(r)
			router.registerDetectionRoutes(r)
			router.registerAssignmentRoutes(r)
			router.registerStatisticsRoutes(r)
			r.Get("/audit", router.handler.ListAuditEvents)
		})

		if router.websocket != nil {
			r.With(router.chiMiddleware.RateLimitWebSocket()).Handle("/ws", router.websocket)
		}
	})

	if router.enableTestRoutes {
		router.registerTestRoutes(r)
	}

	return r
}

func (router *Router) registerAuthRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAuth())
		r.Use(middleware.MaxBodySize(router.bodyLimit))

		login := r.With(router.chiMiddleware.RateLimitLogin())
		if router.loginLimiter != nil {
			login = login.With(router.loginLimiter.Middleware)
		}
		login.Post("/login", router.handler.Login)
		r.Post("/register", router.handler.Register)
		r.Post("/refresh", router.handler.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(router.auth.Authenticate)
			r.Use(auth.RequireRole(userRoles...))
			r.Post("/logout", router.handler.Logout)
			r.Post("/change-password", router.handler.ChangePassword)
			r.Get("/me", router.handler.Me)
		})
	})
}

func (router *Router) registerVenueRoutes(r chi.Router) {
	r.Route("/venues", func(r chi.Router) {
		r.Get("/", router.handler.ListVenues)
		r.Post("/", router.handler.CreateVenue)
		r.Get("/{id}", router.handler.GetVenue)
		r.Put("/{id}", router.handler.UpdateVenue)
		r.Delete("/{id}", router.handler.DeleteVenue)
	})
}

func (router *Router) registerCameraRoutes(r chi.Router) {
	r.Route("/cameras", func(r chi.Router) {
		r.Get("/", router.handler.ListCameras)
		r.Post("/", router.handler.CreateCamera)
		r.Get("/{id}", router.handler.GetCamera)
		r.Put("/{id}", router.handler.UpdateCamera)
		r.Delete("/{id}", router.handler.DeleteCamera)
		r.Patch("/{id}/status", router.handler.UpdateCameraStatus)
		r.Patch("/{id}/statistics", router.handler.UpdateCameraStatistics)
	})
}

func (router *Router) registerDetectionRoutes(r chi.Router) {
	r.Get("/detections", router.handler.ListDetections)
	r.Get("/detections/statistics", router.handler.DetectionStatistics)
	r.Get("/detections/{id}", router.handler.GetDetection)
	r.Put("/detections/{id}", router.handler.UpdateDetection)
}

func (router *Router) registerAssignmentRoutes(r chi.Router) {
	r.Route("/zone-assignments", func(r chi.Router) {
		r.Get("/", router.handler.ListAssignments)
		r.Post("/", router.handler.CreateAssignment)
		r.Get("/{id}", router.handler.GetAssignment)
		r.Put("/{id}", router.handler.UpdateAssignment)
	})
}

func (router *Router) registerStatisticsRoutes(r chi.Router) {
	r.Route("/statistics/venues/{venueId}", func(r chi.Router) {
		r.Post("/daily", router.handler.CalculateDailyStatistics)
		r.Get("/daily", router.handler.GetDailyStatistics)
		r.Get("/daily/{date}", router.handler.GetDailyStatistics)
		r.Get("/hourly", router.handler.HourlyStatistics)
		r.Get("/heatmap", router.handler.HeatmapStatistics)
		r.Get("/cameras", router.handler.CameraStatistics)
		r.Get("/trends", router.handler.TrendStatistics)
		r.Get("/performance", router.handler.PerformanceStatistics)
	})
}

func (router *Router) registerTestRoutes(r chi.Router) {
	r.Route("/api/test", func(r chi.Router) {
		r.Get("/public", router.handler.TestPublic)
		r.With(router.auth.Authenticate).Get("/protected", router.handler.TestProtected)
		r.With(router.auth.Authenticate, auth.RequireRole(models.RoleSystemAdmin)).Get("/admin", router.handler.TestAdmin)
	})
}
