// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/smokewatch/internal/api"
	"github.com/tomtom215/smokewatch/internal/audit"
	"github.com/tomtom215/smokewatch/internal/auth"
	"github.com/tomtom215/smokewatch/internal/authz"
	"github.com/tomtom215/smokewatch/internal/cache"
	"github.com/tomtom215/smokewatch/internal/config"
	"github.com/tomtom215/smokewatch/internal/database"
	"github.com/tomtom215/smokewatch/internal/detection"
	"github.com/tomtom215/smokewatch/internal/eventbus"
	"github.com/tomtom215/smokewatch/internal/ingest"
	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/metrics"
	"github.com/tomtom215/smokewatch/internal/statistics"
	"github.com/tomtom215/smokewatch/internal/supervisor"
	"github.com/tomtom215/smokewatch/internal/supervisor/services"
	ws "github.com/tomtom215/smokewatch/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // sequential wiring
func main() {
	startTime := time.Now()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("events_backend", cfg.Events.Backend).
		Str("cache_backend", cfg.Cache.Backend).
		Msg("Starting smokewatch")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ========================
	// Data
	// ========================
	loc, err := time.LoadLocation(cfg.Statistics.Timezone)
	if err != nil {
		logging.Fatal().Err(err).Str("timezone", cfg.Statistics.Timezone).Msg("Invalid statistics timezone")
	}
	if cfg.Database.TimeZone == "" {
		cfg.Database.TimeZone = database.ZoneName(loc)
	}
	logging.Info().Str("timezone", cfg.Database.TimeZone).Msg("Statistics time zone")

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database.DSN()); err != nil {
			logging.Fatal().Err(err).Msg("Failed to apply database migrations")
		}
		logging.Info().Msg("Database migrations applied")
	}

	db, err := database.New(ctx, &cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if err := bootstrapAdmin(ctx, db, &cfg.Security); err != nil {
		logging.Fatal().Err(err).Msg("Failed to bootstrap system administrator")
	}

	statsCache, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize statistics cache")
	}
	defer func() {
		if err := statsCache.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing cache")
		}
	}()

	auditLogger := audit.NewLogger(db, nil)
	defer func() {
		if err := auditLogger.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing audit logger")
		}
	}()

	// ========================
	// Messaging
	// ========================
	bus, err := eventbus.New(cfg.Events, logging.NewWatermillLogger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event bus")
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	hub := ws.NewHub()

	statsService := statistics.NewService(db, statsCache, cfg.Cache.TTL, loc)

	engine := newNotificationEngine(db, cfg)
	fanout := detection.NewFanout(db, hub, engine, statsService)
	detections := detection.NewService(db, bus.Publisher(), fanout)

	router := eventbus.NewRouter(bus, eventbus.RouterConfigFrom(cfg.Events))
	fanout.Register(router)

	// ========================
	// API
	// ========================
	tokens, err := auth.NewTokenManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize token manager")
	}

	enforcerCfg := authz.DefaultEnforcerConfig()
	if cfg.Security.AuthzCacheTTL > 0 {
		enforcerCfg.CacheTTL = cfg.Security.AuthzCacheTTL
	}
	enforcer, err := authz.NewEnforcer(enforcerCfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization")
	}
	defer enforcer.Close()

	handler := api.NewHandler(api.Deps{
		Store:      db,
		Detections: detections,
		Statistics: statsService,
		Audit:      auditLogger,
		Tokens:     tokens,
		Config:     cfg,
		Version:    version,
		Checks: []api.HealthCheck{
			{Name: "database", Check: db.Ping},
			{Name: "cache", Check: statsCache.Ping},
			{Name: "events", Check: func(context.Context) error { return bus.Health() }},
		},
	})

	apiRouter := api.NewRouter(api.RouterDeps{
		Handler:   handler,
		Auth:      auth.NewMiddleware(tokens, cfg.Security.IngestAPIKeys),
		Authz:     authz.NewMiddleware(enforcer),
		WebSocket: ws.NewHandler(hub, tokens, cfg.Security.CORSOrigins),
		Security:  &cfg.Security,
		API:       &cfg.API,
	})
	defer func() { _ = apiRouter.Close() }()

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (SECURITY_RATE_LIMIT_DISABLED=true)")
	}
	if cfg.Security.EnableTestRoutes {
		logging.Warn().Msg("Test routes are enabled under /api/test")
	}
	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin; set SECURITY_CORS_ORIGINS in production")
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           apiRouter.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	// ========================
	// Supervision
	// ========================
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Statistics.SchedulerEnabled {
		scheduler, err := statistics.NewScheduler(statsService, db, hub, bus.Publisher(), cfg.Statistics.Schedule)
		if err != nil {
			logging.Fatal().Err(err).Str("schedule", cfg.Statistics.Schedule).Msg("Invalid statistics schedule")
		}
		tree.AddDataService(scheduler)
	}

	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(services.Named("event-router", router))
	tree.AddMessagingService(services.NewNotificationEngineService(engine))
	if cfg.Ingest.MQTT.Enabled {
		tree.AddMessagingService(ingest.NewSubscriber(cfg.Ingest.MQTT, detections))
		logging.Info().Str("broker", cfg.Ingest.MQTT.Broker).Msg("MQTT detection ingest enabled")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	metrics.SetAppInfo(version)
	stopUptime := make(chan struct{})
	go metrics.TrackUptime(startTime, 15*time.Second, stopUptime)
	defer close(stopUptime)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Smokewatch stopped")
}

// newNotificationEngine builds the external notification engine and
// registers the configured notifiers. Push delivery over WebSocket happens
// in the fan-out and does not go through the engine.
func newNotificationEngine(db *database.DB, cfg *config.Config) *detection.Engine {
	engineCfg := detection.DefaultEngineConfig()
	if cfg.Notifications.MaxElapsed > 0 {
		engineCfg.MaxElapsed = cfg.Notifications.MaxElapsed
	}
	engineCfg.BreakerThreshold = cfg.Events.BreakerThreshold
	engineCfg.BreakerOpenPeriod = cfg.Events.BreakerOpenPeriod

	engine := detection.NewEngine(db, engineCfg)

	if cfg.Notifications.Webhook.Enabled && cfg.Notifications.Webhook.URL != "" {
		engine.RegisterNotifier(detection.NewWebhookNotifier(cfg.Notifications.Webhook))
		logging.Info().Str("url", logging.SanitizeValue(cfg.Notifications.Webhook.URL)).Msg("Webhook notifier registered")
	}
	if cfg.Notifications.Discord.Enabled && cfg.Notifications.Discord.URL != "" {
		engine.RegisterNotifier(detection.NewDiscordNotifier(cfg.Notifications.Discord))
		logging.Info().Msg("Discord notifier registered")
	}
	if !engine.HasNotifiers() {
		logging.Info().Msg("No external notifiers configured, alerts are pushed over WebSocket only")
	}
	return engine
}
