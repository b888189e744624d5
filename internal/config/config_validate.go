// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/smokewatch/internal/logging"
)

// MinSecretLength is the minimum JWT secret length accepted in production.
const MinSecretLength = 32

// CronParser accepts standard five-field expressions and descriptors
// such as @daily. The statistics scheduler uses the same parser.
var CronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks the loaded configuration for consistency.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateSecurity,
		c.validateLogging,
		c.validateAPI,
		c.validateCache,
		c.validateEvents,
		c.validateNotifications,
		c.validateStatistics,
		c.validateIngest,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Host == "" {
		return errors.New("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return errors.New("DB_NAME is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}
	if tz := c.Database.TimeZone; tz != "" {
		if _, err := time.LoadLocation(tz); err != nil || tz == "Local" {
			return fmt.Errorf("invalid DB_TIME_ZONE %q: must be an IANA zone name", tz)
		}
	}
	return nil
}

func (c *Config) validateSecurity() error {
	s := &c.Security
	if s.JWTSecret == "" || s.RefreshTokenSecret == "" {
		return errors.New("JWT_SECRET and REFRESH_TOKEN_SECRET are required")
	}
	if c.Server.IsProduction() {
		if len(s.JWTSecret) < MinSecretLength || len(s.RefreshTokenSecret) < MinSecretLength {
			return fmt.Errorf("JWT secrets must be at least %d characters in production", MinSecretLength)
		}
		if s.JWTSecret == s.RefreshTokenSecret {
			return errors.New("JWT_SECRET and REFRESH_TOKEN_SECRET must differ in production")
		}
		if s.EnableTestRoutes {
			return errors.New("ENABLE_TEST_ROUTES must be false in production")
		}
	}
	if s.JWTExpiresIn <= 0 || s.RefreshExpiresIn <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if s.BcryptCost < bcrypt.MinCost || s.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if !s.RateLimitDisabled && (s.RateLimitReqs <= 0 || s.RateLimitWindow <= 0) {
		return errors.New("rate limit requests and window must be positive")
	}
	if (s.AdminEmail == "") != (s.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid LOG_LEVEL %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	}
	return fmt.Errorf("invalid LOG_FORMAT %q (want json or console)", c.Logging.Format)
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 || c.API.MaxPageSize < c.API.DefaultPageSize {
		return errors.New("api page sizes must satisfy 1 <= default <= max")
	}
	if c.API.MaxBodyBytes < 1 || c.API.MaxDetectionBodyBytes < 1 {
		return errors.New("API_MAX_BODY_BYTES and API_MAX_DETECTION_BODY_BYTES must be positive")
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			return errors.New("REDIS_URL is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q (want memory or redis)", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return errors.New("CACHE_TTL must be positive")
	}
	return nil
}

func (c *Config) validateEvents() error {
	switch c.Events.Backend {
	case "memory":
		return nil
	case "nats":
		if !c.Events.NATS.Embedded {
			if _, err := url.Parse(c.Events.NATS.URL); err != nil || c.Events.NATS.URL == "" {
				return fmt.Errorf("invalid NATS_URL %q", c.Events.NATS.URL)
			}
		}
		return nil
	}
	return fmt.Errorf("invalid EVENTS_BACKEND %q (want memory or nats)", c.Events.Backend)
}

func (c *Config) validateNotifications() error {
	for name, w := range map[string]WebhookConfig{"webhook": c.Notifications.Webhook, "discord": c.Notifications.Discord} {
		if !w.Enabled {
			continue
		}
		u, err := url.Parse(w.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s notifier enabled with invalid url %q", name, w.URL)
		}
	}
	return nil
}

func (c *Config) validateStatistics() error {
	if _, err := CronParser.Parse(c.Statistics.Schedule); err != nil {
		return fmt.Errorf("invalid STATISTICS_SCHEDULE %q: %w", c.Statistics.Schedule, err)
	}
	if _, err := time.LoadLocation(c.Statistics.Timezone); err != nil {
		return fmt.Errorf("invalid STATISTICS_TIMEZONE %q: %w", c.Statistics.Timezone, err)
	}
	return nil
}

func (c *Config) validateIngest() error {
	m := c.Ingest.MQTT
	if !m.Enabled {
		return nil
	}
	if m.Broker == "" || m.Topic == "" {
		return errors.New("MQTT_BROKER and MQTT_TOPIC are required when MQTT_ENABLED=true")
	}
	if m.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", m.QoS)
	}
	if len(c.Security.IngestAPIKeys) == 0 {
		logging.Warn().Msg("MQTT ingest enabled without INGEST_API_KEYS; HTTP agents cannot authenticate")
	}
	return nil
}

// ShouldWarnAboutCORS reports a wildcard origin outside development.
func (c *Config) ShouldWarnAboutCORS() bool {
	if c.Server.Environment == "development" {
		return false
	}
	for _, o := range c.Security.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}
