// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

// Package config loads smokewatch configuration from defaults, an optional
// YAML file, a .env file and the environment (highest precedence).
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Security      SecurityConfig      `koanf:"security"`
	Logging       LoggingConfig       `koanf:"logging"`
	API           APIConfig           `koanf:"api"`
	Cache         CacheConfig         `koanf:"cache"`
	Events        EventsConfig        `koanf:"events"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Statistics    StatisticsConfig    `koanf:"statistics"`
	Ingest        IngestConfig        `koanf:"ingest"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Environment     string        `koanf:"environment"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsProduction reports whether production-only checks apply.
func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

// DatabaseConfig describes the PostgreSQL connection.
type DatabaseConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	// ConnectRetryMax bounds the total time spent retrying the initial ping.
	ConnectRetryMax time.Duration `koanf:"connect_retry_max"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
	// TimeZone is the IANA zone used for hour and day buckets in
	// statistics queries. Empty means the statistics time zone.
	TimeZone        string        `koanf:"time_zone"`
}

// DSN builds a lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	parts := []string{
		"host=" + quoteDSN(d.Host),
		fmt.Sprintf("port=%d", d.Port),
		"dbname=" + quoteDSN(d.Name),
		"sslmode=" + quoteDSN(d.SSLMode),
	}
	if d.Username != "" {
		parts = append(parts, "user="+quoteDSN(d.Username))
	}
	if d.Password != "" {
		parts = append(parts, "password="+quoteDSN(d.Password))
	}
	if d.ConnectTimeout > 0 {
		parts = append(parts, fmt.Sprintf("connect_timeout=%d", int(d.ConnectTimeout.Seconds())))
	}
	return strings.Join(parts, " ")
}

func quoteDSN(v string) string {
	if v == "" || strings.ContainsAny(v, ` '\`) {
		v = strings.ReplaceAll(v, `\`, `\\`)
		v = strings.ReplaceAll(v, `'`, `\'`)
		return "'" + v + "'"
	}
	return v
}

type SecurityConfig struct {
	JWTSecret          string        `koanf:"jwt_secret"`
	JWTExpiresIn       time.Duration `koanf:"jwt_expires_in"`
	RefreshTokenSecret string        `koanf:"refresh_token_secret"`
	RefreshExpiresIn   time.Duration `koanf:"refresh_expires_in"`
	BcryptCost         int           `koanf:"bcrypt_cost"`
	// OpenRegistration allows unauthenticated sign-up of security_staff
	// accounts. Other roles always require a system_admin caller.
	OpenRegistration  bool          `koanf:"open_registration"`
	IngestAPIKeys     []string      `koanf:"ingest_api_keys"`
	AdminEmail        string        `koanf:"admin_email"`
	AdminPassword     string        `koanf:"admin_password"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	AuthzCacheTTL     time.Duration `koanf:"authz_cache_ttl"`
	EnableTestRoutes  bool          `koanf:"enable_test_routes"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

type APIConfig struct {
	DefaultPageSize       int   `koanf:"default_page_size"`
	MaxPageSize           int   `koanf:"max_page_size"`
	// MaxBodyBytes caps request bodies outside detection ingest.
	MaxBodyBytes          int64 `koanf:"max_body_bytes"`
	// MaxDetectionBodyBytes caps POST /detections, whose imageData holds
	// base64 encoded frames.
	MaxDetectionBodyBytes int64 `koanf:"max_detection_body_bytes"`
}

// CacheConfig selects the statistics read cache.
type CacheConfig struct {
	Backend  string        `koanf:"backend"` // memory | redis
	TTL      time.Duration `koanf:"ttl"`
	RedisURL string        `koanf:"redis_url"`
}

// EventsConfig selects the event bus transport.
type EventsConfig struct {
	Backend string     `koanf:"backend"` // memory | nats
	NATS    NATSConfig `koanf:"nats"`
	// RetryMax is the number of handler retries before a message is dropped.
	RetryMax          int           `koanf:"retry_max"`
	RetryInitial      time.Duration `koanf:"retry_initial"`
	CloseTimeout      time.Duration `koanf:"close_timeout"`
	BreakerThreshold  uint32        `koanf:"breaker_threshold"`
	BreakerOpenPeriod time.Duration `koanf:"breaker_open_period"`
}

type NATSConfig struct {
	URL           string        `koanf:"url"`
	Embedded      bool          `koanf:"embedded"`
	EmbeddedHost  string        `koanf:"embedded_host"`
	EmbeddedPort  int           `koanf:"embedded_port"`
	QueueGroup    string        `koanf:"queue_group"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
}

type NotificationsConfig struct {
	Webhook WebhookConfig `koanf:"webhook"`
	Discord WebhookConfig `koanf:"discord"`
	// MaxElapsed bounds the retry window for a single delivery.
	MaxElapsed time.Duration `koanf:"max_elapsed"`
}

type WebhookConfig struct {
	Enabled   bool              `koanf:"enabled"`
	URL       string            `koanf:"url"`
	Headers   map[string]string `koanf:"headers"`
	RateLimit time.Duration     `koanf:"rate_limit"`
	Timeout   time.Duration     `koanf:"timeout"`
}

type StatisticsConfig struct {
	SchedulerEnabled bool   `koanf:"scheduler_enabled"`
	Schedule         string `koanf:"schedule"`
	Timezone         string `koanf:"timezone"`
}

// IngestConfig configures the optional MQTT detection subscriber.
type IngestConfig struct {
	MQTT MQTTConfig `koanf:"mqtt"`
}

type MQTTConfig struct {
	Enabled        bool          `koanf:"enabled"`
	Broker         string        `koanf:"broker"`
	ClientID       string        `koanf:"client_id"`
	Username       string        `koanf:"username"`
	Password       string        `koanf:"password"`
	Topic          string        `koanf:"topic"`
	QoS            byte          `koanf:"qos"`
	KeepAlive      time.Duration `koanf:"keep_alive"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}
