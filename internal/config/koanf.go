// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/smokewatch/config.yaml",
}

const (
	// ConfigPathEnvVar overrides the config file location.
	ConfigPathEnvVar = "CONFIG_PATH"
	// DotEnvPathEnvVar overrides the .env location.
	DotEnvPathEnvVar = "DOTENV_PATH"
)

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3001,
			Environment:     "development",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Username:        "postgres",
			Name:            "smokewatch",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectTimeout:  5 * time.Second,
			ConnectRetryMax: time.Minute,
			AutoMigrate:     true,
		},
		Security: SecurityConfig{
			JWTExpiresIn:     24 * time.Hour,
			RefreshExpiresIn: 7 * 24 * time.Hour,
			BcryptCost:       12,
			OpenRegistration: true,
			CORSOrigins:      []string{"*"},
			RateLimitReqs:    100,
			RateLimitWindow:  time.Minute,
			AuthzCacheTTL:    5 * time.Minute,
			EnableTestRoutes: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		API: APIConfig{
			DefaultPageSize:       10,
			MaxPageSize:           100,
			MaxBodyBytes:          1 << 20,
			MaxDetectionBodyBytes: 16 << 20,
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     60 * time.Second,
		},
		Events: EventsConfig{
			Backend: "memory",
			NATS: NATSConfig{
				URL:           "nats://127.0.0.1:4222",
				EmbeddedHost:  "127.0.0.1",
				EmbeddedPort:  4222,
				QueueGroup:    "smokewatch",
				MaxReconnects: -1,
				ReconnectWait: 2 * time.Second,
			},
			RetryMax:          3,
			RetryInitial:      100 * time.Millisecond,
			CloseTimeout:      10 * time.Second,
			BreakerThreshold:  5,
			BreakerOpenPeriod: 30 * time.Second,
		},
		Notifications: NotificationsConfig{
			Webhook:    WebhookConfig{RateLimit: 500 * time.Millisecond, Timeout: 10 * time.Second},
			Discord:    WebhookConfig{RateLimit: time.Second, Timeout: 10 * time.Second},
			MaxElapsed: 30 * time.Second,
		},
		Statistics: StatisticsConfig{
			SchedulerEnabled: true,
			Schedule:         "5 0 * * *",
			Timezone:         "Local",
		},
		Ingest: IngestConfig{
			MQTT: MQTTConfig{
				ClientID:       "smokewatch",
				Topic:          "smokewatch/detections/+",
				QoS:            1,
				KeepAlive:      30 * time.Second,
				ConnectTimeout: 10 * time.Second,
			},
		},
	}
}

// Load builds the configuration. Precedence from lowest to highest:
// defaults, YAML file, .env file, process environment.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// godotenv.Load never overrides variables that are already set.
	dotenv := os.Getenv(DotEnvPathEnvVar)
	if dotenv == "" {
		dotenv = ".env"
	}
	if _, err := os.Stat(dotenv); err == nil {
		if err := godotenv.Load(dotenv); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", dotenv, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.ingest_api_keys",
}

// splitSliceFields turns comma-separated env values into string slices.
func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := make([]string, 0)
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// The DB_* and JWT_* names match the deployment scripts of earlier releases.
var envMappings = map[string]string{
	"port":             "server.port",
	"server_host":      "server.host",
	"node_env":         "server.environment",
	"environment":      "server.environment",
	"shutdown_timeout": "server.shutdown_timeout",

	"db_host":              "database.host",
	"db_port":              "database.port",
	"db_username":          "database.username",
	"db_password":          "database.password",
	"db_name":              "database.name",
	"db_sslmode":           "database.ssl_mode",
	"db_max_open_conns":    "database.max_open_conns",
	"db_connect_retry_max": "database.connect_retry_max",
	"db_auto_migrate":      "database.auto_migrate",
	"db_time_zone":         "database.time_zone",

	"jwt_secret":               "security.jwt_secret",
	"jwt_expires_in":           "security.jwt_expires_in",
	"refresh_token_secret":     "security.refresh_token_secret",
	"refresh_token_expires_in": "security.refresh_expires_in",
	"bcrypt_cost":              "security.bcrypt_cost",
	"open_registration":        "security.open_registration",
	"ingest_api_keys":          "security.ingest_api_keys",
	"admin_email":              "security.admin_email",
	"admin_password":           "security.admin_password",
	"cors_origins":             "security.cors_origins",
	"rate_limit_requests":      "security.rate_limit_reqs",
	"rate_limit_window":        "security.rate_limit_window",
	"disable_rate_limit":       "security.rate_limit_disabled",
	"enable_test_routes":       "security.enable_test_routes",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"api_default_page_size":        "api.default_page_size",
	"api_max_page_size":            "api.max_page_size",
	"api_max_body_bytes":           "api.max_body_bytes",
	"api_max_detection_body_bytes": "api.max_detection_body_bytes",

	"cache_backend": "cache.backend",
	"cache_ttl":     "cache.ttl",
	"redis_url":     "cache.redis_url",

	"events_backend":     "events.backend",
	"nats_url":           "events.nats.url",
	"nats_embedded":      "events.nats.embedded",
	"nats_embedded_port": "events.nats.embedded_port",
	"nats_queue_group":   "events.nats.queue_group",

	"webhook_enabled":          "notifications.webhook.enabled",
	"webhook_url":              "notifications.webhook.url",
	"discord_enabled":          "notifications.discord.enabled",
	"discord_webhook_url":      "notifications.discord.url",
	"notification_max_elapsed": "notifications.max_elapsed",

	"statistics_scheduler_enabled": "statistics.scheduler_enabled",
	"statistics_schedule":          "statistics.schedule",
	"statistics_timezone":          "statistics.timezone",

	"mqtt_enabled":   "ingest.mqtt.enabled",
	"mqtt_broker":    "ingest.mqtt.broker",
	"mqtt_client_id": "ingest.mqtt.client_id",
	"mqtt_username":  "ingest.mqtt.username",
	"mqtt_password":  "ingest.mqtt.password",
	"mqtt_topic":     "ingest.mqtt.topic",
}

var bareSeconds = regexp.MustCompile(`^\d+$`)

// durationKeys accept plain integers meaning seconds (JWT_EXPIRES_IN=86400).
var durationKeys = map[string]bool{
	"security.jwt_expires_in":     true,
	"security.refresh_expires_in": true,
}

// envTransform maps a variable to its koanf path. Unknown variables are
// dropped by returning an empty key.
func envTransform(key, value string) (string, interface{}) {
	path, ok := envMappings[strings.ToLower(key)]
	if !ok {
		return "", nil
	}
	if durationKeys[path] && bareSeconds.MatchString(value) {
		return path, value + "s"
	}
	return path, value
}
