// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package config

import "time"

// Config is the complete application configuration.
type Config struct {
	Logging       LoggingConfig       `koanf:"logging"`
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Cooldown      CooldownConfig      `koanf:"cooldown"`
	Trust         TrustConfig         `koanf:"trust"`
	Notifications NotificationsConfig `koanf:"notifications"`
	MediaServers  []MediaServerConfig `koanf:"media_servers"`
	NATS          NATSConfig          `koanf:"nats"`
	Migration     MigrationConfig     `koanf:"migration"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ServerConfig configures the ops HTTP server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// RateLimit is requests per minute per client IP. 0 disables limiting.
	RateLimit int `koanf:"rate_limit"`
}

// DatabaseConfig configures DuckDB.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	Threads   int    `koanf:"threads"`
	MaxMemory string `koanf:"max_memory"`
}

// Cooldown backends.
const (
	CooldownMemory = "memory"
	CooldownRedis  = "redis"
	CooldownBadger = "badger"
)

// CooldownConfig selects and configures the cooldown store.
type CooldownConfig struct {
	Backend       string `koanf:"backend"`
	KeyPrefix     string `koanf:"key_prefix"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	BadgerPath    string `koanf:"badger_path"`
}

// TrustConfig configures trust score handling.
type TrustConfig struct {
	Baseline int `koanf:"baseline"`
}

// NotificationsConfig configures outbound notifications.
type NotificationsConfig struct {
	Discord DiscordConfig `koanf:"discord"`
	Webhook WebhookConfig `koanf:"webhook"`
}

// DiscordConfig configures the Discord channel. An empty URL disables it.
type DiscordConfig struct {
	WebhookURL string        `koanf:"webhook_url"`
	RateLimit  time.Duration `koanf:"rate_limit"`
}

// WebhookConfig configures the generic webhook channel. An empty URL
// disables it.
type WebhookConfig struct {
	URL       string            `koanf:"url"`
	Headers   map[string]string `koanf:"headers"`
	RateLimit time.Duration     `koanf:"rate_limit"`
}

// MediaServerConfig describes one media server.
type MediaServerConfig struct {
	ID      string        `koanf:"id"`
	Type    string        `koanf:"type"`
	URL     string        `koanf:"url"`
	Token   string        `koanf:"token"`
	Timeout time.Duration `koanf:"timeout"`
}

// NATSConfig configures the trigger transport.
type NATSConfig struct {
	Enabled      bool   `koanf:"enabled"`
	URL          string `koanf:"url"`
	TriggerTopic string `koanf:"trigger_topic"`
	ResultTopic  string `koanf:"result_topic"`
	QueueGroup   string `koanf:"queue_group"`
	DurableName  string `koanf:"durable_name"`
	StreamName   string `koanf:"stream_name"`
	Subscribers  int    `koanf:"subscribers"`
}

// MigrationConfig configures the legacy rule backfill.
type MigrationConfig struct {
	RunOnStartup bool `koanf:"run_on_startup"`
}

// Addr returns host:port for the HTTP server.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}

// defaultConfig returns the built-in defaults.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8686,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       120,
		},
		Database: DatabaseConfig{
			Path:      "/data/warden.duckdb",
			Threads:   2,
			MaxMemory: "512MB",
		},
		Cooldown: CooldownConfig{
			Backend:   CooldownMemory,
			KeyPrefix: "warden:",
			RedisAddr: "localhost:6379",
		},
		Trust: TrustConfig{
			Baseline: 100,
		},
		Notifications: NotificationsConfig{
			Discord: DiscordConfig{RateLimit: time.Second},
			Webhook: WebhookConfig{RateLimit: 500 * time.Millisecond},
		},
		NATS: NATSConfig{
			URL:          "nats://127.0.0.1:4222",
			TriggerTopic: "rules.triggered",
			ResultTopic:  "rules.actions",
			QueueGroup:   "enforcers",
			DurableName:  "warden-enforcer",
			StreamName:   "WARDEN_RULES",
			Subscribers:  2,
		},
	}
}
