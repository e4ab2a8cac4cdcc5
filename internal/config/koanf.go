// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/warden/config.yaml",
	"/etc/warden/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"http_rate_limit":       "server.rate_limit",

	"duckdb_path":       "database.path",
	"duckdb_threads":    "database.threads",
	"duckdb_max_memory": "database.max_memory",

	"cooldown_backend":    "cooldown.backend",
	"cooldown_key_prefix": "cooldown.key_prefix",
	"redis_addr":          "cooldown.redis_addr",
	"redis_password":      "cooldown.redis_password",
	"redis_db":            "cooldown.redis_db",
	"badger_path":         "cooldown.badger_path",

	"trust_baseline": "trust.baseline",

	"discord_webhook_url": "notifications.discord.webhook_url",
	"discord_rate_limit":  "notifications.discord.rate_limit",
	"webhook_url":         "notifications.webhook.url",
	"webhook_rate_limit":  "notifications.webhook.rate_limit",

	"nats_enabled":       "nats.enabled",
	"nats_url":           "nats.url",
	"nats_trigger_topic": "nats.trigger_topic",
	"nats_result_topic":  "nats.result_topic",
	"nats_queue_group":   "nats.queue_group",
	"nats_durable_name":  "nats.durable_name",
	"nats_stream_name":   "nats.stream_name",
	"nats_subscribers":   "nats.subscribers",

	"migrate_on_startup": "migration.run_on_startup",
}

// envNameFor returns the environment variable that sets path, for error
// messages. Paths without a variable return "".
func envNameFor(path string) string {
	for name, p := range envMappings {
		if p == path {
			return strings.ToUpper(name)
		}
	}
	return ""
}

// envTransformFunc maps an environment variable name to its koanf path, or
// "" to ignore it.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Load reads defaults, the optional config file and the environment, then
// validates the result.
func Load() (*Config, error) {
	return load(findConfigFile())
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
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

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
