// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("")
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.Server.Port != 8686 {
		t.Errorf("Server.Port = %d, want 8686", cfg.Server.Port)
	}
	if cfg.Cooldown.Backend != CooldownMemory {
		t.Errorf("Cooldown.Backend = %q, want memory", cfg.Cooldown.Backend)
	}
	if cfg.Trust.Baseline != 100 {
		t.Errorf("Trust.Baseline = %d, want 100", cfg.Trust.Baseline)
	}
	if cfg.NATS.TriggerTopic != "rules.triggered" || cfg.NATS.ResultTopic != "rules.actions" {
		t.Errorf("NATS topics = %q/%q", cfg.NATS.TriggerTopic, cfg.NATS.ResultTopic)
	}
	if cfg.Notifications.Discord.RateLimit != time.Second {
		t.Errorf("Discord.RateLimit = %v, want 1s", cfg.Notifications.Discord.RateLimit)
	}
	if cfg.Server.Addr() != "0.0.0.0:8686" {
		t.Errorf("Addr() = %q", cfg.Server.Addr())
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
cooldown:
  backend: badger
  badger_path: /tmp/cooldowns
trust:
  baseline: 70
notifications:
  webhook:
    url: https://hooks.example.com/warden
    headers:
      Authorization: Bearer abc
media_servers:
  - id: home
    type: plex
    url: http://plex.local:32400
    token: secret
  - id: jf
    type: jellyfin
    url: http://jellyfin.local:8096
    token: key
    timeout: 5s
`)
	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("TRUST_BASELINE", "60")
	t.Setenv("SOME_UNRELATED_VAR", "ignored")

	cfg, err := load(path)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want env override 9100", cfg.Server.Port)
	}
	if cfg.Trust.Baseline != 60 {
		t.Errorf("Trust.Baseline = %d, want 60", cfg.Trust.Baseline)
	}
	if cfg.Cooldown.Backend != CooldownBadger || cfg.Cooldown.BadgerPath != "/tmp/cooldowns" {
		t.Errorf("Cooldown = %+v", cfg.Cooldown)
	}
	if got := cfg.Notifications.Webhook.Headers["Authorization"]; got != "Bearer abc" {
		t.Errorf("webhook Authorization header = %q", got)
	}
	if len(cfg.MediaServers) != 2 {
		t.Fatalf("MediaServers = %d, want 2", len(cfg.MediaServers))
	}
	if cfg.MediaServers[1].Timeout != 5*time.Second {
		t.Errorf("MediaServers[1].Timeout = %v", cfg.MediaServers[1].Timeout)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("unset values lost their defaults: ReadTimeout = %v", cfg.Server.ReadTimeout)
	}
}

func TestLoad_InvalidFromEnv(t *testing.T) {
	t.Setenv("COOLDOWN_BACKEND", "memcached")

	_, err := load("")
	if err == nil {
		t.Fatal("load() error = nil, want validation error")
	}
	if !strings.Contains(err.Error(), "COOLDOWN_BACKEND") {
		t.Errorf("error %q does not name the env var", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("load() with missing file: error = nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"threads zero", func(c *Config) { c.Database.Threads = 0 }, "database.threads"},
		{"redis without addr", func(c *Config) {
			c.Cooldown.Backend = CooldownRedis
			c.Cooldown.RedisAddr = ""
		}, "cooldown.redis_addr"},
		{"badger without path", func(c *Config) { c.Cooldown.Backend = CooldownBadger }, "BADGER_PATH"},
		{"baseline too high", func(c *Config) { c.Trust.Baseline = 101 }, "trust.baseline"},
		{"discord url not http", func(c *Config) { c.Notifications.Discord.WebhookURL = "ftp://x" }, "discord"},
		{"server without id", func(c *Config) {
			c.MediaServers = []MediaServerConfig{{Type: "plex", URL: "http://p", Token: "t"}}
		}, "media_servers[0].id"},
		{"duplicate server", func(c *Config) {
			s := MediaServerConfig{ID: "a", Type: "plex", URL: "http://p", Token: "t"}
			c.MediaServers = []MediaServerConfig{s, s}
		}, "duplicate"},
		{"unknown server type", func(c *Config) {
			c.MediaServers = []MediaServerConfig{{ID: "a", Type: "kodi", URL: "http://p", Token: "t"}}
		}, "media_servers[0].type"},
		{"nats without url", func(c *Config) {
			c.NATS.Enabled = true
			c.NATS.URL = ""
		}, "NATS_URL"},
		{"nats disabled ignores url", func(c *Config) { c.NATS.URL = "" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsEverySection(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Port = -1
	cfg.Trust.Baseline = -5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil")
	}
	for _, want := range []string{"server.port", "trust.baseline"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"DUCKDB_PATH":         "database.path",
		"redis_addr":          "cooldown.redis_addr",
		"DISCORD_WEBHOOK_URL": "notifications.discord.webhook_url",
		"PATH":                "",
		"HOME":                "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}
