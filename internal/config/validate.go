// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks ranges and enumerations. Errors name the environment
// variable that sets the offending value when there is one.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateLogging,
		c.validateServer,
		c.validateDatabase,
		c.validateCooldown,
		c.validateTrust,
		c.validateNotifications,
		c.validateMediaServers,
		c.validateNATS,
	}
	var errs []error
	for _, validate := range validators {
		if err := validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func invalid(path, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if name := envNameFor(path); name != "" {
		return fmt.Errorf("%s (%s): %s", path, name, msg)
	}
	return fmt.Errorf("%s: %s", path, msg)
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return invalid("logging.level", "unknown level %q", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return invalid("logging.format", "must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("server.port", "must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return invalid("server.rate_limit", "must not be negative")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Threads < 1 {
		return invalid("database.threads", "must be at least 1, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateCooldown() error {
	switch c.Cooldown.Backend {
	case CooldownMemory:
	case CooldownRedis:
		if c.Cooldown.RedisAddr == "" {
			return invalid("cooldown.redis_addr", "required when backend is redis")
		}
		if c.Cooldown.RedisDB < 0 {
			return invalid("cooldown.redis_db", "must not be negative")
		}
	case CooldownBadger:
		if c.Cooldown.BadgerPath == "" {
			return invalid("cooldown.badger_path", "required when backend is badger")
		}
	default:
		return invalid("cooldown.backend", "must be memory, redis or badger, got %q", c.Cooldown.Backend)
	}
	return nil
}

func (c *Config) validateTrust() error {
	if c.Trust.Baseline < 0 || c.Trust.Baseline > 100 {
		return invalid("trust.baseline", "must be between 0 and 100, got %d", c.Trust.Baseline)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if u := c.Notifications.Discord.WebhookURL; u != "" && !isHTTPURL(u) {
		return invalid("notifications.discord.webhook_url", "must be an http(s) URL")
	}
	if u := c.Notifications.Webhook.URL; u != "" && !isHTTPURL(u) {
		return invalid("notifications.webhook.url", "must be an http(s) URL")
	}
	return nil
}

func (c *Config) validateMediaServers() error {
	seen := make(map[string]bool, len(c.MediaServers))
	for i, s := range c.MediaServers {
		path := fmt.Sprintf("media_servers[%d]", i)
		if s.ID == "" {
			return invalid(path+".id", "required")
		}
		if seen[s.ID] {
			return invalid(path+".id", "duplicate server id %q", s.ID)
		}
		seen[s.ID] = true
		switch s.Type {
		case "plex", "jellyfin", "emby":
		default:
			return invalid(path+".type", "must be plex, jellyfin or emby, got %q", s.Type)
		}
		if !isHTTPURL(s.URL) {
			return invalid(path+".url", "must be an http(s) URL")
		}
		if s.Token == "" {
			return invalid(path+".token", "required")
		}
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if c.NATS.URL == "" {
		return invalid("nats.url", "required when nats is enabled")
	}
	if c.NATS.TriggerTopic == "" || c.NATS.ResultTopic == "" {
		return invalid("nats.trigger_topic", "trigger and result topics are required")
	}
	if c.NATS.Subscribers < 1 {
		return invalid("nats.subscribers", "must be at least 1, got %d", c.NATS.Subscribers)
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
