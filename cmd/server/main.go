// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/warden/internal/api"
	"github.com/tomtom215/warden/internal/breaker"
	"github.com/tomtom215/warden/internal/config"
	"github.com/tomtom215/warden/internal/cooldown"
	"github.com/tomtom215/warden/internal/enforcement"
	"github.com/tomtom215/warden/internal/engine"
	"github.com/tomtom215/warden/internal/logging"
	"github.com/tomtom215/warden/internal/mediaserver"
	"github.com/tomtom215/warden/internal/migration"
	"github.com/tomtom215/warden/internal/notify"
	"github.com/tomtom215/warden/internal/rules"
	"github.com/tomtom215/warden/internal/store"
	"github.com/tomtom215/warden/internal/supervisor"
	"github.com/tomtom215/warden/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Warden stopped with error")
	}
	logging.Info().Msg("Warden stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("cooldown_backend", cfg.Cooldown.Backend).
		Int("media_servers", len(cfg.MediaServers)).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Msg("Starting Warden")

	db, err := store.Open(ctx, store.Config{
		Path:          cfg.Database.Path,
		Threads:       cfg.Database.Threads,
		MaxMemory:     cfg.Database.MaxMemory,
		TrustBaseline: cfg.Trust.Baseline,
	})
	if err != nil {
		return err
	}
	defer closeLogged("database", db.Close)
	logging.Info().Msg("Database initialized")

	cooldowns, err := cooldown.Open(ctx, cooldown.Options{
		Backend:       cfg.Cooldown.Backend,
		KeyPrefix:     cfg.Cooldown.KeyPrefix,
		RedisAddr:     cfg.Cooldown.RedisAddr,
		RedisPassword: cfg.Cooldown.RedisPassword,
		RedisDB:       cfg.Cooldown.RedisDB,
		BadgerPath:    cfg.Cooldown.BadgerPath,
	})
	if err != nil {
		return err
	}
	defer closeLogged("cooldown store", cooldowns.Close)

	registry, err := buildRegistry(cfg.MediaServers, db)
	if err != nil {
		return err
	}
	defer closeLogged("media server registry", registry.Close)

	dispatcher := buildDispatcher(cfg.Notifications)

	executor := enforcement.NewExecutor(engine.New(engine.Options{
		Store:           db,
		Notifier:        dispatcher,
		Sessions:        registry,
		Cooldowns:       cooldowns,
		CooldownBackend: cfg.Cooldown.Backend,
	}))
	handler, err := enforcement.NewTriggerHandler(executor, enforcement.WithSessionRecorder(db))
	if err != nil {
		return err
	}

	job := migration.NewJob(db)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	breakers := make([]api.BreakerState, 0, len(cfg.MediaServers))
	for _, b := range registry.Breakers() {
		breakers = append(breakers, b)
	}
	httpServer := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: api.NewRouter(api.Config{
			Store:     db,
			Migration: job,
			Breakers:  breakers,
			RateLimit: cfg.Server.RateLimit,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(httpServer, cfg.Server.ShutdownTimeout))

	if cfg.NATS.Enabled {
		trigger, err := initNATS(ctx, cfg.NATS, handler)
		if err != nil {
			return err
		}
		defer closeLogged("NATS", trigger.Close)
		tree.AddMessagingService(services.NewRouterService(trigger.NewRouter))
	} else {
		logging.Info().Msg("NATS trigger transport disabled (NATS_ENABLED=false)")
	}

	if cfg.Migration.RunOnStartup {
		tree.AddMaintenanceService(services.NewMigrationService(job))
	}

	logging.Info().Str("addr", httpServer.Addr).Msg("Supervisor tree starting")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		logging.Warn().Int("count", len(report)).Msg("Services did not stop within the shutdown timeout")
	}
	return nil
}

func buildRegistry(servers []config.MediaServerConfig, locator mediaserver.SessionLocator) (*mediaserver.Registry, error) {
	registry := mediaserver.NewRegistry(locator)
	for _, s := range servers {
		controller, err := mediaserver.NewController(mediaserver.ServerConfig{
			ID:      s.ID,
			Type:    rules.ServerType(s.Type),
			URL:     s.URL,
			Token:   s.Token,
			Timeout: s.Timeout,
		})
		if err != nil {
			return nil, err
		}
		registry.Register(s.ID, controller, breaker.Settings{})
		logging.Info().Str("server_id", s.ID).Str("type", s.Type).Msg("Media server registered")
	}
	return registry, nil
}

func buildDispatcher(cfg config.NotificationsConfig) *notify.Dispatcher {
	var notifiers []notify.Notifier
	if cfg.Discord.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewDiscordNotifier(notify.DiscordConfig{
			WebhookURL: cfg.Discord.WebhookURL,
			RateLimit:  cfg.Discord.RateLimit,
		}))
	}
	if cfg.Webhook.URL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(notify.WebhookConfig{
			URL:       cfg.Webhook.URL,
			Headers:   cfg.Webhook.Headers,
			RateLimit: cfg.Webhook.RateLimit,
		}))
	}
	dispatcher := notify.NewDispatcher(notifiers...)
	logging.Info().Interface("channels", dispatcher.Channels()).Msg("Notification channels configured")
	return dispatcher
}

func closeLogged(name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logging.Error().Err(err).Str("component", name).Msg("Error during shutdown")
	}
}
