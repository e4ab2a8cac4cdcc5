// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/warden/internal/migration"
	"github.com/tomtom215/warden/internal/store"
)

// Store is the read side of the DuckDB store used by the handlers.
type Store interface {
	Ping(ctx context.Context) error
	ListPendingConfirmations(ctx context.Context) ([]store.Confirmation, error)
	ListViolations(ctx context.Context, ruleID string, limit int) ([]store.Violation, error)
	ListAuditEntries(ctx context.Context, ruleID string) ([]store.AuditEntry, error)
	GetTrustScore(ctx context.Context, serverUserID string) (*store.TrustScore, error)
}

// MigrationRunner runs the legacy rule backfill.
type MigrationRunner interface {
	Run(ctx context.Context) (*migration.Report, error)
	IsRunning() bool
}

// BreakerState reports a named circuit breaker state.
type BreakerState interface {
	Name() string
	State() string
}

// Config holds the handler dependencies.
type Config struct {
	Store     Store
	Migration MigrationRunner
	Breakers  []BreakerState
	// RateLimit is requests per minute per client IP on /api/v1.
	RateLimit int
}

// NewRouter builds the HTTP handler.
func NewRouter(cfg Config) http.Handler {
	h := &handler{store: cfg.Store, migration: cfg.Migration, breakers: cfg.Breakers}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogging)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimit(cfg.RateLimit))

		r.Get("/confirmations", h.listConfirmations)
		r.Get("/rules/{id}/violations", h.listViolations)
		r.Get("/rules/{id}/audit", h.listAudit)
		r.Get("/users/{id}/trust", h.getTrust)
		if cfg.Migration != nil {
			r.Post("/migrations/legacy-rules", h.runMigration)
		}
	})

	return r
}
