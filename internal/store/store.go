// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

// Package store persists enforcement side effects in DuckDB: violations,
// audit entries, trust scores, the confirmation queue, the session lookup
// table and the rules table read by the migration job.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers the duckdb driver

	"github.com/tomtom215/warden/internal/metrics"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// Trust score bounds.
const (
	MinTrustScore     = 0
	MaxTrustScore     = 100
	DefaultTrustScore = 100
)

// Config configures Open.
type Config struct {
	// Path is the database file; ":memory:" or empty opens an in-memory database.
	Path      string
	Threads   int
	MaxMemory string

	// TrustBaseline is the score of users with no row and the value
	// ResetTrust restores.
	TrustBaseline int
}

// DuckDBStore implements every persistence collaborator of the engine.
type DuckDBStore struct {
	db       *sql.DB
	baseline int
	now      func() time.Time
	owned    bool
}

// Open opens the database at cfg.Path, configures the pool and creates the
// schema.
func Open(ctx context.Context, cfg Config) (*DuckDBStore, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	connStr := fmt.Sprintf("%s?threads=%d", path, threads)
	if cfg.MaxMemory != "" {
		connStr += "&max_memory=" + cfg.MaxMemory
	}

	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	db.SetMaxOpenConns(threads)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(5 * time.Minute)

	s := NewDuckDBStore(db, cfg.TrustBaseline)
	s.owned = true
	if err := s.InitSchema(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

// NewDuckDBStore wraps an open database. A baseline outside [0,100] falls
// back to DefaultTrustScore. The schema is not created; call InitSchema.
func NewDuckDBStore(db *sql.DB, trustBaseline int) *DuckDBStore {
	if trustBaseline < MinTrustScore || trustBaseline > MaxTrustScore {
		trustBaseline = DefaultTrustScore
	}
	return &DuckDBStore{db: db, baseline: trustBaseline, now: time.Now}
}

// DB returns the underlying handle.
func (s *DuckDBStore) DB() *sql.DB {
	return s.db
}

// Close closes the database if Open created it.
func (s *DuckDBStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// Ping checks the connection.
func (s *DuckDBStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InitSchema creates all tables if they do not exist.
func (s *DuckDBStore) InitSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS rules (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			server_id TEXT,
			is_active BOOLEAN DEFAULT true,
			type TEXT,
			params JSON,
			conditions JSON,
			actions JSON,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS rule_violations (
			id TEXT PRIMARY KEY,
			rule_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			server_user_id TEXT NOT NULL,
			server_id TEXT,
			severity TEXT NOT NULL,
			details JSON,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS rule_audit_log (
			id TEXT PRIMARY KEY,
			rule_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			server_user_id TEXT NOT NULL,
			server_id TEXT,
			message TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS user_trust_scores (
			server_user_id TEXT PRIMARY KEY,
			score INTEGER NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS action_confirmations (
			id TEXT PRIMARY KEY,
			rule_id TEXT NOT NULL,
			rule_name TEXT,
			session_id TEXT NOT NULL,
			server_user_id TEXT NOT NULL,
			server_id TEXT,
			action JSON NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			server_id TEXT NOT NULL,
			session_key TEXT NOT NULL,
			server_user_id TEXT,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_violations_rule ON rule_violations(rule_id)`,
		`CREATE INDEX IF NOT EXISTS idx_violations_user ON rule_violations(server_user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_rule ON rule_audit_log(rule_id)`,
		`CREATE INDEX IF NOT EXISTS idx_confirmations_status ON action_confirmations(status)`,
	}

	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// observe records the latency and result of one store call.
func observe(op string, start time.Time, err error) {
	metrics.RecordStoreOperation("duckdb", op, start, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func clampTrust(score int) int {
	return max(MinTrustScore, min(MaxTrustScore, score))
}
