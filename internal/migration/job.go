// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package migration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/warden/internal/logging"
	"github.com/tomtom215/warden/internal/metrics"
	"github.com/tomtom215/warden/internal/rules"
)

// LegacyRuleStore is the persistence the backfill job reads from and
// writes to.
type LegacyRuleStore interface {
	// ListLegacyRules returns every stored rule, migrated or not.
	ListLegacyRules(ctx context.Context) ([]LegacyRule, error)

	// SaveMigratedRule writes the conditions and actions of rule.
	SaveMigratedRule(ctx context.Context, rule *rules.Rule) error
}

// Report summarizes one backfill run.
type Report struct {
	Migrated  int              `json:"migrated"`
	Failed    int              `json:"failed"`
	Skipped   int              `json:"skipped"`
	Errors    []MigrationError `json:"errors,omitempty"`
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Job backfills the conditions/actions columns of legacy rules.
type Job struct {
	store LegacyRuleStore

	mu      sync.Mutex
	running bool
}

// NewJob creates a backfill job over store.
func NewJob(store LegacyRuleStore) *Job {
	return &Job{store: store}
}

// Run converts every rule that still needs migration. Unreadable rows and
// conversion, validation and save failures are counted per rule and do not
// stop the run; only failing to list rules aborts it.
func (j *Job) Run(ctx context.Context) (*Report, error) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return nil, errors.New("migration already in progress")
	}
	j.running = true
	j.mu.Unlock()

	defer func() {
		j.mu.Lock()
		j.running = false
		j.mu.Unlock()
	}()

	report := &Report{StartTime: time.Now()}
	logger := logging.CtxWith(ctx).Str("component", "migration").Logger()

	stored, err := j.store.ListLegacyRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list legacy rules: %w", err)
	}

	pending := make([]LegacyRule, 0, len(stored))
	for i := range stored {
		if err := stored[i].Unreadable(); err != nil {
			j.fail(report, MigrationError{RuleID: stored[i].ID, Reason: err.Error()})
			logger.Warn().Err(err).Str("rule_id", stored[i].ID).Msg("stored rule columns unreadable")
			continue
		}
		if NeedsMigration(&stored[i]) {
			pending = append(pending, stored[i])
			continue
		}
		report.Skipped++
	}
	metrics.RuleMigrations.WithLabelValues("skipped").Add(float64(report.Skipped))

	result := MigrateRules(pending)
	for _, e := range result.Errors {
		j.fail(report, e)
		logger.Warn().Str("rule_id", e.RuleID).Str("reason", e.Reason).Msg("legacy rule not convertible")
	}

	for _, rule := range result.Migrated {
		if err := ctx.Err(); err != nil {
			report.EndTime = time.Now()
			return report, err
		}
		if err := rules.Validate(rule); err != nil {
			j.fail(report, MigrationError{RuleID: rule.ID, Reason: err.Error()})
			logger.Warn().Err(err).Str("rule_id", rule.ID).Msg("converted rule failed validation")
			continue
		}
		if err := j.store.SaveMigratedRule(ctx, rule); err != nil {
			j.fail(report, MigrationError{RuleID: rule.ID, Reason: err.Error()})
			logger.Error().Err(err).Str("rule_id", rule.ID).Msg("failed to save migrated rule")
			continue
		}
		report.Migrated++
		metrics.RuleMigrations.WithLabelValues("migrated").Inc()
		logger.Debug().Str("rule_id", rule.ID).Msg("rule migrated")
	}

	report.EndTime = time.Now()
	logger.Info().
		Int("migrated", report.Migrated).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Dur("duration", report.Duration()).
		Msg("legacy rule migration complete")
	return report, nil
}

// IsRunning reports whether a run is in progress.
func (j *Job) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *Job) fail(report *Report, e MigrationError) {
	report.Failed++
	report.Errors = append(report.Errors, e)
	metrics.RuleMigrations.WithLabelValues("failed").Inc()
}
