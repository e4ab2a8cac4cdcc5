// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package services

import (
	"context"
	"fmt"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/warden/internal/logging"
	"github.com/tomtom215/warden/internal/migration"
)

// MigrationRunner is satisfied by *migration.Job.
type MigrationRunner interface {
	Run(ctx context.Context) (*migration.Report, error)
}

// MigrationService runs the legacy rule backfill once. A failed run is
// retried by the supervisor; a completed one is never restarted.
type MigrationService struct {
	job  MigrationRunner
	name string
}

// NewMigrationService creates the service.
func NewMigrationService(job MigrationRunner) *MigrationService {
	return &MigrationService{job: job, name: "legacy-rule-migration"}
}

// Serve implements suture.Service.
func (s *MigrationService) Serve(ctx context.Context) error {
	report, err := s.job.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("legacy rule migration: %w", err)
	}

	logging.Info().
		Int("migrated", report.Migrated).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Dur("duration", report.Duration()).
		Msg("legacy rule migration finished")
	return suture.ErrDoNotRestart
}

// String implements fmt.Stringer for suture logs.
func (s *MigrationService) String() string {
	return s.name
}
