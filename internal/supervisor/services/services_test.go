// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/warden/internal/migration"
)

type fakeRouter struct {
	runErr error
	closed atomic.Bool
}

func (f *fakeRouter) Run(ctx context.Context) error {
	if f.runErr != nil {
		return f.runErr
	}
	<-ctx.Done()
	return nil
}

func (f *fakeRouter) Close() error {
	f.closed.Store(true)
	return nil
}

func TestRouterService_RunsUntilCancelled(t *testing.T) {
	router := &fakeRouter{}
	svc := NewRouterService(func(context.Context) (MessageRouter, error) { return router, nil })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, router.closed.Load())
	assert.Equal(t, "trigger-router", svc.String())
}

func TestRouterService_Failures(t *testing.T) {
	buildErr := errors.New("nats unreachable")
	svc := NewRouterService(func(context.Context) (MessageRouter, error) { return nil, buildErr })
	assert.ErrorIs(t, svc.Serve(context.Background()), buildErr)

	runErr := errors.New("subscribe failed")
	router := &fakeRouter{runErr: runErr}
	svc = NewRouterService(func(context.Context) (MessageRouter, error) { return router, nil })
	assert.ErrorIs(t, svc.Serve(context.Background()), runErr)
	assert.True(t, router.closed.Load())
}

type fakeMigrationJob struct {
	report *migration.Report
	err    error
	runs   int
}

func (f *fakeMigrationJob) Run(context.Context) (*migration.Report, error) {
	f.runs++
	return f.report, f.err
}

func TestMigrationService(t *testing.T) {
	now := time.Now()
	job := &fakeMigrationJob{report: &migration.Report{Migrated: 2, StartTime: now, EndTime: now}}
	svc := NewMigrationService(job)

	err := svc.Serve(context.Background())
	require.ErrorIs(t, err, suture.ErrDoNotRestart)
	assert.Equal(t, 1, job.runs)

	job = &fakeMigrationJob{err: errors.New("list failed")}
	err = NewMigrationService(job).Serve(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, suture.ErrDoNotRestart)
}
