// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/warden/internal/metrics"
)

func TestBreaker_PassesThrough(t *testing.T) {
	b := New("test-pass", Settings{})

	if err := b.Execute(func() error { return nil }); err != nil {
		t.Errorf("Execute() error = %v", err)
	}

	boom := errors.New("boom")
	if err := b.Execute(func() error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Execute() error = %v, want boom", err)
	}
	if b.State() != "closed" {
		t.Errorf("State() = %q, want closed", b.State())
	}

	if got := testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues("test-pass", "success")); got != 1 {
		t.Errorf("success requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues("test-pass", "failure")); got != 1 {
		t.Errorf("failure requests = %v, want 1", got)
	}
}

func TestBreaker_OpensAndRejects(t *testing.T) {
	b := New("test-open", Settings{MinRequests: 2, FailureRatio: 0.5, Timeout: time.Hour})
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		_ = b.Execute(func() error { return boom })
	}
	if b.State() != "open" {
		t.Fatalf("State() = %q, want open", b.State())
	}

	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	if called {
		t.Error("fn ran while breaker open")
	}
	if !errors.Is(err, ErrOpen) {
		t.Errorf("Execute() error = %v, want ErrOpen", err)
	}

	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("test-open")); got != 2 {
		t.Errorf("state gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerTransitions.WithLabelValues("test-open", "closed", "open")); got != 1 {
		t.Errorf("closed->open transitions = %v, want 1", got)
	}
}

func TestSettingsDefaults(t *testing.T) {
	s := Settings{}.withDefaults()
	if s.MaxRequests != 3 || s.Interval != time.Minute || s.Timeout != 2*time.Minute || s.MinRequests != 10 || s.FailureRatio != 0.6 {
		t.Errorf("defaults = %+v", s)
	}
}
