// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Action outcome label values.
const (
	OutcomeExecuted     = "executed"
	OutcomeSkipped      = "skipped"
	OutcomeFailed       = "failed"
	OutcomeCooldown     = "cooldown"
	OutcomeConfirmation = "confirmation"
	OutcomeUnknown      = "unknown"
)

var (
	ActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_actions_total",
			Help: "Actions processed by the enforcement engine, by outcome",
		},
		[]string{"action_type", "outcome"},
	)

	ActionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warden_action_duration_seconds",
			Help:    "Time spent executing one action including collaborator calls",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"action_type"},
	)

	TargetsResolved = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warden_targets_resolved",
			Help:    "Number of sessions selected per target resolution",
			Buckets: []float64{0, 1, 2, 3, 5, 8},
		},
		[]string{"target"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_notifications_total",
			Help: "Notification deliveries by channel and result",
		},
		[]string{"channel", "result"},
	)

	TerminationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_terminations_total",
			Help: "Session terminations sent to media servers",
		},
		[]string{"server_type", "result"},
	)

	CooldownChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_cooldown_checks_total",
			Help: "Cooldown lookups by backend and result (active, inactive, error)",
		},
		[]string{"backend", "result"},
	)

	RuleMigrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_rule_migrations_total",
			Help: "Legacy rule migrations by result",
		},
		[]string{"result"},
	)

	TriggersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_triggers_total",
			Help: "Rule trigger messages consumed from the event bus",
		},
		[]string{"result"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warden_store_operation_duration_seconds",
			Help:    "Duration of persistence and cooldown store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"store", "operation", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "warden_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker by result (success, failure, rejected)",
		},
		[]string{"name", "result"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAction counts one action outcome and, for actions that reached the
// executor, observes its duration.
func RecordAction(actionType, outcome string, duration time.Duration) {
	ActionsTotal.WithLabelValues(actionType, outcome).Inc()
	if outcome == OutcomeExecuted || outcome == OutcomeFailed || outcome == OutcomeSkipped {
		ActionDuration.WithLabelValues(actionType).Observe(duration.Seconds())
	}
}

// RecordTargets observes how many sessions a target mode selected.
func RecordTargets(target string, n int) {
	TargetsResolved.WithLabelValues(target).Observe(float64(n))
}

// RecordNotification counts one delivery attempt.
func RecordNotification(channel string, err error) {
	NotificationsTotal.WithLabelValues(channel, resultLabel(err)).Inc()
}

// RecordTermination counts one terminate call.
func RecordTermination(serverType string, err error) {
	TerminationsTotal.WithLabelValues(serverType, resultLabel(err)).Inc()
}

// RecordCooldownCheck counts one cooldown lookup.
func RecordCooldownCheck(backend string, active bool, err error) {
	result := "inactive"
	switch {
	case err != nil:
		result = "error"
	case active:
		result = "active"
	}
	CooldownChecks.WithLabelValues(backend, result).Inc()
}

// RecordStoreOperation observes the duration of one store call.
func RecordStoreOperation(store, operation string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	StoreOperationDuration.WithLabelValues(store, operation, result).Observe(time.Since(start).Seconds())
}

// BreakerStateValue maps a breaker state name to the gauge encoding.
func BreakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

func resultLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
