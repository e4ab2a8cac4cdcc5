// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

// Package metrics declares Warden's Prometheus collectors.
//
// All collectors are registered on the default registry through promauto and
// exposed by the ops router at /metrics. Record* helpers keep label values
// consistent across call sites.
//
// Action outcomes:
//
//	warden_actions_total{action_type, outcome}
//	  outcome: executed, skipped, failed, cooldown, confirmation, unknown
//	warden_action_duration_seconds{action_type}
//	warden_targets_resolved{target}
//
// Collaborators:
//
//	warden_notifications_total{channel, result}
//	warden_terminations_total{server_type, result}
//	warden_cooldown_checks_total{backend, result}
//	warden_circuit_breaker_state{name}          0=closed 1=half-open 2=open
//	warden_circuit_breaker_requests_total{name, result}
//	warden_circuit_breaker_state_transitions_total{name, from_state, to_state}
//
// Migration and transport:
//
//	warden_rule_migrations_total{result}   migrated, failed, skipped
//	warden_triggers_total{result}          processed, decode_failed, publish_failed
//	warden_store_operation_duration_seconds{operation}
package metrics
