// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

// Package rules defines the rule data model shared by the enforcement engine
// and the legacy rule migrator.
//
// A rule combines conditions (when to fire) with an ordered list of actions
// (what to do):
//
//	Rule
//	 ├── Conditions: groups combined with AND
//	 │    └── ConditionGroup: conditions combined with OR
//	 │         └── Condition{field, operator, value, params}
//	 └── Actions: executed strictly in array order
//	      └── Action (sealed union of 8 variants)
//
// # Actions
//
// Action is a closed set. Every variant implements Accept(ActionVisitor), so
// adding a variant forces every visitor (the enforcement executors among them)
// to handle it before the module compiles again. Actions decoded from JSON with
// an unrecognised "type" tag become *UnknownAction, and elements that fail to
// decode become *InvalidAction. The engine rejects both per action.
//
// # Immutability
//
// Rules and everything nested inside them are treated as immutable value
// objects once handed to the engine. Nothing in this module mutates a rule or
// an EvaluationContext; persistence is the only writer.
//
// # Validation
//
// Validate enforces the structural invariants (at least one group, condition
// and action; numeric ranges on trust and delay actions). It is meant for the
// boundary where rules enter the system. The engine never validates.
package rules
