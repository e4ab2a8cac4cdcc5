// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

// Package enforcement executes the actions of a triggered rule.
//
// An upstream evaluator decides that a rule matched a session and hands the
// Executor an EvaluationContext plus the rule's action list. For each action,
// in order, the Executor:
//
//  1. rejects unknown action types
//  2. defers actions that require operator confirmation
//  3. skips actions whose cooldown window is still open
//  4. runs the action's executor and records the result
//  5. starts a new cooldown window after a successful run
//
// Every side effect goes through the Dependencies interface passed to
// NewExecutor. Nothing is ever returned as an error or allowed to panic out
// of ExecuteAction/ExecuteActions: collaborator errors and panics become
// failed ActionResults, and one failed action never stops the next.
//
// Target selection (which of a user's concurrent sessions kill_stream and
// message_client apply to) is the pure function ResolveTargets.
//
// TriggerHandler adapts the Executor to Watermill so triggers can arrive over
// NATS JetStream.
package enforcement
