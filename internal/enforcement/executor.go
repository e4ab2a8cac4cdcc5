// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package enforcement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/warden/internal/logging"
	"github.com/tomtom215/warden/internal/metrics"
	"github.com/tomtom215/warden/internal/rules"
)

// Skip reasons reported for deferred actions.
const (
	SkipReasonConfirmation = "Operator confirmation required; action queued for approval"
	SkipReasonCooldown     = "Action is on cooldown for this user"
)

// Executor runs rule actions against an evaluation context. It holds no
// mutable state and is safe for concurrent use.
type Executor struct {
	deps Dependencies
	now  func() time.Time
}

// NewExecutor returns an Executor performing side effects through deps.
// A nil deps yields an Executor backed by NoopDependencies.
func NewExecutor(deps Dependencies) *Executor {
	if deps == nil {
		deps = NoopDependencies{}
	}
	return &Executor{deps: deps, now: time.Now}
}

// Dependencies returns the collaborators the Executor was built with.
func (e *Executor) Dependencies() Dependencies {
	return e.deps
}

// CooldownKey is the key under which an action's cooldown window is stored.
func CooldownKey(ruleID string, actionType rules.ActionType, serverUserID string) string {
	return fmt.Sprintf("cooldown:%s:%s:%s", ruleID, actionType, serverUserID)
}

// ExecuteActions runs every action in order and returns exactly one result
// per action, in the same order. A failed or skipped action never stops the
// ones after it. ctx cancellation is not observed: once started, the list
// runs to completion.
func (e *Executor) ExecuteActions(ctx context.Context, ec *rules.EvaluationContext, actions []rules.Action) []rules.ActionResult {
	results := make([]rules.ActionResult, 0, len(actions))
	for _, a := range actions {
		results = append(results, e.ExecuteAction(ctx, ec, a))
	}
	return results
}

// ExecuteAction applies confirmation gating and cooldowns around the
// action's executor. It always returns a result; collaborator errors and
// panics are reported as Success=false carrying the collaborator's message
// unchanged.
func (e *Executor) ExecuteAction(ctx context.Context, ec *rules.EvaluationContext, action rules.Action) (result rules.ActionResult) {
	ctx = context.WithoutCancel(ctx)
	start := e.now()
	outcome := metrics.OutcomeFailed

	var actionType rules.ActionType
	if action != nil {
		actionType = action.Type()
	}

	defer func() {
		if p := recover(); p != nil {
			result = rules.Failed(actionType, panicError(p))
			outcome = metrics.OutcomeFailed
		}
		metrics.RecordAction(string(actionType), outcome, e.now().Sub(start))
		logResult(ctx, ec, result, outcome)
	}()

	if invalid, ok := action.(*rules.InvalidAction); ok {
		return invalid.Accept(nil)
	}
	if action == nil || !rules.IsKnown(action) {
		outcome = metrics.OutcomeUnknown
		return rules.UnknownActionResult(actionType)
	}
	if ec == nil {
		return rules.Failed(actionType, errors.New("evaluation context is nil"))
	}

	if c, ok := action.(rules.Confirmable); ok && c.NeedsConfirmation() {
		err := e.deps.QueueForConfirmation(ctx, ConfirmationPayload{
			RuleID:       ec.Rule.ID,
			RuleName:     ec.Rule.Name,
			SessionID:    ec.Session.ID,
			ServerUserID: ec.ServerUser.ID,
			ServerID:     ec.Server.ID,
			Action:       action,
		})
		if err != nil {
			return rules.Failed(actionType, err)
		}
		outcome = metrics.OutcomeConfirmation
		return rules.SkippedResult(actionType, SkipReasonConfirmation)
	}

	var (
		cooldownKey     string
		cooldownMinutes int
	)
	if c, ok := action.(rules.Cooldowned); ok {
		if minutes, set := c.Cooldown(); set {
			cooldownKey = CooldownKey(ec.Rule.ID, actionType, ec.ServerUser.ID)
			cooldownMinutes = minutes

			active, err := e.deps.CheckCooldown(ctx, cooldownKey)
			if err != nil {
				return rules.Failed(actionType, err)
			}
			if active {
				outcome = metrics.OutcomeCooldown
				return rules.SkippedResult(actionType, SkipReasonCooldown)
			}
		}
	}

	result = action.Accept(&actionRunner{ctx: ctx, ec: ec, deps: e.deps})
	if !result.Success {
		return result
	}
	outcome = metrics.OutcomeExecuted

	if cooldownKey != "" {
		if err := e.deps.SetCooldown(ctx, cooldownKey, cooldownMinutes); err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("rule_id", ec.Rule.ID).
				Str("cooldown_key", cooldownKey).
				Msg("failed to start cooldown window")
		}
	}
	return result
}

func panicError(p any) error {
	if err, ok := p.(error); ok {
		return err
	}
	return fmt.Errorf("%v", p)
}

//nolint:gocritic // result is small and logged by value
func logResult(ctx context.Context, ec *rules.EvaluationContext, result rules.ActionResult, outcome string) {
	l := logging.Ctx(ctx)

	var event = l.Debug()
	switch outcome {
	case metrics.OutcomeFailed, metrics.OutcomeUnknown:
		event = l.Warn().Str("error", result.Message)
	case metrics.OutcomeCooldown, metrics.OutcomeConfirmation:
		event = l.Info().Str("skip_reason", result.SkipReason)
	}

	if ec != nil {
		event = event.
			Str("rule_id", ec.Rule.ID).
			Str("session_id", ec.Session.ID).
			Str("server_user_id", ec.ServerUser.ID)
	}
	event.
		Str("action_type", string(result.ActionType)).
		Str("outcome", outcome).
		Msg("action processed")
}
