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

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/warden/internal/logging"
	"github.com/tomtom215/warden/internal/metrics"
	"github.com/tomtom215/warden/internal/rules"
)

// Default topics for the trigger transport.
const (
	TriggerTopic = "rules.triggered"
	ResultTopic  = "rules.actions"
)

// RuleTriggered is published by the upstream evaluator when a rule's
// conditions matched a session.
type RuleTriggered struct {
	Context rules.EvaluationContext `json:"context"`
}

// ActionsExecuted reports the outcome of one RuleTriggered message.
type ActionsExecuted struct {
	RuleID       string               `json:"rule_id"`
	SessionID    string               `json:"session_id"`
	ServerUserID string               `json:"server_user_id"`
	Results      []rules.ActionResult `json:"results"`
	ExecutedAt   time.Time            `json:"executed_at"`
}

// SessionRecorder remembers where sessions live so later message and
// terminate calls can be routed by session id alone.
type SessionRecorder interface {
	RecordSessions(ctx context.Context, sessions []rules.Session) error
}

// TriggerHandler consumes RuleTriggered messages and runs the rule's actions.
type TriggerHandler struct {
	executor *Executor
	recorder SessionRecorder
	now      func() time.Time
}

// HandlerOption configures a TriggerHandler.
type HandlerOption func(*TriggerHandler)

// WithSessionRecorder records the triggering and active sessions of every
// message before its actions run.
func WithSessionRecorder(r SessionRecorder) HandlerOption {
	return func(h *TriggerHandler) {
		h.recorder = r
	}
}

// NewTriggerHandler wraps executor for use as a Watermill handler.
func NewTriggerHandler(executor *Executor, opts ...HandlerOption) (*TriggerHandler, error) {
	if executor == nil {
		return nil, errors.New("executor required")
	}
	h := &TriggerHandler{executor: executor, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Handle implements message.HandlerFunc. Malformed payloads are logged and
// dropped without an error so the router does not redeliver them; the
// engine itself never fails a message.
func (h *TriggerHandler) Handle(msg *message.Message) ([]*message.Message, error) {
	ctx := logging.ContextWithCorrelationID(msg.Context(), msg.UUID)

	trigger, err := decodeTrigger(msg.Payload)
	if err != nil {
		metrics.TriggersTotal.WithLabelValues("decode_failed").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("message_uuid", msg.UUID).Msg("dropping undecodable rule trigger")
		return nil, nil
	}

	ec := &trigger.Context
	h.recordSessions(ctx, ec)
	results := h.Execute(ctx, ec)

	report := ActionsExecuted{
		RuleID:       ec.Rule.ID,
		SessionID:    ec.Session.ID,
		ServerUserID: ec.ServerUser.ID,
		Results:      results,
		ExecutedAt:   h.now().UTC(),
	}
	payload, err := json.Marshal(report)
	if err != nil {
		metrics.TriggersTotal.WithLabelValues("publish_failed").Inc()
		logging.Ctx(ctx).Error().Err(err).Msg("failed to marshal action results")
		return nil, nil
	}

	out := message.NewMessage(watermill.NewUUID(), payload)
	out.Metadata.Set("rule_id", ec.Rule.ID)
	out.Metadata.Set("session_id", ec.Session.ID)
	out.Metadata.Set("correlation_id", msg.UUID)
	if ec.Server.ID != "" {
		out.Metadata.Set("server_id", ec.Server.ID)
	}

	metrics.TriggersTotal.WithLabelValues("processed").Inc()
	return []*message.Message{out}, nil
}

// Execute runs the actions of ec.Rule against ec.
func (h *TriggerHandler) Execute(ctx context.Context, ec *rules.EvaluationContext) []rules.ActionResult {
	var actions []rules.Action
	if ec.Rule.Actions != nil {
		actions = ec.Rule.Actions.Actions
	}

	results := h.executor.ExecuteActions(ctx, ec, actions)

	executed := 0
	for _, r := range results {
		if r.Executed() {
			executed++
		}
	}
	logging.Ctx(ctx).Info().
		Str("rule_id", ec.Rule.ID).
		Str("session_id", ec.Session.ID).
		Int("actions", len(actions)).
		Int("executed", executed).
		Msg("rule actions processed")

	return results
}

// recordSessions is best effort; a failure only costs message routing.
func (h *TriggerHandler) recordSessions(ctx context.Context, ec *rules.EvaluationContext) {
	if h.recorder == nil {
		return
	}
	sessions := make([]rules.Session, 0, len(ec.ActiveSessions)+1)
	sessions = append(sessions, ec.Session)
	for _, s := range ec.ActiveSessions {
		if s.ID != ec.Session.ID {
			sessions = append(sessions, s)
		}
	}
	if err := h.recorder.RecordSessions(ctx, sessions); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("failed to record sessions")
	}
}

func decodeTrigger(payload []byte) (*RuleTriggered, error) {
	var t RuleTriggered
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, fmt.Errorf("unmarshal trigger: %w", err)
	}
	if t.Context.Rule.ID == "" {
		return nil, errors.New("trigger has no rule id")
	}
	if t.Context.Session.ID == "" {
		return nil, errors.New("trigger has no session id")
	}
	return &t, nil
}
