// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package enforcement

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/warden/internal/rules"
)

func triggerMessage(t *testing.T, ec *rules.EvaluationContext) *message.Message {
	t.Helper()
	payload, err := json.Marshal(RuleTriggered{Context: *ec})
	if err != nil {
		t.Fatalf("marshal trigger: %v", err)
	}
	return message.NewMessage("msg-1", payload)
}

func newTestHandler(t *testing.T, deps Dependencies, opts ...HandlerOption) *TriggerHandler {
	t.Helper()
	h, err := NewTriggerHandler(NewExecutor(deps), opts...)
	if err != nil {
		t.Fatalf("NewTriggerHandler() error = %v", err)
	}
	return h
}

// handleOne runs msg through h and decodes the single report it publishes.
func handleOne(t *testing.T, h *TriggerHandler, msg *message.Message) (*message.Message, ActionsExecuted) {
	t.Helper()
	out, err := h.Handle(msg)
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("Handle() published %d messages, want 1", len(out))
	}
	var report ActionsExecuted
	if err := json.Unmarshal(out[0].Payload, &report); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	return out[0], report
}

func TestNewTriggerHandler_NilExecutor(t *testing.T) {
	if _, err := NewTriggerHandler(nil); err == nil {
		t.Error("NewTriggerHandler(nil) should fail")
	}
}

func TestTriggerHandler_Handle(t *testing.T) {
	deps := newRecordingDeps()
	h := newTestHandler(t, deps)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	ec := threeSessionContext()
	ec.Rule.Actions = &rules.RuleActions{Actions: []rules.Action{
		&rules.KillStreamAction{Target: rules.TargetAllExceptOne},
		&rules.LogOnlyAction{},
		&rules.UnknownAction{Kind: "teleport", Raw: []byte(`{"type":"teleport"}`)},
	}}

	out, report := handleOne(t, h, triggerMessage(t, ec))

	wantMeta := map[string]string{
		"rule_id":        "r1",
		"session_id":     "s3",
		"server_id":      "srv1",
		"correlation_id": "msg-1",
	}
	for k, want := range wantMeta {
		if got := out.Metadata.Get(k); got != want {
			t.Errorf("metadata %s = %q, want %q", k, got, want)
		}
	}

	if report.RuleID != "r1" || report.SessionID != "s3" || report.ServerUserID != "u1" {
		t.Errorf("report ids = %q/%q/%q", report.RuleID, report.SessionID, report.ServerUserID)
	}
	if !report.ExecutedAt.Equal(fixed) {
		t.Errorf("ExecutedAt = %v, want %v", report.ExecutedAt, fixed)
	}

	if len(report.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(report.Results))
	}
	if !report.Results[0].Executed() || !report.Results[1].Executed() {
		t.Errorf("results[0:2] = %+v, want executed", report.Results[:2])
	}
	if report.Results[2].Success {
		t.Errorf("unknown action reported success: %+v", report.Results[2])
	}
	if report.Results[2].Message != "Unknown action type: teleport" {
		t.Errorf("unknown action message = %q", report.Results[2].Message)
	}

	if len(deps.terminations) != 2 {
		t.Fatalf("got %d terminations, want 2", len(deps.terminations))
	}
	if deps.terminations[0].SessionID != "s2" || deps.terminations[1].SessionID != "s3" {
		t.Errorf("terminations = %+v, want s2 then s3", deps.terminations)
	}
}

func TestTriggerHandler_Handle_MalformedActionKeepsSiblings(t *testing.T) {
	deps := newRecordingDeps()
	h := newTestHandler(t, deps)

	ec := threeSessionContext()
	ec.Rule.Actions = &rules.RuleActions{Actions: []rules.Action{
		&rules.CreateViolationAction{Severity: rules.SeverityWarning},
		&rules.InvalidAction{Kind: "adjust_trust", Raw: []byte(`{"type":"adjust_trust","amount":"ten"}`)},
		&rules.LogOnlyAction{},
	}}

	msg := triggerMessage(t, ec)
	if !strings.Contains(string(msg.Payload), `"amount":"ten"`) {
		t.Fatalf("payload does not carry the malformed element: %s", msg.Payload)
	}

	_, report := handleOne(t, h, msg)

	if len(report.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(report.Results))
	}
	if !report.Results[0].Executed() {
		t.Errorf("create_violation result = %+v, want executed", report.Results[0])
	}
	bad := report.Results[1]
	if bad.Success || bad.ActionType != rules.ActionAdjustTrust {
		t.Errorf("malformed result = %+v, want failed adjust_trust", bad)
	}
	if !strings.Contains(bad.Message, "adjust_trust") || bad.ErrorMessage == "" {
		t.Errorf("malformed result should carry the decode error, got %+v", bad)
	}
	if !report.Results[2].Executed() {
		t.Errorf("log_only result = %+v, want executed", report.Results[2])
	}

	if len(deps.violations) != 1 || deps.violations[0].Severity != rules.SeverityWarning {
		t.Errorf("violations = %+v, want one warning", deps.violations)
	}
	if n := deps.called("AdjustUserTrust"); n != 0 {
		t.Errorf("AdjustUserTrust called %d times for a malformed action", n)
	}
}

func TestTriggerHandler_Handle_NoActions(t *testing.T) {
	h := newTestHandler(t, nil)

	_, report := handleOne(t, h, triggerMessage(t, threeSessionContext()))
	if len(report.Results) != 0 {
		t.Errorf("Results = %+v, want empty", report.Results)
	}
}

func TestTriggerHandler_Handle_DropsBadPayloads(t *testing.T) {
	missingRule := threeSessionContext()
	missingRule.Rule.ID = ""
	missingSession := threeSessionContext()
	missingSession.Session.ID = ""

	tests := []struct {
		name string
		msg  *message.Message
	}{
		{"not json", message.NewMessage("m", []byte("{nope"))},
		{"empty", message.NewMessage("m", nil)},
		{"missing rule id", triggerMessage(t, missingRule)},
		{"missing session id", triggerMessage(t, missingSession)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newRecordingDeps()
			h := newTestHandler(t, deps)

			out, err := h.Handle(tt.msg)
			if err != nil {
				t.Errorf("Handle() error = %v, want nil", err)
			}
			if out != nil {
				t.Errorf("Handle() published %d messages, want none", len(out))
			}
			if len(deps.calls) != 0 {
				t.Errorf("collaborators called: %v", deps.calls)
			}
		})
	}
}

type sessionRecorderFunc func(ctx context.Context, sessions []rules.Session) error

func (f sessionRecorderFunc) RecordSessions(ctx context.Context, sessions []rules.Session) error {
	return f(ctx, sessions)
}

func TestTriggerHandler_RecordsSessions(t *testing.T) {
	var recorded []string
	recorder := sessionRecorderFunc(func(_ context.Context, sessions []rules.Session) error {
		for _, s := range sessions {
			recorded = append(recorded, s.ID)
		}
		return nil
	})

	h := newTestHandler(t, newRecordingDeps(), WithSessionRecorder(recorder))

	if _, err := h.Handle(triggerMessage(t, threeSessionContext())); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if want := []string{"s3", "x1", "s1", "s2"}; !reflect.DeepEqual(recorded, want) {
		t.Errorf("recorded = %v, want %v", recorded, want)
	}
}

func TestTriggerHandler_RecorderFailureDoesNotBlockActions(t *testing.T) {
	recorder := sessionRecorderFunc(func(context.Context, []rules.Session) error {
		return errors.New("db down")
	})

	deps := newRecordingDeps()
	h := newTestHandler(t, deps, WithSessionRecorder(recorder))

	ec := threeSessionContext()
	ec.Rule.Actions = &rules.RuleActions{Actions: []rules.Action{&rules.LogOnlyAction{}}}

	handleOne(t, h, triggerMessage(t, ec))
	if len(deps.calls) == 0 {
		t.Error("no collaborators called after recorder failure")
	}
}
