// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package rules

// ActionType is the "type" tag of an action.
type ActionType string

const (
	ActionCreateViolation ActionType = "create_violation"
	ActionLogOnly         ActionType = "log_only"
	ActionNotify          ActionType = "notify"
	ActionAdjustTrust     ActionType = "adjust_trust"
	ActionSetTrust        ActionType = "set_trust"
	ActionResetTrust      ActionType = "reset_trust"
	ActionKillStream      ActionType = "kill_stream"
	ActionMessageClient   ActionType = "message_client"

	// ActionInvalid tags an undecodable element that carried no type.
	ActionInvalid ActionType = "invalid"
)

// Action is one enforcement step. The set of implementations is closed:
// the unexported marker keeps other packages from adding variants.
type Action interface {
	Type() ActionType
	Accept(v ActionVisitor) ActionResult
	action()
}

// ActionVisitor handles every action variant. Implementations get a compile
// error when a variant is added, which is the point.
type ActionVisitor interface {
	VisitCreateViolation(a *CreateViolationAction) ActionResult
	VisitLogOnly(a *LogOnlyAction) ActionResult
	VisitNotify(a *NotifyAction) ActionResult
	VisitAdjustTrust(a *AdjustTrustAction) ActionResult
	VisitSetTrust(a *SetTrustAction) ActionResult
	VisitResetTrust(a *ResetTrustAction) ActionResult
	VisitKillStream(a *KillStreamAction) ActionResult
	VisitMessageClient(a *MessageClientAction) ActionResult
}

// Cooldowned is implemented by actions that may declare a cooldown window.
type Cooldowned interface {
	// Cooldown returns the window in minutes and whether one is set.
	Cooldown() (minutes int, ok bool)
}

// Confirmable is implemented by actions that can be held for operator approval.
type Confirmable interface {
	NeedsConfirmation() bool
}

// CreateViolationAction records a violation for the triggering session.
type CreateViolationAction struct {
	Severity        Severity `json:"severity" validate:"required,oneof=info warning critical"`
	CooldownMinutes *int     `json:"cooldown_minutes,omitempty" validate:"omitempty,min=0"`
}

// LogOnlyAction writes an audit entry and nothing else.
type LogOnlyAction struct {
	Message *string `json:"message,omitempty"`
}

// NotifyAction sends one notification to every declared channel.
type NotifyAction struct {
	Channels        []NotificationChannel `json:"channels" validate:"dive,oneof=discord webhook push email"`
	CooldownMinutes *int                  `json:"cooldown_minutes,omitempty" validate:"omitempty,min=0"`
}

// AdjustTrustAction moves the user's trust score by Amount. Zero is a no-op.
type AdjustTrustAction struct {
	Amount int `json:"amount" validate:"min=-100,max=100"`
}

// SetTrustAction sets the user's trust score to an absolute value.
type SetTrustAction struct {
	Value int `json:"value" validate:"min=0,max=100"`
}

// ResetTrustAction restores the server-defined baseline trust score.
type ResetTrustAction struct{}

// KillStreamAction terminates the targeted sessions.
type KillStreamAction struct {
	DelaySeconds        *int    `json:"delay_seconds,omitempty" validate:"omitempty,min=0,max=300"`
	Message             *string `json:"message,omitempty"`
	Target              Target  `json:"target,omitempty" validate:"omitempty,oneof=triggering oldest newest all_except_one all_user"`
	RequireConfirmation bool    `json:"require_confirmation,omitempty"`
	CooldownMinutes     *int    `json:"cooldown_minutes,omitempty" validate:"omitempty,min=0"`
}

// MessageClientAction shows a message on the targeted clients.
type MessageClientAction struct {
	Message string `json:"message"`
	Target  Target `json:"target,omitempty" validate:"omitempty,oneof=triggering oldest newest all_except_one all_user"`
}

// UnknownAction is what the decoder produces for an unrecognised type tag.
// It is never executed.
type UnknownAction struct {
	Kind string
	Raw  []byte
}

// InvalidAction stands in for a list element that failed to decode. It is
// never executed; Accept reports the decode error as a failed result.
type InvalidAction struct {
	Kind string
	Raw  []byte
	Err  error
}

func (*CreateViolationAction) Type() ActionType { return ActionCreateViolation }
func (*LogOnlyAction) Type() ActionType         { return ActionLogOnly }
func (*NotifyAction) Type() ActionType          { return ActionNotify }
func (*AdjustTrustAction) Type() ActionType     { return ActionAdjustTrust }
func (*SetTrustAction) Type() ActionType        { return ActionSetTrust }
func (*ResetTrustAction) Type() ActionType      { return ActionResetTrust }
func (*KillStreamAction) Type() ActionType      { return ActionKillStream }
func (*MessageClientAction) Type() ActionType   { return ActionMessageClient }
func (a *UnknownAction) Type() ActionType       { return ActionType(a.Kind) }

// Type returns the declared tag, or "invalid" when the element had none.
func (a *InvalidAction) Type() ActionType {
	if a.Kind == "" {
		return ActionInvalid
	}
	return ActionType(a.Kind)
}

func (a *CreateViolationAction) Accept(v ActionVisitor) ActionResult {
	return v.VisitCreateViolation(a)
}
func (a *LogOnlyAction) Accept(v ActionVisitor) ActionResult     { return v.VisitLogOnly(a) }
func (a *NotifyAction) Accept(v ActionVisitor) ActionResult      { return v.VisitNotify(a) }
func (a *AdjustTrustAction) Accept(v ActionVisitor) ActionResult { return v.VisitAdjustTrust(a) }
func (a *SetTrustAction) Accept(v ActionVisitor) ActionResult    { return v.VisitSetTrust(a) }
func (a *ResetTrustAction) Accept(v ActionVisitor) ActionResult  { return v.VisitResetTrust(a) }
func (a *KillStreamAction) Accept(v ActionVisitor) ActionResult  { return v.VisitKillStream(a) }
func (a *MessageClientAction) Accept(v ActionVisitor) ActionResult {
	return v.VisitMessageClient(a)
}

// Accept reports the action as unknown without consulting the visitor.
func (a *UnknownAction) Accept(ActionVisitor) ActionResult {
	return UnknownActionResult(a.Type())
}

// Accept reports the decode error without consulting the visitor.
func (a *InvalidAction) Accept(ActionVisitor) ActionResult {
	return InvalidActionResult(a.Type(), a.Err)
}

func (*CreateViolationAction) action() {}
func (*LogOnlyAction) action()         {}
func (*NotifyAction) action()          {}
func (*AdjustTrustAction) action()     {}
func (*SetTrustAction) action()        {}
func (*ResetTrustAction) action()      {}
func (*KillStreamAction) action()      {}
func (*MessageClientAction) action()   {}
func (*UnknownAction) action()         {}
func (*InvalidAction) action()         {}

func (a *CreateViolationAction) Cooldown() (int, bool) { return positive(a.CooldownMinutes) }
func (a *NotifyAction) Cooldown() (int, bool)          { return positive(a.CooldownMinutes) }
func (a *KillStreamAction) Cooldown() (int, bool)      { return positive(a.CooldownMinutes) }

func (a *KillStreamAction) NeedsConfirmation() bool { return a.RequireConfirmation }

// IsKnown reports whether a is one of the eight executable variants.
func IsKnown(a Action) bool {
	switch a.(type) {
	case *CreateViolationAction, *LogOnlyAction, *NotifyAction, *AdjustTrustAction,
		*SetTrustAction, *ResetTrustAction, *KillStreamAction, *MessageClientAction:
		return true
	}
	return false
}

func positive(p *int) (int, bool) {
	if p == nil || *p <= 0 {
		return 0, false
	}
	return *p, true
}

// IntPtr and StringPtr help build optional action fields.
func IntPtr(v int) *int { return &v }

func StringPtr(v string) *string { return &v }
