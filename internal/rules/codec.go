// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package rules

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// RuleActions is the ordered action list of a rule.
type RuleActions struct {
	Actions []Action `json:"actions" validate:"min=1"`
}

// UnmarshalJSON decodes each element through DecodeAction. An element that
// fails to decode becomes an *InvalidAction so its siblings still load.
func (ra *RuleActions) UnmarshalJSON(data []byte) error {
	var raw struct {
		Actions []json.RawMessage `json:"actions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode actions: %w", err)
	}

	actions := make([]Action, 0, len(raw.Actions))
	for _, elem := range raw.Actions {
		a, err := DecodeAction(elem)
		if err != nil {
			a = &InvalidAction{Kind: actionTag(elem), Raw: bytes.Clone(elem), Err: err}
		}
		actions = append(actions, a)
	}
	ra.Actions = actions
	return nil
}

// DecodeAction decodes one tagged action. An unrecognised tag yields an
// *UnknownAction rather than an error so the engine can report it per action.
func DecodeAction(data []byte) (Action, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	if head.Type == "" {
		return nil, errors.New("action has no type")
	}

	var a Action
	switch ActionType(head.Type) {
	case ActionCreateViolation:
		a = &CreateViolationAction{}
	case ActionLogOnly:
		a = &LogOnlyAction{}
	case ActionNotify:
		a = &NotifyAction{}
	case ActionAdjustTrust:
		a = &AdjustTrustAction{}
	case ActionSetTrust:
		a = &SetTrustAction{}
	case ActionResetTrust:
		return &ResetTrustAction{}, nil
	case ActionKillStream:
		a = &KillStreamAction{}
	case ActionMessageClient:
		a = &MessageClientAction{}
	default:
		return &UnknownAction{Kind: head.Type, Raw: bytes.Clone(data)}, nil
	}

	if err := json.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("%s: %w", head.Type, err)
	}
	return a, nil
}

// actionTag returns the "type" member of data, or "" when it cannot be read.
func actionTag(data []byte) string {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return ""
	}
	return head.Type
}

// Alias types drop the MarshalJSON methods so marshalTagged does not recurse.
type (
	createViolationJSON CreateViolationAction
	logOnlyJSON         LogOnlyAction
	notifyJSON          NotifyAction
	adjustTrustJSON     AdjustTrustAction
	setTrustJSON        SetTrustAction
	killStreamJSON      KillStreamAction
	messageClientJSON   MessageClientAction
)

func (a *CreateViolationAction) MarshalJSON() ([]byte, error) {
	return marshalTagged(a.Type(), (*createViolationJSON)(a))
}

func (a *LogOnlyAction) MarshalJSON() ([]byte, error) {
	return marshalTagged(a.Type(), (*logOnlyJSON)(a))
}

func (a *NotifyAction) MarshalJSON() ([]byte, error) {
	return marshalTagged(a.Type(), (*notifyJSON)(a))
}

func (a *AdjustTrustAction) MarshalJSON() ([]byte, error) {
	return marshalTagged(a.Type(), (*adjustTrustJSON)(a))
}

func (a *SetTrustAction) MarshalJSON() ([]byte, error) {
	return marshalTagged(a.Type(), (*setTrustJSON)(a))
}

func (a *ResetTrustAction) MarshalJSON() ([]byte, error) {
	return marshalTagged(a.Type(), struct{}{})
}

func (a *KillStreamAction) MarshalJSON() ([]byte, error) {
	return marshalTagged(a.Type(), (*killStreamJSON)(a))
}

func (a *MessageClientAction) MarshalJSON() ([]byte, error) {
	return marshalTagged(a.Type(), (*messageClientJSON)(a))
}

// MarshalJSON re-emits the original bytes so unknown actions survive a round trip.
func (a *UnknownAction) MarshalJSON() ([]byte, error) {
	if len(a.Raw) > 0 {
		return a.Raw, nil
	}
	return marshalTagged(a.Type(), struct{}{})
}

// MarshalJSON re-emits the original bytes so a stored rule is not rewritten.
func (a *InvalidAction) MarshalJSON() ([]byte, error) {
	if len(a.Raw) > 0 && json.Valid(a.Raw) {
		return a.Raw, nil
	}
	return marshalTagged(a.Type(), struct{}{})
}

// marshalTagged encodes body and prepends the "type" member.
func marshalTagged(t ActionType, body any) ([]byte, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	if len(encoded) < 2 || encoded[0] != '{' {
		return nil, fmt.Errorf("action %s did not encode as an object", t)
	}

	tag, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(encoded) + len(tag) + 10)
	buf.WriteString(`{"type":`)
	buf.Write(tag)
	if rest := bytes.TrimSpace(encoded[1:]); len(rest) > 1 {
		buf.WriteByte(',')
		buf.Write(rest)
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}
