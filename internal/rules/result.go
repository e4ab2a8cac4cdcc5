// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package rules

import "fmt"

// ActionResult is the outcome of one action. Results are always returned,
// never raised; a skipped action reports Success with Skipped set.
type ActionResult struct {
	ActionType   ActionType `json:"action_type"`
	Success      bool       `json:"success"`
	Message      string     `json:"message,omitempty"`
	Skipped      bool       `json:"skipped,omitempty"`
	SkipReason   string     `json:"skip_reason,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// Executed reports whether the action actually ran and succeeded. Callers
// counting effective enforcement should use this rather than Success.
func (r ActionResult) Executed() bool {
	return r.Success && !r.Skipped
}

// Succeeded builds a successful result.
func Succeeded(t ActionType, msg string) ActionResult {
	return ActionResult{ActionType: t, Success: true, Message: msg}
}

// SkippedResult builds a successful-but-skipped result.
func SkippedResult(t ActionType, reason string) ActionResult {
	return ActionResult{ActionType: t, Success: true, Skipped: true, SkipReason: reason}
}

// Failed builds a failed result carrying err's message.
func Failed(t ActionType, err error) ActionResult {
	return ActionResult{ActionType: t, Success: false, Message: err.Error(), ErrorMessage: err.Error()}
}

// UnknownActionResult is returned for actions with no registered executor.
func UnknownActionResult(t ActionType) ActionResult {
	return ActionResult{ActionType: t, Success: false, Message: fmt.Sprintf("Unknown action type: %s", t)}
}

// InvalidActionResult is returned for list elements that failed to decode.
func InvalidActionResult(t ActionType, err error) ActionResult {
	msg := "Invalid action"
	if err != nil {
		msg = fmt.Sprintf("Invalid action: %v", err)
	}
	return ActionResult{ActionType: t, Success: false, Message: msg, ErrorMessage: msg}
}
