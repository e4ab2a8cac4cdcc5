// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCondition_WindowHours(t *testing.T) {
	tests := []struct {
		name string
		cond Condition
		want int
	}{
		{"window field without params", Condition{Field: FieldUniqueIPsInWindow}, DefaultWindowHours},
		{"window field with empty params", Condition{Field: FieldUniqueDevicesInWindow, Params: &ConditionParams{}}, DefaultWindowHours},
		{"window field with params", Condition{Field: FieldUniqueIPsInWindow, Params: &ConditionParams{WindowHours: IntPtr(72)}}, 72},
		{"non-window field ignores params", Condition{Field: FieldConcurrentStreams, Params: &ConditionParams{WindowHours: IntPtr(72)}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cond.WindowHours())
		})
	}
}

func TestField_Category(t *testing.T) {
	cat, ok := FieldTravelSpeedKmh.Category()
	assert.True(t, ok)
	assert.Equal(t, CategorySession, cat)

	cat, ok = FieldIPInRange.Category()
	assert.True(t, ok)
	assert.Equal(t, CategoryNetwork, cat)

	_, ok = Field("bandwidth").Category()
	assert.False(t, ok)
	assert.False(t, Field("bandwidth").Known())

	// every declared field has a category
	for f := range fieldCategories {
		assert.True(t, f.Known(), f)
	}
	assert.Len(t, fieldCategories, 23)
}

func TestOperator_Known(t *testing.T) {
	for _, op := range []Operator{OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpIn, OpNotIn, OpContains, OpNotContains} {
		assert.True(t, op.Known(), op)
	}
	assert.False(t, Operator("matches").Known())
}

func TestTarget_OrDefault(t *testing.T) {
	assert.Equal(t, TargetTriggering, Target("").OrDefault())
	assert.Equal(t, TargetAllUser, TargetAllUser.OrDefault())
}

func TestCooldownAndConfirmation(t *testing.T) {
	m, ok := (&NotifyAction{CooldownMinutes: IntPtr(10)}).Cooldown()
	assert.True(t, ok)
	assert.Equal(t, 10, m)

	_, ok = (&NotifyAction{CooldownMinutes: IntPtr(0)}).Cooldown()
	assert.False(t, ok)

	_, ok = (&CreateViolationAction{}).Cooldown()
	assert.False(t, ok)

	assert.True(t, (&KillStreamAction{RequireConfirmation: true}).NeedsConfirmation())
	assert.False(t, (&KillStreamAction{}).NeedsConfirmation())
}

func TestActionResult_Executed(t *testing.T) {
	assert.True(t, Succeeded(ActionLogOnly, "ok").Executed())
	assert.False(t, SkippedResult(ActionNotify, "cooldown").Executed())

	failed := Failed(ActionSetTrust, assert.AnError)
	assert.False(t, failed.Executed())
	assert.Equal(t, assert.AnError.Error(), failed.Message)
	assert.Equal(t, assert.AnError.Error(), failed.ErrorMessage)
}
