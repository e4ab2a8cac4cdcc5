// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package migration

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/warden/internal/rules"
)

func legacyRule(id string, typ LegacyType, params string) LegacyRule {
	t := typ
	r := LegacyRule{
		ID:        id,
		Name:      "Legacy " + id,
		IsActive:  true,
		Type:      &t,
		CreatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	if params != "" {
		r.Params = json.RawMessage(params)
	}
	return r
}

func onlyGroup(t *testing.T, r *rules.Rule) []rules.Condition {
	t.Helper()
	require.NotNil(t, r.Conditions)
	require.Len(t, r.Conditions.Groups, 1)
	return r.Conditions.Groups[0].Conditions
}

func TestNeedsMigration(t *testing.T) {
	migrated := legacyRule("r1", TypeConcurrentStreams, `{"maxStreams":2}`)
	migrated.Conditions = &rules.RuleConditions{}

	actionsOnly := legacyRule("r1", TypeConcurrentStreams, `{"maxStreams":2}`)
	actionsOnly.Actions = &rules.RuleActions{}

	noType := legacyRule("r1", TypeConcurrentStreams, `{"maxStreams":2}`)
	noType.Type = nil

	tests := []struct {
		name string
		rule *LegacyRule
		want bool
	}{
		{"nil rule", nil, false},
		{"type and params", ptr(legacyRule("r1", TypeConcurrentStreams, `{"maxStreams":2}`)), true},
		{"type without params", ptr(legacyRule("r1", TypeConcurrentStreams, "")), false},
		{"json null params", ptr(legacyRule("r1", TypeConcurrentStreams, "null")), false},
		{"params without type", &noType, false},
		{"already has conditions", &migrated, false},
		{"already has actions", &actionsOnly, false},
		{"unknown type still needs migration", ptr(legacyRule("r1", "bogus", `{}`)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsMigration(tt.rule))
		})
	}
}

func TestConvertLegacyRule_Types(t *testing.T) {
	window := 6
	defaultWindow := rules.DefaultWindowHours

	tests := []struct {
		name   string
		typ    LegacyType
		params string
		want   []rules.Condition
	}{
		{
			name:   "concurrent streams",
			typ:    TypeConcurrentStreams,
			params: `{"maxStreams":3}`,
			want:   []rules.Condition{{Field: rules.FieldConcurrentStreams, Operator: rules.OpGt, Value: 3.0}},
		},
		{
			name:   "geo blocklist",
			typ:    TypeGeoRestriction,
			params: `{"mode":"blocklist","countries":["RU","CN"]}`,
			want:   []rules.Condition{{Field: rules.FieldCountry, Operator: rules.OpIn, Value: []any{"RU", "CN"}}},
		},
		{
			name:   "geo mode defaults to blocklist",
			typ:    TypeGeoRestriction,
			params: `{"countries":["RU"]}`,
			want:   []rules.Condition{{Field: rules.FieldCountry, Operator: rules.OpIn, Value: []any{"RU"}}},
		},
		{
			name:   "geo allowlist",
			typ:    TypeGeoRestriction,
			params: `{"mode":"allowlist","countries":["US"]}`,
			want:   []rules.Condition{{Field: rules.FieldCountry, Operator: rules.OpNotIn, Value: []any{"US"}}},
		},
		{
			name:   "impossible travel",
			typ:    TypeImpossibleTravel,
			params: `{"maxSpeedKmh":900}`,
			want:   []rules.Condition{{Field: rules.FieldTravelSpeedKmh, Operator: rules.OpGt, Value: 900.0}},
		},
		{
			name:   "simultaneous locations",
			typ:    TypeSimultaneousLocations,
			params: `{"minDistanceKm":50.5}`,
			want:   []rules.Condition{{Field: rules.FieldActiveSessionDistanceKm, Operator: rules.OpGt, Value: 50.5}},
		},
		{
			name:   "device velocity keeps window",
			typ:    TypeDeviceVelocity,
			params: `{"maxIps":4,"windowHours":6}`,
			want: []rules.Condition{{
				Field: rules.FieldUniqueIPsInWindow, Operator: rules.OpGt, Value: 4.0,
				Params: &rules.ConditionParams{WindowHours: &window},
			}},
		},
		{
			name:   "device velocity default window",
			typ:    TypeDeviceVelocity,
			params: `{"maxIps":4}`,
			want: []rules.Condition{{
				Field: rules.FieldUniqueIPsInWindow, Operator: rules.OpGt, Value: 4.0,
				Params: &rules.ConditionParams{WindowHours: &defaultWindow},
			}},
		},
		{
			name:   "inactivity weeks",
			typ:    TypeAccountInactivity,
			params: `{"inactivityValue":2,"inactivityUnit":"weeks"}`,
			want:   []rules.Condition{{Field: rules.FieldInactiveDays, Operator: rules.OpGt, Value: 14.0}},
		},
		{
			name:   "inactivity months",
			typ:    TypeAccountInactivity,
			params: `{"inactivityValue":3,"inactivityUnit":"months"}`,
			want:   []rules.Condition{{Field: rules.FieldInactiveDays, Operator: rules.OpGt, Value: 90.0}},
		},
		{
			name:   "inactivity days",
			typ:    TypeAccountInactivity,
			params: `{"inactivityValue":45,"inactivityUnit":"days"}`,
			want:   []rules.Condition{{Field: rules.FieldInactiveDays, Operator: rules.OpGt, Value: 45.0}},
		},
		{
			name:   "inactivity unknown unit counts days",
			typ:    TypeAccountInactivity,
			params: `{"inactivityValue":10,"inactivityUnit":"fortnights"}`,
			want:   []rules.Condition{{Field: rules.FieldInactiveDays, Operator: rules.OpGt, Value: 10.0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := legacyRule("r1", tt.typ, tt.params)
			got, err := ConvertLegacyRule(&in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, onlyGroup(t, got))
		})
	}
}

func TestConvertLegacyRule_ExcludePrivateIPsSharesGroup(t *testing.T) {
	in := legacyRule("r1", TypeConcurrentStreams, `{"maxStreams":2,"excludePrivateIps":true}`)

	got, err := ConvertLegacyRule(&in)
	require.NoError(t, err)

	// Both conditions land in the single OR group.
	assert.Equal(t, []rules.Condition{
		{Field: rules.FieldConcurrentStreams, Operator: rules.OpGt, Value: 2.0},
		{Field: rules.FieldIsLocalNetwork, Operator: rules.OpEq, Value: false},
	}, onlyGroup(t, got))
}

func TestConvertLegacyRule_DefaultAction(t *testing.T) {
	in := legacyRule("r1", TypeImpossibleTravel, `{"maxSpeedKmh":800}`)

	got, err := ConvertLegacyRule(&in)
	require.NoError(t, err)
	require.NotNil(t, got.Actions)
	require.Len(t, got.Actions.Actions, 1)
	assert.Equal(t, &rules.CreateViolationAction{Severity: rules.SeverityWarning}, got.Actions.Actions[0])
}

func TestConvertLegacyRule_CopiesIdentity(t *testing.T) {
	desc := "old rule"
	server := "srv1"
	in := legacyRule("r9", TypeImpossibleTravel, `{"maxSpeedKmh":800}`)
	in.Description = &desc
	in.ServerID = &server
	in.IsActive = false

	got, err := ConvertLegacyRule(&in)
	require.NoError(t, err)

	assert.Equal(t, "r9", got.ID)
	assert.Equal(t, "Legacy r9", got.Name)
	assert.False(t, got.IsActive)
	assert.Equal(t, in.CreatedAt, got.CreatedAt)
	assert.Equal(t, in.UpdatedAt, got.UpdatedAt)
	require.NotNil(t, got.Description)
	require.NotNil(t, got.ServerID)
	assert.Equal(t, "old rule", *got.Description)
	assert.Equal(t, "srv1", *got.ServerID)

	desc = "changed"
	assert.Equal(t, "old rule", *got.Description, "converted rule must not alias the legacy row")
}

func TestConvertLegacyRule_ProducesValidRules(t *testing.T) {
	inputs := []LegacyRule{
		legacyRule("a", TypeConcurrentStreams, `{"maxStreams":2,"excludePrivateIps":true}`),
		legacyRule("b", TypeGeoRestriction, `{"countries":["RU"]}`),
		legacyRule("c", TypeImpossibleTravel, `{"maxSpeedKmh":800}`),
		legacyRule("d", TypeSimultaneousLocations, `{"minDistanceKm":100}`),
		legacyRule("e", TypeDeviceVelocity, `{"maxIps":3,"windowHours":12}`),
		legacyRule("f", TypeAccountInactivity, `{"inactivityValue":1,"inactivityUnit":"months"}`),
	}
	for i := range inputs {
		got, err := ConvertLegacyRule(&inputs[i])
		require.NoError(t, err, inputs[i].ID)
		assert.NoError(t, rules.Validate(got), inputs[i].ID)
	}
}

func TestConvertLegacyRule_Errors(t *testing.T) {
	noType := legacyRule("r1", TypeImpossibleTravel, `{"maxSpeedKmh":1}`)
	noType.Type = nil

	tests := []struct {
		name string
		rule *LegacyRule
		want error
	}{
		{"unknown type", ptr(legacyRule("r1", "vpn_usage", `{}`)), ErrUnknownLegacyType},
		{"no type", &noType, ErrUnknownLegacyType},
		{"no params", ptr(legacyRule("r1", TypeImpossibleTravel, "")), ErrMissingParams},
		{"missing maxStreams", ptr(legacyRule("r1", TypeConcurrentStreams, `{"excludePrivateIps":true}`)), ErrMissingParams},
		{"missing countries", ptr(legacyRule("r1", TypeGeoRestriction, `{"mode":"allowlist"}`)), ErrMissingParams},
		{"missing maxSpeedKmh", ptr(legacyRule("r1", TypeImpossibleTravel, `{}`)), ErrMissingParams},
		{"missing minDistanceKm", ptr(legacyRule("r1", TypeSimultaneousLocations, `{}`)), ErrMissingParams},
		{"missing maxIps", ptr(legacyRule("r1", TypeDeviceVelocity, `{"windowHours":1}`)), ErrMissingParams},
		{"missing inactivityValue", ptr(legacyRule("r1", TypeAccountInactivity, `{"inactivityUnit":"days"}`)), ErrMissingParams},
		{"bad geo mode", ptr(legacyRule("r1", TypeGeoRestriction, `{"mode":"greylist","countries":[]}`)), ErrInvalidParams},
		{"params not an object", ptr(legacyRule("r1", TypeImpossibleTravel, `[1,2]`)), ErrInvalidParams},
		{"wrong param type", ptr(legacyRule("r1", TypeImpossibleTravel, `{"maxSpeedKmh":"fast"}`)), ErrInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertLegacyRule(tt.rule)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConvertLegacyRule_Nil(t *testing.T) {
	got, err := ConvertLegacyRule(nil)
	assert.Nil(t, got)
	assert.Error(t, err)
}

func ptr[T any](v T) *T {
	return &v
}
