// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package rules

import "time"

// DefaultWindowHours is the rolling window applied to window-based fields
// when a condition does not carry params.window_hours.
const DefaultWindowHours = 24

// Rule is the policy unit: when its conditions match a session, its actions run.
type Rule struct {
	ID          string          `json:"id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Description *string         `json:"description,omitempty"`
	ServerID    *string         `json:"server_id,omitempty"` // nil applies to all servers
	IsActive    bool            `json:"is_active"`
	Conditions  *RuleConditions `json:"conditions,omitempty" validate:"required"`
	Actions     *RuleActions    `json:"actions,omitempty" validate:"required"`
	CreatedAt   time.Time       `json:"created_at,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at,omitempty"`
}

// RuleConditions holds condition groups combined with AND.
type RuleConditions struct {
	Groups []ConditionGroup `json:"groups" validate:"min=1,dive"`
}

// ConditionGroup holds conditions combined with OR.
type ConditionGroup struct {
	Conditions []Condition `json:"conditions" validate:"min=1,dive"`
}

// Condition compares one dynamic field against a static value.
type Condition struct {
	Field    Field            `json:"field" validate:"required"`
	Operator Operator         `json:"operator" validate:"required"`
	Value    any              `json:"value"`
	Params   *ConditionParams `json:"params,omitempty"`
}

// ConditionParams carries per-condition tuning. Only window_hours exists today.
type ConditionParams struct {
	WindowHours *int `json:"window_hours,omitempty" validate:"omitempty,min=1"`
}

// WindowHours returns the rolling window for window-based fields, falling
// back to DefaultWindowHours. It returns 0 for fields without a window.
func (c Condition) WindowHours() int {
	if !c.Field.RequiresWindow() {
		return 0
	}
	if c.Params != nil && c.Params.WindowHours != nil {
		return *c.Params.WindowHours
	}
	return DefaultWindowHours
}

// FieldCategory groups fields by the data they are computed from.
type FieldCategory string

const (
	CategorySession FieldCategory = "session"
	CategoryStream  FieldCategory = "stream"
	CategoryUser    FieldCategory = "user"
	CategoryDevice  FieldCategory = "device"
	CategoryNetwork FieldCategory = "network"
	CategoryScope   FieldCategory = "scope"
)

// Field names a dynamic value computed upstream for the triggering session.
type Field string

const (
	// Session behaviour
	FieldConcurrentStreams       Field = "concurrent_streams"
	FieldActiveSessionDistanceKm Field = "active_session_distance_km"
	FieldTravelSpeedKmh          Field = "travel_speed_kmh"
	FieldUniqueIPsInWindow       Field = "unique_ips_in_window"
	FieldUniqueDevicesInWindow   Field = "unique_devices_in_window"
	FieldInactiveDays            Field = "inactive_days"

	// Stream quality
	FieldSourceResolution     Field = "source_resolution"
	FieldOutputResolution     Field = "output_resolution"
	FieldIsTranscoding        Field = "is_transcoding"
	FieldIsTranscodeDowngrade Field = "is_transcode_downgrade"
	FieldSourceBitrateMbps    Field = "source_bitrate_mbps"

	// User attributes
	FieldUserID         Field = "user_id"
	FieldTrustScore     Field = "trust_score"
	FieldAccountAgeDays Field = "account_age_days"

	// Device / client
	FieldDeviceType Field = "device_type"
	FieldClientName Field = "client_name"
	FieldPlatform   Field = "platform"

	// Network / location
	FieldIsLocalNetwork Field = "is_local_network"
	FieldCountry        Field = "country"
	FieldIPInRange      Field = "ip_in_range"

	// Scope
	FieldServerID  Field = "server_id"
	FieldLibraryID Field = "library_id"
	FieldMediaType Field = "media_type"
)

var fieldCategories = map[Field]FieldCategory{
	FieldConcurrentStreams:       CategorySession,
	FieldActiveSessionDistanceKm: CategorySession,
	FieldTravelSpeedKmh:          CategorySession,
	FieldUniqueIPsInWindow:       CategorySession,
	FieldUniqueDevicesInWindow:   CategorySession,
	FieldInactiveDays:            CategorySession,
	FieldSourceResolution:        CategoryStream,
	FieldOutputResolution:        CategoryStream,
	FieldIsTranscoding:           CategoryStream,
	FieldIsTranscodeDowngrade:    CategoryStream,
	FieldSourceBitrateMbps:       CategoryStream,
	FieldUserID:                  CategoryUser,
	FieldTrustScore:              CategoryUser,
	FieldAccountAgeDays:          CategoryUser,
	FieldDeviceType:              CategoryDevice,
	FieldClientName:              CategoryDevice,
	FieldPlatform:                CategoryDevice,
	FieldIsLocalNetwork:          CategoryNetwork,
	FieldCountry:                 CategoryNetwork,
	FieldIPInRange:               CategoryNetwork,
	FieldServerID:                CategoryScope,
	FieldLibraryID:               CategoryScope,
	FieldMediaType:               CategoryScope,
}

// Category returns the field's category and whether the field is known.
func (f Field) Category() (FieldCategory, bool) {
	c, ok := fieldCategories[f]
	return c, ok
}

// Known reports whether f is one of the defined fields.
func (f Field) Known() bool {
	_, ok := fieldCategories[f]
	return ok
}

// RequiresWindow reports whether the field is computed over a rolling window.
func (f Field) RequiresWindow() bool {
	return f == FieldUniqueIPsInWindow || f == FieldUniqueDevicesInWindow
}

// Operator compares a field value with a condition value.
type Operator string

const (
	OpEq          Operator = "eq"
	OpNeq         Operator = "neq"
	OpGt          Operator = "gt"
	OpGte         Operator = "gte"
	OpLt          Operator = "lt"
	OpLte         Operator = "lte"
	OpIn          Operator = "in"
	OpNotIn       Operator = "not_in"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
)

// Known reports whether op is one of the defined operators.
func (op Operator) Known() bool {
	switch op {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpIn, OpNotIn, OpContains, OpNotContains:
		return true
	}
	return false
}

// Severity is the severity recorded on a violation.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Target selects which of a user's concurrent sessions an action applies to.
type Target string

const (
	TargetTriggering   Target = "triggering"
	TargetOldest       Target = "oldest"
	TargetNewest       Target = "newest"
	TargetAllExceptOne Target = "all_except_one"
	TargetAllUser      Target = "all_user"
)

// OrDefault returns TargetTriggering for an unset target.
func (t Target) OrDefault() Target {
	if t == "" {
		return TargetTriggering
	}
	return t
}

// NotificationChannel names a delivery channel for the notify action.
type NotificationChannel string

const (
	ChannelDiscord NotificationChannel = "discord"
	ChannelWebhook NotificationChannel = "webhook"
	ChannelPush    NotificationChannel = "push"
	ChannelEmail   NotificationChannel = "email"
)
