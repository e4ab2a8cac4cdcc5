// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package migration

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/warden/internal/rules"
)

// LegacyType is the discriminator of a legacy rule.
type LegacyType string

const (
	TypeConcurrentStreams     LegacyType = "concurrent_streams"
	TypeGeoRestriction        LegacyType = "geo_restriction"
	TypeImpossibleTravel      LegacyType = "impossible_travel"
	TypeSimultaneousLocations LegacyType = "simultaneous_locations"
	TypeDeviceVelocity        LegacyType = "device_velocity"
	TypeAccountInactivity     LegacyType = "account_inactivity"
)

// LegacyRule is a stored rule row that may still be in the legacy shape.
// Type and Params are the legacy columns; Conditions and Actions are the
// current ones and stay nil until the rule is migrated.
type LegacyRule struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description *string               `json:"description,omitempty"`
	ServerID    *string               `json:"server_id,omitempty"`
	IsActive    bool                  `json:"is_active"`
	Type        *LegacyType           `json:"type,omitempty"`
	Params      json.RawMessage       `json:"params,omitempty"`
	Conditions  *rules.RuleConditions `json:"conditions,omitempty"`
	Actions     *rules.RuleActions    `json:"actions,omitempty"`
	CreatedAt   time.Time             `json:"created_at,omitempty"`
	UpdatedAt   time.Time             `json:"updated_at,omitempty"`

	// DecodeErr is set by the store when the conditions or actions column
	// could not be decoded. The column's field is left nil.
	DecodeErr error `json:"-"`
}

// Unreadable returns why r's stored columns cannot be trusted: a column
// decode failure or an action element that did not decode.
func (r *LegacyRule) Unreadable() error {
	if r.DecodeErr != nil {
		return r.DecodeErr
	}
	if r.Actions == nil {
		return nil
	}
	for i, a := range r.Actions.Actions {
		if invalid, ok := a.(*rules.InvalidAction); ok {
			return fmt.Errorf("action %d: %s", i, rules.InvalidActionResult(invalid.Type(), invalid.Err).Message)
		}
	}
	return nil
}

// hasParams treats a missing column and a JSON null the same way.
func (r *LegacyRule) hasParams() bool {
	return len(r.Params) > 0 && string(r.Params) != "null"
}

// NeedsMigration reports whether r carries a legacy type and params and has
// not been converted yet. A rule with a type but no params is not migratable.
func NeedsMigration(r *LegacyRule) bool {
	if r == nil || r.Type == nil || !r.hasParams() {
		return false
	}
	return r.Conditions == nil && r.Actions == nil
}

// Legacy params, one struct per type. Pointer fields are required.

type concurrentStreamsParams struct {
	MaxStreams        *float64 `json:"maxStreams"`
	ExcludePrivateIPs bool     `json:"excludePrivateIps"`
}

type geoRestrictionParams struct {
	Mode      string   `json:"mode"` // blocklist (default) or allowlist
	Countries []string `json:"countries"`
}

type impossibleTravelParams struct {
	MaxSpeedKmh *float64 `json:"maxSpeedKmh"`
}

type simultaneousLocationsParams struct {
	MinDistanceKm *float64 `json:"minDistanceKm"`
}

type deviceVelocityParams struct {
	MaxIPs      *float64 `json:"maxIps"`
	WindowHours *int     `json:"windowHours"`
}

type accountInactivityParams struct {
	InactivityValue *float64 `json:"inactivityValue"`
	InactivityUnit  string   `json:"inactivityUnit"` // days, weeks, months
}

const (
	geoModeBlocklist = "blocklist"
	geoModeAllowlist = "allowlist"
)

var inactivityUnitDays = map[string]float64{
	"days":   1,
	"weeks":  7,
	"months": 30,
}
