// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package migration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/warden/internal/rules"
)

var (
	// ErrUnknownLegacyType is returned for a missing or unrecognized legacy type.
	ErrUnknownLegacyType = errors.New("unknown legacy rule type")

	// ErrMissingParams is returned when a required legacy param is absent.
	ErrMissingParams = errors.New("missing legacy rule params")

	// ErrInvalidParams is returned when legacy params cannot be decoded or
	// hold an unsupported value.
	ErrInvalidParams = errors.New("invalid legacy rule params")
)

// converter builds the conditions of one legacy type from its raw params.
type converter func(params json.RawMessage) ([]rules.Condition, error)

var converters = map[LegacyType]converter{
	TypeConcurrentStreams:     convertConcurrentStreams,
	TypeGeoRestriction:        convertGeoRestriction,
	TypeImpossibleTravel:      convertImpossibleTravel,
	TypeSimultaneousLocations: convertSimultaneousLocations,
	TypeDeviceVelocity:        convertDeviceVelocity,
	TypeAccountInactivity:     convertAccountInactivity,
}

// ConvertLegacyRule maps r to the conditions/actions shape. Identity fields
// are carried over unchanged. The result has one condition group and a
// single create_violation action with severity warning.
func ConvertLegacyRule(r *LegacyRule) (*rules.Rule, error) {
	if r == nil {
		return nil, errors.New("nil legacy rule")
	}
	if r.Type == nil {
		return nil, fmt.Errorf("%w: rule has no type", ErrUnknownLegacyType)
	}

	convert, ok := converters[*r.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLegacyType, *r.Type)
	}
	if !r.hasParams() {
		return nil, fmt.Errorf("%w: %s rule has no params", ErrMissingParams, *r.Type)
	}

	conditions, err := convert(r.Params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", *r.Type, err)
	}

	return &rules.Rule{
		ID:          r.ID,
		Name:        r.Name,
		Description: cloneString(r.Description),
		ServerID:    cloneString(r.ServerID),
		IsActive:    r.IsActive,
		Conditions: &rules.RuleConditions{
			Groups: []rules.ConditionGroup{{Conditions: conditions}},
		},
		Actions: &rules.RuleActions{
			Actions: []rules.Action{&rules.CreateViolationAction{Severity: rules.SeverityWarning}},
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

func decodeParams(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

func missing(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingParams, name)
}

func convertConcurrentStreams(raw json.RawMessage) ([]rules.Condition, error) {
	var p concurrentStreamsParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	if p.MaxStreams == nil {
		return nil, missing("maxStreams")
	}

	conditions := []rules.Condition{{
		Field:    rules.FieldConcurrentStreams,
		Operator: rules.OpGt,
		Value:    *p.MaxStreams,
	}}
	if p.ExcludePrivateIPs {
		// Same group as the threshold, so the two are ORed.
		conditions = append(conditions, rules.Condition{
			Field:    rules.FieldIsLocalNetwork,
			Operator: rules.OpEq,
			Value:    false,
		})
	}
	return conditions, nil
}

func convertGeoRestriction(raw json.RawMessage) ([]rules.Condition, error) {
	var p geoRestrictionParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	if p.Countries == nil {
		return nil, missing("countries")
	}

	var op rules.Operator
	switch strings.ToLower(p.Mode) {
	case "", geoModeBlocklist:
		op = rules.OpIn
	case geoModeAllowlist:
		op = rules.OpNotIn
	default:
		return nil, fmt.Errorf("%w: geo mode %q", ErrInvalidParams, p.Mode)
	}

	countries := make([]any, len(p.Countries))
	for i, c := range p.Countries {
		countries[i] = c
	}
	return []rules.Condition{{Field: rules.FieldCountry, Operator: op, Value: countries}}, nil
}

func convertImpossibleTravel(raw json.RawMessage) ([]rules.Condition, error) {
	var p impossibleTravelParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	if p.MaxSpeedKmh == nil {
		return nil, missing("maxSpeedKmh")
	}
	return []rules.Condition{{Field: rules.FieldTravelSpeedKmh, Operator: rules.OpGt, Value: *p.MaxSpeedKmh}}, nil
}

func convertSimultaneousLocations(raw json.RawMessage) ([]rules.Condition, error) {
	var p simultaneousLocationsParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	if p.MinDistanceKm == nil {
		return nil, missing("minDistanceKm")
	}
	return []rules.Condition{{Field: rules.FieldActiveSessionDistanceKm, Operator: rules.OpGt, Value: *p.MinDistanceKm}}, nil
}

func convertDeviceVelocity(raw json.RawMessage) ([]rules.Condition, error) {
	var p deviceVelocityParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	if p.MaxIPs == nil {
		return nil, missing("maxIps")
	}

	window := rules.DefaultWindowHours
	if p.WindowHours != nil {
		window = *p.WindowHours
	}
	return []rules.Condition{{
		Field:    rules.FieldUniqueIPsInWindow,
		Operator: rules.OpGt,
		Value:    *p.MaxIPs,
		Params:   &rules.ConditionParams{WindowHours: &window},
	}}, nil
}

func convertAccountInactivity(raw json.RawMessage) ([]rules.Condition, error) {
	var p accountInactivityParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	if p.InactivityValue == nil {
		return nil, missing("inactivityValue")
	}

	multiplier, ok := inactivityUnitDays[strings.ToLower(p.InactivityUnit)]
	if !ok {
		multiplier = 1
	}
	return []rules.Condition{{
		Field:    rules.FieldInactiveDays,
		Operator: rules.OpGt,
		Value:    *p.InactivityValue * multiplier,
	}}, nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
