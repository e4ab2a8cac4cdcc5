// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package rules

import (
	"fmt"

	"github.com/tomtom215/warden/internal/validation"
)

// Validate checks the structural invariants of a rule: at least one group,
// at least one condition per group, at least one action, known fields and
// operators, and the numeric ranges of each action.
//
// It returns nil or a *validation.RequestValidationError listing every
// problem found.
func Validate(rule *Rule) error {
	if rule == nil {
		return fmt.Errorf("rule is nil")
	}

	all := &validation.RequestValidationError{}
	all.Merge(validation.ValidateStruct(rule))

	if rule.Conditions != nil {
		for gi, g := range rule.Conditions.Groups {
			for ci, c := range g.Conditions {
				path := fmt.Sprintf("Conditions.Groups[%d].Conditions[%d]", gi, ci)
				if !c.Field.Known() {
					all.Add(path+".Field", "known", c.Field, fmt.Sprintf("%s.Field: unknown field %q", path, c.Field))
				}
				if !c.Operator.Known() {
					all.Add(path+".Operator", "known", c.Operator, fmt.Sprintf("%s.Operator: unknown operator %q", path, c.Operator))
				}
			}
		}
	}

	if rule.Actions != nil {
		for i, a := range rule.Actions.Actions {
			path := fmt.Sprintf("Actions[%d]", i)
			if a == nil {
				all.Add(path, "required", nil, path+" is required")
				continue
			}
			if invalid, ok := a.(*InvalidAction); ok {
				all.Add(path+".Type", "decodable", invalid.Type(), fmt.Sprintf("%s: %s", path, InvalidActionResult(invalid.Type(), invalid.Err).Message))
				continue
			}
			if !IsKnown(a) {
				all.Add(path+".Type", "known", a.Type(), fmt.Sprintf("%s: unknown action type %q", path, a.Type()))
				continue
			}
			if verr := validation.ValidateStruct(a); verr != nil {
				all.Merge(verr.WithPrefix(path))
			}
		}
	}

	if all.Empty() {
		return nil
	}
	return all
}
