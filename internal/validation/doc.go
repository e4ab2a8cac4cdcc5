// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

// Package validation wraps go-playground/validator v10 with a process-wide
// singleton and human-readable error messages.
//
// Rules, actions and configuration structs declare their constraints with
// `validate` tags and are checked at the boundary where they enter the
// system (migration backfill, operator API, config load). The enforcement
// engine itself never validates; it trusts the data it is handed.
//
// Example:
//
//	type KillStream struct {
//	    DelaySeconds *int `validate:"omitempty,min=0,max=300"`
//	}
//
//	if verr := validation.ValidateStruct(&ks); verr != nil {
//	    return verr.WithPrefix("actions[2]")
//	}
package validation
