// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package migration

import "github.com/tomtom215/warden/internal/rules"

// MigrationError records why one rule could not be converted.
type MigrationError struct {
	RuleID string `json:"rule_id"`
	Reason string `json:"reason"`
}

// Result partitions a batch into converted rules and errors.
// len(Migrated)+len(Errors) always equals the batch size.
type Result struct {
	Migrated []*rules.Rule    `json:"migrated"`
	Errors   []MigrationError `json:"errors"`
}

// MigrateRules converts every rule in order. A failed conversion is recorded
// against the rule's id and does not stop the batch.
func MigrateRules(legacy []LegacyRule) Result {
	res := Result{
		Migrated: make([]*rules.Rule, 0, len(legacy)),
		Errors:   []MigrationError{},
	}
	for i := range legacy {
		converted, err := ConvertLegacyRule(&legacy[i])
		if err != nil {
			res.Errors = append(res.Errors, MigrationError{RuleID: legacy[i].ID, Reason: err.Error()})
			continue
		}
		res.Migrated = append(res.Migrated, converted)
	}
	return res
}
