// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package migration

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generatedTypes maps a generator index to a legacy type. The last entries
// are unknown or missing types so batches contain failures.
var generatedTypes = []LegacyType{
	TypeConcurrentStreams,
	TypeGeoRestriction,
	TypeImpossibleTravel,
	TypeSimultaneousLocations,
	TypeDeviceVelocity,
	TypeAccountInactivity,
	"vpn_usage",
	"",
}

// generatedRule builds a legacy rule of the indexed type whose params are
// derived from n.
func generatedRule(id string, typeIdx, n int, flag bool) LegacyRule {
	typ := generatedTypes[typeIdx%len(generatedTypes)]

	var params string
	switch typ {
	case TypeConcurrentStreams:
		params = fmt.Sprintf(`{"maxStreams":%d,"excludePrivateIps":%t}`, n, flag)
	case TypeGeoRestriction:
		mode := "blocklist"
		if flag {
			mode = "allowlist"
		}
		params = fmt.Sprintf(`{"mode":%q,"countries":["C%d","D%d"]}`, mode, n, n+1)
	case TypeImpossibleTravel:
		params = fmt.Sprintf(`{"maxSpeedKmh":%d}`, n)
	case TypeSimultaneousLocations:
		params = fmt.Sprintf(`{"minDistanceKm":%d.5}`, n)
	case TypeDeviceVelocity:
		params = fmt.Sprintf(`{"maxIps":%d,"windowHours":%d}`, n, n%48+1)
	case TypeAccountInactivity:
		unit := []string{"days", "weeks", "months"}[n%3]
		params = fmt.Sprintf(`{"inactivityValue":%d,"inactivityUnit":%q}`, n, unit)
	default:
		params = `{}`
	}

	r := legacyRule(id, typ, params)
	if typ == "" {
		r.Type = nil
	}
	return r
}

func TestConvertLegacyRule_Deterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("same legacy rule converts to identical output", prop.ForAll(
		func(typeIdx, n int, flag bool) bool {
			a := generatedRule("r1", typeIdx, n, flag)
			b := generatedRule("r1", typeIdx, n, flag)

			ra, errA := ConvertLegacyRule(&a)
			rb, errB := ConvertLegacyRule(&b)
			if (errA == nil) != (errB == nil) {
				return false
			}
			if errA != nil {
				return errA.Error() == errB.Error()
			}
			return reflect.DeepEqual(ra, rb)
		},
		gen.IntRange(0, len(generatedTypes)-1),
		gen.IntRange(0, 10000),
		gen.Bool(),
	))

	properties.Property("known types always yield one group and one action", prop.ForAll(
		func(typeIdx, n int, flag bool) bool {
			in := generatedRule("r1", typeIdx, n, flag)
			out, err := ConvertLegacyRule(&in)
			if typeIdx >= 6 {
				return err != nil && out == nil
			}
			return err == nil &&
				len(out.Conditions.Groups) == 1 &&
				len(out.Actions.Actions) == 1
		},
		gen.IntRange(0, len(generatedTypes)-1),
		gen.IntRange(0, 10000),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestMigrateRules_PartitionComplete(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("every rule id lands in exactly one partition", prop.ForAll(
		func(typeIdxs []int, n int) bool {
			batch := make([]LegacyRule, len(typeIdxs))
			for i, idx := range typeIdxs {
				batch[i] = generatedRule(fmt.Sprintf("r%d", i), idx, n+i, i%2 == 0)
			}

			res := MigrateRules(batch)
			if len(res.Migrated)+len(res.Errors) != len(batch) {
				return false
			}

			seen := make(map[string]int, len(batch))
			for _, r := range res.Migrated {
				seen[r.ID]++
			}
			for _, e := range res.Errors {
				seen[e.RuleID]++
			}
			for _, r := range batch {
				if seen[r.ID] != 1 {
					return false
				}
			}
			return len(seen) == len(batch)
		},
		gen.SliceOf(gen.IntRange(0, len(generatedTypes)-1)),
		gen.IntRange(0, 1000),
	))

	properties.Property("migrated rules keep input order", prop.ForAll(
		func(typeIdxs []int) bool {
			batch := make([]LegacyRule, len(typeIdxs))
			for i, idx := range typeIdxs {
				batch[i] = generatedRule(fmt.Sprintf("r%03d", i), idx, i, false)
			}

			res := MigrateRules(batch)
			for i := 1; i < len(res.Migrated); i++ {
				if res.Migrated[i-1].ID >= res.Migrated[i].ID {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, len(generatedTypes)-1)),
	))

	properties.TestingRun(t)
}

func TestMigrateRules(t *testing.T) {
	batch := []LegacyRule{
		legacyRule("a", TypeConcurrentStreams, `{"maxStreams":2}`),
		legacyRule("b", "vpn_usage", `{"threshold":1}`),
		legacyRule("c", TypeAccountInactivity, `{"inactivityValue":2,"inactivityUnit":"weeks"}`),
		legacyRule("d", TypeImpossibleTravel, ""),
	}

	res := MigrateRules(batch)

	require.Len(t, res.Migrated, 2)
	assert.Equal(t, "a", res.Migrated[0].ID)
	assert.Equal(t, "c", res.Migrated[1].ID)

	require.Len(t, res.Errors, 2)
	assert.Equal(t, "b", res.Errors[0].RuleID)
	assert.Contains(t, res.Errors[0].Reason, "vpn_usage")
	assert.Equal(t, "d", res.Errors[1].RuleID)
}

func TestMigrateRules_Empty(t *testing.T) {
	res := MigrateRules(nil)
	assert.Empty(t, res.Migrated)
	assert.Empty(t, res.Errors)
	assert.NotNil(t, res.Errors)
}
