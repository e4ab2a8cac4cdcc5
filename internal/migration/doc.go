// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

// Package migration converts rules stored in the deprecated single-purpose
// type/params shape into the generalized conditions/actions shape.
//
// Legacy rule types and the condition each one becomes:
//
//	concurrent_streams     concurrent_streams gt maxStreams
//	                       (+ is_local_network eq false when excludePrivateIps)
//	geo_restriction        country in countries       (mode=blocklist, default)
//	                       country not_in countries   (mode=allowlist)
//	impossible_travel      travel_speed_kmh gt maxSpeedKmh
//	simultaneous_locations active_session_distance_km gt minDistanceKm
//	device_velocity        unique_ips_in_window gt maxIps, window_hours=windowHours
//	account_inactivity     inactive_days gt inactivityValue x unit
//
// Every converted rule has exactly one condition group and a single
// create_violation action with severity warning.
//
// Known quirk: with excludePrivateIps the two concurrent_streams conditions
// share one group and therefore combine with OR. Existing deployments rely
// on this shape, so it is kept as is until the intended semantics are
// confirmed.
//
// ConvertLegacyRule and MigrateRules are pure. Job is the backfill that
// reads legacy rules from a store, converts, validates and persists them.
package migration
