// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

/*
Package api serves warden's operational HTTP endpoints with chi.

Routes:

	GET  /healthz                          liveness
	GET  /readyz                           store ping and breaker states
	GET  /metrics                          Prometheus exposition
	GET  /api/v1/confirmations             pending confirmation queue
	GET  /api/v1/rules/{id}/violations     recent violations of one rule
	GET  /api/v1/rules/{id}/audit          audit log of one rule
	GET  /api/v1/users/{id}/trust          trust score of one server user
	POST /api/v1/migrations/legacy-rules   run the legacy rule backfill now

Every /api/v1 response uses the Response envelope. The API is meant for
operators on a private network; it has no authentication of its own.
*/
package api
