// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

// Package main is the entry point for the Warden enforcement server.
//
// Warden consumes rule-triggered events from NATS JetStream, runs each
// rule's actions against the triggering session, and publishes the action
// results. Actions persist violations, audit entries, trust scores and
// pending confirmations in DuckDB, send Discord and webhook notifications,
// and stop or message sessions on Plex, Jellyfin and Emby servers.
//
// # Startup
//
//  1. Configuration: defaults, then config.yaml, then environment (Koanf v2)
//  2. Store: DuckDB with the rule, violation, audit, trust, confirmation and session tables
//  3. Cooldowns: memory, Redis or BadgerDB
//  4. Collaborators: notifiers and media server controllers
//  5. NATS (optional): JetStream stream, trigger router
//  6. Supervisor tree: ops HTTP server, trigger router, legacy rule migration
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
// within server.shutdown_timeout, the router closes its subscriptions, and
// delayed terminations that have not fired yet are cancelled.
//
// # Example Usage
//
//	export DUCKDB_PATH=/data/warden.duckdb
//	export NATS_ENABLED=true
//	export NATS_URL=nats://nats:4222
//	export DISCORD_WEBHOOK_URL=https://discord.com/api/webhooks/...
//	./warden
package main
