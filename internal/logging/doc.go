// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

// Package logging provides the process-wide zerolog logger for Warden.
//
// Call Init once from main with the loaded configuration; before that the
// package logs JSON at info level to stderr so early startup errors are not
// lost.
//
//	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
//	logging.Info().Str("addr", addr).Msg("HTTP server listening")
//
// Evaluation-scoped code logs through Ctx so every line of one trigger
// carries the same correlation_id:
//
//	ctx = logging.ContextWithCorrelationID(ctx, msg.UUID)
//	logging.Ctx(ctx).Warn().Str("rule_id", id).Msg("action failed")
//
// Libraries that only accept *slog.Logger (suture via sutureslog) get a
// zerolog-backed adapter from NewSlogLogger.
//
// Always finish an event with Msg or Send; an unfinished event is dropped.
package logging
