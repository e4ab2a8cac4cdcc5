// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

/*
Package eventprocessor carries rule triggers in and action reports out over
NATS JetStream using Watermill.

Components:

  - EnsureStream: creates or updates the JetStream stream that holds the
    rules.* subjects before anything publishes or subscribes
  - NewPublisher: Watermill NATS publisher guarded by a circuit breaker
  - NewSubscriber: durable, queue-grouped JetStream subscriber bound to the stream
  - Router: Watermill router with recoverer, retry, throttle, deduplication
    and poison-queue middleware

Message flow:

	rules.triggered -> Router -> enforcement.TriggerHandler -> rules.actions

Messages the handler cannot decode are acked and dropped by the handler
itself, so retry and poison-queue routing only see real processing errors.
*/
package eventprocessor
