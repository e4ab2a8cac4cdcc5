// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

/*
Package notify delivers notify-action messages to external channels.

A Dispatcher holds one Notifier per channel and fans a single
enforcement.Notification out to every channel it names. Channels without a
registered notifier (push and email have none yet) are logged and skipped.

Every HTTP notifier shares the same delivery path:

  - a token-bucket limiter (golang.org/x/time/rate) that waits, honouring
    context cancellation, before each request
  - a circuit breaker from internal/breaker around the request
  - any non-2xx response is an error

Usage:

	d := notify.NewDispatcher(
		notify.NewDiscordNotifier(notify.DiscordConfig{WebhookURL: url}),
		notify.NewWebhookNotifier(notify.WebhookConfig{URL: hook}),
	)
	err := d.Send(ctx, notification)
*/
package notify
