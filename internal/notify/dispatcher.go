// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/warden/internal/enforcement"
	"github.com/tomtom215/warden/internal/logging"
	"github.com/tomtom215/warden/internal/metrics"
	"github.com/tomtom215/warden/internal/rules"
)

// ErrNoNotifiers is returned when none of the requested channels has a
// registered notifier.
var ErrNoNotifiers = errors.New("no notifier registered for requested channels")

// Dispatcher routes a notification to the notifier of each channel.
type Dispatcher struct {
	notifiers map[rules.NotificationChannel]Notifier
}

// NewDispatcher registers notifiers by channel. A later notifier for the
// same channel replaces an earlier one; nil entries are ignored.
func NewDispatcher(notifiers ...Notifier) *Dispatcher {
	d := &Dispatcher{notifiers: make(map[rules.NotificationChannel]Notifier, len(notifiers))}
	for _, n := range notifiers {
		if n == nil {
			continue
		}
		d.notifiers[n.Channel()] = n
	}
	return d
}

// Channels reports which channels have a notifier.
func (d *Dispatcher) Channels() []rules.NotificationChannel {
	out := make([]rules.NotificationChannel, 0, len(d.notifiers))
	for _, ch := range []rules.NotificationChannel{
		rules.ChannelDiscord, rules.ChannelWebhook, rules.ChannelPush, rules.ChannelEmail,
	} {
		if _, ok := d.notifiers[ch]; ok {
			out = append(out, ch)
		}
	}
	return out
}

// Send delivers n to every channel it names, once per channel. Failures
// do not stop delivery to the remaining channels and are returned joined.
func (d *Dispatcher) Send(ctx context.Context, n enforcement.Notification) error {
	logger := logging.CtxWith(ctx).Str("component", "notify").Logger()

	seen := make(map[rules.NotificationChannel]struct{}, len(n.Channels))
	var errs []error
	delivered := 0

	for _, ch := range n.Channels {
		if _, dup := seen[ch]; dup {
			continue
		}
		seen[ch] = struct{}{}

		notifier, ok := d.notifiers[ch]
		if !ok {
			logger.Info().Str("channel", string(ch)).Msg("no notifier registered, skipping channel")
			continue
		}
		delivered++

		err := notifier.Send(ctx, n)
		metrics.RecordNotification(string(ch), err)
		if err != nil {
			logger.Warn().Err(err).Str("channel", string(ch)).Msg("notification delivery failed")
			errs = append(errs, fmt.Errorf("%s: %w", ch, err))
		}
	}

	if delivered == 0 {
		return ErrNoNotifiers
	}
	return errors.Join(errs...)
}
