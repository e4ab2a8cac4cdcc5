// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/warden/internal/enforcement"
	"github.com/tomtom215/warden/internal/rules"
)

// WebhookConfig configures the generic webhook notifier.
type WebhookConfig struct {
	URL     string            `koanf:"url"`
	Headers map[string]string `koanf:"headers"`
	// RateLimit is the minimum gap between requests. Default 500ms.
	RateLimit time.Duration `koanf:"rate_limit"`
}

// WebhookPayload is the JSON body posted to the endpoint.
type WebhookPayload struct {
	EventType string                       `json:"event_type"`
	Source    string                       `json:"source"`
	Timestamp time.Time                    `json:"timestamp"`
	Title     string                       `json:"title"`
	Message   string                       `json:"message"`
	Data      enforcement.NotificationData `json:"data"`
}

// WebhookNotifier posts a JSON payload to an arbitrary endpoint.
type WebhookNotifier struct {
	url    string
	poster *poster
	now    func() time.Time
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	interval := cfg.RateLimit
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &WebhookNotifier{
		url:    cfg.URL,
		poster: newPoster("notify_webhook", interval, cfg.Headers),
		now:    time.Now,
	}
}

// Channel returns rules.ChannelWebhook.
func (w *WebhookNotifier) Channel() rules.NotificationChannel {
	return rules.ChannelWebhook
}

// Send posts n to the configured URL.
func (w *WebhookNotifier) Send(ctx context.Context, n enforcement.Notification) error {
	if w.url == "" {
		return fmt.Errorf("webhook: url not configured")
	}
	payload := WebhookPayload{
		EventType: "rule_triggered",
		Source:    "warden",
		Timestamp: w.now().UTC(),
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
	}
	if err := w.poster.postJSON(ctx, w.url, payload); err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	return nil
}
