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

const discordColor = 0xFFA500

// DiscordConfig configures the Discord notifier.
type DiscordConfig struct {
	WebhookURL string `koanf:"webhook_url"`
	// RateLimit is the minimum gap between messages. Default 1s.
	RateLimit time.Duration `koanf:"rate_limit"`
}

// DiscordNotifier posts embeds to a Discord webhook.
type DiscordNotifier struct {
	url    string
	poster *poster
	now    func() time.Time
}

// NewDiscordNotifier creates a Discord notifier.
func NewDiscordNotifier(cfg DiscordConfig) *DiscordNotifier {
	interval := cfg.RateLimit
	if interval <= 0 {
		interval = time.Second
	}
	return &DiscordNotifier{
		url:    cfg.WebhookURL,
		poster: newPoster("notify_discord", interval, nil),
		now:    time.Now,
	}
}

// Channel returns rules.ChannelDiscord.
func (d *DiscordNotifier) Channel() rules.NotificationChannel {
	return rules.ChannelDiscord
}

// Send delivers n as a single embed.
func (d *DiscordNotifier) Send(ctx context.Context, n enforcement.Notification) error {
	if d.url == "" {
		return fmt.Errorf("discord: webhook url not configured")
	}
	payload := discordWebhookPayload{Embeds: []discordEmbed{d.buildEmbed(n)}}
	if err := d.poster.postJSON(ctx, d.url, payload); err != nil {
		return fmt.Errorf("discord: %w", err)
	}
	return nil
}

func (d *DiscordNotifier) buildEmbed(n enforcement.Notification) discordEmbed {
	fields := []discordEmbedField{
		{Name: "User", Value: orDash(n.Data.Username), Inline: true},
		{Name: "Rule", Value: orDash(n.Data.RuleName), Inline: true},
	}
	if n.Data.MediaTitle != "" {
		fields = append(fields, discordEmbedField{Name: "Media", Value: n.Data.MediaTitle, Inline: true})
	}
	if n.Data.IPAddress != "" {
		fields = append(fields, discordEmbedField{Name: "IP Address", Value: n.Data.IPAddress, Inline: true})
	}

	return discordEmbed{
		Title:       n.Title,
		Description: n.Message,
		Color:       discordColor,
		Timestamp:   d.now().UTC().Format(time.RFC3339),
		Fields:      fields,
		Footer:      discordEmbedFooter{Text: "Warden Rule Engine"},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Footer      discordEmbedFooter  `json:"footer,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbedFooter struct {
	Text string `json:"text,omitempty"`
}
