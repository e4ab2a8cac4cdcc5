// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package enforcement

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/warden/internal/logging"
	"github.com/tomtom215/warden/internal/metrics"
	"github.com/tomtom215/warden/internal/rules"
)

// actionRunner executes one action against one context. It is the engine's
// executor registry: the rules.ActionVisitor interface guarantees a method
// for every action variant.
type actionRunner struct {
	ctx  context.Context
	ec   *rules.EvaluationContext
	deps Dependencies
}

var _ rules.ActionVisitor = (*actionRunner)(nil)

func (r *actionRunner) VisitCreateViolation(a *rules.CreateViolationAction) rules.ActionResult {
	err := r.deps.CreateViolation(r.ctx, ViolationPayload{
		RuleID:       r.ec.Rule.ID,
		SessionID:    r.ec.Session.ID,
		ServerUserID: r.ec.ServerUser.ID,
		ServerID:     r.ec.Server.ID,
		Severity:     a.Severity,
		Details:      r.violationDetails(),
	})
	if err != nil {
		return rules.Failed(a.Type(), err)
	}
	return rules.Succeeded(a.Type(), fmt.Sprintf("Created %s violation", a.Severity))
}

func (r *actionRunner) VisitLogOnly(a *rules.LogOnlyAction) rules.ActionResult {
	err := r.deps.LogAudit(r.ctx, AuditPayload{
		RuleID:       r.ec.Rule.ID,
		SessionID:    r.ec.Session.ID,
		ServerUserID: r.ec.ServerUser.ID,
		ServerID:     r.ec.Server.ID,
		Message:      a.Message,
	})
	if err != nil {
		return rules.Failed(a.Type(), err)
	}
	return rules.Succeeded(a.Type(), "Logged audit entry")
}

func (r *actionRunner) VisitNotify(a *rules.NotifyAction) rules.ActionResult {
	if len(a.Channels) == 0 {
		return rules.Succeeded(a.Type(), "No notification channels configured")
	}

	channels := make([]rules.NotificationChannel, len(a.Channels))
	copy(channels, a.Channels)

	username := r.ec.ServerUser.Username
	if username == "" {
		username = r.ec.ServerUser.ID
	}

	err := r.deps.SendNotification(r.ctx, Notification{
		Channels: channels,
		Title:    "Rule triggered: " + r.ec.Rule.Name,
		Message:  fmt.Sprintf("User %s triggered rule %q on %s", username, r.ec.Rule.Name, serverLabel(r.ec.Server)),
		Data: NotificationData{
			RuleID:       r.ec.Rule.ID,
			RuleName:     r.ec.Rule.Name,
			SessionID:    r.ec.Session.ID,
			ServerUserID: r.ec.ServerUser.ID,
			ServerID:     r.ec.Server.ID,
			Username:     r.ec.ServerUser.Username,
			MediaTitle:   mediaTitle(r.ec.Session),
			IPAddress:    r.ec.Session.IPAddress,
		},
	})
	if err != nil {
		return rules.Failed(a.Type(), err)
	}
	return rules.Succeeded(a.Type(), fmt.Sprintf("Sent notification to %d channel(s)", len(channels)))
}

func (r *actionRunner) VisitAdjustTrust(a *rules.AdjustTrustAction) rules.ActionResult {
	if a.Amount == 0 {
		return rules.Succeeded(a.Type(), "Trust adjustment of 0 is a no-op")
	}
	if err := r.deps.AdjustUserTrust(r.ctx, r.ec.ServerUser.ID, a.Amount); err != nil {
		return rules.Failed(a.Type(), err)
	}
	return rules.Succeeded(a.Type(), fmt.Sprintf("Adjusted trust score by %+d", a.Amount))
}

func (r *actionRunner) VisitSetTrust(a *rules.SetTrustAction) rules.ActionResult {
	if err := r.deps.SetUserTrust(r.ctx, r.ec.ServerUser.ID, a.Value); err != nil {
		return rules.Failed(a.Type(), err)
	}
	return rules.Succeeded(a.Type(), fmt.Sprintf("Set trust score to %d", a.Value))
}

func (r *actionRunner) VisitResetTrust(a *rules.ResetTrustAction) rules.ActionResult {
	if err := r.deps.ResetUserTrust(r.ctx, r.ec.ServerUser.ID); err != nil {
		return rules.Failed(a.Type(), err)
	}
	return rules.Succeeded(a.Type(), "Reset trust score")
}

func (r *actionRunner) VisitKillStream(a *rules.KillStreamAction) rules.ActionResult {
	target := a.Target.OrDefault()
	targets := ResolveTargets(r.ec, target)
	metrics.RecordTargets(string(target), len(targets))
	if len(targets) == 0 {
		return rules.Succeeded(a.Type(), fmt.Sprintf("No sessions matched target %s", target))
	}

	delay := 0
	if a.DelaySeconds != nil {
		delay = *a.DelaySeconds
	}

	err := r.eachTarget(targets, "terminate session failed", func(s rules.Session) error {
		return r.deps.TerminateSession(r.ctx, s.ID, s.ServerID, delay, a.Message)
	})
	if err != nil {
		return rules.Failed(a.Type(), err)
	}
	return rules.Succeeded(a.Type(), fmt.Sprintf("Terminated %d session(s)", len(targets)))
}

func (r *actionRunner) VisitMessageClient(a *rules.MessageClientAction) rules.ActionResult {
	if a.Message == "" {
		return rules.Succeeded(a.Type(), "Empty message, nothing sent")
	}

	target := a.Target.OrDefault()
	targets := ResolveTargets(r.ec, target)
	metrics.RecordTargets(string(target), len(targets))
	if len(targets) == 0 {
		return rules.Succeeded(a.Type(), fmt.Sprintf("No sessions matched target %s", target))
	}

	err := r.eachTarget(targets, "client message failed", func(s rules.Session) error {
		return r.deps.SendClientMessage(r.ctx, s.ID, a.Message)
	})
	if err != nil {
		return rules.Failed(a.Type(), err)
	}
	return rules.Succeeded(a.Type(), fmt.Sprintf("Messaged %d session(s)", len(targets)))
}

// eachTarget calls fn for every target, continuing past failures, and
// returns the failures joined.
func (r *actionRunner) eachTarget(targets []rules.Session, failMsg string, fn func(rules.Session) error) error {
	var errs []error
	for _, s := range targets {
		if err := fn(s); err != nil {
			logging.Ctx(r.ctx).Warn().Err(err).Str("session_id", s.ID).Msg(failMsg)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *actionRunner) violationDetails() ViolationDetails {
	s := r.ec.Session
	d := ViolationDetails{
		RuleName:         r.ec.Rule.Name,
		SessionKey:       s.SessionKey,
		Username:         r.ec.ServerUser.Username,
		MediaType:        s.MediaType,
		MediaTitle:       s.MediaTitle,
		GrandparentTitle: s.GrandparentTitle,
		IPAddress:        s.IPAddress,
		Device:           s.Device,
		Platform:         s.Platform,
		Player:           s.Player,
	}
	if s.GeoCity != "" || s.GeoCountry != "" {
		d.Location = strings.Trim(s.GeoCity+", "+s.GeoCountry, ", ")
	}
	for _, as := range r.ec.ActiveSessions {
		if as.ServerUserID == r.ec.ServerUser.ID {
			d.ActiveSessions++
		}
	}
	return d
}

func mediaTitle(s rules.Session) string {
	if s.GrandparentTitle != "" && s.MediaTitle != "" {
		return s.GrandparentTitle + " - " + s.MediaTitle
	}
	return s.MediaTitle
}

func serverLabel(s rules.Server) string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}
