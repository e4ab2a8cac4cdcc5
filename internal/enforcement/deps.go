// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package enforcement

import (
	"context"

	"github.com/tomtom215/warden/internal/rules"
)

// Dependencies is every external effect the engine can cause. All methods
// may fail; the Executor turns failures into ActionResults.
type Dependencies interface {
	CreateViolation(ctx context.Context, v ViolationPayload) error
	LogAudit(ctx context.Context, a AuditPayload) error
	SendNotification(ctx context.Context, n Notification) error
	AdjustUserTrust(ctx context.Context, serverUserID string, amount int) error
	SetUserTrust(ctx context.Context, serverUserID string, value int) error
	ResetUserTrust(ctx context.Context, serverUserID string) error
	// TerminateSession stops playback after delaySeconds. message is nil
	// when the action did not set one.
	TerminateSession(ctx context.Context, sessionID, serverID string, delaySeconds int, message *string) error
	SendClientMessage(ctx context.Context, sessionID, message string) error
	CheckCooldown(ctx context.Context, key string) (bool, error)
	SetCooldown(ctx context.Context, key string, minutes int) error
	QueueForConfirmation(ctx context.Context, c ConfirmationPayload) error
}

// ViolationPayload is what create_violation persists.
type ViolationPayload struct {
	RuleID       string           `json:"rule_id"`
	SessionID    string           `json:"session_id"`
	ServerUserID string           `json:"server_user_id"`
	ServerID     string           `json:"server_id"`
	Severity     rules.Severity   `json:"severity"`
	Details      ViolationDetails `json:"details"`
}

// ViolationDetails summarises the session at the time of the violation.
type ViolationDetails struct {
	RuleName         string `json:"rule_name"`
	SessionKey       string `json:"session_key"`
	Username         string `json:"username,omitempty"`
	MediaType        string `json:"media_type,omitempty"`
	MediaTitle       string `json:"media_title,omitempty"`
	GrandparentTitle string `json:"grandparent_title,omitempty"`
	IPAddress        string `json:"ip_address,omitempty"`
	Device           string `json:"device,omitempty"`
	Platform         string `json:"platform,omitempty"`
	Player           string `json:"player,omitempty"`
	Location         string `json:"location,omitempty"`
	ActiveSessions   int    `json:"active_sessions"`
}

// AuditPayload is what log_only writes.
type AuditPayload struct {
	RuleID       string  `json:"rule_id"`
	SessionID    string  `json:"session_id"`
	ServerUserID string  `json:"server_user_id"`
	ServerID     string  `json:"server_id"`
	Message      *string `json:"message,omitempty"`
}

// Notification is one message addressed to several channels.
type Notification struct {
	Channels []rules.NotificationChannel `json:"channels"`
	Title    string                      `json:"title"`
	Message  string                      `json:"message"`
	Data     NotificationData            `json:"data"`
}

// NotificationData is the structured part of a notification.
type NotificationData struct {
	RuleID       string `json:"rule_id"`
	RuleName     string `json:"rule_name"`
	SessionID    string `json:"session_id"`
	ServerUserID string `json:"server_user_id"`
	ServerID     string `json:"server_id"`
	Username     string `json:"username"`
	MediaTitle   string `json:"media_title,omitempty"`
	IPAddress    string `json:"ip_address,omitempty"`
}

// ConfirmationPayload is queued instead of running an action that needs
// operator approval.
type ConfirmationPayload struct {
	RuleID       string       `json:"rule_id"`
	RuleName     string       `json:"rule_name"`
	SessionID    string       `json:"session_id"`
	ServerUserID string       `json:"server_user_id"`
	ServerID     string       `json:"server_id"`
	Action       rules.Action `json:"action"`
}

// NoopDependencies does nothing and reports no cooldowns. It is what the
// Executor uses when constructed with nil.
type NoopDependencies struct{}

var _ Dependencies = NoopDependencies{}

func (NoopDependencies) CreateViolation(context.Context, ViolationPayload) error { return nil }
func (NoopDependencies) LogAudit(context.Context, AuditPayload) error            { return nil }
func (NoopDependencies) SendNotification(context.Context, Notification) error    { return nil }
func (NoopDependencies) AdjustUserTrust(context.Context, string, int) error      { return nil }
func (NoopDependencies) SetUserTrust(context.Context, string, int) error         { return nil }
func (NoopDependencies) ResetUserTrust(context.Context, string) error            { return nil }
func (NoopDependencies) SendClientMessage(context.Context, string, string) error { return nil }
func (NoopDependencies) CheckCooldown(context.Context, string) (bool, error)     { return false, nil }
func (NoopDependencies) SetCooldown(context.Context, string, int) error          { return nil }

func (NoopDependencies) TerminateSession(context.Context, string, string, int, *string) error {
	return nil
}

func (NoopDependencies) QueueForConfirmation(context.Context, ConfirmationPayload) error {
	return nil
}

// DependencyFuncs builds a Dependencies from individual functions. Any nil
// field behaves like NoopDependencies, so tests only set what they observe.
type DependencyFuncs struct {
	CreateViolationFunc      func(ctx context.Context, v ViolationPayload) error
	LogAuditFunc             func(ctx context.Context, a AuditPayload) error
	SendNotificationFunc     func(ctx context.Context, n Notification) error
	AdjustUserTrustFunc      func(ctx context.Context, serverUserID string, amount int) error
	SetUserTrustFunc         func(ctx context.Context, serverUserID string, value int) error
	ResetUserTrustFunc       func(ctx context.Context, serverUserID string) error
	TerminateSessionFunc     func(ctx context.Context, sessionID, serverID string, delaySeconds int, message *string) error
	SendClientMessageFunc    func(ctx context.Context, sessionID, message string) error
	CheckCooldownFunc        func(ctx context.Context, key string) (bool, error)
	SetCooldownFunc          func(ctx context.Context, key string, minutes int) error
	QueueForConfirmationFunc func(ctx context.Context, c ConfirmationPayload) error
}

var _ Dependencies = (*DependencyFuncs)(nil)

func (d *DependencyFuncs) CreateViolation(ctx context.Context, v ViolationPayload) error {
	if d.CreateViolationFunc == nil {
		return nil
	}
	return d.CreateViolationFunc(ctx, v)
}

func (d *DependencyFuncs) LogAudit(ctx context.Context, a AuditPayload) error {
	if d.LogAuditFunc == nil {
		return nil
	}
	return d.LogAuditFunc(ctx, a)
}

func (d *DependencyFuncs) SendNotification(ctx context.Context, n Notification) error {
	if d.SendNotificationFunc == nil {
		return nil
	}
	return d.SendNotificationFunc(ctx, n)
}

func (d *DependencyFuncs) AdjustUserTrust(ctx context.Context, serverUserID string, amount int) error {
	if d.AdjustUserTrustFunc == nil {
		return nil
	}
	return d.AdjustUserTrustFunc(ctx, serverUserID, amount)
}

func (d *DependencyFuncs) SetUserTrust(ctx context.Context, serverUserID string, value int) error {
	if d.SetUserTrustFunc == nil {
		return nil
	}
	return d.SetUserTrustFunc(ctx, serverUserID, value)
}

func (d *DependencyFuncs) ResetUserTrust(ctx context.Context, serverUserID string) error {
	if d.ResetUserTrustFunc == nil {
		return nil
	}
	return d.ResetUserTrustFunc(ctx, serverUserID)
}

func (d *DependencyFuncs) TerminateSession(ctx context.Context, sessionID, serverID string, delaySeconds int, message *string) error {
	if d.TerminateSessionFunc == nil {
		return nil
	}
	return d.TerminateSessionFunc(ctx, sessionID, serverID, delaySeconds, message)
}

func (d *DependencyFuncs) SendClientMessage(ctx context.Context, sessionID, message string) error {
	if d.SendClientMessageFunc == nil {
		return nil
	}
	return d.SendClientMessageFunc(ctx, sessionID, message)
}

func (d *DependencyFuncs) CheckCooldown(ctx context.Context, key string) (bool, error) {
	if d.CheckCooldownFunc == nil {
		return false, nil
	}
	return d.CheckCooldownFunc(ctx, key)
}

func (d *DependencyFuncs) SetCooldown(ctx context.Context, key string, minutes int) error {
	if d.SetCooldownFunc == nil {
		return nil
	}
	return d.SetCooldownFunc(ctx, key, minutes)
}

func (d *DependencyFuncs) QueueForConfirmation(ctx context.Context, c ConfirmationPayload) error {
	if d.QueueForConfirmationFunc == nil {
		return nil
	}
	return d.QueueForConfirmationFunc(ctx, c)
}
