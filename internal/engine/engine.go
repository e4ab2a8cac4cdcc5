// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

// Package engine binds the enforcement executor to warden's
// infrastructure: the DuckDB store, the notification dispatcher, the media
// server registry and the cooldown backend.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/warden/internal/cooldown"
	"github.com/tomtom215/warden/internal/enforcement"
	"github.com/tomtom215/warden/internal/metrics"
	"github.com/tomtom215/warden/internal/store"
)

// Store is the write side of the DuckDB store.
type Store interface {
	CreateViolation(ctx context.Context, v *store.Violation) error
	LogAudit(ctx context.Context, e *store.AuditEntry) error
	AdjustTrust(ctx context.Context, serverUserID string, amount int) error
	SetTrust(ctx context.Context, serverUserID string, value int) error
	ResetTrust(ctx context.Context, serverUserID string) error
	QueueConfirmation(ctx context.Context, c *store.Confirmation) error
}

// Notifier delivers a notification to its channels.
type Notifier interface {
	Send(ctx context.Context, n enforcement.Notification) error
}

// SessionController stops sessions and messages their clients.
type SessionController interface {
	TerminateSession(ctx context.Context, sessionID, serverID string, delaySeconds int, message *string) error
	SendClientMessage(ctx context.Context, sessionID, message string) error
}

// ErrNotConfigured is returned by an effect whose collaborator was not
// supplied.
var ErrNotConfigured = errors.New("collaborator not configured")

// Options lists the collaborators. Nil members make the matching effects
// fail with ErrNotConfigured, except Cooldowns which defaults to memory.
type Options struct {
	Store     Store
	Notifier  Notifier
	Sessions  SessionController
	Cooldowns cooldown.Store
	// CooldownBackend labels cooldown metrics. Default "memory".
	CooldownBackend string
}

// Collaborators implements enforcement.Dependencies.
type Collaborators struct {
	store     Store
	notifier  Notifier
	sessions  SessionController
	cooldowns cooldown.Store
	backend   string
}

var _ enforcement.Dependencies = (*Collaborators)(nil)

// New builds the collaborators.
func New(opts Options) *Collaborators {
	c := &Collaborators{
		store:     opts.Store,
		notifier:  opts.Notifier,
		sessions:  opts.Sessions,
		cooldowns: opts.Cooldowns,
		backend:   opts.CooldownBackend,
	}
	if c.cooldowns == nil {
		c.cooldowns = cooldown.NewMemoryStore()
		c.backend = cooldown.BackendMemory
	}
	if c.backend == "" {
		c.backend = cooldown.BackendMemory
	}
	return c
}

// CreateViolation stores v with its details as JSON.
func (c *Collaborators) CreateViolation(ctx context.Context, v enforcement.ViolationPayload) error {
	if c.store == nil {
		return fmt.Errorf("create violation: %w", ErrNotConfigured)
	}
	details, err := json.Marshal(v.Details)
	if err != nil {
		return fmt.Errorf("marshal violation details: %w", err)
	}
	return c.store.CreateViolation(ctx, &store.Violation{
		RuleID:       v.RuleID,
		SessionID:    v.SessionID,
		ServerUserID: v.ServerUserID,
		ServerID:     v.ServerID,
		Severity:     string(v.Severity),
		Details:      details,
	})
}

func (c *Collaborators) LogAudit(ctx context.Context, a enforcement.AuditPayload) error {
	if c.store == nil {
		return fmt.Errorf("log audit: %w", ErrNotConfigured)
	}
	return c.store.LogAudit(ctx, &store.AuditEntry{
		RuleID:       a.RuleID,
		SessionID:    a.SessionID,
		ServerUserID: a.ServerUserID,
		ServerID:     a.ServerID,
		Message:      a.Message,
	})
}

func (c *Collaborators) SendNotification(ctx context.Context, n enforcement.Notification) error {
	if c.notifier == nil {
		return fmt.Errorf("send notification: %w", ErrNotConfigured)
	}
	return c.notifier.Send(ctx, n)
}

func (c *Collaborators) AdjustUserTrust(ctx context.Context, serverUserID string, amount int) error {
	if c.store == nil {
		return fmt.Errorf("adjust trust: %w", ErrNotConfigured)
	}
	return c.store.AdjustTrust(ctx, serverUserID, amount)
}

func (c *Collaborators) SetUserTrust(ctx context.Context, serverUserID string, value int) error {
	if c.store == nil {
		return fmt.Errorf("set trust: %w", ErrNotConfigured)
	}
	return c.store.SetTrust(ctx, serverUserID, value)
}

func (c *Collaborators) ResetUserTrust(ctx context.Context, serverUserID string) error {
	if c.store == nil {
		return fmt.Errorf("reset trust: %w", ErrNotConfigured)
	}
	return c.store.ResetTrust(ctx, serverUserID)
}

func (c *Collaborators) TerminateSession(ctx context.Context, sessionID, serverID string, delaySeconds int, message *string) error {
	if c.sessions == nil {
		return fmt.Errorf("terminate session: %w", ErrNotConfigured)
	}
	return c.sessions.TerminateSession(ctx, sessionID, serverID, delaySeconds, message)
}

func (c *Collaborators) SendClientMessage(ctx context.Context, sessionID, message string) error {
	if c.sessions == nil {
		return fmt.Errorf("send client message: %w", ErrNotConfigured)
	}
	return c.sessions.SendClientMessage(ctx, sessionID, message)
}

// CheckCooldown reports whether key is inside an open window.
func (c *Collaborators) CheckCooldown(ctx context.Context, key string) (bool, error) {
	active, err := c.cooldowns.Check(ctx, key)
	metrics.RecordCooldownCheck(c.backend, active, err)
	return active, err
}

func (c *Collaborators) SetCooldown(ctx context.Context, key string, minutes int) error {
	return c.cooldowns.Set(ctx, key, minutes)
}

// QueueForConfirmation stores the pending action in its tagged JSON form.
func (c *Collaborators) QueueForConfirmation(ctx context.Context, p enforcement.ConfirmationPayload) error {
	if c.store == nil {
		return fmt.Errorf("queue confirmation: %w", ErrNotConfigured)
	}
	if p.Action == nil {
		return errors.New("queue confirmation: action required")
	}
	action, err := json.Marshal(p.Action)
	if err != nil {
		return fmt.Errorf("marshal confirmation action: %w", err)
	}
	return c.store.QueueConfirmation(ctx, &store.Confirmation{
		RuleID:       p.RuleID,
		RuleName:     p.RuleName,
		SessionID:    p.SessionID,
		ServerUserID: p.ServerUserID,
		ServerID:     p.ServerID,
		Action:       action,
	})
}
