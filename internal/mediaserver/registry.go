// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package mediaserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/warden/internal/breaker"
	"github.com/tomtom215/warden/internal/logging"
	"github.com/tomtom215/warden/internal/metrics"
	"github.com/tomtom215/warden/internal/store"
)

const messageHeader = "Warden"

// SessionLocator resolves a session id to its server and server-side key.
type SessionLocator interface {
	LocateSession(ctx context.Context, sessionID string) (store.SessionLocation, error)
}

type guardedController struct {
	Controller
	breaker *breaker.Breaker
}

// Registry routes terminate and message calls to the right server.
type Registry struct {
	locator SessionLocator

	mu      sync.Mutex
	servers map[string]*guardedController
	pending map[*time.Timer]struct{}
	closed  bool
}

// NewRegistry creates an empty registry.
func NewRegistry(locator SessionLocator) *Registry {
	return &Registry{
		locator: locator,
		servers: make(map[string]*guardedController),
		pending: make(map[*time.Timer]struct{}),
	}
}

// Register adds or replaces the controller for serverID.
func (r *Registry) Register(serverID string, c Controller, settings breaker.Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers[serverID] = &guardedController{
		Controller: c,
		breaker:    breaker.New("mediaserver_"+serverID, settings),
	}
}

// ServerIDs lists registered servers.
func (r *Registry) ServerIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.servers))
	for id := range r.servers {
		ids = append(ids, id)
	}
	return ids
}

// Breakers returns the circuit breaker of every registered server.
func (r *Registry) Breakers() []*breaker.Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*breaker.Breaker, 0, len(r.servers))
	for _, c := range r.servers {
		out = append(out, c.breaker)
	}
	return out
}

func (r *Registry) controller(serverID string) (*guardedController, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.servers[serverID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownServer, serverID)
	}
	return c, nil
}

// TerminateSession stops sessionID on serverID. A non-nil message is shown
// to the user before the stop. With delaySeconds > 0 the stop is scheduled
// and the call returns once the message is sent.
func (r *Registry) TerminateSession(ctx context.Context, sessionID, serverID string, delaySeconds int, message *string) error {
	c, err := r.controller(serverID)
	if err != nil {
		return err
	}
	key := r.sessionKey(ctx, sessionID, serverID)
	logger := logging.CtxWith(ctx).
		Str("component", "mediaserver").
		Str("server_id", serverID).
		Str("session_id", sessionID).
		Logger()

	reason := DefaultReason
	if message != nil && *message != "" {
		reason = *message
		err := c.breaker.Execute(func() error {
			return c.SendMessage(ctx, key, messageHeader, reason)
		})
		if err != nil && !errors.Is(err, ErrUnsupported) {
			logger.Warn().Err(err).Msg("pre-termination message failed")
		}
	}

	if delaySeconds <= 0 {
		return r.terminate(ctx, c, key, reason)
	}

	detached := context.WithoutCancel(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.New("registry closed")
	}
	var timer *time.Timer
	timer = time.AfterFunc(time.Duration(delaySeconds)*time.Second, func() {
		r.mu.Lock()
		delete(r.pending, timer)
		r.mu.Unlock()
		if err := r.terminate(detached, c, key, reason); err != nil {
			logger.Warn().Err(err).Msg("delayed termination failed")
		}
	})
	r.pending[timer] = struct{}{}
	logger.Debug().Int("delay_seconds", delaySeconds).Msg("termination scheduled")
	return nil
}

func (r *Registry) terminate(ctx context.Context, c *guardedController, key, reason string) error {
	err := c.breaker.Execute(func() error {
		return c.Terminate(ctx, key, reason)
	})
	metrics.RecordTermination(string(c.Type()), err)
	return err
}

// SendClientMessage shows message on the client playing sessionID.
func (r *Registry) SendClientMessage(ctx context.Context, sessionID, message string) error {
	if r.locator == nil {
		return fmt.Errorf("%w: %q", ErrUnknownSession, sessionID)
	}
	loc, err := r.locator.LocateSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %q", ErrUnknownSession, sessionID)
		}
		return fmt.Errorf("locate session: %w", err)
	}
	c, err := r.controller(loc.ServerID)
	if err != nil {
		return err
	}
	return c.breaker.Execute(func() error {
		return c.SendMessage(ctx, loc.SessionKey, messageHeader, message)
	})
}

// sessionKey returns the server-side key for sessionID, falling back to the
// id itself when the session was never recorded.
func (r *Registry) sessionKey(ctx context.Context, sessionID, serverID string) string {
	if r.locator == nil {
		return sessionID
	}
	loc, err := r.locator.LocateSession(ctx, sessionID)
	if err != nil || loc.ServerID != serverID || loc.SessionKey == "" {
		return sessionID
	}
	return loc.SessionKey
}

// Pending reports how many delayed terminations are scheduled.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Close cancels scheduled terminations.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for t := range r.pending {
		t.Stop()
	}
	r.pending = make(map[*time.Timer]struct{})
	return nil
}
