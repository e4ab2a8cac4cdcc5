// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package enforcement

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/warden/internal/rules"
)

// terminateCall records one TerminateSession invocation.
type terminateCall struct {
	SessionID    string
	ServerID     string
	DelaySeconds int
	Message      *string
}

// recordingDeps records every collaborator call. failWith makes every
// collaborator return that error; panicWith makes every collaborator panic.
type recordingDeps struct {
	mu sync.Mutex

	failWith       error
	panicWith      any
	cooldownActive bool

	calls          []string
	violations     []ViolationPayload
	audits         []AuditPayload
	notifications  []Notification
	trustAdjusts   []int
	trustSets      []int
	trustResets    int
	terminations   []terminateCall
	clientMessages map[string]string
	cooldownChecks []string
	cooldownSets   map[string]int
	confirmations  []ConfirmationPayload
}

func newRecordingDeps() *recordingDeps {
	return &recordingDeps{
		clientMessages: make(map[string]string),
		cooldownSets:   make(map[string]int),
	}
}

// enter records the call name and returns the configured failure.
func (d *recordingDeps) enter(name string) error {
	d.calls = append(d.calls, name)
	if d.panicWith != nil {
		panic(d.panicWith)
	}
	return d.failWith
}

func (d *recordingDeps) CreateViolation(_ context.Context, v ViolationPayload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter("CreateViolation"); err != nil {
		return err
	}
	d.violations = append(d.violations, v)
	return nil
}

func (d *recordingDeps) LogAudit(_ context.Context, a AuditPayload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter("LogAudit"); err != nil {
		return err
	}
	d.audits = append(d.audits, a)
	return nil
}

func (d *recordingDeps) SendNotification(_ context.Context, n Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter("SendNotification"); err != nil {
		return err
	}
	d.notifications = append(d.notifications, n)
	return nil
}

func (d *recordingDeps) AdjustUserTrust(_ context.Context, _ string, amount int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter("AdjustUserTrust"); err != nil {
		return err
	}
	d.trustAdjusts = append(d.trustAdjusts, amount)
	return nil
}

func (d *recordingDeps) SetUserTrust(_ context.Context, _ string, value int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter("SetUserTrust"); err != nil {
		return err
	}
	d.trustSets = append(d.trustSets, value)
	return nil
}

func (d *recordingDeps) ResetUserTrust(context.Context, string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter("ResetUserTrust"); err != nil {
		return err
	}
	d.trustResets++
	return nil
}

func (d *recordingDeps) TerminateSession(_ context.Context, sessionID, serverID string, delaySeconds int, message *string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter("TerminateSession"); err != nil {
		return err
	}
	d.terminations = append(d.terminations, terminateCall{sessionID, serverID, delaySeconds, message})
	return nil
}

func (d *recordingDeps) SendClientMessage(_ context.Context, sessionID, message string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter("SendClientMessage"); err != nil {
		return err
	}
	d.clientMessages[sessionID] = message
	return nil
}

func (d *recordingDeps) CheckCooldown(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter("CheckCooldown"); err != nil {
		return false, err
	}
	d.cooldownChecks = append(d.cooldownChecks, key)
	return d.cooldownActive, nil
}

func (d *recordingDeps) SetCooldown(_ context.Context, key string, minutes int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter("SetCooldown"); err != nil {
		return err
	}
	d.cooldownSets[key] = minutes
	return nil
}

func (d *recordingDeps) QueueForConfirmation(_ context.Context, c ConfirmationPayload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter("QueueForConfirmation"); err != nil {
		return err
	}
	d.confirmations = append(d.confirmations, c)
	return nil
}

func (d *recordingDeps) called(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c == name {
			n++
		}
	}
	return n
}

var baseTime = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func session(id, user string, startedHour int) rules.Session {
	return rules.Session{
		ID:           id,
		SessionKey:   "key-" + id,
		ServerID:     "srv1",
		ServerUserID: user,
		MediaTitle:   "Title " + id,
		IPAddress:    "203.0.113.7",
		StartedAt:    baseTime.Add(time.Duration(startedHour) * time.Hour),
	}
}

// threeSessionContext is u1 streaming s1@08:00, s2@09:00, s3@10:00 with s3
// triggering, plus one session of another user.
func threeSessionContext() *rules.EvaluationContext {
	s1 := session("s1", "u1", 8)
	s2 := session("s2", "u1", 9)
	s3 := session("s3", "u1", 10)
	other := session("x1", "u2", 7)
	return &rules.EvaluationContext{
		Session:        s3,
		Server:         rules.Server{ID: "srv1", Name: "Home Plex", Type: rules.ServerTypePlex},
		ServerUser:     rules.ServerUser{ID: "u1", ServerID: "srv1", Username: "alice", TrustScore: 80},
		Rule:           rules.Rule{ID: "r1", Name: "Max two streams", IsActive: true},
		ActiveSessions: []rules.Session{s3, other, s1, s2},
	}
}
