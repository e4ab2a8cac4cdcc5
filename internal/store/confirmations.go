// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// ConfirmationPending is the status of a queued, undecided action.
const ConfirmationPending = "pending"

// Confirmation is an action waiting for operator approval.
type Confirmation struct {
	ID           string          `json:"id"`
	RuleID       string          `json:"rule_id"`
	RuleName     string          `json:"rule_name,omitempty"`
	SessionID    string          `json:"session_id"`
	ServerUserID string          `json:"server_user_id"`
	ServerID     string          `json:"server_id,omitempty"`
	Action       json.RawMessage `json:"action"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// QueueConfirmation inserts c with status pending.
func (s *DuckDBStore) QueueConfirmation(ctx context.Context, c *Confirmation) (err error) {
	start := time.Now()
	defer func() { observe("queue_confirmation", start, err) }()

	if len(c.Action) == 0 {
		return fmt.Errorf("confirmation for rule %s has no action", c.RuleID)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
	}
	c.Status = ConfirmationPending

	_, err = s.db.ExecContext(ctx, `INSERT INTO action_confirmations
		(id, rule_id, rule_name, session_id, server_user_id, server_id, action, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.RuleID, nullString(c.RuleName), c.SessionID, c.ServerUserID, nullString(c.ServerID),
		string(c.Action), c.Status, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to queue confirmation: %w", err)
	}
	return nil
}

// ListPendingConfirmations returns pending confirmations, oldest first.
func (s *DuckDBStore) ListPendingConfirmations(ctx context.Context) (_ []Confirmation, err error) {
	start := time.Now()
	defer func() { observe("list_confirmations", start, err) }()

	rows, err := s.db.QueryContext(ctx, `SELECT id, rule_id, rule_name, session_id, server_user_id, server_id,
		CAST(action AS VARCHAR), status, created_at
		FROM action_confirmations WHERE status = ? ORDER BY created_at, id`, ConfirmationPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmations: %w", err)
	}
	defer rows.Close()

	out := []Confirmation{}
	for rows.Next() {
		var c Confirmation
		var ruleName, serverID sql.NullString
		var action string
		if err := rows.Scan(&c.ID, &c.RuleID, &ruleName, &c.SessionID, &c.ServerUserID, &serverID, &action, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan confirmation: %w", err)
		}
		c.RuleName = ruleName.String
		c.ServerID = serverID.String
		c.Action = json.RawMessage(action)
		out = append(out, c)
	}
	return out, rows.Err()
}
