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

// Violation is one rule_violations row.
type Violation struct {
	ID           string          `json:"id"`
	RuleID       string          `json:"rule_id"`
	SessionID    string          `json:"session_id"`
	ServerUserID string          `json:"server_user_id"`
	ServerID     string          `json:"server_id,omitempty"`
	Severity     string          `json:"severity"`
	Details      json.RawMessage `json:"details,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// AuditEntry is one rule_audit_log row.
type AuditEntry struct {
	ID           string    `json:"id"`
	RuleID       string    `json:"rule_id"`
	SessionID    string    `json:"session_id"`
	ServerUserID string    `json:"server_user_id"`
	ServerID     string    `json:"server_id,omitempty"`
	Message      *string   `json:"message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateViolation inserts v, assigning ID and CreatedAt when empty.
func (s *DuckDBStore) CreateViolation(ctx context.Context, v *Violation) (err error) {
	start := time.Now()
	defer func() { observe("create_violation", start, err) }()

	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.now().UTC()
	}

	// JSON columns take text; the driver rejects json.RawMessage directly.
	var details sql.NullString
	if len(v.Details) > 0 {
		details = sql.NullString{String: string(v.Details), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO rule_violations
		(id, rule_id, session_id, server_user_id, server_id, severity, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.RuleID, v.SessionID, v.ServerUserID, nullString(v.ServerID), v.Severity, details, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert violation: %w", err)
	}
	return nil
}

// ListViolations returns the most recent violations, optionally filtered
// by rule. A non-positive limit defaults to 100.
func (s *DuckDBStore) ListViolations(ctx context.Context, ruleID string, limit int) (_ []Violation, err error) {
	start := time.Now()
	defer func() { observe("list_violations", start, err) }()

	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, rule_id, session_id, server_user_id, server_id, severity,
		CAST(details AS VARCHAR), created_at FROM rule_violations`
	args := []interface{}{}
	if ruleID != "" {
		query += ` WHERE rule_id = ?`
		args = append(args, ruleID)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}
	defer rows.Close()

	var out []Violation
	for rows.Next() {
		var v Violation
		var serverID, details sql.NullString
		if err := rows.Scan(&v.ID, &v.RuleID, &v.SessionID, &v.ServerUserID, &serverID, &v.Severity, &details, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan violation: %w", err)
		}
		v.ServerID = serverID.String
		if details.Valid {
			v.Details = json.RawMessage(details.String)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// LogAudit inserts e, assigning ID and CreatedAt when empty.
func (s *DuckDBStore) LogAudit(ctx context.Context, e *AuditEntry) (err error) {
	start := time.Now()
	defer func() { observe("log_audit", start, err) }()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO rule_audit_log
		(id, rule_id, session_id, server_user_id, server_id, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.RuleID, e.SessionID, e.ServerUserID, nullString(e.ServerID), nullStringPtr(e.Message), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// ListAuditEntries returns audit entries for a rule, newest first.
func (s *DuckDBStore) ListAuditEntries(ctx context.Context, ruleID string) (_ []AuditEntry, err error) {
	start := time.Now()
	defer func() { observe("list_audit", start, err) }()

	rows, err := s.db.QueryContext(ctx, `SELECT id, rule_id, session_id, server_user_id, server_id, message, created_at
		FROM rule_audit_log WHERE rule_id = ? ORDER BY created_at DESC, id`, ruleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var serverID, message sql.NullString
		if err := rows.Scan(&e.ID, &e.RuleID, &e.SessionID, &e.ServerUserID, &serverID, &message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.ServerID = serverID.String
		e.Message = stringPtr(message)
		out = append(out, e)
	}
	return out, rows.Err()
}
