// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/warden/internal/migration"
	"github.com/tomtom215/warden/internal/rules"
)

const ruleColumns = `id, name, description, server_id, is_active, type,
	CAST(params AS VARCHAR), CAST(conditions AS VARCHAR), CAST(actions AS VARCHAR),
	created_at, updated_at`

// SaveLegacyRule inserts or replaces a rules row as given, including its
// legacy type and params.
func (s *DuckDBStore) SaveLegacyRule(ctx context.Context, r *migration.LegacyRule) (err error) {
	start := time.Now()
	defer func() { observe("save_legacy_rule", start, err) }()

	conditions, err := jsonColumn(r.Conditions)
	if err != nil {
		return err
	}
	actions, err := jsonColumn(r.Actions)
	if err != nil {
		return err
	}
	var params sql.NullString
	if len(r.Params) > 0 && string(r.Params) != "null" {
		params = sql.NullString{String: string(r.Params), Valid: true}
	}
	var typ sql.NullString
	if r.Type != nil {
		typ = sql.NullString{String: string(*r.Type), Valid: true}
	}

	now := s.now().UTC()
	created, updated := r.CreatedAt, r.UpdatedAt
	if created.IsZero() {
		created = now
	}
	if updated.IsZero() {
		updated = now
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO rules
		(id, name, description, server_id, is_active, type, params, conditions, actions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			server_id = EXCLUDED.server_id,
			is_active = EXCLUDED.is_active,
			type = EXCLUDED.type,
			params = EXCLUDED.params,
			conditions = EXCLUDED.conditions,
			actions = EXCLUDED.actions,
			updated_at = EXCLUDED.updated_at`,
		r.ID, r.Name, nullStringPtr(r.Description), nullStringPtr(r.ServerID), r.IsActive,
		typ, params, conditions, actions, created, updated,
	)
	if err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}
	return nil
}

// ListLegacyRules returns every row of the rules table in id order.
func (s *DuckDBStore) ListLegacyRules(ctx context.Context) (_ []migration.LegacyRule, err error) {
	start := time.Now()
	defer func() { observe("list_rules", start, err) }()

	rows, err := s.db.QueryContext(ctx, `SELECT `+ruleColumns+` FROM rules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var out []migration.LegacyRule
	for rows.Next() {
		r, err := scanRuleRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// GetRule returns the current-shape rule with the given id.
func (s *DuckDBStore) GetRule(ctx context.Context, id string) (_ *rules.Rule, err error) {
	start := time.Now()
	defer func() { observe("get_rule", start, err) }()

	r, err := scanRuleRow(s.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM rules WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rule %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if r.DecodeErr != nil {
		return nil, fmt.Errorf("rule %s: %w", id, r.DecodeErr)
	}
	return &rules.Rule{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		ServerID:    r.ServerID,
		IsActive:    r.IsActive,
		Conditions:  r.Conditions,
		Actions:     r.Actions,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

// SaveMigratedRule writes the conditions and actions of rule to its
// existing row. The legacy columns are left in place.
func (s *DuckDBStore) SaveMigratedRule(ctx context.Context, rule *rules.Rule) (err error) {
	start := time.Now()
	defer func() { observe("save_migrated_rule", start, err) }()

	conditions, err := jsonColumn(rule.Conditions)
	if err != nil {
		return err
	}
	actions, err := jsonColumn(rule.Actions)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE rules SET conditions = ?, actions = ?, updated_at = ? WHERE id = ?`,
		conditions, actions, s.now().UTC(), rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to save migrated rule: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("rule %s: %w", rule.ID, ErrNotFound)
	}
	return nil
}

func scanRuleRow(scanner interface {
	Scan(dest ...interface{}) error
}) (*migration.LegacyRule, error) {
	var r migration.LegacyRule
	var description, serverID, typ, params, conditions, actions sql.NullString

	if err := scanner.Scan(
		&r.ID, &r.Name, &description, &serverID, &r.IsActive, &typ,
		&params, &conditions, &actions, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}

	r.Description = stringPtr(description)
	r.ServerID = stringPtr(serverID)
	if typ.Valid {
		t := migration.LegacyType(typ.String)
		r.Type = &t
	}
	if params.Valid {
		r.Params = json.RawMessage(params.String)
	}
	// A column that does not decode is reported on the row so one bad rule
	// does not hide the rest of the table.
	var decodeErrs []error
	if conditions.Valid {
		var c rules.RuleConditions
		if err := json.Unmarshal([]byte(conditions.String), &c); err != nil {
			decodeErrs = append(decodeErrs, fmt.Errorf("decode conditions: %w", err))
		} else {
			r.Conditions = &c
		}
	}
	if actions.Valid {
		var a rules.RuleActions
		if err := json.Unmarshal([]byte(actions.String), &a); err != nil {
			decodeErrs = append(decodeErrs, fmt.Errorf("decode actions: %w", err))
		} else {
			r.Actions = &a
		}
	}
	r.DecodeErr = errors.Join(decodeErrs...)
	return &r, nil
}

// jsonColumn encodes v for a JSON column; a nil pointer becomes NULL.
func jsonColumn[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode json column: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
