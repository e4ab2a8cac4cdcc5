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

	"github.com/tomtom215/warden/internal/rules"
)

// SessionLocation is where a session lives: its server and the key the
// server knows it by.
type SessionLocation struct {
	SessionID  string
	ServerID   string
	SessionKey string
}

// RecordSessions upserts the lookup rows for sessions. Sessions without an
// id or server are ignored.
func (s *DuckDBStore) RecordSessions(ctx context.Context, sessions []rules.Session) (err error) {
	start := time.Now()
	defer func() { observe("record_sessions", start, err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := s.now().UTC()
	for _, sess := range sessions {
		if sess.ID == "" || sess.ServerID == "" {
			continue
		}
		key := sess.SessionKey
		if key == "" {
			key = sess.ID
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO sessions (id, server_id, session_key, server_user_id, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				server_id = EXCLUDED.server_id,
				session_key = EXCLUDED.session_key,
				server_user_id = EXCLUDED.server_user_id,
				updated_at = EXCLUDED.updated_at`,
			sess.ID, sess.ServerID, key, nullString(sess.ServerUserID), now,
		)
		if err != nil {
			return fmt.Errorf("failed to record session %s: %w", sess.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sessions: %w", err)
	}
	return nil
}

// LocateSession returns the server and key of a recorded session, or
// ErrNotFound.
func (s *DuckDBStore) LocateSession(ctx context.Context, sessionID string) (_ SessionLocation, err error) {
	start := time.Now()
	defer func() { observe("locate_session", start, err) }()

	loc := SessionLocation{SessionID: sessionID}
	err = s.db.QueryRowContext(ctx,
		`SELECT server_id, session_key FROM sessions WHERE id = ?`, sessionID,
	).Scan(&loc.ServerID, &loc.SessionKey)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionLocation{}, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return SessionLocation{}, fmt.Errorf("failed to locate session: %w", err)
	}
	return loc, nil
}
