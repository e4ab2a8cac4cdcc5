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
)

// TrustScore is a user's current score.
type TrustScore struct {
	ServerUserID string    `json:"server_user_id"`
	Score        int       `json:"score"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GetTrustScore returns the stored score, or the baseline for users
// without a row.
func (s *DuckDBStore) GetTrustScore(ctx context.Context, serverUserID string) (_ *TrustScore, err error) {
	start := time.Now()
	defer func() { observe("get_trust", start, err) }()

	score := &TrustScore{ServerUserID: serverUserID}
	err = s.db.QueryRowContext(ctx,
		`SELECT score, updated_at FROM user_trust_scores WHERE server_user_id = ?`, serverUserID,
	).Scan(&score.Score, &score.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &TrustScore{ServerUserID: serverUserID, Score: s.baseline, UpdatedAt: s.now().UTC()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trust score: %w", err)
	}
	return score, nil
}

// AdjustTrust adds amount to the user's score, starting from the baseline
// when no row exists. The result is clamped to [0,100].
func (s *DuckDBStore) AdjustTrust(ctx context.Context, serverUserID string, amount int) (err error) {
	start := time.Now()
	defer func() { observe("adjust_trust", start, err) }()

	now := s.now().UTC()
	_, err = s.db.ExecContext(ctx, `INSERT INTO user_trust_scores (server_user_id, score, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (server_user_id) DO UPDATE SET
			score = GREATEST(?, LEAST(?, user_trust_scores.score + ?)),
			updated_at = ?`,
		serverUserID, clampTrust(s.baseline+amount), now,
		MinTrustScore, MaxTrustScore, amount, now,
	)
	if err != nil {
		return fmt.Errorf("failed to adjust trust score: %w", err)
	}
	return nil
}

// SetTrust overwrites the user's score, clamped to [0,100].
func (s *DuckDBStore) SetTrust(ctx context.Context, serverUserID string, value int) (err error) {
	start := time.Now()
	defer func() { observe("set_trust", start, err) }()

	if err = s.upsertTrust(ctx, serverUserID, clampTrust(value)); err != nil {
		return fmt.Errorf("failed to set trust score: %w", err)
	}
	return nil
}

// ResetTrust restores the baseline score.
func (s *DuckDBStore) ResetTrust(ctx context.Context, serverUserID string) (err error) {
	start := time.Now()
	defer func() { observe("reset_trust", start, err) }()

	if err = s.upsertTrust(ctx, serverUserID, s.baseline); err != nil {
		return fmt.Errorf("failed to reset trust score: %w", err)
	}
	return nil
}

func (s *DuckDBStore) upsertTrust(ctx context.Context, serverUserID string, score int) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO user_trust_scores (server_user_id, score, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (server_user_id) DO UPDATE SET
			score = EXCLUDED.score,
			updated_at = EXCLUDED.updated_at`,
		serverUserID, score, s.now().UTC(),
	)
	return err
}
