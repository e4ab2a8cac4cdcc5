// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/warden/internal/migration"
	"github.com/tomtom215/warden/internal/store"
)

type fakeStore struct {
	pingErr       error
	confirmations []store.Confirmation
	violations    []store.Violation
	audit         []store.AuditEntry
	trust         *store.TrustScore
	err           error

	gotRuleID string
	gotLimit  int
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) ListPendingConfirmations(context.Context) ([]store.Confirmation, error) {
	return f.confirmations, f.err
}

func (f *fakeStore) ListViolations(_ context.Context, ruleID string, limit int) ([]store.Violation, error) {
	f.gotRuleID, f.gotLimit = ruleID, limit
	return f.violations, f.err
}

func (f *fakeStore) ListAuditEntries(_ context.Context, ruleID string) ([]store.AuditEntry, error) {
	f.gotRuleID = ruleID
	return f.audit, f.err
}

func (f *fakeStore) GetTrustScore(_ context.Context, id string) (*store.TrustScore, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.trust != nil {
		return f.trust, nil
	}
	return &store.TrustScore{ServerUserID: id, Score: 100}, nil
}

type fakeMigration struct {
	running bool
	calls   int
}

func (f *fakeMigration) Run(context.Context) (*migration.Report, error) {
	f.calls++
	return &migration.Report{Migrated: 2, Skipped: 1}, nil
}

func (f *fakeMigration) IsRunning() bool { return f.running }

type fakeBreaker struct{ name, state string }

func (b fakeBreaker) Name() string  { return b.name }
func (b fakeBreaker) State() string { return b.state }

func do(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, http.NoBody)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp Response
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHealthz(t *testing.T) {
	h := NewRouter(Config{Store: &fakeStore{}})
	rec, _ := do(t, h, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestReadyz(t *testing.T) {
	breakers := []BreakerState{fakeBreaker{"mediaserver_plex-1", "closed"}}

	t.Run("ready", func(t *testing.T) {
		h := NewRouter(Config{Store: &fakeStore{}, Breakers: breakers})
		rec, resp := do(t, h, http.MethodGet, "/readyz")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "ok", data["database"])
		assert.Equal(t, map[string]any{"mediaserver_plex-1": "closed"}, data["breakers"])
	})

	t.Run("database down", func(t *testing.T) {
		h := NewRouter(Config{Store: &fakeStore{pingErr: errors.New("closed")}, Breakers: breakers})
		rec, resp := do(t, h, http.MethodGet, "/readyz")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, ErrCodeServiceUnavailable, resp.Error.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewRouter(Config{Store: &fakeStore{}})
	rec, _ := do(t, h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestListConfirmations(t *testing.T) {
	fs := &fakeStore{confirmations: []store.Confirmation{
		{ID: "c1", RuleID: "r1", CreatedAt: time.Now()},
		{ID: "c2", RuleID: "r1", CreatedAt: time.Now()},
	}}
	rec, resp := do(t, NewRouter(Config{Store: fs}), http.MethodGet, "/api/v1/confirmations")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta.Count)
	assert.Equal(t, 2, *resp.Meta.Count)
	assert.NotEmpty(t, resp.Meta.RequestID)
}

func TestListConfirmations_EmptyIsArray(t *testing.T) {
	rec, _ := do(t, NewRouter(Config{Store: &fakeStore{}}), http.MethodGet, "/api/v1/confirmations")
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestListViolations(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantLimit int
	}{
		{"default limit", "", http.StatusOK, defaultViolationLimit},
		{"explicit limit", "?limit=10", http.StatusOK, 10},
		{"zero", "?limit=0", http.StatusBadRequest, 0},
		{"too large", "?limit=501", http.StatusBadRequest, 0},
		{"not a number", "?limit=ten", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeStore{}
			rec, resp := do(t, NewRouter(Config{Store: fs}), http.MethodGet, "/api/v1/rules/r1/violations"+tt.query)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode != http.StatusOK {
				require.NotNil(t, resp.Error)
				assert.Equal(t, ErrCodeBadRequest, resp.Error.Code)
				return
			}
			assert.Equal(t, "r1", fs.gotRuleID)
			assert.Equal(t, tt.wantLimit, fs.gotLimit)
		})
	}
}

func TestListAudit(t *testing.T) {
	fs := &fakeStore{audit: []store.AuditEntry{{ID: "a1", RuleID: "r9"}}}
	rec, resp := do(t, NewRouter(Config{Store: fs}), http.MethodGet, "/api/v1/rules/r9/audit")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r9", fs.gotRuleID)
	assert.Equal(t, 1, *resp.Meta.Count)
}

func TestGetTrust(t *testing.T) {
	rec, resp := do(t, NewRouter(Config{Store: &fakeStore{}}), http.MethodGet, "/api/v1/users/u1/trust")
	assert.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "u1", data["server_user_id"])
	assert.EqualValues(t, 100, data["score"])
}

func TestStoreErrorIsInternal(t *testing.T) {
	fs := &fakeStore{err: errors.New("duckdb: closed")}
	rec, resp := do(t, NewRouter(Config{Store: fs}), http.MethodGet, "/api/v1/users/u1/trust")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInternalError, resp.Error.Code)
	assert.NotContains(t, rec.Body.String(), "duckdb")
}

func TestRunMigration(t *testing.T) {
	t.Run("runs", func(t *testing.T) {
		m := &fakeMigration{}
		rec, resp := do(t, NewRouter(Config{Store: &fakeStore{}, Migration: m}), http.MethodPost, "/api/v1/migrations/legacy-rules")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, m.calls)
		assert.EqualValues(t, 2, resp.Data.(map[string]any)["migrated"])
	})

	t.Run("already running", func(t *testing.T) {
		m := &fakeMigration{running: true}
		rec, _ := do(t, NewRouter(Config{Store: &fakeStore{}, Migration: m}), http.MethodPost, "/api/v1/migrations/legacy-rules")
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Zero(t, m.calls)
	})

	t.Run("not configured", func(t *testing.T) {
		rec, _ := do(t, NewRouter(Config{Store: &fakeStore{}}), http.MethodPost, "/api/v1/migrations/legacy-rules")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	h := NewRouter(Config{Store: &fakeStore{}, RateLimit: 2})
	for i := 0; i < 2; i++ {
		rec, _ := do(t, h, http.MethodGet, "/api/v1/confirmations")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, resp := do(t, h, http.MethodGet, "/api/v1/confirmations")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotNil(t, resp.Error)

	// Probes are outside the limited group.
	rec, _ = do(t, h, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}
