// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/warden/internal/logging"
)

const (
	defaultViolationLimit = 50
	maxViolationLimit     = 500
)

type handler struct {
	store     Store
	migration MigrationRunner
	breakers  []BreakerState
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type readiness struct {
	Database string            `json:"database"`
	Breakers map[string]string `json:"breakers"`
}

func (h *handler) readyz(w http.ResponseWriter, r *http.Request) {
	status := readiness{Database: "ok", Breakers: make(map[string]string, len(h.breakers))}
	for _, b := range h.breakers {
		status.Breakers[b.Name()] = b.State()
	}

	if err := h.store.Ping(r.Context()); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
		status.Database = "unavailable"
		writeJSON(w, r, http.StatusServiceUnavailable, Response{
			Data:  status,
			Error: &Error{Code: ErrCodeServiceUnavailable, Message: "database unavailable"},
		})
		return
	}
	respondOK(w, r, status)
}

func (h *handler) listConfirmations(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListPendingConfirmations(r.Context())
	if err != nil {
		h.internalError(w, r, err, "failed to list confirmations")
		return
	}
	respondList(w, r, items)
}

func (h *handler) listViolations(w http.ResponseWriter, r *http.Request) {
	limit := defaultViolationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxViolationLimit {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest,
				"limit must be an integer between 1 and "+strconv.Itoa(maxViolationLimit))
			return
		}
		limit = n
	}

	items, err := h.store.ListViolations(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		h.internalError(w, r, err, "failed to list violations")
		return
	}
	respondList(w, r, items)
}

func (h *handler) listAudit(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListAuditEntries(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.internalError(w, r, err, "failed to list audit entries")
		return
	}
	respondList(w, r, items)
}

func (h *handler) getTrust(w http.ResponseWriter, r *http.Request) {
	score, err := h.store.GetTrustScore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.internalError(w, r, err, "failed to load trust score")
		return
	}
	respondOK(w, r, score)
}

func (h *handler) runMigration(w http.ResponseWriter, r *http.Request) {
	if h.migration.IsRunning() {
		respondError(w, r, http.StatusConflict, ErrCodeConflict, "migration already running")
		return
	}
	report, err := h.migration.Run(r.Context())
	if err != nil {
		h.internalError(w, r, err, "migration failed")
		return
	}
	respondOK(w, r, report)
}

func (h *handler) internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	logging.Ctx(r.Context()).Error().Err(err).Msg(msg)
	respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, msg)
}
