// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/feedcast/internal/models"
)

// readyTimeout bounds the storage ping in the readiness probe.
const readyTimeout = 2 * time.Second

// HealthLive handles liveness probe requests.
// Returns 200 OK if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, time.Now())
}

// HealthReady handles readiness probe requests. It returns 503 until the
// database answers, and reports push channel occupancy either way.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	dbReady := h.db != nil && h.db.Ping(ctx) == nil

	data := map[string]interface{}{
		"ready":    dbReady,
		"database": dbReady,
	}
	if h.sessions != nil {
		data["online_users"] = h.sessions.UserCount()
		data["sessions"] = h.sessions.SessionCount()
	}

	if !dbReady {
		respondJSON(w, http.StatusServiceUnavailable, &models.APIResponse{
			Status:   "error",
			Data:     data,
			Metadata: models.Metadata{Timestamp: time.Now().UTC()},
			Error:    &models.APIError{Code: CodeUnavailable, Message: "Database not ready."},
		})
		return
	}
	respondSuccess(w, http.StatusOK, data, start)
}
