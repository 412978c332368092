// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/omnistream/internal/logging"
	"github.com/tomtom215/omnistream/internal/models"
	"github.com/tomtom215/omnistream/internal/poller"
)

// StatusResponse is the body of GET /status and POST /poll.
type StatusResponse struct {
	CycleID  string                          `json:"cycleId,omitempty"`
	Statuses map[string]models.BackendStatus `json:"statuses"`
	Meta     *models.PollMeta                `json:"meta"`

	// Setup is true while no enabled backend has been polled.
	Setup bool `json:"setup"`
}

func newStatusResponse(statuses map[string]models.BackendStatus, meta *models.PollMeta) StatusResponse {
	if statuses == nil {
		statuses = map[string]models.BackendStatus{}
	}
	return StatusResponse{Statuses: statuses, Meta: meta, Setup: len(statuses) == 0}
}

// Status returns every current backend status and the last poll meta.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.Status == nil {
		rw.ServiceUnavailable("Poller not available")
		return
	}

	var meta *models.PollMeta
	if m, ok := h.deps.Status.LastPollMeta(); ok {
		meta = &m
	}
	rw.Success(newStatusResponse(h.deps.Status.CurrentStatuses(), meta))
}

// BackendStatus returns the status of one backend.
func (h *Handler) BackendStatus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.Status == nil {
		rw.ServiceUnavailable("Poller not available")
		return
	}

	id := chi.URLParam(r, "id")
	st, ok := h.deps.Status.Status(id)
	if !ok {
		rw.NotFound("No status for backend " + id)
		return
	}
	rw.Success(st)
}

// Poll runs a cycle now and returns its statuses. Concurrent requests share
// one cycle; a request that arrives while a timer cycle runs gets 409.
func (h *Handler) Poll(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.Status == nil {
		rw.ServiceUnavailable("Poller not available")
		return
	}

	cycle, err := h.deps.Status.TriggerNow(r.Context())
	switch {
	case errors.Is(err, poller.ErrCycleInProgress):
		rw.Error(http.StatusConflict, ErrCodeConflict, "A poll cycle is already running")
		return
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Msg("On-demand poll failed")
		rw.Error(http.StatusInternalServerError, ErrCodeInternalError, "Poll failed: "+err.Error())
		return
	}

	resp := newStatusResponse(cycle.Statuses, &cycle.Meta)
	resp.CycleID = cycle.ID
	rw.Success(resp)
}
