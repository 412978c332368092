// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package api

import (
	"net/http"
	"time"
)

// HealthLive always answers 200 while the process serves HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]interface{}{
		"alive":          true,
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady answers 200 once the first poll cycle has completed and 503
// before that.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.Status == nil || !h.deps.Status.Ready() {
		rw.ServiceUnavailable("No poll cycle has completed yet")
		return
	}

	data := map[string]interface{}{
		"ready":          true,
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	}
	if meta, ok := h.deps.Status.LastPollMeta(); ok {
		data["last_poll"] = meta.Timestamp
		data["backends"] = meta.Backends
	}
	rw.Success(data)
}
