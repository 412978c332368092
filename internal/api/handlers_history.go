// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package api

import (
	"net/http"

	"github.com/tomtom215/omnistream/internal/validation"
)

// History answers GET /history with the filtered, sorted rows.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.History == nil {
		rw.ServiceUnavailable("History not available")
		return
	}

	q, err := parseHistoryQuery(r.URL.Query())
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To) {
		rw.ValidationError("from must not be after to", nil)
		return
	}

	rows, err := h.deps.History.Query(r.Context(), q)
	if err != nil {
		rw.StorageError(err)
		return
	}
	rw.List(rows, len(rows))
}
