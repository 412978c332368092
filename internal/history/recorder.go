// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package history

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/omnistream/internal/logging"
	"github.com/tomtom215/omnistream/internal/metrics"
	"github.com/tomtom215/omnistream/internal/models"
	"github.com/tomtom215/omnistream/internal/poller"
)

// Recorder appends one row per live session after each poll cycle and
// enforces the retention cap.
type Recorder struct {
	store Store

	mu        sync.RWMutex
	retention int
}

// NewRecorder creates a recorder. A non-positive retention keeps every row.
func NewRecorder(store Store, retention int) *Recorder {
	return &Recorder{store: store, retention: retention}
}

// Name implements poller.Stage.
func (r *Recorder) Name() string { return "history" }

// Process implements poller.Stage.
func (r *Recorder) Process(ctx context.Context, c *poller.Cycle) {
	r.Record(ctx, c.Timestamp, c.Statuses)
}

// Retention returns the current cap.
func (r *Recorder) Retention() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.retention
}

// SetRetention changes the cap. It applies from the next Record.
func (r *Recorder) SetRetention(n int) {
	r.mu.Lock()
	r.retention = n
	r.mu.Unlock()
}

// Store returns the underlying store.
func (r *Recorder) Store() Store {
	return r.store
}

// Record appends rows for every online backend and trims to the cap. Store
// failures are logged and counted; they never propagate to the cycle.
// It returns the number of rows appended.
func (r *Recorder) Record(ctx context.Context, ts time.Time, statuses map[string]models.BackendStatus) int {
	rows := RowsFromStatuses(ts, statuses)
	log := logging.Ctx(ctx)
	appended := 0

	if len(rows) > 0 {
		start := time.Now()
		stored, err := r.store.Append(ctx, rows)
		metrics.RecordHistoryOp(r.store.Name(), "append", time.Since(start), err)
		if err != nil {
			log.Error().Err(err).Str("store", r.store.Name()).Int("rows", len(rows)).Msg("History append failed")
		} else {
			appended = len(stored)
			metrics.HistoryRowsAppended.Add(float64(appended))
		}
	}

	// Trim even after a failed append so a transient write error does not
	// leave the store above its cap.
	if keep := r.Retention(); keep > 0 {
		start := time.Now()
		removed, err := r.store.Trim(ctx, keep)
		metrics.RecordHistoryOp(r.store.Name(), "trim", time.Since(start), err)
		if err != nil {
			log.Error().Err(err).Str("store", r.store.Name()).Int("retention", keep).Msg("History trim failed")
		} else if removed > 0 {
			metrics.HistoryRowsTrimmed.Add(float64(removed))
		}
	}
	return appended
}

// Query returns rows matching q, limited by the retention cap unless
// q.Limit is smaller.
func (r *Recorder) Query(ctx context.Context, q Query) ([]models.HistoryRow, error) {
	q.Limit = EffectiveLimit(q.Limit, r.Retention())
	rows, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.HistoryRow{}
	}
	return rows, nil
}

// RowsFromStatuses derives history rows from the online backends of one
// cycle. Backends are visited in ascending id order so insertion order is
// deterministic.
func RowsFromStatuses(ts time.Time, statuses map[string]models.BackendStatus) []models.HistoryRow {
	var rows []models.HistoryRow
	for _, id := range poller.SortedIDs(statuses) {
		st := statuses[id]
		if !st.Online || len(st.Sessions) == 0 {
			continue
		}
		for i := range st.Sessions {
			rows = append(rows, rowFromSession(ts, &st, &st.Sessions[i]))
		}
	}
	return rows
}

func rowFromSession(ts time.Time, st *models.BackendStatus, s *models.Session) models.HistoryRow {
	return models.HistoryRow{
		Timestamp:   ts.UTC(),
		BackendID:   st.ID,
		BackendName: st.Name,
		BackendKind: st.Kind,
		User:        firstNonEmpty(s.User, "Unknown"),
		Title:       firstNonEmpty(s.GrandparentTitle, s.Title, s.Channel, "Idle"),
		Stream:      s.Stream,
		Transcoding: s.Transcoding,
		Location:    s.Location,
		Bandwidth:   s.Bandwidth,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
