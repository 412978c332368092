// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package history

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/omnistream/internal/models"
)

// ErrStoreClosed is returned by stores after Close.
var ErrStoreClosed = errors.New("history store is closed")

// Store persists history rows. Seq values are assigned on Append and are
// strictly increasing in insertion order; retention always removes the
// lowest Seq values first.
//
// Implementations must be safe for concurrent use. Writes are serialized.
type Store interface {
	// Append stores rows in order and returns them with Seq assigned.
	Append(ctx context.Context, rows []models.HistoryRow) ([]models.HistoryRow, error)

	// Trim deletes the oldest rows so that at most keep remain. It returns
	// the number of rows removed.
	Trim(ctx context.Context, keep int) (int, error)

	// Query returns matching rows sorted and limited per q. A non-positive
	// q.Limit means no limit.
	Query(ctx context.Context, q Query) ([]models.HistoryRow, error)

	// Count returns the number of stored rows.
	Count(ctx context.Context) (int, error)

	// Name identifies the store in logs and metrics.
	Name() string

	Close() error
}

// Sort keys.
const (
	SortTime      = "time"
	SortBandwidth = "bandwidth"
	OrderAsc      = "asc"
	OrderDesc     = "desc"
)

// Query filters history. Zero values mean "no filter".
type Query struct {
	BackendID string    `json:"backend_id" validate:"omitempty,max=128"`
	User      string    `json:"user" validate:"omitempty,max=256"`
	Text      string    `json:"q" validate:"omitempty,max=256"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	SortBy    string    `json:"sort" validate:"omitempty,oneof=time bandwidth"`
	Order     string    `json:"order" validate:"omitempty,oneof=asc desc"`
	Limit     int       `json:"limit" validate:"min=0"`
}

// Normalized fills defaults: sort by time, newest first.
func (q Query) Normalized() Query {
	if q.SortBy == "" {
		q.SortBy = SortTime
	}
	if q.Order == "" {
		q.Order = OrderDesc
	}
	return q
}

// EffectiveLimit combines a requested limit with the retention cap: the
// smaller positive value wins, and non-positive values mean unbounded.
func EffectiveLimit(limit, retention int) int {
	switch {
	case limit > 0 && retention > 0:
		return min(limit, retention)
	case limit > 0:
		return limit
	case retention > 0:
		return retention
	default:
		return 0
	}
}

// Matches reports whether row passes every filter of q.
func (q Query) Matches(row *models.HistoryRow) bool {
	if q.BackendID != "" && row.BackendID != q.BackendID {
		return false
	}
	if q.User != "" && !strings.EqualFold(row.User, q.User) {
		return false
	}
	if !q.From.IsZero() && row.Timestamp.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && row.Timestamp.After(q.To) {
		return false
	}
	if q.Text != "" {
		needle := strings.ToLower(q.Text)
		if !strings.Contains(strings.ToLower(row.Title), needle) &&
			!strings.Contains(strings.ToLower(row.User), needle) &&
			!strings.Contains(strings.ToLower(row.BackendName), needle) {
			return false
		}
	}
	return true
}

// applyQuery filters, sorts and limits rows in memory. rows must be in
// insertion order; the returned slice is newly allocated.
func applyQuery(rows []models.HistoryRow, q Query) []models.HistoryRow {
	q = q.Normalized()
	out := make([]models.HistoryRow, 0, len(rows))
	for i := range rows {
		if q.Matches(&rows[i]) {
			out = append(out, rows[i])
		}
	}

	desc := q.Order == OrderDesc
	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		if q.SortBy == SortBandwidth && a.Bandwidth != b.Bandwidth {
			if desc {
				return a.Bandwidth > b.Bandwidth
			}
			return a.Bandwidth < b.Bandwidth
		}
		if q.SortBy == SortTime && !a.Timestamp.Equal(b.Timestamp) {
			if desc {
				return a.Timestamp.After(b.Timestamp)
			}
			return a.Timestamp.Before(b.Timestamp)
		}
		if desc {
			return a.Seq > b.Seq
		}
		return a.Seq < b.Seq
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}
