// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package history

import (
	"context"
	"sync"

	"github.com/tomtom215/omnistream/internal/models"
)

// MemoryStore keeps rows in a slice. Rows are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	rows    []models.HistoryRow
	nextSeq uint64
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextSeq: 1}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Append(ctx context.Context, rows []models.HistoryRow) ([]models.HistoryRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	out := make([]models.HistoryRow, len(rows))
	for i := range rows {
		out[i] = rows[i]
		out[i].Seq = m.nextSeq
		m.nextSeq++
	}
	m.rows = append(m.rows, out...)
	return out, nil
}

func (m *MemoryStore) Trim(ctx context.Context, keep int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrStoreClosed
	}
	excess := len(m.rows) - keep
	if keep < 0 || excess <= 0 {
		return 0, nil
	}
	// Copy so the dropped prefix can be collected.
	m.rows = append([]models.HistoryRow(nil), m.rows[excess:]...)
	return excess, nil
}

func (m *MemoryStore) Query(ctx context.Context, q Query) ([]models.HistoryRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	return applyQuery(m.rows, q), nil
}

func (m *MemoryStore) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows), nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.rows = nil
	return nil
}
