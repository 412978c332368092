// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package poller

import (
	"sort"
	"sync"

	"github.com/tomtom215/omnistream/internal/models"
)

// StatusStore holds the latest BackendStatus per backend. Records are
// replaced whole; readers get copies of the map and never observe a
// partially built record.
type StatusStore struct {
	mu       sync.RWMutex
	statuses map[string]models.BackendStatus
}

// NewStatusStore creates an empty store.
func NewStatusStore() *StatusStore {
	return &StatusStore{statuses: make(map[string]models.BackendStatus)}
}

// Put publishes a fully built status.
func (s *StatusStore) Put(status models.BackendStatus) {
	s.mu.Lock()
	s.statuses[status.ID] = status
	s.mu.Unlock()
}

// Get returns the status for id.
func (s *StatusStore) Get(id string) (models.BackendStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.statuses[id]
	return st, ok
}

// Snapshot returns a copy of the whole map.
func (s *StatusStore) Snapshot() map[string]models.BackendStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.BackendStatus, len(s.statuses))
	for id, st := range s.statuses {
		out[id] = st
	}
	return out
}

// Retain removes every entry whose id is not in keep and returns the
// removed ids in sorted order.
func (s *StatusStore) Retain(keep map[string]struct{}) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []string
	for id := range s.statuses {
		if _, ok := keep[id]; !ok {
			delete(s.statuses, id)
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	return removed
}

// Len returns the number of stored statuses.
func (s *StatusStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.statuses)
}

// SortedIDs returns the ids of a status map in ascending order.
func SortedIDs(statuses map[string]models.BackendStatus) []string {
	ids := make([]string, 0, len(statuses))
	for id := range statuses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
