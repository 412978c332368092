// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package notify

import (
	"sort"
	"sync"

	"github.com/tomtom215/omnistream/internal/models"
)

// ActiveSet remembers the notification ids that were active in the previous
// cycle so only new activations are dispatched.
type ActiveSet struct {
	mu   sync.Mutex
	prev map[string]struct{}
}

// NewActiveSet creates an empty set.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{prev: make(map[string]struct{})}
}

// Advance returns the notifications in current whose id was not active in
// the previous cycle, then replaces the previous set with current.
func (s *ActiveSet) Advance(current []models.Notification) []models.Notification {
	next := make(map[string]struct{}, len(current))
	var fresh []models.Notification

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range current {
		id := current[i].ID
		if _, dup := next[id]; dup {
			continue
		}
		next[id] = struct{}{}
		if _, seen := s.prev[id]; !seen {
			fresh = append(fresh, current[i])
		}
	}
	s.prev = next
	return fresh
}

// IDs returns the currently remembered ids, sorted.
func (s *ActiveSet) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.prev))
	for id := range s.prev {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Reset forgets every active id.
func (s *ActiveSet) Reset() {
	s.mu.Lock()
	s.prev = make(map[string]struct{})
	s.mu.Unlock()
}
