// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package models

import "time"

// BackendStatus is the outcome of the most recent poll of one backend.
// A record is built completely before it is published and is never mutated
// afterwards.
type BackendStatus struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Kind        BackendKind    `json:"type"`
	Online      bool           `json:"online"`
	StatusCode  int            `json:"statusCode,omitempty"`
	Error       string         `json:"error,omitempty"`
	LatencyMs   int64          `json:"latencyMs"`
	PayloadKind string         `json:"payloadKind,omitempty"`
	Sessions    []Session      `json:"sessions"`
	Summary     BackendSummary `json:"summary"`
	CheckedAt   time.Time      `json:"lastChecked"`
}

// PollMeta describes the most recently completed poll cycle.
type PollMeta struct {
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"durationMs"`
	Error      *string   `json:"error"`
	Backends   int       `json:"backends"`
}
