// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package models

import "time"

// HistoryRow is one session observed during one poll cycle.
// Seq is assigned by the store and reflects insertion order.
type HistoryRow struct {
	Seq         uint64      `json:"seq"`
	Timestamp   time.Time   `json:"timestamp"`
	BackendID   string      `json:"serverId"`
	BackendName string      `json:"serverName"`
	BackendKind BackendKind `json:"serverType"`
	User        string      `json:"user"`
	Title       string      `json:"title"`
	Stream      string      `json:"stream"`
	Transcoding *bool       `json:"transcoding"`
	Location    string      `json:"location"`
	Bandwidth   float64     `json:"bandwidth"`
}
