// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package models

import "time"

// Severity of a notification.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// AlertKind tags the rule that produced a notification.
type AlertKind string

const (
	AlertOffline          AlertKind = "offline"
	AlertWANTranscode     AlertKind = "wanTranscode"
	AlertAnyWAN           AlertKind = "anyWan"
	AlertHighBandwidth    AlertKind = "highBandwidth"
	AlertHighWANBandwidth AlertKind = "highWanBandwidth"
	AlertTest             AlertKind = "test"
)

// Notification is an alert derived from the current backend statuses.
// ID is stable for the same kind on the same backend.
type Notification struct {
	ID          string    `json:"id"`
	Severity    Severity  `json:"severity"`
	BackendID   string    `json:"serverId"`
	BackendName string    `json:"serverName"`
	Kind        AlertKind `json:"type"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

// NotificationID builds the deterministic identifier for kind on backendID.
func NotificationID(kind AlertKind, backendID string) string {
	return string(kind) + "-" + backendID
}
