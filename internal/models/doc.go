// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

// Package models holds the canonical data model shared by the poller, the
// history recorder, the notification engine and the HTTP API.
//
// Sessions are ephemeral and recomputed every poll. BackendStatus records are
// replaced wholesale per backend per cycle. HistoryRow is the only persisted
// type. Notifications are never persisted; only their identifiers survive a
// cycle, for deduplication.
package models
