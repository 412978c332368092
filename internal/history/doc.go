// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

// Package history records a bounded time series of observed sessions.
//
// The Recorder runs as a poll stage: for every online backend with sessions
// it appends one row per session, stamped with the cycle time, and then
// trims the store to the retention cap. Retention follows insertion order
// (Seq), never timestamps, so clock changes cannot reorder what is kept.
//
// Three stores implement Store:
//
//   - MemoryStore: a slice, lost on restart
//   - BadgerStore: rows keyed by big-endian sequence numbers, with a
//     GarbageCollector for value log space
//   - DuckDBStore: a SQL table with filtering and sorting pushed down
package history
