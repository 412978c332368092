// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

/*
Package poller drives the poll cycle.

Once at start and then on every tick the Scheduler:

 1. lists enabled backends from the registry
 2. fetches every backend concurrently with a per-fetch timeout
 3. normalizes each successful body into sessions and a summary
 4. publishes one BackendStatus per backend into the StatusStore
 5. records the cycle's PollMeta
 6. runs the registered stages (history, then notifications) in order

A backend that fails to answer is recorded as offline with the error text;
it never fails the cycle. The cycle-level error in PollMeta is reserved for
the fetch stage itself failing, such as an unreadable registry.

By default a tick that arrives while the previous cycle is still running is
skipped and counted in omnistream_poll_cycles_skipped_total. Channel
delivery happens outside the cycle, so only slow fetches or stages cause
skips. Config.AllowOverlap disables the guard.
*/
package poller
