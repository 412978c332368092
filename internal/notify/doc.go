// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

// Package notify derives alerts from backend statuses and delivers them.
//
// After each poll cycle the Engine evaluates the configured Rules against
// the status map. Notification ids are "<kind>-<backendID>", and the
// ActiveSet keeps the ids that were active in the previous cycle, so a
// condition produces one notification when it appears and nothing while it
// persists:
//
//	cycle 1: backend offline   -> offline-plex-1 fires
//	cycle 2: still offline     -> nothing
//	cycle 3: back online       -> nothing, id forgotten
//	cycle 4: offline again     -> offline-plex-1 fires again
//
// Fired notifications go to the Dispatcher, which queues one job per enabled
// channel on a bounded worker pool. Every channel has its own rate limiter
// (golang.org/x/time/rate) and circuit breaker (sony/gobreaker). Transient
// failures (timeouts, 429, 5xx) are retried with exponential backoff.
// Failures never reach the poll cycle; the last failure per channel is kept
// and exposed through LastErrors.
//
// Channels: discord, slack, telegram, webhook, email (SMTP), sms (Twilio),
// pushover, ntfy, nats (Watermill publisher on core NATS) and inapp
// (websocket broadcast).
package notify
