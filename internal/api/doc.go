// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

/*
Package api serves the OmniStream HTTP API with the chi router.

Every JSON response uses one envelope:

	{
	  "success": true,
	  "data": {...},
	  "error": {"code": "NOT_FOUND", "message": "..."},
	  "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 1}
	}

Routes:

	GET  /api/v1/health/live              liveness, always 200
	GET  /api/v1/health/ready             200 after the first poll cycle, else 503
	GET  /api/v1/status                   all backend statuses and the last poll meta
	GET  /api/v1/status/{id}              one backend status
	POST /api/v1/poll                     run a cycle now (409 while one is running)
	GET  /api/v1/history                  filtered history (backend_id, user, q, from, to, sort, order, limit)
	GET  /api/v1/notifications            active alert conditions
	GET  /api/v1/notifications/errors     last delivery error per channel
	GET  /api/v1/notifications/channels   configured channels and breaker state
	POST /api/v1/notifications/test/{ch}  synchronous test delivery
	GET  /api/v1/ws                       websocket live feed
	GET  /metrics                         Prometheus

The handler depends only on small interfaces (StatusProvider,
HistoryProvider, NotificationProvider, ChannelStatusProvider), so tests
substitute fakes for the scheduler and engine.
*/
package api
