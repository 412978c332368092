// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

/*
Package metrics registers the Prometheus collectors exported on /metrics.

Collectors are package-level promauto variables; call sites use the Record
helpers so label sets stay consistent.

Poll cycle:
  - omnistream_poll_cycles_total, omnistream_poll_cycles_skipped_total
  - omnistream_poll_cycle_duration_seconds

Backends (labels kind or backend_id):
  - omnistream_backend_fetch_duration_seconds, omnistream_backend_fetch_errors_total
  - omnistream_backend_online, omnistream_backend_sessions
  - omnistream_backend_bandwidth_mbps{scope="total|lan|wan"}
  - omnistream_normalize_recovered_total

History:
  - omnistream_history_rows_appended_total, omnistream_history_rows_trimmed_total
  - omnistream_history_write_errors_total{op}
  - omnistream_history_store_duration_seconds{store,op}

Notifications:
  - omnistream_notifications_fired_total{kind}
  - omnistream_notification_deliveries_total{channel,result}
  - omnistream_channel_circuit_breaker_state{channel}

HTTP:
  - omnistream_http_requests_total{method,route,status}
  - omnistream_http_request_duration_seconds{route}
  - omnistream_websocket_clients
*/
package metrics
