// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Poll cycle metrics
	PollCyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "omnistream_poll_cycles_total",
			Help: "Total number of completed poll cycles",
		},
	)

	PollCyclesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "omnistream_poll_cycles_skipped_total",
			Help: "Ticks dropped because the previous cycle was still running",
		},
	)

	PollCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "omnistream_poll_cycle_duration_seconds",
			Help:    "Wall time of a poll cycle from first fetch to last stage",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30},
		},
	)

	// Backend fetch metrics
	BackendFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "omnistream_backend_fetch_duration_seconds",
			Help:    "Duration of backend session fetches",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)

	BackendFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnistream_backend_fetch_errors_total",
			Help: "Backend fetches that ended offline",
		},
		[]string{"kind"},
	)

	BackendOnline = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "omnistream_backend_online",
			Help: "1 when the backend answered the last poll, 0 otherwise",
		},
		[]string{"backend_id"},
	)

	BackendSessions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "omnistream_backend_sessions",
			Help: "Active sessions reported in the last poll",
		},
		[]string{"backend_id"},
	)

	BackendBandwidth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "omnistream_backend_bandwidth_mbps",
			Help: "Bandwidth in Mbps from the last poll (scope: total, lan, wan)",
		},
		[]string{"backend_id", "scope"},
	)

	NormalizeRecovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "omnistream_normalize_recovered_total",
			Help: "Payloads whose normalization panicked and was replaced by an empty result",
		},
	)

	// History metrics
	HistoryRowsAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "omnistream_history_rows_appended_total",
			Help: "History rows appended",
		},
	)

	HistoryRowsTrimmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "omnistream_history_rows_trimmed_total",
			Help: "History rows removed by retention",
		},
	)

	HistoryWriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnistream_history_write_errors_total",
			Help: "Failed history store writes",
		},
		[]string{"op"}, // append, trim
	)

	HistoryStoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "omnistream_history_store_duration_seconds",
			Help:    "Duration of history store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"store", "op"},
	)

	// Notification metrics
	NotificationsFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnistream_notifications_fired_total",
			Help: "Newly activated notifications",
		},
		[]string{"kind"},
	)

	NotificationDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnistream_notification_deliveries_total",
			Help: "Notification delivery attempts by outcome",
		},
		[]string{"channel", "result"}, // success, failure, breaker_open, dropped
	)

	ChannelBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "omnistream_channel_circuit_breaker_state",
			Help: "Channel circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"channel"},
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnistream_http_requests_total",
			Help: "HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "omnistream_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"route"},
	)

	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "omnistream_websocket_clients",
			Help: "Connected websocket clients",
		},
	)
)

// Delivery results.
const (
	DeliverySuccess     = "success"
	DeliveryFailure     = "failure"
	DeliveryBreakerOpen = "breaker_open"
	DeliveryDropped     = "dropped"
)

// RecordCycle records one completed poll cycle.
func RecordCycle(duration time.Duration) {
	PollCyclesTotal.Inc()
	PollCycleDuration.Observe(duration.Seconds())
}

// RecordFetch records one backend fetch.
func RecordFetch(kind string, duration time.Duration, online bool) {
	BackendFetchDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if !online {
		BackendFetchErrors.WithLabelValues(kind).Inc()
	}
}

// UpdateBackend sets the per-backend gauges from the last poll.
func UpdateBackend(backendID string, online bool, sessions int, total, lan, wan float64) {
	v := 0.0
	if online {
		v = 1
	}
	BackendOnline.WithLabelValues(backendID).Set(v)
	BackendSessions.WithLabelValues(backendID).Set(float64(sessions))
	BackendBandwidth.WithLabelValues(backendID, "total").Set(total)
	BackendBandwidth.WithLabelValues(backendID, "lan").Set(lan)
	BackendBandwidth.WithLabelValues(backendID, "wan").Set(wan)
}

// ForgetBackend drops the gauges of a backend that is no longer polled.
func ForgetBackend(backendID string) {
	BackendOnline.DeleteLabelValues(backendID)
	BackendSessions.DeleteLabelValues(backendID)
	for _, scope := range []string{"total", "lan", "wan"} {
		BackendBandwidth.DeleteLabelValues(backendID, scope)
	}
}

// RecordHistoryOp records a history store operation.
func RecordHistoryOp(store, op string, duration time.Duration, err error) {
	HistoryStoreDuration.WithLabelValues(store, op).Observe(duration.Seconds())
	if err != nil {
		HistoryWriteErrors.WithLabelValues(op).Inc()
	}
}

// RecordDelivery records one channel delivery outcome.
func RecordDelivery(channel, result string) {
	NotificationDeliveries.WithLabelValues(channel, result).Inc()
}

// RecordAPIRequest records one HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}
