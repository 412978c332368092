// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

/*
Package middleware provides the HTTP middleware shared by every API route.

  - RequestID: accepts or generates X-Request-ID and stores it for logging
  - PrometheusMetrics: request count and latency labelled by chi route pattern

Both are plain func(http.Handler) http.Handler values and are installed with
chi's r.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

PrometheusMetrics wraps the ResponseWriter but forwards Hijack, so the
websocket endpoint can sit behind it.
*/
package middleware
