// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/omnistream/internal/middleware"
)

// NewRouter builds the chi route tree.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(h.mw.CORS()) // global so OPTIONS preflight reaches it

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	// Health probes are not rate limited.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.mw.RateLimit())

		r.Get("/ws", h.WebSocket)

		r.Group(func(r chi.Router) {
			r.Use(APISecurityHeaders())

			r.Get("/status", h.Status)
			r.Get("/status/{id}", h.BackendStatus)
			r.Post("/poll", h.Poll)
			r.Get("/history", h.History)

			r.Get("/notifications", h.Notifications)
			r.Get("/notifications/errors", h.NotificationErrors)
			r.Get("/notifications/channels", h.NotificationChannels)
			r.Post("/notifications/test/{channel}", h.TestNotification)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
