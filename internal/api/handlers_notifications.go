// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/omnistream/internal/logging"
	"github.com/tomtom215/omnistream/internal/models"
	"github.com/tomtom215/omnistream/internal/notify"
)

// TestNotificationResponse is the body of a successful channel test.
type TestNotificationResponse struct {
	Channel      string              `json:"channel"`
	Delivered    bool                `json:"delivered"`
	Notification models.Notification `json:"notification"`
}

// Notifications lists every active alert condition.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.Notifications == nil {
		rw.ServiceUnavailable("Notifications not available")
		return
	}
	notes := h.deps.Notifications.CurrentNotifications()
	rw.List(notes, len(notes))
}

// NotificationErrors lists the last delivery error of each channel.
func (h *Handler) NotificationErrors(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.Channels == nil {
		rw.List([]notify.ChannelError{}, 0)
		return
	}
	errs := h.deps.Channels.LastErrors()
	rw.List(errs, len(errs))
}

// NotificationChannels lists configured channels with their breaker state.
func (h *Handler) NotificationChannels(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.Channels == nil {
		rw.List([]notify.ChannelInfo{}, 0)
		return
	}
	channels := h.deps.Channels.Channels()
	rw.List(channels, len(channels))
}

// TestNotification sends a synthetic notification through one channel and
// reports the outcome synchronously.
func (h *Handler) TestNotification(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.Notifications == nil {
		rw.ServiceUnavailable("Notifications not available")
		return
	}

	channel := chi.URLParam(r, "channel")
	ctx, cancel := context.WithTimeout(r.Context(), h.testTimeout)
	defer cancel()

	n, err := h.deps.Notifications.TestChannel(ctx, channel)
	if err == nil {
		rw.Success(TestNotificationResponse{Channel: channel, Delivered: true, Notification: n})
		return
	}

	logging.Ctx(r.Context()).Warn().Err(err).Str("channel", channel).Msg("Test notification failed")

	var se *notify.SendError
	switch {
	case errors.Is(err, notify.ErrUnknownChannel):
		rw.NotFound("Unknown notification channel " + channel)
	case errors.Is(err, notify.ErrChannelDisabled):
		rw.Error(http.StatusConflict, ErrCodeConflict, "Notification channel "+channel+" is disabled")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		rw.ErrorWithDetails(http.StatusBadGateway, ErrCodeDeliveryFailed, "circuit breaker is open",
			map[string]string{"channel": channel, "code": notify.ErrorCodeCircuitOpen})
	case errors.As(err, &se):
		rw.ErrorWithDetails(http.StatusBadGateway, ErrCodeDeliveryFailed, se.Error(),
			map[string]interface{}{"channel": channel, "code": se.Code, "status_code": se.StatusCode})
	default:
		rw.ErrorWithDetails(http.StatusBadGateway, ErrCodeDeliveryFailed, err.Error(),
			map[string]string{"channel": channel, "code": notify.ErrorCodeUnknown})
	}
}
