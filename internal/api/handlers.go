// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package api

import (
	"context"
	"time"

	"github.com/tomtom215/omnistream/internal/history"
	"github.com/tomtom215/omnistream/internal/models"
	"github.com/tomtom215/omnistream/internal/notify"
	"github.com/tomtom215/omnistream/internal/poller"
	ws "github.com/tomtom215/omnistream/internal/websocket"
)

// StatusProvider is the read side of the poll scheduler.
type StatusProvider interface {
	CurrentStatuses() map[string]models.BackendStatus
	Status(id string) (models.BackendStatus, bool)
	LastPollMeta() (models.PollMeta, bool)
	Ready() bool
	TriggerNow(ctx context.Context) (*poller.Cycle, error)
}

// HistoryProvider answers history queries.
type HistoryProvider interface {
	Query(ctx context.Context, q history.Query) ([]models.HistoryRow, error)
}

// NotificationProvider exposes the notification engine.
type NotificationProvider interface {
	CurrentNotifications() []models.Notification
	TestChannel(ctx context.Context, channel string) (models.Notification, error)
}

// ChannelStatusProvider exposes per-channel delivery state.
type ChannelStatusProvider interface {
	LastErrors() []notify.ChannelError
	Channels() []notify.ChannelInfo
}

// Deps are the collaborators of Handler. Any field may be nil; the routes
// that need it answer 503.
type Deps struct {
	Status        StatusProvider
	History       HistoryProvider
	Notifications NotificationProvider
	Channels      ChannelStatusProvider
	Hub           *ws.Hub
}

// Handler serves every API route.
type Handler struct {
	deps      Deps
	mw        *ChiMiddleware
	startTime time.Time

	// testTimeout bounds a synchronous channel test.
	testTimeout time.Duration
}

// NewHandler creates a handler. mw supplies the websocket origin policy.
func NewHandler(deps Deps, mw *ChiMiddleware) *Handler {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Handler{
		deps:        deps,
		mw:          mw,
		startTime:   time.Now(),
		testTimeout: 30 * time.Second,
	}
}
