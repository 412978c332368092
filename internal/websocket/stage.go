// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package websocket

import (
	"context"

	"github.com/tomtom215/omnistream/internal/poller"
)

// BroadcastStage pushes every completed cycle to connected clients.
type BroadcastStage struct {
	hub *Hub
}

// NewBroadcastStage returns a poll stage broadcasting through hub.
func NewBroadcastStage(hub *Hub) *BroadcastStage {
	return &BroadcastStage{hub: hub}
}

func (s *BroadcastStage) Name() string { return "broadcast" }

func (s *BroadcastStage) Process(_ context.Context, c *poller.Cycle) {
	s.hub.BroadcastStatus(c.ID, c.Statuses, c.Meta)
}
