// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package notify

import (
	"context"
	"errors"

	"github.com/tomtom215/omnistream/internal/models"
)

// MessageTypeNotification is the websocket message type for notifications.
const MessageTypeNotification = "notification"

// Broadcaster pushes a typed message to every connected live client.
type Broadcaster interface {
	BroadcastJSON(messageType string, data interface{})
}

// InAppChannel pushes notifications to connected websocket clients.
type InAppChannel struct {
	enabled bool
	hub     Broadcaster
}

func NewInAppChannel(enabled bool, hub Broadcaster) *InAppChannel {
	return &InAppChannel{enabled: enabled, hub: hub}
}

func (c *InAppChannel) Name() string  { return ChannelInApp }
func (c *InAppChannel) Enabled() bool { return c.enabled }

func (c *InAppChannel) Validate() error {
	if c.hub == nil {
		return errors.New("in-app channel has no websocket hub")
	}
	return nil
}

func (c *InAppChannel) Send(ctx context.Context, n *models.Notification) error {
	if err := c.Validate(); err != nil {
		return &SendError{Code: ErrorCodeInvalidConfig, Message: err.Error(), Err: err}
	}
	if err := ctx.Err(); err != nil {
		return transportError(err)
	}
	c.hub.BroadcastJSON(MessageTypeNotification, n)
	return nil
}
