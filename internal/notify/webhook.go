// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package notify

import (
	"context"
	"net/http"

	"github.com/tomtom215/omnistream/internal/config"
	"github.com/tomtom215/omnistream/internal/models"
)

// WebhookEvent is the event name carried by every webhook delivery.
const WebhookEvent = "notification"

// WebhookChannel posts a structured JSON envelope to an arbitrary URL.
type WebhookChannel struct {
	cfg    config.WebhookConfig
	client *http.Client
}

func NewWebhookChannel(cfg config.WebhookConfig) *WebhookChannel {
	return &WebhookChannel{cfg: cfg, client: newHTTPClient()}
}

func (c *WebhookChannel) Name() string  { return ChannelWebhook }
func (c *WebhookChannel) Enabled() bool { return c.cfg.Enabled }

func (c *WebhookChannel) Validate() error {
	return validateHTTPURL("webhook URL", c.cfg.URL)
}

// WebhookPayload is the body posted to generic webhooks.
type WebhookPayload struct {
	Event        string               `json:"event"`
	Source       string               `json:"source"`
	Notification *models.Notification `json:"notification"`
	Text         string               `json:"text"`
}

func (c *WebhookChannel) Send(ctx context.Context, n *models.Notification) error {
	if err := c.Validate(); err != nil {
		return &SendError{Code: ErrorCodeInvalidConfig, Message: err.Error(), Err: err}
	}
	payload := WebhookPayload{Event: WebhookEvent, Source: "omnistream", Notification: n, Text: FormatText(n)}
	return postJSON(ctx, c.client, ChannelWebhook, c.cfg.URL, payload, c.cfg.Headers)
}
