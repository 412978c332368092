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

// SlackChannel posts plain text to a Slack incoming webhook.
type SlackChannel struct {
	cfg    config.SlackConfig
	client *http.Client
}

func NewSlackChannel(cfg config.SlackConfig) *SlackChannel {
	return &SlackChannel{cfg: cfg, client: newHTTPClient()}
}

func (c *SlackChannel) Name() string  { return ChannelSlack }
func (c *SlackChannel) Enabled() bool { return c.cfg.Enabled }

func (c *SlackChannel) Validate() error {
	return validateHTTPURL("slack webhook URL", c.cfg.WebhookURL)
}

type slackPayload struct {
	Text    string `json:"text"`
	Channel string `json:"channel,omitempty"`
}

func (c *SlackChannel) Send(ctx context.Context, n *models.Notification) error {
	if err := c.Validate(); err != nil {
		return &SendError{Code: ErrorCodeInvalidConfig, Message: err.Error(), Err: err}
	}
	return postJSON(ctx, c.client, ChannelSlack, c.cfg.WebhookURL, slackPayload{Text: FormatText(n), Channel: c.cfg.Channel}, nil)
}
