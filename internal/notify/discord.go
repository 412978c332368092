// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package notify

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/omnistream/internal/config"
	"github.com/tomtom215/omnistream/internal/models"
)

// DiscordChannel posts an embed to a Discord webhook.
type DiscordChannel struct {
	cfg    config.DiscordConfig
	client *http.Client
}

// NewDiscordChannel creates the channel.
func NewDiscordChannel(cfg config.DiscordConfig) *DiscordChannel {
	return &DiscordChannel{cfg: cfg, client: newHTTPClient()}
}

func (c *DiscordChannel) Name() string  { return ChannelDiscord }
func (c *DiscordChannel) Enabled() bool { return c.cfg.Enabled }

func (c *DiscordChannel) Validate() error {
	return validateHTTPURL("discord webhook URL", c.cfg.WebhookURL)
}

// DiscordWebhookPayload is the Discord execute-webhook body.
type DiscordWebhookPayload struct {
	Username string         `json:"username,omitempty"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed is one embed of a Discord message.
type DiscordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Color       int                 `json:"color"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Fields      []DiscordEmbedField `json:"fields,omitempty"`
}

// DiscordEmbedField is a name/value row inside an embed.
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

func (c *DiscordChannel) Send(ctx context.Context, n *models.Notification) error {
	if err := c.Validate(); err != nil {
		return &SendError{Code: ErrorCodeInvalidConfig, Message: err.Error(), Err: err}
	}
	return postJSON(ctx, c.client, ChannelDiscord, c.cfg.WebhookURL, c.buildPayload(n), nil)
}

func (c *DiscordChannel) buildPayload(n *models.Notification) DiscordWebhookPayload {
	username := c.cfg.Username
	if username == "" {
		username = "OmniStream"
	}
	embed := DiscordEmbed{
		Title:       FormatTitle(n),
		Description: FormatText(n),
		Color:       severityColor(n.Severity),
		Fields: []DiscordEmbedField{
			{Name: "Server", Value: backendLabel(n), Inline: true},
			{Name: "Severity", Value: string(n.Severity), Inline: true},
		},
	}
	if !n.Timestamp.IsZero() {
		embed.Timestamp = n.Timestamp.UTC().Format(time.RFC3339)
	}
	return DiscordWebhookPayload{Username: username, Embeds: []DiscordEmbed{embed}}
}
