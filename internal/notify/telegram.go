// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package notify

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/omnistream/internal/config"
	"github.com/tomtom215/omnistream/internal/models"
)

const defaultTelegramAPI = "https://api.telegram.org"

// TelegramChannel sends a message through the Telegram Bot API.
type TelegramChannel struct {
	cfg    config.TelegramConfig
	client *http.Client
}

func NewTelegramChannel(cfg config.TelegramConfig) *TelegramChannel {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultTelegramAPI
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	return &TelegramChannel{cfg: cfg, client: newHTTPClient()}
}

func (c *TelegramChannel) Name() string  { return ChannelTelegram }
func (c *TelegramChannel) Enabled() bool { return c.cfg.Enabled }

// Validate checks the token looks like "<bot id>:<secret>".
func (c *TelegramChannel) Validate() error {
	if c.cfg.BotToken == "" {
		return errors.New("telegram bot token is required")
	}
	if c.cfg.ChatID == "" {
		return errors.New("telegram chat ID is required")
	}
	id, secret, ok := strings.Cut(c.cfg.BotToken, ":")
	if !ok || id == "" || secret == "" {
		return errors.New("invalid telegram bot token format")
	}
	return validateHTTPURL("telegram API base", c.cfg.APIBase)
}

// TelegramSendMessageRequest is the sendMessage body.
type TelegramSendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

func (c *TelegramChannel) Send(ctx context.Context, n *models.Notification) error {
	if err := c.Validate(); err != nil {
		return &SendError{Code: ErrorCodeInvalidConfig, Message: err.Error(), Err: err}
	}
	target := c.cfg.APIBase + "/bot" + c.cfg.BotToken + "/sendMessage"
	msg := TelegramSendMessageRequest{ChatID: c.cfg.ChatID, Text: FormatText(n), DisableWebPagePreview: true}
	return postJSON(ctx, c.client, ChannelTelegram, target, msg, nil)
}
