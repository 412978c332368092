// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package notify

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/tomtom215/omnistream/internal/config"
	"github.com/tomtom215/omnistream/internal/models"
)

const defaultNtfyServer = "https://ntfy.sh"

// NtfyChannel publishes a text message to an ntfy topic.
type NtfyChannel struct {
	cfg    config.NtfyConfig
	client *http.Client
}

func NewNtfyChannel(cfg config.NtfyConfig) *NtfyChannel {
	if cfg.Server == "" {
		cfg.Server = defaultNtfyServer
	}
	cfg.Server = strings.TrimRight(cfg.Server, "/")
	return &NtfyChannel{cfg: cfg, client: newHTTPClient()}
}

func (c *NtfyChannel) Name() string  { return ChannelNtfy }
func (c *NtfyChannel) Enabled() bool { return c.cfg.Enabled }

func (c *NtfyChannel) Validate() error {
	if c.cfg.Topic == "" {
		return errors.New("ntfy topic is required")
	}
	if strings.Contains(c.cfg.Topic, "/") {
		return errors.New("ntfy topic must not contain '/'")
	}
	return validateHTTPURL("ntfy server", c.cfg.Server)
}

func (c *NtfyChannel) Send(ctx context.Context, n *models.Notification) error {
	if err := c.Validate(); err != nil {
		return &SendError{Code: ErrorCodeInvalidConfig, Message: err.Error(), Err: err}
	}
	headers := map[string]string{
		"Content-Type": "text/plain; charset=utf-8",
		"Title":        FormatTitle(n),
		"Priority":     ntfyPriority(n.Severity),
		"Tags":         ntfyTags(n),
	}
	var auth func(*http.Request)
	if c.cfg.AccessToken != "" {
		auth = func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken) }
	}
	target := c.cfg.Server + "/" + url.PathEscape(c.cfg.Topic)
	return post(ctx, c.client, ChannelNtfy, target, strings.NewReader(FormatText(n)), headers, auth)
}

func ntfyTags(n *models.Notification) string {
	tag := "information_source"
	switch n.Severity {
	case models.SeverityError:
		tag = "rotating_light"
	case models.SeverityWarn:
		tag = "warning"
	}
	return tag + "," + string(n.Kind)
}
