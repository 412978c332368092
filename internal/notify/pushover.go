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
	"strconv"
	"strings"

	"github.com/tomtom215/omnistream/internal/config"
	"github.com/tomtom215/omnistream/internal/models"
)

const defaultPushoverAPI = "https://api.pushover.net"

// PushoverChannel posts to the Pushover messages API.
type PushoverChannel struct {
	cfg    config.PushoverConfig
	client *http.Client
}

func NewPushoverChannel(cfg config.PushoverConfig) *PushoverChannel {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultPushoverAPI
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	return &PushoverChannel{cfg: cfg, client: newHTTPClient()}
}

func (c *PushoverChannel) Name() string  { return ChannelPushover }
func (c *PushoverChannel) Enabled() bool { return c.cfg.Enabled }

func (c *PushoverChannel) Validate() error {
	if c.cfg.Token == "" {
		return errors.New("pushover application token is required")
	}
	if c.cfg.User == "" {
		return errors.New("pushover user key is required")
	}
	return validateHTTPURL("pushover API base", c.cfg.APIBase)
}

func (c *PushoverChannel) Send(ctx context.Context, n *models.Notification) error {
	if err := c.Validate(); err != nil {
		return &SendError{Code: ErrorCodeInvalidConfig, Message: err.Error(), Err: err}
	}
	form := url.Values{
		"token":    {c.cfg.Token},
		"user":     {c.cfg.User},
		"title":    {FormatTitle(n)},
		"message":  {FormatText(n)},
		"priority": {pushoverPriority(n.Severity)},
	}
	if !n.Timestamp.IsZero() {
		form.Set("timestamp", strconv.FormatInt(n.Timestamp.Unix(), 10))
	}
	return postForm(ctx, c.client, ChannelPushover, c.cfg.APIBase+"/1/messages.json", form, nil)
}
