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

const (
	defaultTwilioAPI = "https://api.twilio.com"

	// SMS segments beyond this are billed separately; alerts stay in one.
	maxSMSLength = 160
)

// SMSChannel sends a text message through the Twilio Messages API.
type SMSChannel struct {
	cfg    config.SMSConfig
	client *http.Client
}

func NewSMSChannel(cfg config.SMSConfig) *SMSChannel {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultTwilioAPI
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	return &SMSChannel{cfg: cfg, client: newHTTPClient()}
}

func (c *SMSChannel) Name() string  { return ChannelSMS }
func (c *SMSChannel) Enabled() bool { return c.cfg.Enabled }

func (c *SMSChannel) Validate() error {
	switch {
	case c.cfg.AccountSID == "":
		return errors.New("sms account SID is required")
	case c.cfg.AuthToken == "":
		return errors.New("sms auth token is required")
	case c.cfg.From == "":
		return errors.New("sms from number is required")
	case c.cfg.To == "":
		return errors.New("sms to number is required")
	}
	return validateHTTPURL("sms API base", c.cfg.APIBase)
}

func (c *SMSChannel) Send(ctx context.Context, n *models.Notification) error {
	if err := c.Validate(); err != nil {
		return &SendError{Code: ErrorCodeInvalidConfig, Message: err.Error(), Err: err}
	}
	target := c.cfg.APIBase + "/2010-04-01/Accounts/" + url.PathEscape(c.cfg.AccountSID) + "/Messages.json"
	form := url.Values{
		"To":   {c.cfg.To},
		"From": {c.cfg.From},
		"Body": {truncate(FormatText(n), maxSMSLength)},
	}
	return postForm(ctx, c.client, ChannelSMS, target, form, func(req *http.Request) {
		req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)
	})
}

// truncate shortens s to at most max runes, ending with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
