// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/omnistream/internal/models"
)

// Channel names.
const (
	ChannelDiscord  = "discord"
	ChannelSlack    = "slack"
	ChannelTelegram = "telegram"
	ChannelWebhook  = "webhook"
	ChannelEmail    = "email"
	ChannelSMS      = "sms"
	ChannelPushover = "pushover"
	ChannelNtfy     = "ntfy"
	ChannelNATS     = "nats"
	ChannelInApp    = "inapp"
)

// Channel delivers a notification to one outbound transport.
type Channel interface {
	// Name returns the channel identifier.
	Name() string

	// Enabled reports whether the channel should receive notifications.
	Enabled() bool

	// Validate checks the channel configuration.
	Validate() error

	// Send delivers n. A failed attempt should return a *SendError so the
	// dispatcher can tell transient from permanent failures.
	Send(ctx context.Context, n *models.Notification) error
}

const (
	defaultChannelTimeout = 30 * time.Second
	maxErrorBody          = 1024
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultChannelTimeout}
}

// validateHTTPURL requires an absolute http or https URL.
func validateHTTPURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme", field)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must have a host", field)
	}
	return nil
}

// postJSON marshals payload and posts it to target.
func postJSON(ctx context.Context, client *http.Client, channel, target string, payload interface{}, headers map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &SendError{Code: ErrorCodeUnknown, Message: fmt.Sprintf("failed to marshal payload: %v", err), Err: err}
	}
	h := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		h[k] = v
	}
	return post(ctx, client, channel, target, bytes.NewReader(body), h, nil)
}

// postForm posts url-encoded form values to target.
func postForm(ctx context.Context, client *http.Client, channel, target string, form url.Values, auth func(*http.Request)) error {
	headers := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	return post(ctx, client, channel, target, strings.NewReader(form.Encode()), headers, auth)
}

func post(ctx context.Context, client *http.Client, channel, target string, body io.Reader, headers map[string]string, auth func(*http.Request)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return &SendError{Code: ErrorCodeInvalidConfig, Message: fmt.Sprintf("failed to create request: %v", err), Err: err}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if auth != nil {
		auth(req)
	}

	resp, err := client.Do(req)
	if err != nil {
		// Channel URLs often embed secrets, so the URL is not echoed.
		if ue, ok := err.(*url.Error); ok {
			err = ue.Err
		}
		return transportError(fmt.Errorf("%s request failed: %w", channel, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil
	}

	snippet, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if readErr != nil {
		snippet = []byte("(failed to read response)")
	}
	return statusError(channel, resp.StatusCode, snippet, resp.Header.Get("Retry-After"))
}
