// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/omnistream/internal/logging"
	"github.com/tomtom215/omnistream/internal/validation"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validatePoller(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitRequests < 0 {
		return fmt.Errorf("server.rate_limit_requests must not be negative")
	}
	if c.Server.RateLimitRequests > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("server.rate_limit_window must be positive when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validatePoller() error {
	if c.Poller.Interval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.Poller.Interval)
	}
	if c.Poller.Timeout <= 0 {
		return fmt.Errorf("POLL_TIMEOUT must be positive, got %s", c.Poller.Timeout)
	}
	if c.Poller.MaxConcurrency < 0 {
		return fmt.Errorf("poller.max_concurrency must not be negative")
	}
	if c.Poller.MaxBodyBytes <= 0 {
		return fmt.Errorf("poller.max_body_bytes must be positive")
	}
	if c.Poller.ArtworkProxyPath != "" && !strings.HasPrefix(c.Poller.ArtworkProxyPath, "/") {
		return fmt.Errorf("poller.artwork_proxy_path must start with /, got %q", c.Poller.ArtworkProxyPath)
	}
	return nil
}

func (c *Config) validateHistory() error {
	switch c.History.Backend {
	case HistoryMemory:
	case HistoryBadger, HistoryDuckDB:
		if c.History.Path == "" {
			return fmt.Errorf("HISTORY_PATH is required when HISTORY_BACKEND=%s", c.History.Backend)
		}
	default:
		return fmt.Errorf("HISTORY_BACKEND must be one of memory, badger, duckdb, got %q", c.History.Backend)
	}
	if c.History.Backend == HistoryBadger && c.History.GCInterval <= 0 {
		return fmt.Errorf("history.gc_interval must be positive for the badger store")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	n := &c.Notifications
	if n.Workers < 1 {
		return fmt.Errorf("notifications.workers must be at least 1, got %d", n.Workers)
	}
	if n.QueueSize < 1 {
		return fmt.Errorf("notifications.queue_size must be at least 1, got %d", n.QueueSize)
	}
	if n.SendTimeout <= 0 {
		return fmt.Errorf("notifications.send_timeout must be positive")
	}
	if n.MaxRetries < 0 {
		return fmt.Errorf("notifications.max_retries must not be negative")
	}
	if n.RatePerSecond < 0 || n.RateBurst < 0 {
		return fmt.Errorf("notifications.rate_per_second and rate_burst must not be negative")
	}
	if n.Rules.HighBandwidth.ThresholdMbps < 0 || n.Rules.HighWANBandwidth.ThresholdMbps < 0 {
		return fmt.Errorf("bandwidth thresholds must not be negative")
	}

	if n.Channels.NATS.Enabled {
		if err := validateNATSURL(n.Channels.NATS.URL); err != nil {
			return fmt.Errorf("notifications.channels.nats.url is invalid: %w", err)
		}
	}

	var errs []error
	for name, ch := range n.Channels.all() {
		if verr := validation.ValidateStruct(ch); verr != nil {
			errs = append(errs, fmt.Errorf("notifications.channels.%s: %w", name, verr))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

// all returns every channel config keyed by its config name.
func (ch *ChannelsConfig) all() map[string]any {
	return map[string]any{
		"discord":  &ch.Discord,
		"slack":    &ch.Slack,
		"telegram": &ch.Telegram,
		"webhook":  &ch.Webhook,
		"email":    &ch.Email,
		"sms":      &ch.SMS,
		"pushover": &ch.Pushover,
		"ntfy":     &ch.Ntfy,
		"nats":     &ch.NATS,
		"inapp":    &ch.InApp,
	}
}

// validateNATSURL accepts nats, tls, ws and wss URLs with a host.
func validateNATSURL(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}

	validSchemes := map[string]bool{"nats": true, "tls": true, "ws": true, "wss": true}
	if !validSchemes[parsedURL.Scheme] {
		return fmt.Errorf("scheme must be nats, tls, ws, or wss, got: %s", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("host is required (e.g., localhost:4222)")
	}
	return nil
}
