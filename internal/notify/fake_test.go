// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package notify

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/omnistream/internal/models"
)

// recordingChannel records every send. fail, when set, decides the result
// of each call by its 1-based attempt number.
type recordingChannel struct {
	name     string
	disabled bool
	fail     func(call int) error
	delay    time.Duration

	mu    sync.Mutex
	calls int
	sent  []models.Notification
}

func (c *recordingChannel) Name() string    { return c.name }
func (c *recordingChannel) Enabled() bool   { return !c.disabled }
func (c *recordingChannel) Validate() error { return nil }

func (c *recordingChannel) Send(ctx context.Context, n *models.Notification) error {
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.fail != nil {
		if err := c.fail(c.calls); err != nil {
			return err
		}
	}
	c.sent = append(c.sent, *n)
	return nil
}

func (c *recordingChannel) Sent() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Notification(nil), c.sent...)
}

func (c *recordingChannel) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func fastConfig() DispatcherConfig {
	cfg := DefaultDispatcherConfig()
	cfg.RatePerSecond = 0
	cfg.RetryBackoff = time.Millisecond
	cfg.MaxBackoff = 5 * time.Millisecond
	cfg.SendTimeout = 2 * time.Second
	return cfg
}

type staticSource map[string]models.BackendStatus

func (s staticSource) CurrentStatuses() map[string]models.BackendStatus { return s }
