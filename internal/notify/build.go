// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package notify

import (
	"errors"
	"fmt"

	"github.com/tomtom215/omnistream/internal/config"
)

// BuildChannels creates every channel from cfg. Disabled channels are
// included so they can be listed; enabled ones must validate. hub may be nil
// when no websocket hub runs, in which case the in-app channel is disabled.
func BuildChannels(cfg config.ChannelsConfig, hub Broadcaster) ([]Channel, error) {
	channels := []Channel{
		NewDiscordChannel(cfg.Discord),
		NewSlackChannel(cfg.Slack),
		NewTelegramChannel(cfg.Telegram),
		NewWebhookChannel(cfg.Webhook),
		NewEmailChannel(cfg.Email),
		NewSMSChannel(cfg.SMS),
		NewPushoverChannel(cfg.Pushover),
		NewNtfyChannel(cfg.Ntfy),
		NewNATSChannel(cfg.NATS),
		NewInAppChannel(cfg.InApp.Enabled && hub != nil, hub),
	}

	var errs []error
	for _, ch := range channels {
		if !ch.Enabled() {
			continue
		}
		if err := ch.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return channels, nil
}
