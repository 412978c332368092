// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/omnistream/internal/config"
	"github.com/tomtom215/omnistream/internal/logging"
	"github.com/tomtom215/omnistream/internal/models"
)

type pollOptions struct {
	notify bool
	record bool
	wait   time.Duration
}

// pollOutput is what the poll command prints.
type pollOutput struct {
	Meta          models.PollMeta                 `json:"meta"`
	Statuses      map[string]models.BackendStatus `json:"statuses"`
	Notifications []models.Notification           `json:"notifications"`
}

func newPollCmd(opts *globalOptions) *cobra.Command {
	po := &pollOptions{}
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Run one poll cycle and print the backend statuses as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runPoll(ctx, opts.cfg, po, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&po.notify, "notify", false, "Dispatch notifications for alerts active after the cycle")
	cmd.Flags().BoolVar(&po.record, "record", false, "Append the cycle to the configured history store")
	cmd.Flags().DurationVar(&po.wait, "wait", 30*time.Second, "How long to wait for notification deliveries with --notify")
	return cmd
}

func runPoll(ctx context.Context, cfg *config.Config, po *pollOptions, out io.Writer) error {
	// Without --notify the rules are still evaluated so the output lists
	// the active alerts, but nothing is delivered.
	if !po.notify {
		cfg.Notifications.Enabled = false
	}

	a, err := newApp(ctx, cfg, appOptions{withHistory: po.record})
	if err != nil {
		return err
	}
	defer a.close()

	if a.dispatcher != nil {
		if err := a.dispatcher.Start(ctx); err != nil {
			return err
		}
		defer a.dispatcher.Stop()
	}

	cycle, err := a.scheduler.RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("poll cycle: %w", err)
	}

	if a.dispatcher != nil {
		waitCtx, cancel := context.WithTimeout(ctx, po.wait)
		defer cancel()
		if err := a.engine.Wait(waitCtx); err != nil {
			logging.Warn().Err(err).Msg("Timed out waiting for notification deliveries")
		}
		for _, ce := range a.dispatcher.LastErrors() {
			logging.Warn().Str("channel", ce.Channel).Str("notification_id", ce.NotificationID).
				Str("error", ce.Message).Msg("Notification delivery failed")
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(pollOutput{
		Meta:          cycle.Meta,
		Statuses:      cycle.Statuses,
		Notifications: a.engine.CurrentNotifications(),
	})
}
