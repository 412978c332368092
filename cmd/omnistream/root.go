// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/omnistream/internal/config"
	"github.com/tomtom215/omnistream/internal/logging"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "omnistream",
		Short: "Media server session monitor and alerter",
		Long: `OmniStream polls Plex, Jellyfin, Emby and generic backends on a fixed
interval, normalizes their sessions, keeps a bounded history and sends
notifications when alert conditions start.

Run without a subcommand to start the server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts.cfg)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file (overrides CONFIG_PATH)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override logging.level")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newPollCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	return root
}

// load reads the configuration and initializes logging.
func (o *globalOptions) load() error {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if o.logLevel != "" {
		if !logging.ValidLevel(o.logLevel) {
			return fmt.Errorf("invalid --log-level %q", o.logLevel)
		}
		cfg.Logging.Level = o.logLevel
	}
	logging.Init(cfg.Logging.ToLogging())

	o.cfg = cfg
	return nil
}
