// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

// Command omnistream polls Plex, Jellyfin, Emby and generic media backends,
// keeps a bounded history of their sessions and sends notifications when a
// backend goes offline or streams cross bandwidth and transcode thresholds.
//
// # Commands
//
//	omnistream [serve]   run the poller, notifier, HTTP API and websocket hub
//	omnistream poll      run one poll cycle and print the statuses as JSON
//	omnistream history   query the configured history store
//
// # Configuration
//
// Configuration is layered with koanf: built-in defaults, then the YAML file
// given by --config, CONFIG_PATH or the default search list, then
// environment variables such as HTTP_PORT, POLL_INTERVAL, SERVERS_FILE and
// HISTORY_BACKEND.
//
// # Signals
//
// serve stops on SIGINT or SIGTERM. The HTTP server drains for
// server.shutdown_timeout, queued notifications are dropped and the history
// store is closed.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
