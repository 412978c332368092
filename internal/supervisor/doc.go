// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

/*
Package supervisor runs OmniStream's long-lived components under a suture v4
supervision tree.

# Layout

	omnistream
	├── data-layer
	│   └── history-gc            (badger history store only)
	├── messaging-layer
	│   ├── poll-scheduler
	│   ├── notification-dispatcher
	│   └── websocket-hub
	└── api-layer
	    └── http-server

Each layer counts failures independently. A service that keeps crashing puts
only its own layer into backoff.

# Usage

	tree, _ := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(services.NewLifecycleService("poll-scheduler", scheduler))
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
	err := tree.Serve(ctx)

# Return values

A service returning nil is finished and is not restarted. Any other error
is a crash and the service is restarted with backoff. Services return
ctx.Err() on shutdown.

The history stores are not supervised. They are opened before the tree
starts and closed after it stops.
*/
package supervisor
