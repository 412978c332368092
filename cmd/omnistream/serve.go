// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/omnistream/internal/api"
	"github.com/tomtom215/omnistream/internal/config"
	"github.com/tomtom215/omnistream/internal/history"
	"github.com/tomtom215/omnistream/internal/logging"
	"github.com/tomtom215/omnistream/internal/supervisor"
	"github.com/tomtom215/omnistream/internal/supervisor/services"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the poller, notifier, HTTP API and websocket hub",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts.cfg)
		},
	}
}

// buildHTTPServer assembles the API handler and router for a.
func buildHTTPServer(a *app) *http.Server {
	cfg := a.cfg
	mw := api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Server))

	deps := api.Deps{
		Status:        a.scheduler,
		Notifications: a.engine,
		Hub:           a.hub,
	}
	// Interface fields stay nil rather than holding typed nil pointers.
	if a.recorder != nil {
		deps.History = a.recorder
	}
	if a.dispatcher != nil {
		deps.Channels = a.dispatcher
	}

	return &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(api.NewHandler(deps, mw)),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
}

// buildTree registers every long-running component with the supervisor.
func buildTree(a *app, srv *http.Server) (*supervisor.SupervisorTree, error) {
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  a.cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return nil, err
	}

	if badger, ok := a.store.(*history.BadgerStore); ok {
		gc := history.NewGarbageCollector(badger, a.cfg.History.GCInterval)
		tree.AddDataService(services.NewLifecycleService("history-gc", gc))
	}

	if a.hub != nil {
		tree.AddMessagingService(services.NewWebSocketHubService(a.hub))
	}
	if a.dispatcher != nil {
		// Start is idempotent. The dispatcher is already running when the
		// tree starts, so the first cycle's activations are never dropped.
		tree.AddMessagingService(services.NewLifecycleService("notification-dispatcher", a.dispatcher))
	}
	tree.AddMessagingService(services.NewLifecycleService("poll-scheduler", a.scheduler))

	tree.AddAPIService(services.NewHTTPServerService(srv, a.cfg.Server.ShutdownTimeout))
	return tree, nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Dur("poll_interval", cfg.Poller.Interval).
		Str("history_backend", cfg.History.Backend).
		Bool("notifications", cfg.Notifications.Enabled).
		Msg("Starting OmniStream")

	a, err := newApp(ctx, cfg, appOptions{withHub: true, withHistory: true})
	if err != nil {
		return err
	}
	defer a.close()

	tree, err := buildTree(a, buildHTTPServer(a))
	if err != nil {
		return err
	}

	if a.dispatcher != nil {
		if err := a.dispatcher.Start(ctx); err != nil {
			return err
		}
	}

	// The channel receives exactly one value and is never closed.
	errCh := tree.ServeBackground(ctx)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown requested, waiting for services to stop")
		err = <-errCh
	case err = <-errCh:
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("OmniStream stopped")
	return nil
}
