// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/omnistream/internal/config"
	"github.com/tomtom215/omnistream/internal/history"
	"github.com/tomtom215/omnistream/internal/logging"
	"github.com/tomtom215/omnistream/internal/normalize"
	"github.com/tomtom215/omnistream/internal/notify"
	"github.com/tomtom215/omnistream/internal/poller"
	"github.com/tomtom215/omnistream/internal/registry"
	ws "github.com/tomtom215/omnistream/internal/websocket"
)

// app holds the wired components shared by the serve and poll commands.
type app struct {
	cfg        *config.Config
	scheduler  *poller.Scheduler
	store      history.Store
	recorder   *history.Recorder
	hub        *ws.Hub
	dispatcher *notify.Dispatcher
	engine     *notify.Engine
}

type appOptions struct {
	// withHub creates the websocket hub and the broadcast stage.
	withHub bool
	// withHistory records every cycle into the configured store.
	withHistory bool
}

// newRegistry picks the file-backed registry when a path is configured and
// the inline backend list otherwise.
func newRegistry(cfg *config.Config) registry.Source {
	if cfg.Registry.Path != "" {
		logging.Info().Str("path", cfg.Registry.Path).Msg("Using file backend registry")
		return registry.NewFile(cfg.Registry.Path)
	}
	logging.Info().Int("backends", len(cfg.Backends)).Msg("Using configured backend list")
	return registry.NewStatic(cfg.Backends)
}

// newApp wires the poll pipeline. Stages run in this order: history,
// notification evaluation, websocket broadcast.
func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	a := &app{cfg: cfg}

	fetcher := poller.NewFetcher(nil, cfg.Poller.Timeout, cfg.Poller.MaxBodyBytes)
	normalizer := normalize.New(normalize.Options{ArtworkProxyPath: cfg.Poller.ArtworkProxyPath})
	a.scheduler = poller.NewScheduler(poller.Config{
		Interval:       cfg.Poller.Interval,
		MaxConcurrency: cfg.Poller.MaxConcurrency,
		AllowOverlap:   cfg.Poller.AllowOverlap,
	}, newRegistry(cfg), fetcher, normalizer, nil)

	if opts.withHistory {
		store, err := history.Open(ctx, cfg.History)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		a.store = store
		a.recorder = history.NewRecorder(store, cfg.History.Retention)
		a.scheduler.AddStage(a.recorder)
		logging.Info().Str("store", store.Name()).Int("retention", cfg.History.Retention).Msg("History recorder enabled")
	}

	if opts.withHub {
		a.hub = ws.NewHub()
	}

	if cfg.Notifications.Enabled {
		var broadcaster notify.Broadcaster
		if a.hub != nil {
			broadcaster = a.hub
		}
		channels, err := notify.BuildChannels(cfg.Notifications.Channels, broadcaster)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("notification channels: %w", err)
		}
		a.dispatcher = notify.NewDispatcher(notify.DispatcherConfigFrom(cfg.Notifications), channels...)
	} else {
		logging.Info().Msg("Notifications disabled")
	}
	a.engine = notify.NewEngine(notify.RulesFromConfig(cfg.Notifications.Rules), a.scheduler, a.dispatcher)
	a.scheduler.AddStage(a.engine)

	if a.hub != nil {
		a.scheduler.AddStage(ws.NewBroadcastStage(a.hub))
	}
	return a, nil
}

// close releases the history store. Running services must be stopped first.
func (a *app) close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		logging.Error().Err(err).Str("store", a.store.Name()).Msg("Error closing history store")
	}
	a.store = nil
}
