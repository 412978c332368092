// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package history

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/omnistream/internal/logging"
)

// GarbageCollector periodically reclaims Badger value log space left
// behind by retention deletes.
type GarbageCollector struct {
	store    *BadgerStore
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
	lastRun time.Time
	runs    int
}

// NewGarbageCollector creates a collector for store.
func NewGarbageCollector(store *BadgerStore, interval time.Duration) *GarbageCollector {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GarbageCollector{store: store, interval: interval}
}

// Start begins the background loop.
func (g *GarbageCollector) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return nil
	}
	g.ctx, g.cancel = context.WithCancel(ctx)
	g.running = true
	g.mu.Unlock()

	g.wg.Add(1)
	go g.run()

	logging.Info().Dur("interval", g.interval).Msg("History GC started")
	return nil
}

// Stop ends the loop and waits for a running collection.
func (g *GarbageCollector) Stop() {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	g.cancel()
	g.running = false
	g.mu.Unlock()

	g.wg.Wait()
	logging.Info().Msg("History GC stopped")
}

// IsRunning reports whether the loop is active.
func (g *GarbageCollector) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// Runs returns how many collections have completed.
func (g *GarbageCollector) Runs() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.runs
}

func (g *GarbageCollector) run() {
	defer g.wg.Done()

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-g.ctx.Done():
			return
		case <-ticker.C:
			g.collect()
		}
	}
}

func (g *GarbageCollector) collect() {
	start := time.Now()
	if err := g.store.RunGC(); err != nil {
		logging.Error().Err(err).Msg("History value log GC failed")
	}

	g.mu.Lock()
	g.lastRun = time.Now()
	g.runs++
	g.mu.Unlock()

	logging.Debug().Dur("duration", time.Since(start)).Msg("History value log GC complete")
}
