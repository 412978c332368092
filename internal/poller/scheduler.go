// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package poller

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/omnistream/internal/logging"
	"github.com/tomtom215/omnistream/internal/metrics"
	"github.com/tomtom215/omnistream/internal/models"
	"github.com/tomtom215/omnistream/internal/normalize"
	"github.com/tomtom215/omnistream/internal/registry"
)

// DefaultInterval is the poll period.
const DefaultInterval = 15 * time.Second

// ErrCycleInProgress is returned when a cycle is requested while another
// one is running and overlap is not allowed.
var ErrCycleInProgress = errors.New("poll cycle already in progress")

// Cycle is the outcome of one completed fetch stage, handed to every stage.
type Cycle struct {
	ID        string
	Timestamp time.Time
	Statuses  map[string]models.BackendStatus
	Meta      models.PollMeta
}

// Stage consumes a completed cycle. Stages run sequentially in the order
// they were registered, after every status of the cycle is published.
type Stage interface {
	Name() string
	Process(ctx context.Context, c *Cycle)
}

// StageFunc adapts a function to Stage.
type StageFunc struct {
	StageName string
	Fn        func(ctx context.Context, c *Cycle)
}

func (s StageFunc) Name() string                          { return s.StageName }
func (s StageFunc) Process(ctx context.Context, c *Cycle) { s.Fn(ctx, c) }

// Config configures the Scheduler.
type Config struct {
	Interval       time.Duration
	MaxConcurrency int
	AllowOverlap   bool
}

// Scheduler runs poll cycles on a fixed interval.
type Scheduler struct {
	cfg        Config
	source     registry.Source
	fetcher    *Fetcher
	normalizer *normalize.Normalizer
	statuses   *StatusStore
	stages     []Stage

	inCycle atomic.Bool
	trigger singleflight.Group

	metaMu sync.RWMutex
	meta   *models.PollMeta

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler wires a scheduler. Stages run in the given order.
func NewScheduler(cfg Config, source registry.Source, fetcher *Fetcher, normalizer *normalize.Normalizer,
	statuses *StatusStore, stages ...Stage) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if fetcher == nil {
		fetcher = NewFetcher(nil, 0, 0)
	}
	if normalizer == nil {
		normalizer = normalize.New(normalize.Options{})
	}
	if statuses == nil {
		statuses = NewStatusStore()
	}
	return &Scheduler{
		cfg:        cfg,
		source:     source,
		fetcher:    fetcher,
		normalizer: normalizer,
		statuses:   statuses,
		stages:     stages,
	}
}

// AddStage appends a stage. It must be called before Start.
func (s *Scheduler) AddStage(stage Stage) {
	s.stages = append(s.stages, stage)
}

// Start runs a first cycle immediately and then one per interval until
// Stop is called or ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	logging.Info().Dur("interval", s.cfg.Interval).Bool("allow_overlap", s.cfg.AllowOverlap).
		Msg("Starting poll scheduler")

	s.wg.Add(1)
	go s.loop(ctx)
	return nil
}

// Stop ends the loop and waits for in-flight cycles.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	logging.Info().Msg("Poll scheduler stopped")
}

// IsRunning reports whether the loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	s.tick(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick starts a cycle without blocking the ticker so an overlapping tick
// can be observed and skipped.
func (s *Scheduler) tick(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.RunCycle(ctx); errors.Is(err, ErrCycleInProgress) {
			metrics.PollCyclesSkipped.Inc()
			logging.Warn().Dur("interval", s.cfg.Interval).
				Msg("Skipping poll tick: previous cycle still running")
		}
	}()
}

// TriggerNow runs a cycle on demand. Concurrent callers share one cycle.
func (s *Scheduler) TriggerNow(ctx context.Context) (*Cycle, error) {
	v, err, _ := s.trigger.Do("poll", func() (interface{}, error) {
		return s.RunCycle(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.(*Cycle), nil
}

// RunCycle performs one full cycle: fetch stage, meta, then stages.
func (s *Scheduler) RunCycle(ctx context.Context) (*Cycle, error) {
	if !s.cfg.AllowOverlap {
		if !s.inCycle.CompareAndSwap(false, true) {
			return nil, ErrCycleInProgress
		}
		defer s.inCycle.Store(false)
	}

	cycleID := logging.GenerateCycleID()
	ctx = logging.ContextWithCycleID(ctx, cycleID)
	log := logging.Ctx(ctx)
	start := time.Now()

	backends, fetchErr := s.fetchAll(ctx)
	finished := time.Now()

	meta := models.PollMeta{
		Timestamp:  finished,
		DurationMs: finished.Sub(start).Milliseconds(),
		Backends:   backends,
	}
	if fetchErr != nil {
		msg := fetchErr.Error()
		meta.Error = &msg
		log.Error().Err(fetchErr).Msg("Poll cycle fetch stage failed")
	}
	s.setMeta(meta)

	cycle := &Cycle{
		ID:        cycleID,
		Timestamp: finished,
		Statuses:  s.statuses.Snapshot(),
		Meta:      meta,
	}

	// A failed fetch stage leaves the previous statuses in place; feeding
	// them to the stages again would record the same history twice.
	if fetchErr == nil {
		for _, stage := range s.stages {
			s.runStage(ctx, stage, cycle)
		}
	}

	metrics.RecordCycle(time.Since(start))
	log.Debug().Int("backends", backends).Int64("duration_ms", meta.DurationMs).Msg("Poll cycle complete")
	return cycle, fetchErr
}

func (s *Scheduler) runStage(ctx context.Context, stage Stage, c *Cycle) {
	defer func() {
		if r := recover(); r != nil {
			logging.Ctx(ctx).Error().Str("stage", stage.Name()).Interface("panic", r).
				Bytes("stack", debug.Stack()).Msg("Poll stage panicked")
		}
	}()
	stage.Process(ctx, c)
}

// fetchAll polls every enabled backend concurrently and publishes each
// status as soon as it is built. It returns the number of backends polled.
func (s *Scheduler) fetchAll(ctx context.Context) (int, error) {
	descriptors, err := s.source.ListEnabled(ctx)
	if err != nil {
		return 0, fmt.Errorf("list backends: %w", err)
	}

	keep := make(map[string]struct{}, len(descriptors))
	for i := range descriptors {
		keep[descriptors[i].ID] = struct{}{}
	}

	var g errgroup.Group
	if s.cfg.MaxConcurrency > 0 {
		g.SetLimit(s.cfg.MaxConcurrency)
	}
	for i := range descriptors {
		d := descriptors[i]
		// A panic stays with its backend: it becomes that backend's offline
		// status and never fails the cycle.
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					err := fmt.Errorf("backend %s: internal error: %v", d.ID, r)
					logging.Ctx(ctx).Error().Str("backend_id", d.ID).Interface("panic", r).
						Bytes("stack", debug.Stack()).Msg("Backend poll panicked")
					s.statuses.Put(offlineStatus(&d, err, 0, 0, time.Now()))
				}
			}()
			s.statuses.Put(s.pollBackend(ctx, &d))
			return nil
		})
	}
	waitErr := g.Wait()

	for _, id := range s.statuses.Retain(keep) {
		metrics.ForgetBackend(id)
		logging.Ctx(ctx).Info().Str("backend_id", id).Msg("Dropped status of backend no longer enabled")
	}
	return len(descriptors), waitErr
}

// pollBackend fetches and normalizes one backend into a complete status.
func (s *Scheduler) pollBackend(ctx context.Context, d *models.BackendDescriptor) models.BackendStatus {
	kind := string(d.EffectiveKind())
	res := s.fetcher.Fetch(ctx, d)
	metrics.RecordFetch(kind, res.Latency, res.OK())

	if !res.OK() {
		logging.Ctx(ctx).Warn().Str("backend_id", d.ID).Str("kind", kind).
			Int64("latency_ms", res.Latency.Milliseconds()).Err(res.Err).Msg("Backend fetch failed")
		st := offlineStatus(d, res.Err, res.StatusCode, res.Latency, time.Now())
		metrics.UpdateBackend(d.ID, false, 0, 0, 0, 0)
		return st
	}

	result := s.normalize(ctx, d, res.Body)
	st := models.BackendStatus{
		ID:          d.ID,
		Name:        d.DisplayName(),
		Kind:        d.EffectiveKind(),
		Online:      true,
		StatusCode:  res.StatusCode,
		LatencyMs:   res.Latency.Milliseconds(),
		PayloadKind: result.Kind,
		Sessions:    result.Sessions,
		Summary:     result.Summary,
		CheckedAt:   time.Now(),
	}
	metrics.UpdateBackend(d.ID, true, len(st.Sessions),
		st.Summary.TotalBandwidth, st.Summary.LANBandwidth, st.Summary.WANBandwidth)
	return st
}

// normalize never lets a vendor payload take down the cycle.
func (s *Scheduler) normalize(ctx context.Context, d *models.BackendDescriptor, body []byte) (result normalize.Result) {
	defer func() {
		if r := recover(); r != nil {
			metrics.NormalizeRecovered.Inc()
			logging.Ctx(ctx).Error().Str("backend_id", d.ID).Interface("panic", r).
				Msg("Normalization failed, recording empty session list")
			result = normalize.Result{Kind: "unknown", Sessions: []models.Session{}}
		}
	}()
	return s.normalizer.NormalizeBytes(body, d)
}

func offlineStatus(d *models.BackendDescriptor, err error, code int, latency time.Duration, at time.Time) models.BackendStatus {
	return models.BackendStatus{
		ID:         d.ID,
		Name:       d.DisplayName(),
		Kind:       d.EffectiveKind(),
		Online:     false,
		StatusCode: code,
		Error:      err.Error(),
		LatencyMs:  latency.Milliseconds(),
		Sessions:   []models.Session{},
		CheckedAt:  at,
	}
}

func (s *Scheduler) setMeta(m models.PollMeta) {
	s.metaMu.Lock()
	s.meta = &m
	s.metaMu.Unlock()
}

// LastPollMeta returns the meta of the most recent cycle.
func (s *Scheduler) LastPollMeta() (models.PollMeta, bool) {
	s.metaMu.RLock()
	defer s.metaMu.RUnlock()
	if s.meta == nil {
		return models.PollMeta{}, false
	}
	return *s.meta, true
}

// Ready reports whether at least one cycle has completed.
func (s *Scheduler) Ready() bool {
	_, ok := s.LastPollMeta()
	return ok
}

// CurrentStatuses returns a copy of the status map.
func (s *Scheduler) CurrentStatuses() map[string]models.BackendStatus {
	return s.statuses.Snapshot()
}

// Status returns one backend's status.
func (s *Scheduler) Status(id string) (models.BackendStatus, bool) {
	return s.statuses.Get(id)
}
