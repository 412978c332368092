// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package notify

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/omnistream/internal/config"
	"github.com/tomtom215/omnistream/internal/logging"
	"github.com/tomtom215/omnistream/internal/metrics"
	"github.com/tomtom215/omnistream/internal/models"
)

// DispatcherConfig tunes the delivery worker pool.
type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration

	MaxRetries   int
	RetryBackoff time.Duration
	MaxBackoff   time.Duration

	// RatePerSecond limits sends per channel. Zero disables the limit.
	RatePerSecond float64
	RateBurst     int

	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// DefaultDispatcherConfig returns the documented defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Workers:         4,
		QueueSize:       64,
		SendTimeout:     10 * time.Second,
		MaxRetries:      2,
		RetryBackoff:    500 * time.Millisecond,
		MaxBackoff:      30 * time.Second,
		RatePerSecond:   1,
		RateBurst:       5,
		BreakerFailures: 5,
		BreakerTimeout:  60 * time.Second,
	}
}

// DispatcherConfigFrom converts the notification section of the configuration.
func DispatcherConfigFrom(cfg config.NotificationsConfig) DispatcherConfig {
	d := DefaultDispatcherConfig()
	d.Workers = cfg.Workers
	d.QueueSize = cfg.QueueSize
	d.SendTimeout = cfg.SendTimeout
	d.MaxRetries = cfg.MaxRetries
	d.RetryBackoff = cfg.RetryBackoff
	d.RatePerSecond = cfg.RatePerSecond
	d.RateBurst = cfg.RateBurst
	d.BreakerFailures = cfg.BreakerFailures
	d.BreakerTimeout = cfg.BreakerTimeout
	return d.withDefaults()
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	def := DefaultDispatcherConfig()
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = def.QueueSize
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = def.SendTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = def.RetryBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = def.MaxBackoff
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 1
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = def.BreakerFailures
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = def.BreakerTimeout
	}
	return c
}

type channelState struct {
	ch      Channel
	breaker *gobreaker.CircuitBreaker[struct{}]
	limiter *rate.Limiter
}

type job struct {
	id    string
	state *channelState
	n     models.Notification
}

// ChannelInfo describes one configured channel.
type ChannelInfo struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Breaker string `json:"breaker"`
}

// Dispatcher delivers notifications to every enabled channel on a bounded
// worker pool. Each channel has its own circuit breaker and rate limiter, so
// one failing channel never delays the others.
type Dispatcher struct {
	cfg      DispatcherConfig
	names    []string
	channels map[string]*channelState

	queue   chan job
	pending inflight

	mu      sync.RWMutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup

	errMu      sync.RWMutex
	lastErrors map[string]ChannelError
}

// NewDispatcher creates a dispatcher over channels. Channel names must be
// unique; later duplicates replace earlier ones.
func NewDispatcher(cfg DispatcherConfig, channels ...Channel) *Dispatcher {
	cfg = cfg.withDefaults()
	d := &Dispatcher{
		cfg:        cfg,
		channels:   make(map[string]*channelState, len(channels)),
		queue:      make(chan job, cfg.QueueSize),
		lastErrors: make(map[string]ChannelError),
	}
	for _, ch := range channels {
		name := ch.Name()
		if _, dup := d.channels[name]; !dup {
			d.names = append(d.names, name)
		}
		d.channels[name] = d.newChannelState(ch)
	}
	sort.Strings(d.names)
	return d
}

func (d *Dispatcher) newChannelState(ch Channel) *channelState {
	name := ch.Name()
	failures := d.cfg.BreakerFailures

	metrics.ChannelBreakerState.WithLabelValues(name).Set(0)
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     d.cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("channel", name).Str("from", from.String()).Str("to", to.String()).Msg("Channel circuit breaker state transition")
			metrics.ChannelBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})

	limit := rate.Inf
	if d.cfg.RatePerSecond > 0 {
		limit = rate.Limit(d.cfg.RatePerSecond)
	}
	return &channelState{ch: ch, breaker: breaker, limiter: rate.NewLimiter(limit, d.cfg.RateBurst)}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Start launches the workers.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return nil
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	d.running = true

	for i := 0; i < d.cfg.Workers; i++ {
		d.workers.Add(1)
		go d.worker()
	}

	logging.Info().Int("workers", d.cfg.Workers).Strs("channels", d.enabledNames()).Msg("Notification dispatcher started")
	return nil
}

// Stop cancels in-flight deliveries, drops queued jobs and closes channels
// that hold connections.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.cancel()
	d.mu.Unlock()

	d.workers.Wait()

drain:
	for {
		select {
		case j := <-d.queue:
			metrics.RecordDelivery(j.state.ch.Name(), metrics.DeliveryDropped)
			d.pending.done()
		default:
			break drain
		}
	}

	for _, name := range d.names {
		if c, ok := d.channels[name].ch.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logging.Warn().Err(err).Str("channel", name).Msg("Failed to close notification channel")
			}
		}
	}
	logging.Info().Msg("Notification dispatcher stopped")
}

// IsRunning reports whether the workers are active.
func (d *Dispatcher) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// Dispatch queues n for every enabled channel and returns immediately with
// the number of deliveries queued. A full queue drops the delivery and
// records it as that channel's last error.
func (d *Dispatcher) Dispatch(ctx context.Context, n *models.Notification) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.running {
		return 0, ErrDispatcherStopped
	}

	queued := 0
	for _, name := range d.names {
		st := d.channels[name]
		if !st.ch.Enabled() {
			continue
		}
		j := job{id: uuid.NewString(), state: st, n: *n}
		d.pending.add()
		select {
		case d.queue <- j:
			queued++
		default:
			d.pending.done()
			metrics.RecordDelivery(name, metrics.DeliveryDropped)
			d.recordError(name, n.ID, ErrorCodeRateLimited, "notification queue is full")
			logging.Ctx(ctx).Warn().Str("channel", name).Str("notification_id", n.ID).Msg("Notification queue full, delivery dropped")
		}
	}
	return queued, nil
}

// Wait blocks until every queued delivery has finished or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) error {
	return d.pending.wait(ctx)
}

// Send delivers n through one channel synchronously, with the same breaker,
// rate limit and retry policy as queued deliveries.
func (d *Dispatcher) Send(ctx context.Context, channel string, n *models.Notification) error {
	st, ok := d.channels[channel]
	if !ok {
		return ErrUnknownChannel
	}
	if !st.ch.Enabled() {
		return ErrChannelDisabled
	}
	return d.deliver(ctx, job{id: uuid.NewString(), state: st, n: *n})
}

func (d *Dispatcher) worker() {
	defer d.workers.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case j := <-d.queue:
			_ = d.deliver(d.ctx, j)
			d.pending.done()
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, j job) error {
	name := j.state.ch.Name()
	log := logging.Ctx(ctx).With().Str("channel", name).Str("notification_id", j.n.ID).Str("dispatch_id", j.id).Logger()

	if err := j.state.limiter.Wait(ctx); err != nil {
		metrics.RecordDelivery(name, metrics.DeliveryFailure)
		d.recordError(name, j.n.ID, ErrorCodeTimeout, "rate limit wait aborted: "+err.Error())
		return err
	}

	var lastErr error
retry:
	for attempt := 0; attempt <= d.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := d.backoff(attempt, lastErr)
			log.Debug().Int("attempt", attempt).Dur("delay", delay).Msg("Retrying notification delivery")
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				lastErr = ctx.Err()
				break retry
			case <-timer.C:
			}
		}

		_, err := j.state.breaker.Execute(func() (struct{}, error) {
			sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
			defer cancel()
			return struct{}{}, j.state.ch.Send(sendCtx, &j.n)
		})
		if err == nil {
			metrics.RecordDelivery(name, metrics.DeliverySuccess)
			log.Debug().Int("attempt", attempt).Msg("Notification delivered")
			return nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordDelivery(name, metrics.DeliveryBreakerOpen)
			d.recordError(name, j.n.ID, ErrorCodeCircuitOpen, "circuit breaker is open")
			log.Warn().Msg("Notification skipped, circuit breaker is open")
			return err
		}

		lastErr = err
		if !IsTransient(err) {
			break retry
		}
	}

	metrics.RecordDelivery(name, metrics.DeliveryFailure)
	code := ErrorCodeUnknown
	var se *SendError
	if errors.As(lastErr, &se) {
		code = se.Code
	}
	d.recordError(name, j.n.ID, code, lastErr.Error())
	log.Warn().Err(lastErr).Str("code", code).Msg("Notification delivery failed")
	return lastErr
}

func (d *Dispatcher) backoff(attempt int, lastErr error) time.Duration {
	var se *SendError
	if errors.As(lastErr, &se) && se.RetryAfter > 0 {
		return min(se.RetryAfter, d.cfg.MaxBackoff)
	}
	delay := d.cfg.RetryBackoff << uint(attempt-1)
	if delay <= 0 || delay > d.cfg.MaxBackoff {
		delay = d.cfg.MaxBackoff
	}
	return delay
}

func (d *Dispatcher) recordError(channel, notificationID, code, msg string) {
	d.errMu.Lock()
	d.lastErrors[channel] = ChannelError{
		ID:             uuid.NewString(),
		Channel:        channel,
		NotificationID: notificationID,
		Code:           code,
		Message:        msg,
		Timestamp:      time.Now().UTC(),
	}
	d.errMu.Unlock()
}

// LastErrors returns the most recent failure per channel, sorted by channel.
func (d *Dispatcher) LastErrors() []ChannelError {
	d.errMu.RLock()
	defer d.errMu.RUnlock()
	out := make([]ChannelError, 0, len(d.lastErrors))
	for _, e := range d.lastErrors {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Channel < out[j].Channel })
	return out
}

// LastError returns the most recent failure on channel.
func (d *Dispatcher) LastError(channel string) (ChannelError, bool) {
	d.errMu.RLock()
	defer d.errMu.RUnlock()
	e, ok := d.lastErrors[channel]
	return e, ok
}

// Channels describes every configured channel, sorted by name.
func (d *Dispatcher) Channels() []ChannelInfo {
	out := make([]ChannelInfo, 0, len(d.names))
	for _, name := range d.names {
		st := d.channels[name]
		out = append(out, ChannelInfo{Name: name, Enabled: st.ch.Enabled(), Breaker: st.breaker.State().String()})
	}
	return out
}

func (d *Dispatcher) enabledNames() []string {
	var out []string
	for _, name := range d.names {
		if d.channels[name].ch.Enabled() {
			out = append(out, name)
		}
	}
	return out
}

// inflight counts queued deliveries. Unlike sync.WaitGroup it may be waited
// on while new work is being added.
type inflight struct {
	mu   sync.Mutex
	n    int
	idle chan struct{}
}

func (f *inflight) add() {
	f.mu.Lock()
	if f.n == 0 || f.idle == nil {
		f.idle = make(chan struct{})
	}
	f.n++
	f.mu.Unlock()
}

func (f *inflight) done() {
	f.mu.Lock()
	f.n--
	if f.n == 0 {
		close(f.idle)
	}
	f.mu.Unlock()
}

func (f *inflight) wait(ctx context.Context) error {
	f.mu.Lock()
	if f.n == 0 {
		f.mu.Unlock()
		return nil
	}
	idle := f.idle
	f.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
