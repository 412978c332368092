// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package notify

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/omnistream/internal/logging"
	"github.com/tomtom215/omnistream/internal/metrics"
	"github.com/tomtom215/omnistream/internal/models"
	"github.com/tomtom215/omnistream/internal/poller"
)

// StatusSource provides the live backend statuses.
type StatusSource interface {
	CurrentStatuses() map[string]models.BackendStatus
}

// Engine evaluates the alert rules after every poll cycle and dispatches
// notifications on their activation edge only.
type Engine struct {
	source     StatusSource
	dispatcher *Dispatcher
	active     *ActiveSet

	mu       sync.RWMutex
	rules    Rules
	dispatch bool

	sf  singleflight.Group
	now func() time.Time
}

// NewEngine creates an engine. A nil dispatcher still tracks activations
// but delivers nothing.
func NewEngine(rules Rules, source StatusSource, dispatcher *Dispatcher) *Engine {
	return &Engine{
		source:     source,
		dispatcher: dispatcher,
		active:     NewActiveSet(),
		rules:      rules,
		dispatch:   dispatcher != nil,
		now:        time.Now,
	}
}

// Name implements poller.Stage.
func (e *Engine) Name() string { return "notify" }

// Process implements poller.Stage.
func (e *Engine) Process(ctx context.Context, c *poller.Cycle) {
	e.Evaluate(ctx, c.Timestamp, c.Statuses)
}

// Evaluate computes the active notifications for statuses, dispatches the
// newly activated ones and returns them.
func (e *Engine) Evaluate(ctx context.Context, ts time.Time, statuses map[string]models.BackendStatus) []models.Notification {
	current := e.Rules().Evaluate(statuses, ts)
	fresh := e.active.Advance(current)
	if len(fresh) == 0 {
		return fresh
	}

	log := logging.Ctx(ctx)
	dispatch := e.dispatchEnabled()
	for i := range fresh {
		n := &fresh[i]
		metrics.NotificationsFired.WithLabelValues(string(n.Kind)).Inc()
		log.Info().Str("notification_id", n.ID).Str("severity", string(n.Severity)).Str("backend_id", n.BackendID).Msg(n.Message)

		if !dispatch {
			continue
		}
		if _, err := e.dispatcher.Dispatch(ctx, n); err != nil {
			log.Warn().Err(err).Str("notification_id", n.ID).Msg("Notification not dispatched")
		}
	}
	return fresh
}

// CurrentNotifications recomputes the active notifications from the live
// statuses. It does not touch the activation state used for dispatch.
func (e *Engine) CurrentNotifications() []models.Notification {
	v, _, _ := e.sf.Do("current", func() (interface{}, error) {
		var statuses map[string]models.BackendStatus
		if e.source != nil {
			statuses = e.source.CurrentStatuses()
		}
		return e.Rules().Evaluate(statuses, e.now().UTC()), nil
	})
	notes := v.([]models.Notification)
	// Callers of a shared flight get the same slice.
	out := make([]models.Notification, len(notes))
	copy(out, notes)
	return out
}

// TestChannel sends a synthetic info notification through one channel.
func (e *Engine) TestChannel(ctx context.Context, channel string) (models.Notification, error) {
	n := models.Notification{
		ID:          models.NotificationID(models.AlertTest, channel),
		Severity:    models.SeverityInfo,
		BackendID:   "omnistream",
		BackendName: "OmniStream",
		Kind:        models.AlertTest,
		Message:     "Test notification from OmniStream",
		Timestamp:   e.now().UTC(),
	}
	if e.dispatcher == nil {
		return n, ErrUnknownChannel
	}
	return n, e.dispatcher.Send(ctx, channel, &n)
}

// Wait blocks until queued deliveries have finished.
func (e *Engine) Wait(ctx context.Context) error {
	if e.dispatcher == nil {
		return nil
	}
	return e.dispatcher.Wait(ctx)
}

// Rules returns the current rule set.
func (e *Engine) Rules() Rules {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rules
}

// SetRules replaces the rule set from the next evaluation.
func (e *Engine) SetRules(r Rules) {
	e.mu.Lock()
	e.rules = r
	e.mu.Unlock()
}

// SetDispatch turns delivery on or off. Activations are tracked either way,
// so re-enabling does not replay conditions that are already active.
func (e *Engine) SetDispatch(enabled bool) {
	e.mu.Lock()
	e.dispatch = enabled && e.dispatcher != nil
	e.mu.Unlock()
}

func (e *Engine) dispatchEnabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dispatch
}

// ActiveIDs returns the ids active as of the last evaluation.
func (e *Engine) ActiveIDs() []string {
	return e.active.IDs()
}

// Dispatcher returns the engine's dispatcher, which may be nil.
func (e *Engine) Dispatcher() *Dispatcher {
	return e.dispatcher
}
