// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package services

import (
	"context"
	"fmt"
)

// StartStopper is the lifecycle shared by the poll scheduler, the
// notification dispatcher and the history garbage collector. Start spawns
// background goroutines and returns. Stop blocks until they have exited.
type StartStopper interface {
	Start(ctx context.Context) error
	Stop()
}

// LifecycleService adapts a StartStopper to suture.Service.
type LifecycleService struct {
	component StartStopper
	name      string
}

// NewLifecycleService wraps component under the given service name.
//
//	tree.AddMessagingService(services.NewLifecycleService("poll-scheduler", scheduler))
func NewLifecycleService(name string, component StartStopper) *LifecycleService {
	return &LifecycleService{component: component, name: name}
}

// Serve starts the component, waits for cancellation and stops it. A Start
// error is returned so the supervisor retries with backoff.
func (s *LifecycleService) Serve(ctx context.Context) error {
	if err := s.component.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}

	<-ctx.Done()

	s.component.Stop()
	return ctx.Err()
}

func (s *LifecycleService) String() string {
	return s.name
}
