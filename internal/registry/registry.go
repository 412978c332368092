// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

// Package registry supplies the list of monitored backends to the poller.
//
// Two sources exist: Static, built from the backends section of the
// configuration, and File, which reads a servers.json document and picks up
// edits made by other tools between poll cycles. Both return validated,
// de-duplicated descriptors in their configured order.
package registry

import (
	"context"
	"errors"
	"strings"

	"github.com/tomtom215/omnistream/internal/logging"
	"github.com/tomtom215/omnistream/internal/models"
	"github.com/tomtom215/omnistream/internal/validation"
)

// ErrInvalidDescriptor is returned for descriptors that fail validation.
var ErrInvalidDescriptor = errors.New("invalid backend descriptor")

// Source lists enabled backends. Implementations must be safe for
// concurrent use.
type Source interface {
	ListEnabled(ctx context.Context) ([]models.BackendDescriptor, error)
}

// Validate checks a single descriptor.
func Validate(d *models.BackendDescriptor) error {
	if verr := validation.ValidateStruct(d); verr != nil {
		return errors.Join(ErrInvalidDescriptor, verr)
	}
	return nil
}

// sanitize drops invalid and duplicate descriptors, logging each one, and
// normalizes the base URL. Order is preserved.
func sanitize(in []models.BackendDescriptor, source string) []models.BackendDescriptor {
	seen := make(map[string]struct{}, len(in))
	out := make([]models.BackendDescriptor, 0, len(in))
	for i := range in {
		d := in[i]
		d.BaseURL = strings.TrimRight(strings.TrimSpace(d.BaseURL), "/")
		if err := Validate(&d); err != nil {
			logging.Warn().Err(err).Str("source", source).Int("index", i).Str("backend_id", d.ID).
				Msg("skipping invalid backend descriptor")
			continue
		}
		if _, dup := seen[d.ID]; dup {
			logging.Warn().Str("source", source).Str("backend_id", d.ID).
				Msg("skipping duplicate backend id")
			continue
		}
		seen[d.ID] = struct{}{}
		out = append(out, d)
	}
	return out
}

func enabledOnly(all []models.BackendDescriptor) []models.BackendDescriptor {
	out := make([]models.BackendDescriptor, 0, len(all))
	for i := range all {
		if all[i].Enabled() {
			out = append(out, all[i])
		}
	}
	return out
}

// Static serves a fixed descriptor list.
type Static struct {
	backends []models.BackendDescriptor
}

// NewStatic validates backends once and keeps the survivors.
func NewStatic(backends []models.BackendDescriptor) *Static {
	return &Static{backends: sanitize(backends, "config")}
}

// ListEnabled returns a copy of the enabled descriptors.
func (s *Static) ListEnabled(_ context.Context) ([]models.BackendDescriptor, error) {
	return enabledOnly(s.backends), nil
}
