// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package history

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/tomtom215/omnistream/internal/config"
)

// Open creates the store selected by cfg.
func Open(ctx context.Context, cfg config.HistoryConfig) (Store, error) {
	switch cfg.Backend {
	case "", config.HistoryMemory:
		return NewMemoryStore(), nil
	case config.HistoryBadger:
		s, err := OpenBadger(BadgerConfig{Path: cfg.Path, SyncWrites: true})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.HistoryDuckDB:
		s, err := OpenDuckDB(ctx, filepath.Join(cfg.Path, "history.duckdb"))
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}
