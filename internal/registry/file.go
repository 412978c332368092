// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/omnistream/internal/logging"
	"github.com/tomtom215/omnistream/internal/models"
)

// File reads descriptors from a JSON array on disk. The file is re-read
// only when its modification time or size changes.
type File struct {
	path string

	mu       sync.Mutex
	modTime  time.Time
	size     int64
	loaded   bool
	backends []models.BackendDescriptor
}

// NewFile creates a File source for path. The file does not need to exist.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the file being read.
func (f *File) Path() string {
	return f.path
}

// ListEnabled returns the enabled descriptors from the file. A missing file
// yields an empty list. A file that cannot be parsed is an error; the
// previously loaded list is not used in that case so operators notice.
func (f *File) ListEnabled(ctx context.Context) ([]models.BackendDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	info, err := os.Stat(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		if f.loaded {
			logging.Warn().Str("path", f.path).Msg("backend registry file removed")
		}
		f.loaded, f.backends = false, nil
		return []models.BackendDescriptor{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat registry file: %w", err)
	}

	if !f.loaded || !info.ModTime().Equal(f.modTime) || info.Size() != f.size {
		backends, err := readDescriptors(f.path)
		if err != nil {
			f.loaded = false
			return nil, err
		}
		f.backends = sanitize(backends, f.path)
		f.modTime, f.size, f.loaded = info.ModTime(), info.Size(), true
		logging.Info().Str("path", f.path).Int("backends", len(f.backends)).Msg("backend registry loaded")
	}
	return enabledOnly(f.backends), nil
}

func readDescriptors(path string) ([]models.BackendDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var backends []models.BackendDescriptor
	if err := json.Unmarshal(data, &backends); err != nil {
		return nil, fmt.Errorf("parse registry file %s: %w", path, err)
	}
	return backends, nil
}
