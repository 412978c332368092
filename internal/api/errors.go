// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package api

import "errors"

var (
	// ErrInvalidTime is returned for from/to values that are not RFC 3339.
	ErrInvalidTime = errors.New("time must be RFC 3339")

	// ErrInvalidLimit is returned for a non-integer limit.
	ErrInvalidLimit = errors.New("limit must be an integer")
)
