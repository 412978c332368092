// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/omnistream/internal/history"
)

// parseHistoryQuery reads the history filter from query parameters. It only
// reports syntax errors; rule checks are left to validation.ValidateStruct.
func parseHistoryQuery(values url.Values) (history.Query, error) {
	q := history.Query{
		BackendID: strings.TrimSpace(values.Get("backend_id")),
		User:      strings.TrimSpace(values.Get("user")),
		Text:      strings.TrimSpace(values.Get("q")),
		SortBy:    strings.ToLower(values.Get("sort")),
		Order:     strings.ToLower(values.Get("order")),
	}

	var err error
	if q.From, err = parseTimeParam(values, "from"); err != nil {
		return q, err
	}
	if q.To, err = parseTimeParam(values, "to"); err != nil {
		return q, err
	}

	if raw := values.Get("limit"); raw != "" {
		q.Limit, err = strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("limit %q: %w", raw, ErrInvalidLimit)
		}
	}
	return q, nil
}

func parseTimeParam(values url.Values, name string) (time.Time, error) {
	raw := values.Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s %q: %w", name, raw, ErrInvalidTime)
	}
	return t.UTC(), nil
}
