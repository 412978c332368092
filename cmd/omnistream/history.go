// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/omnistream/internal/config"
	"github.com/tomtom215/omnistream/internal/history"
	"github.com/tomtom215/omnistream/internal/validation"
)

type historyFlags struct {
	backendID string
	user      string
	text      string
	from      string
	to        string
	sort      string
	order     string
	limit     int
}

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	hf := &historyFlags{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the configured history store",
		Example: `  omnistream history --backend living-room --sort bandwidth --limit 20
  omnistream history --user alice --from 2026-03-01T00:00:00Z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := hf.query()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runHistory(ctx, opts.cfg, q, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&hf.backendID, "backend", "", "Only rows from this backend id")
	f.StringVar(&hf.user, "user", "", "Only rows for this user (case-insensitive)")
	f.StringVarP(&hf.text, "query", "q", "", "Substring match over title, user and backend name")
	f.StringVar(&hf.from, "from", "", "Earliest timestamp (RFC 3339, inclusive)")
	f.StringVar(&hf.to, "to", "", "Latest timestamp (RFC 3339, inclusive)")
	f.StringVar(&hf.sort, "sort", history.SortTime, "Sort key: time or bandwidth")
	f.StringVar(&hf.order, "order", history.OrderDesc, "Sort order: asc or desc")
	f.IntVar(&hf.limit, "limit", 50, "Maximum rows, 0 for the retention limit")
	return cmd
}

func (hf *historyFlags) query() (history.Query, error) {
	q := history.Query{
		BackendID: hf.backendID,
		User:      hf.user,
		Text:      hf.text,
		SortBy:    hf.sort,
		Order:     hf.order,
		Limit:     hf.limit,
	}
	var err error
	if q.From, err = parseTimeFlag("from", hf.from); err != nil {
		return q, err
	}
	if q.To, err = parseTimeFlag("to", hf.to); err != nil {
		return q, err
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To) {
		return q, fmt.Errorf("--from must not be after --to")
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		return q, verr
	}
	return q, nil
}

func parseTimeFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t.UTC(), nil
}

func runHistory(ctx context.Context, cfg *config.Config, q history.Query, out io.Writer) error {
	store, err := history.Open(ctx, cfg.History)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	rows, err := history.NewRecorder(store, cfg.History.Retention).Query(ctx, q)
	if err != nil {
		return fmt.Errorf("query history: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
