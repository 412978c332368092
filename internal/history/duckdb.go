// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver

	"github.com/tomtom215/omnistream/internal/logging"
	"github.com/tomtom215/omnistream/internal/models"
)

const duckdbSchema = `
CREATE SEQUENCE IF NOT EXISTS history_seq START 1;
CREATE TABLE IF NOT EXISTS history (
	seq          BIGINT PRIMARY KEY,
	ts           TIMESTAMP NOT NULL,
	backend_id   VARCHAR NOT NULL,
	backend_name VARCHAR NOT NULL,
	backend_kind VARCHAR NOT NULL,
	user_name    VARCHAR NOT NULL,
	title        VARCHAR NOT NULL,
	stream       VARCHAR NOT NULL,
	transcoding  BOOLEAN,
	location     VARCHAR NOT NULL,
	bandwidth    DOUBLE NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_backend ON history (backend_id);
`

// DuckDBStore keeps rows in a DuckDB table. Retention deletes by seq, which
// comes from a database sequence and so follows insertion order.
type DuckDBStore struct {
	db     *sql.DB
	mu     sync.Mutex // serializes writes
	closed bool
}

// OpenDuckDB opens the database file at path, or an in-memory database
// when path is empty.
func OpenDuckDB(ctx context.Context, path string) (*DuckDBStore, error) {
	if path != "" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create history directory %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb history store: %w", err)
	}
	if _, err := db.ExecContext(ctx, duckdbSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	logging.Info().Str("path", path).Msg("DuckDB history store opened")
	return &DuckDBStore{db: db}, nil
}

func (s *DuckDBStore) Name() string { return "duckdb" }

func (s *DuckDBStore) Append(ctx context.Context, rows []models.HistoryRow) ([]models.HistoryRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO history (seq, ts, backend_id, backend_name, backend_kind, user_name, title, stream, transcoding, location, bandwidth)
		VALUES (nextval('history_seq'), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare append: %w", err)
	}
	defer stmt.Close()

	out := make([]models.HistoryRow, len(rows))
	for i := range rows {
		r := rows[i]
		r.Timestamp = r.Timestamp.UTC()
		var transcoding sql.NullBool
		if r.Transcoding != nil {
			transcoding = sql.NullBool{Bool: *r.Transcoding, Valid: true}
		}
		var seq int64
		if err := stmt.QueryRowContext(ctx, r.Timestamp, r.BackendID, r.BackendName, string(r.BackendKind),
			r.User, r.Title, r.Stream, transcoding, r.Location, r.Bandwidth).Scan(&seq); err != nil {
			return nil, fmt.Errorf("failed to insert history row: %w", err)
		}
		r.Seq = uint64(seq)
		out[i] = r
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit append: %w", err)
	}
	return out, nil
}

func (s *DuckDBStore) Trim(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreClosed
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM history
		WHERE seq <= (SELECT seq FROM history ORDER BY seq DESC LIMIT 1 OFFSET ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to trim history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read trimmed row count: %w", err)
	}
	return int(n), nil
}

func (s *DuckDBStore) Query(ctx context.Context, q Query) ([]models.HistoryRow, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrStoreClosed
	}

	query, args := buildSelect(q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []models.HistoryRow
	for rows.Next() {
		var (
			r           models.HistoryRow
			seq         int64
			kind        string
			transcoding sql.NullBool
		)
		if err := rows.Scan(&seq, &r.Timestamp, &r.BackendID, &r.BackendName, &kind,
			&r.User, &r.Title, &r.Stream, &transcoding, &r.Location, &r.Bandwidth); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		r.Seq = uint64(seq)
		r.BackendKind = models.BackendKind(kind)
		if transcoding.Valid {
			r.Transcoding = models.Bool(transcoding.Bool)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history rows: %w", err)
	}
	return out, nil
}

// buildSelect translates q into SQL with positional parameters. Column
// names and directions come from fixed strings, never from q directly.
func buildSelect(q Query) (string, []any) {
	q = q.Normalized()

	var (
		where []string
		args  []any
	)
	if q.BackendID != "" {
		where = append(where, "backend_id = ?")
		args = append(args, q.BackendID)
	}
	if q.User != "" {
		where = append(where, "lower(user_name) = lower(?)")
		args = append(args, q.User)
	}
	if !q.From.IsZero() {
		where = append(where, "ts >= ?")
		args = append(args, q.From.UTC())
	}
	if !q.To.IsZero() {
		where = append(where, "ts <= ?")
		args = append(args, q.To.UTC())
	}
	if q.Text != "" {
		where = append(where, `(title ILIKE ? ESCAPE '\' OR user_name ILIKE ? ESCAPE '\' OR backend_name ILIKE ? ESCAPE '\')`)
		pattern := "%" + escapeLike(q.Text) + "%"
		args = append(args, pattern, pattern, pattern)
	}

	var b strings.Builder
	b.WriteString(`SELECT seq, ts, backend_id, backend_name, backend_kind, user_name, title, stream, transcoding, location, bandwidth FROM history`)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}

	dir := "DESC"
	if q.Order == OrderAsc {
		dir = "ASC"
	}
	col := "ts"
	if q.SortBy == SortBandwidth {
		col = "bandwidth"
	}
	fmt.Fprintf(&b, " ORDER BY %s %s, seq %s", col, dir, dir)

	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}
	return b.String(), args
}

// escapeLike makes % and _ in user text match literally under ESCAPE '\'.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *DuckDBStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history rows: %w", err)
	}
	return n, nil
}

func (s *DuckDBStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
