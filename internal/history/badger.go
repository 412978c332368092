// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package history

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/omnistream/internal/logging"
	"github.com/tomtom215/omnistream/internal/models"
)

const (
	badgerRowPrefix    = "h/"
	badgerSequenceKey  = "seq/history"
	badgerSeqBandwidth = 256
)

// BadgerConfig configures a BadgerStore.
type BadgerConfig struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path     string
	InMemory bool

	// SyncWrites fsyncs each append.
	SyncWrites bool

	// GCRatio is the discard ratio for value log GC.
	GCRatio float64
}

// BadgerStore keeps rows under big-endian sequence keys so key order is
// insertion order.
type BadgerStore struct {
	db      *badger.DB
	seq     *badger.Sequence
	gcRatio float64

	mu     sync.Mutex // serializes writes
	count  int
	closed bool
}

// OpenBadger opens or creates a Badger-backed store.
func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(nil).
		WithMemTableSize(16 << 20).
		WithValueLogFileSize(64 << 20).
		WithNumCompactors(2)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger history store: %w", err)
	}

	seq, err := db.GetSequence([]byte(badgerSequenceKey), badgerSeqBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to get history sequence: %w", err)
	}

	ratio := cfg.GCRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.5
	}
	s := &BadgerStore{db: db, seq: seq, gcRatio: ratio}

	if s.count, err = s.countKeys(); err != nil {
		_ = s.Close()
		return nil, err
	}
	logging.Info().Str("path", cfg.Path).Bool("in_memory", cfg.InMemory).Int("rows", s.count).
		Msg("Badger history store opened")
	return s, nil
}

func (s *BadgerStore) Name() string { return "badger" }

func rowKey(seq uint64) []byte {
	key := make([]byte, len(badgerRowPrefix)+8)
	copy(key, badgerRowPrefix)
	binary.BigEndian.PutUint64(key[len(badgerRowPrefix):], seq)
	return key
}

func (s *BadgerStore) Append(ctx context.Context, rows []models.HistoryRow) ([]models.HistoryRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	// Sequence leases run their own transactions, so numbers are taken
	// before the write transaction opens.
	out := make([]models.HistoryRow, len(rows))
	for i := range rows {
		n, err := s.seq.Next()
		if err != nil {
			return nil, fmt.Errorf("next history sequence: %w", err)
		}
		out[i] = rows[i]
		out[i].Seq = n + 1 // badger sequences start at zero
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		for i := range out {
			data, err := json.Marshal(&out[i])
			if err != nil {
				return fmt.Errorf("marshal row: %w", err)
			}
			if err := txn.Set(rowKey(out[i].Seq), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to append history rows: %w", err)
	}
	s.count += len(out)
	return out, nil
}

func (s *BadgerStore) Trim(ctx context.Context, keep int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreClosed
	}
	excess := s.count - keep
	if keep < 0 || excess <= 0 {
		return 0, nil
	}

	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerRowPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid() && len(keys) < excess; it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan history keys: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return 0, fmt.Errorf("failed to delete history row: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush history trim: %w", err)
	}
	s.count -= len(keys)
	return len(keys), nil
}

func (s *BadgerStore) Query(ctx context.Context, q Query) ([]models.HistoryRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrStoreClosed
	}

	var rows []models.HistoryRow
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerRowPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var row models.HistoryRow
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			}); err != nil {
				return fmt.Errorf("decode row %x: %w", it.Item().Key(), err)
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return applyQuery(rows, q), nil
}

func (s *BadgerStore) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count, nil
}

func (s *BadgerStore) countKeys() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerRowPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count history rows: %w", err)
	}
	return n, nil
}

// RunGC runs value log garbage collection until there is nothing left to
// rewrite.
func (s *BadgerStore) RunGC() error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrStoreClosed
	}
	for {
		err := s.db.RunValueLogGC(s.gcRatio)
		switch {
		case err == nil:
			continue
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrGCInMemoryMode), errors.Is(err, badger.ErrRejected):
			return nil
		default:
			return err
		}
	}
}

func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	if err := s.seq.Release(); err != nil {
		errs = append(errs, fmt.Errorf("release sequence: %w", err))
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close badger: %w", err))
	}
	return errors.Join(errs...)
}
