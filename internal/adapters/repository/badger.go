package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/okian/highlights/internal/domain/model"
	"github.com/okian/highlights/pkg/logger"
	"github.com/okian/highlights/pkg/metrics"
)

// Key prefixes for BadgerDB storage.
const (
	highlightKeyPrefix  = "highlight:"
	preferenceKeyPrefix = "preferences:"

	defaultUpdateRetries = 5
)

// BadgerStore implements Repository on an embedded BadgerDB.
type BadgerStore struct {
	db      *badger.DB
	retries int
}

// OpenBadgerStore opens (or creates) a BadgerDB-backed store.
func OpenBadgerStore(opts ...BadgerOption) (*BadgerStore, error) {
	cfg := badgerConfig{updateRetries: defaultUpdateRetries}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.inMemory && cfg.path == "" {
		return nil, fmt.Errorf("open badger store: %w", errors.New("data path required"))
	}

	bopts := badger.DefaultOptions(cfg.path).WithInMemory(cfg.inMemory)
	if cfg.logger != nil {
		bopts = bopts.WithLogger(badgerLogger{l: cfg.logger})
	} else {
		bopts.Logger = nil
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerStore{db: db, retries: cfg.updateRetries}, nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func highlightKey(id string) []byte { return []byte(highlightKeyPrefix + id) }

// Get implements Store.
func (s *BadgerStore) Get(_ context.Context, id string) (model.EnrichedHighlight, error) {
	var h model.EnrichedHighlight
	err := s.db.View(func(txn *badger.Txn) error {
		return readHighlight(txn, id, &h)
	})
	return h, err
}

func readHighlight(txn *badger.Txn, id string, h *model.EnrichedHighlight) error {
	item, err := txn.Get(highlightKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get highlight %s: %w", id, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, h)
	})
}

// BatchPut implements Store.
func (s *BadgerStore) BatchPut(_ context.Context, hs []model.EnrichedHighlight) error {
	if err := validateBatch(hs); err != nil {
		return err
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, h := range hs {
		data, err := json.Marshal(h)
		if err != nil {
			return fmt.Errorf("marshal highlight %s: %w", h.ID, err)
		}
		if err := wb.Set(highlightKey(h.ID), data); err != nil {
			return fmt.Errorf("set highlight %s: %w", h.ID, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush highlight batch: %w", err)
	}
	s.reportCount()
	return nil
}

// Update implements Store. Conflicting transactions are retried.
func (s *BadgerStore) Update(ctx context.Context, id string, fn func(*model.EnrichedHighlight) error) error {
	for attempt := 0; attempt <= s.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(func(txn *badger.Txn) error {
			var h model.EnrichedHighlight
			if err := readHighlight(txn, id, &h); err != nil {
				return err
			}
			if err := fn(&h); err != nil {
				return err
			}
			h.ID = id
			data, err := json.Marshal(h)
			if err != nil {
				return fmt.Errorf("marshal highlight %s: %w", id, err)
			}
			return txn.Set(highlightKey(id), data)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return err
	}
	return fmt.Errorf("update highlight %s: %w", id, ErrConflict)
}

// Scan implements Store.
func (s *BadgerStore) Scan(_ context.Context, f model.HighlightFilter) ([]model.EnrichedHighlight, error) {
	var out []model.EnrichedHighlight
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(highlightKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var h model.EnrichedHighlight
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &h)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			if f.Matches(h) {
				out = append(out, h)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan highlights: %w", err)
	}
	sortHighlights(out)
	return applyLimit(out, f.Limit), nil
}

// Count implements Store.
func (s *BadgerStore) Count(context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(highlightKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count highlights: %w", err)
	}
	return n, nil
}

func (s *BadgerStore) reportCount() {
	if n, err := s.Count(context.Background()); err == nil {
		metrics.UpdateStoreRecords("badger", n)
	}
}

// Preferences implements PreferenceStore.
func (s *BadgerStore) Preferences(_ context.Context, userID string) ([]model.UserPreference, error) {
	prefs := []model.UserPreference{}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(preferenceKeyPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &prefs)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("get preferences for %s: %w", userID, err)
	}
	return prefs, nil
}

// SetPreferences implements PreferenceStore.
func (s *BadgerStore) SetPreferences(_ context.Context, userID string, prefs []model.UserPreference) error {
	data, err := json.Marshal(ownPreferences(userID, prefs))
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(preferenceKeyPrefix+userID), data)
	})
}

// badgerLogger adapts logger.Logger to badger.Logger.
type badgerLogger struct {
	l logger.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error(context.Background(), trimf(format, args...))
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn(context.Background(), trimf(format, args...))
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debug(context.Background(), trimf(format, args...))
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debug(context.Background(), trimf(format, args...))
}

func trimf(format string, args ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
