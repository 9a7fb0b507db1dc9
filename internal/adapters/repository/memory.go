package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/highlights/internal/domain/model"
	"github.com/okian/highlights/pkg/metrics"
)

const defaultMetricsUpdateInterval = 5 * time.Second

// MemoryStore keeps highlights and preferences in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	byID        map[string]model.EnrichedHighlight
	preferences map[string][]model.UserPreference

	metricsUpdateInterval time.Duration
	wg                    sync.WaitGroup
	stopChan              chan struct{}
	closeOnce             sync.Once
}

// NewMemoryStore constructs a memory store. Its metrics updater stops
// when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:                  make(map[string]model.EnrichedHighlight),
		preferences:           make(map[string][]model.UserPreference),
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.mu.RLock()
				n := len(s.byID)
				s.mu.RUnlock()
				metrics.UpdateStoreRecords("memory", n)
			}
		}
	}()
}

// Close stops the metrics updater.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (model.EnrichedHighlight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byID[id]
	if !ok {
		return model.EnrichedHighlight{}, ErrNotFound
	}
	return clone(h), nil
}

// BatchPut implements Store.
func (s *MemoryStore) BatchPut(_ context.Context, hs []model.EnrichedHighlight) error {
	if err := validateBatch(hs); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range hs {
		s.byID[h.ID] = clone(h)
	}
	return nil
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, id string, fn func(*model.EnrichedHighlight) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	h = clone(h)
	if err := fn(&h); err != nil {
		return err
	}
	h.ID = id
	s.byID[id] = h
	return nil
}

// Scan implements Store.
func (s *MemoryStore) Scan(_ context.Context, f model.HighlightFilter) ([]model.EnrichedHighlight, error) {
	s.mu.RLock()
	out := make([]model.EnrichedHighlight, 0, len(s.byID))
	for _, h := range s.byID {
		if f.Matches(h) {
			out = append(out, clone(h))
		}
	}
	s.mu.RUnlock()
	sortHighlights(out)
	return applyLimit(out, f.Limit), nil
}

// Count implements Store.
func (s *MemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

// Preferences implements PreferenceStore.
func (s *MemoryStore) Preferences(_ context.Context, userID string) ([]model.UserPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefs := s.preferences[userID]
	out := make([]model.UserPreference, len(prefs))
	copy(out, prefs)
	return out, nil
}

// SetPreferences implements PreferenceStore.
func (s *MemoryStore) SetPreferences(_ context.Context, userID string, prefs []model.UserPreference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferences[userID] = ownPreferences(userID, prefs)
	return nil
}

// clone deep-copies the slices and pointers of h so callers never share
// state with the store.
func clone(h model.EnrichedHighlight) model.EnrichedHighlight {
	h.Labels = append([]string(nil), h.Labels...)
	h.Teams = append([]string(nil), h.Teams...)
	h.Players = append([]string(nil), h.Players...)
	h.Entities = append([]model.Entity(nil), h.Entities...)
	h.KeyPhrases = append([]model.KeyPhrase(nil), h.KeyPhrases...)
	if h.Sentiment != nil {
		s := *h.Sentiment
		if s.Scores != nil {
			scores := make(map[string]float64, len(s.Scores))
			for k, v := range s.Scores {
				scores[k] = v
			}
			s.Scores = scores
		}
		h.Sentiment = &s
	}
	return h
}
