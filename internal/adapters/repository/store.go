// Package repository persists enriched highlights and viewer preferences.
package repository

import (
	"context"
	"sort"

	"github.com/okian/highlights/internal/domain/model"
)

// MaxBatchSize bounds a single BatchPut call.
const MaxBatchSize = 500

// Store provides read/write access to enriched highlights. Writes are
// per-highlight upserts keyed by ID; a batch is not transactional.
type Store interface {
	// Get returns ErrNotFound if the highlight is unknown.
	Get(ctx context.Context, id string) (model.EnrichedHighlight, error)
	// BatchPut upserts every highlight in hs.
	BatchPut(ctx context.Context, hs []model.EnrichedHighlight) error
	// Update applies fn to the stored highlight atomically. Nothing is
	// written when fn returns an error, which Update returns unchanged.
	Update(ctx context.Context, id string, fn func(*model.EnrichedHighlight) error) error
	// Scan returns matching highlights, newest first.
	Scan(ctx context.Context, f model.HighlightFilter) ([]model.EnrichedHighlight, error)
	// Count returns the number of stored highlights.
	Count(ctx context.Context) (int, error)
}

// PreferenceStore keeps each viewer's preference set.
type PreferenceStore interface {
	// Preferences returns an empty set for unknown users.
	Preferences(ctx context.Context, userID string) ([]model.UserPreference, error)
	// SetPreferences replaces the user's whole preference set.
	SetPreferences(ctx context.Context, userID string, prefs []model.UserPreference) error
}

// Repository is a backend serving both stores.
type Repository interface {
	Store
	PreferenceStore
	Close() error
}

// sortHighlights orders newest first, then by source and ordinal.
func sortHighlights(hs []model.EnrichedHighlight) {
	sort.SliceStable(hs, func(i, j int) bool {
		a, b := hs[i], hs[j]
		if !a.Created.Equal(b.Created) {
			return a.Created.After(b.Created)
		}
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.Ordinal != b.Ordinal {
			return a.Ordinal < b.Ordinal
		}
		return a.ID < b.ID
	})
}

func applyLimit(hs []model.EnrichedHighlight, limit int) []model.EnrichedHighlight {
	if limit > 0 && len(hs) > limit {
		return hs[:limit]
	}
	return hs
}

func validateBatch(hs []model.EnrichedHighlight) error {
	if len(hs) > MaxBatchSize {
		return ErrBatchTooLarge
	}
	for _, h := range hs {
		if h.ID == "" {
			return ErrInvalidID
		}
	}
	return nil
}

// ownPreferences stamps userID on every preference.
func ownPreferences(userID string, prefs []model.UserPreference) []model.UserPreference {
	out := make([]model.UserPreference, len(prefs))
	for i, p := range prefs {
		p.UserID = userID
		out[i] = p
	}
	return out
}
