package ranking

import (
	"context"
	"fmt"

	"github.com/okian/highlights/internal/domain/model"
)

// Recommender is an external service returning highlight IDs in the order
// a user should see them.
type Recommender interface {
	Recommend(ctx context.Context, userID string) ([]string, error)
}

// Delegate reorders the local pool to match a Recommender's answer.
type Delegate struct {
	recommender Recommender
}

// NewDelegate creates a delegate ranker.
func NewDelegate(r Recommender) *Delegate {
	return &Delegate{recommender: r}
}

// Name implements Ranker.
func (d *Delegate) Name() string { return "delegate" }

// Rank implements Ranker. IDs missing from pool are dropped; the score is
// the reverse position so higher still means better.
func (d *Delegate) Rank(ctx context.Context, userID string, pool []model.EnrichedHighlight, _ []model.UserPreference) ([]model.PersonalizedHighlight, error) {
	if d.recommender == nil {
		return nil, ErrNoRecommender
	}
	ids, err := d.recommender.Recommend(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("recommend for %q: %w", userID, err)
	}

	index := make(map[string]int, len(pool))
	for i, h := range pool {
		index[h.ID] = i
	}

	out := make([]model.PersonalizedHighlight, 0, len(ids))
	used := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		i, ok := index[id]
		if !ok {
			continue
		}
		if _, dup := used[id]; dup {
			continue
		}
		used[id] = struct{}{}
		out = append(out, model.PersonalizedHighlight{EnrichedHighlight: pool[i]})
	}
	for i := range out {
		out[i].PersonalizedScore = float64(len(out) - i)
	}
	return out, nil
}
