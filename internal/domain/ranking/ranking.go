// Package ranking orders a viewer's highlight pool by their preferences.
// Rankings are computed per request and never cached.
package ranking

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/highlights/internal/domain/model"
	"github.com/okian/highlights/pkg/logger"
	"github.com/okian/highlights/pkg/metrics"
)

// Ranker produces a personalized ordering of pool.
type Ranker interface {
	Name() string
	Rank(ctx context.Context, userID string, pool []model.EnrichedHighlight, prefs []model.UserPreference) ([]model.PersonalizedHighlight, error)
}

// Chain tries each ranker in order and returns the first success.
type Chain struct {
	rankers []Ranker
	logger  logger.Logger
}

// NewChain builds a chain. A RuleBased ranker is appended when the last
// ranker is not one, so the chain always has an infallible terminal step.
func NewChain(l logger.Logger, rankers ...Ranker) *Chain {
	if l == nil {
		l = logger.Named("ranking")
	}
	rs := make([]Ranker, 0, len(rankers)+1)
	for _, r := range rankers {
		if r != nil {
			rs = append(rs, r)
		}
	}
	if len(rs) == 0 {
		rs = append(rs, NewRuleBased())
	} else if _, ok := rs[len(rs)-1].(*RuleBased); !ok {
		rs = append(rs, NewRuleBased())
	}
	return &Chain{rankers: rs, logger: l}
}

// Name implements Ranker.
func (c *Chain) Name() string { return "chain" }

// Rank implements Ranker.
func (c *Chain) Rank(ctx context.Context, userID string, pool []model.EnrichedHighlight, prefs []model.UserPreference) ([]model.PersonalizedHighlight, error) {
	var lastErr error
	for _, r := range c.rankers {
		start := time.Now()
		out, err := r.Rank(ctx, userID, pool, prefs)
		if err == nil {
			metrics.RecordRanking(r.Name(), time.Since(start).Seconds())
			return out, nil
		}
		lastErr = err
		metrics.RecordErrorByComponent("ranking", r.Name())
		c.logger.Warn(ctx, "ranking strategy failed, falling back",
			logger.String("strategy", r.Name()),
			logger.String("user_id", userID),
			logger.Error(err))
	}
	return nil, fmt.Errorf("%w: %w", ErrNoStrategy, lastErr)
}
