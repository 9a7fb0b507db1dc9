package ranking

import "errors"

var (
	// ErrNoStrategy is returned when every strategy in a chain failed.
	ErrNoStrategy = errors.New("no ranking strategy succeeded")
	// ErrNoRecommender is returned by a delegate without a recommender.
	ErrNoRecommender = errors.New("recommender not configured")
)
