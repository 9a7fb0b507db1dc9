package clustering

import "time"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLabels replaces the allow-list of interesting labels.
func WithLabels(labels []string) Option {
	return func(e *Engine) {
		if len(labels) > 0 {
			e.allowed = labelSet(labels)
		}
	}
}

// WithMaxGap sets the gap that splits two clusters.
func WithMaxGap(gap time.Duration) Option {
	return func(e *Engine) {
		if gap > 0 {
			e.maxGapMillis = gap.Milliseconds()
		}
	}
}

// WithMinTimestamps sets how many distinct timestamps a cluster needs.
func WithMinTimestamps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minTimestamps = n
		}
	}
}

// WithMinConfidence sets the exclusive confidence floor for detections.
func WithMinConfidence(c float64) Option {
	return func(e *Engine) {
		if c >= 0 {
			e.minConfidence = c
		}
	}
}

// WithCrowdBoost sets the person count above which confidence is multiplied
// by factor.
func WithCrowdBoost(threshold int, factor float64) Option {
	return func(e *Engine) {
		if threshold >= 0 && factor >= 1 {
			e.crowdThreshold = threshold
			e.crowdBoost = factor
		}
	}
}

// WithMaxConfidence caps boosted confidence.
func WithMaxConfidence(limit float64) Option {
	return func(e *Engine) {
		if limit > 0 {
			e.maxConfidence = limit
		}
	}
}
