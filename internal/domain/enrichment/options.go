package enrichment

import (
	"golang.org/x/time/rate"

	"github.com/okian/highlights/pkg/logger"
)

// Option configures a Merger.
type Option func(*Merger)

// WithContextualAnalyzer sets the generative collaborator. Without one every
// candidate takes the contextual fallback.
func WithContextualAnalyzer(a ContextualAnalyzer) Option {
	return func(m *Merger) {
		m.contextual = a
	}
}

// WithTextAnalyzer sets the text-analytics collaborator. Without one every
// candidate takes the text fallback.
func WithTextAnalyzer(a TextAnalyzer) Option {
	return func(m *Merger) {
		m.text = a
	}
}

// WithDefaults overrides fallback values. Zero fields keep the standard ones.
func WithDefaults(d Defaults) Option {
	return func(m *Merger) {
		m.defaults = d.merge()
	}
}

// WithConcurrency bounds parallel text-analytics calls.
func WithConcurrency(n int) Option {
	return func(m *Merger) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithRateLimit caps text-analytics calls per second. rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(m *Merger) {
		if rps <= 0 {
			m.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		m.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithSentimentThreshold sets the minimum dominant sentiment score that
// changes the emotional tone.
func WithSentimentThreshold(t float64) Option {
	return func(m *Merger) {
		if t > 0 && t <= 1 {
			m.sentimentThreshold = t
		}
	}
}

// WithMinEntityScore drops detected entities below s before folding them
// into teams and players.
func WithMinEntityScore(s float64) Option {
	return func(m *Merger) {
		m.minEntityScore = s
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Merger) {
		if l != nil {
			m.logger = l
		}
	}
}
