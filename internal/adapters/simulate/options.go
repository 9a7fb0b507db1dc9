package simulate

import (
	"time"

	"github.com/okian/highlights/pkg/logger"
)

// Option applies a configuration option to a simulator.
type Option func(*config)

type config struct {
	latency     time.Duration
	failureRate float64
	seed        uint64
	logger      logger.Logger
}

func defaultConfig() config {
	return config{
		latency: 2 * time.Second,
		seed:    1,
		logger:  logger.Get().Named("simulate"),
	}
}

// WithLatency sets how long simulated jobs take.
func WithLatency(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.latency = d
		}
	}
}

// WithFailureRate sets the fraction of jobs that fail, in [0, 1].
func WithFailureRate(r float64) Option {
	return func(c *config) {
		if r >= 0 && r <= 1 {
			c.failureRate = r
		}
	}
}

// WithSeed fixes the random source used for failures.
func WithSeed(seed uint64) Option {
	return func(c *config) { c.seed = seed }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
