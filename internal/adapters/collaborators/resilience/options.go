package resilience

import (
	"time"

	"github.com/okian/highlights/pkg/logger"
)

// Option applies a configuration option to a Breaker.
type Option func(*config)

type config struct {
	maxRequests  uint32
	interval     time.Duration
	timeout      time.Duration
	minRequests  uint32
	failureRatio float64
	logger       logger.Logger
}

func defaultConfig() config {
	return config{
		maxRequests:  3,
		interval:     time.Minute,
		timeout:      30 * time.Second,
		minRequests:  10,
		failureRatio: 0.6,
		logger:       logger.Get().Named("breaker"),
	}
}

// WithMaxRequests sets how many probes pass while half-open.
func WithMaxRequests(n uint32) Option {
	return func(c *config) {
		if n > 0 {
			c.maxRequests = n
		}
	}
}

// WithInterval sets the closed-state window after which counts reset.
func WithInterval(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.interval = d
		}
	}
}

// WithTimeout sets how long the breaker stays open before probing.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTrip opens the breaker once at least minRequests were seen and the
// failure ratio reaches ratio.
func WithTrip(minRequests uint32, ratio float64) Option {
	return func(c *config) {
		if ratio > 0 && ratio <= 1 {
			c.minRequests = minRequests
			c.failureRatio = ratio
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
