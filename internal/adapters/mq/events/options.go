package events

import (
	"time"

	"github.com/okian/highlights/pkg/logger"
)

// Option configures a Bus.
type Option func(*config)

type config struct {
	buffer          int64
	closeTimeout    time.Duration
	retries         int
	initialInterval time.Duration
	logger          logger.Logger
}

func defaultConfig() config {
	return config{
		buffer:          256,
		closeTimeout:    10 * time.Second,
		retries:         3,
		initialInterval: 100 * time.Millisecond,
		logger:          logger.Named("events"),
	}
}

// WithBuffer sets the per-subscriber channel buffer.
func WithBuffer(n int64) Option {
	return func(c *config) {
		if n > 0 {
			c.buffer = n
		}
	}
}

// WithRetry sets how often a failing handler is retried before the
// message is dropped.
func WithRetry(retries int, initial time.Duration) Option {
	return func(c *config) {
		if retries >= 0 {
			c.retries = retries
		}
		if initial > 0 {
			c.initialInterval = initial
		}
	}
}

// WithCloseTimeout bounds how long Close waits for running handlers.
func WithCloseTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.closeTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
