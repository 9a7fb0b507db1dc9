package jobs

import (
	"time"

	"github.com/okian/highlights/pkg/logger"
)

// Option applies a configuration option to the Poller.
type Option func(*Poller)

// WithInterval sets the fixed delay between polls.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithMaxAttempts caps the number of polls; zero means unbounded.
func WithMaxAttempts(n int) Option {
	return func(p *Poller) {
		if n >= 0 {
			p.maxAttempts = n
		}
	}
}

// WithTimeout bounds the total wait; zero means unbounded.
func WithTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d >= 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}
