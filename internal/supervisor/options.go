package supervisor

import (
	"log/slog"
	"time"

	"github.com/okian/highlights/pkg/logger"
)

type config struct {
	name             string
	failureThreshold float64
	failureDecay     float64
	failureBackoff   time.Duration
	shutdownTimeout  time.Duration
	slog             *slog.Logger
}

func defaultConfig() config {
	return config{
		name:             "highlights",
		failureThreshold: 5,
		failureDecay:     30,
		failureBackoff:   15 * time.Second,
		shutdownTimeout:  10 * time.Second,
		slog:             logger.Slog(),
	}
}

// Option configures the Tree.
type Option func(*config)

// WithName names the root supervisor in logs.
func WithName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
	}
}

// WithFailurePolicy sets how many failures (decaying over decay seconds)
// put a supervisor into backoff, and for how long.
func WithFailurePolicy(threshold, decay float64, backoff time.Duration) Option {
	return func(c *config) {
		if threshold > 0 {
			c.failureThreshold = threshold
		}
		if decay > 0 {
			c.failureDecay = decay
		}
		if backoff > 0 {
			c.failureBackoff = backoff
		}
	}
}

// WithShutdownTimeout bounds how long each service may take to stop.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

// WithSlog sets the logger supervision events are written to.
func WithSlog(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.slog = l
		}
	}
}
