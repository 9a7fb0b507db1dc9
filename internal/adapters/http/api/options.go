package api

import "github.com/okian/highlights/pkg/logger"

const (
	defaultListLimit = 50
	defaultMaxLimit  = 200
	maxBodyBytes     = 1 << 20
)

type config struct {
	defaultLimit int
	maxLimit     int
	rateLimit    int
	corsOrigins  []string
	logger       logger.Logger
}

func defaultConfig() config {
	return config{
		defaultLimit: defaultListLimit,
		maxLimit:     defaultMaxLimit,
		logger:       logger.Named("api"),
	}
}

// Option configures the Server.
type Option func(*config)

// WithMaxLimit caps the limit query parameter. Requests above it are
// rejected.
func WithMaxLimit(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxLimit = n
			if c.defaultLimit > n {
				c.defaultLimit = n
			}
		}
	}
}

// WithRateLimit allows n requests per client IP per minute. Zero disables
// limiting.
func WithRateLimit(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.rateLimit = n
		}
	}
}

// WithCORSOrigins allows browser calls from the given origins. Empty
// disables CORS headers.
func WithCORSOrigins(origins ...string) Option {
	return func(c *config) { c.corsOrigins = origins }
}

// WithLogger sets the logger for failed requests.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
