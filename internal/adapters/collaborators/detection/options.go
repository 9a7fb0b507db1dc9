package detection

import (
	"time"

	"github.com/okian/highlights/internal/adapters/collaborators/httpjson"
)

// Option applies a configuration option to the Client.
type Option func(*config)

type config struct {
	http          []httpjson.Option
	minConfidence float64
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.http = append(c.http, httpjson.WithTimeout(d)) }
}

// WithAPIKey authenticates with a bearer token.
func WithAPIKey(key string) Option {
	return func(c *config) {
		if key != "" {
			c.http = append(c.http, httpjson.WithBearerToken(key))
		}
	}
}

// WithMinConfidence asks the service to drop labels below c (0-100).
func WithMinConfidence(v float64) Option {
	return func(c *config) {
		if v >= 0 && v <= 100 {
			c.minConfidence = v
		}
	}
}
