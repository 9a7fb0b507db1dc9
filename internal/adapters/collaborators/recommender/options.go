package recommender

import (
	"time"

	"github.com/okian/highlights/internal/adapters/collaborators/httpjson"
)

// Option applies a configuration option to the Client.
type Option func(*config)

type config struct {
	http  []httpjson.Option
	limit int
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

// WithLimit caps how many IDs are requested.
func WithLimit(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.limit = n
		}
	}
}
