package transcoder

import (
	"time"

	"github.com/okian/highlights/internal/adapters/collaborators/httpjson"
)

// Option applies a configuration option to the Client.
type Option func(*config)

type config struct {
	http     []httpjson.Option
	callback string
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

// WithCallbackURL asks the service to post completions to u.
func WithCallbackURL(u string) Option {
	return func(c *config) { c.callback = u }
}
