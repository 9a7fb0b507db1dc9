package contextual

import openai "github.com/sashabaranov/go-openai"

// Option applies a configuration option to the Analyzer.
type Option func(*config)

type config struct {
	model       string
	baseURL     string
	temperature float32
	maxTokens   int
}

func defaultConfig() config {
	return config{
		model:       openai.GPT4oMini,
		temperature: 0.2,
		maxTokens:   2048,
	}
}

// WithModel selects the chat model.
func WithModel(m string) Option {
	return func(c *config) {
		if m != "" {
			c.model = m
		}
	}
}

// WithBaseURL points the client at a compatible endpoint.
func WithBaseURL(u string) Option {
	return func(c *config) { c.baseURL = u }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(c *config) {
		if t >= 0 && t <= 2 {
			c.temperature = t
		}
	}
}

// WithMaxTokens caps the reply length.
func WithMaxTokens(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}
