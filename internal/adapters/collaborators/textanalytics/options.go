package textanalytics

// Option applies a configuration option to the Analyzer.
type Option func(*config)

type config struct {
	languageCode string
}

// WithLanguage sets the BCP-47 language of analyzed text.
func WithLanguage(code string) Option {
	return func(c *config) {
		if code != "" {
			c.languageCode = code
		}
	}
}
