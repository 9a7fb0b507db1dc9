package repository

import (
	"time"

	"github.com/okian/highlights/pkg/logger"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// BadgerOption configures a BadgerStore.
type BadgerOption func(*badgerConfig)

type badgerConfig struct {
	path          string
	inMemory      bool
	updateRetries int
	logger        logger.Logger
}

// WithBadgerPath sets the data directory.
func WithBadgerPath(path string) BadgerOption {
	return func(c *badgerConfig) {
		c.path = path
	}
}

// WithBadgerInMemory keeps all data in memory. Used by tests.
func WithBadgerInMemory() BadgerOption {
	return func(c *badgerConfig) {
		c.inMemory = true
		c.path = ""
	}
}

// WithUpdateRetries sets how often a conflicting Update is retried.
func WithUpdateRetries(n int) BadgerOption {
	return func(c *badgerConfig) {
		if n > 0 {
			c.updateRetries = n
		}
	}
}

// WithBadgerLogger routes badger's own logs through l.
func WithBadgerLogger(l logger.Logger) BadgerOption {
	return func(c *badgerConfig) {
		c.logger = l
	}
}

// FirestoreOption configures a FirestoreStore.
type FirestoreOption func(*FirestoreStore)

// WithCollections overrides the highlight and preference collection names.
func WithCollections(highlights, preferences string) FirestoreOption {
	return func(s *FirestoreStore) {
		if highlights != "" {
			s.highlights = highlights
		}
		if preferences != "" {
			s.preferences = preferences
		}
	}
}

// WithTransactionAttempts bounds how often a contended Update is retried.
func WithTransactionAttempts(n int) FirestoreOption {
	return func(s *FirestoreStore) {
		if n > 0 {
			s.txAttempts = n
		}
	}
}
