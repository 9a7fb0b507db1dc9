package clip

import (
	"github.com/okian/highlights/internal/domain/dedupe"
	"github.com/okian/highlights/pkg/logger"
)

// Option configures a Tracker.
type Option func(*Tracker)

// WithGuard sets the in-flight guard used against double submission.
func WithGuard(g dedupe.Guard) Option {
	return func(t *Tracker) {
		t.guard = g
	}
}

// WithFrameRate sets the frame rate used for timecodes.
func WithFrameRate(fps int) Option {
	return func(t *Tracker) {
		if fps > 0 {
			t.frameRate = fps
		}
	}
}

// WithDestination sets the output prefix for rendered clips.
func WithDestination(prefix string) Option {
	return func(t *Tracker) {
		if prefix != "" {
			t.destination = prefix
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}
