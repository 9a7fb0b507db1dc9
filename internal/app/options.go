package service

import (
	"time"

	"github.com/okian/highlights/internal/adapters/mq/events"
	"github.com/okian/highlights/internal/adapters/repository"
	"github.com/okian/highlights/internal/domain/clip"
	"github.com/okian/highlights/internal/domain/clustering"
	"github.com/okian/highlights/internal/domain/enrichment"
	"github.com/okian/highlights/internal/domain/jobs"
	"github.com/okian/highlights/internal/domain/ranking"
	"github.com/okian/highlights/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of segment workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the segment queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds how many segment IDs are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithBatchSize sets how many highlights are written per store batch.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 && n <= repository.MaxBatchSize {
			s.batchSize = n
		}
	}
}

// WithPoolSize caps how many stored highlights are ranked per request.
func WithPoolSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.poolSize = n
		}
	}
}

// WithRescanSchedule sets the cron schedule of the clip rescan. Empty
// disables it.
func WithRescanSchedule(schedule string) Option {
	return func(s *Service) { s.rescanSchedule = schedule }
}

// WithRepository sets the highlight and preference store. The service
// closes it on Stop.
func WithRepository(r repository.Repository) Option {
	return func(s *Service) {
		if r != nil {
			s.repo = r
		}
	}
}

// WithBus sets the event bus. The service runs and closes it.
func WithBus(b *events.Bus) Option {
	return func(s *Service) {
		if b != nil {
			s.bus = b
		}
	}
}

// WithDetector sets the detection collaborator.
func WithDetector(d Detector) Option {
	return func(s *Service) {
		if d != nil {
			s.detector = d
		}
	}
}

// WithTranscoder sets the clip transcoder.
func WithTranscoder(t clip.Transcoder) Option {
	return func(s *Service) {
		if t != nil {
			s.transcoder = t
		}
	}
}

// WithRecommender enables the delegate ranking strategy.
func WithRecommender(r ranking.Recommender) Option {
	return func(s *Service) { s.recommender = r }
}

// WithRankingWeights sets the rule-based preference weights.
func WithRankingWeights(w ranking.Weights) Option {
	return func(s *Service) { s.weights = w }
}

// WithPollerOptions configures detection job polling.
func WithPollerOptions(opts ...jobs.Option) Option {
	return func(s *Service) { s.pollerOpts = append(s.pollerOpts, opts...) }
}

// WithClusteringOptions configures the clustering engine.
func WithClusteringOptions(opts ...clustering.Option) Option {
	return func(s *Service) { s.clusterOpts = append(s.clusterOpts, opts...) }
}

// WithEnrichmentOptions configures the merge layer, including its
// collaborators.
func WithEnrichmentOptions(opts ...enrichment.Option) Option {
	return func(s *Service) { s.enrichOpts = append(s.enrichOpts, opts...) }
}

// WithClipOptions configures the clip tracker.
func WithClipOptions(opts ...clip.Option) Option {
	return func(s *Service) { s.clipOpts = append(s.clipOpts, opts...) }
}

// WithClock overrides the segment creation clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
