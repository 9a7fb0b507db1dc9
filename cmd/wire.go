package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/okian/highlights/internal/adapters/collaborators/contextual"
	"github.com/okian/highlights/internal/adapters/collaborators/detection"
	"github.com/okian/highlights/internal/adapters/collaborators/recommender"
	"github.com/okian/highlights/internal/adapters/collaborators/resilience"
	"github.com/okian/highlights/internal/adapters/collaborators/textanalytics"
	"github.com/okian/highlights/internal/adapters/collaborators/transcoder"
	"github.com/okian/highlights/internal/adapters/mq/events"
	"github.com/okian/highlights/internal/adapters/repository"
	"github.com/okian/highlights/internal/adapters/simulate"
	app "github.com/okian/highlights/internal/app"
	"github.com/okian/highlights/internal/config"
	"github.com/okian/highlights/internal/domain/clip"
	"github.com/okian/highlights/internal/domain/clustering"
	"github.com/okian/highlights/internal/domain/enrichment"
	"github.com/okian/highlights/internal/domain/jobs"
	"github.com/okian/highlights/internal/domain/ranking"
	"github.com/okian/highlights/pkg/logger"
)

const simulatedMediaBase = "memory://media"

// serviceOptions turns cfg into service options. Collaborators with an
// endpoint or key configured are real and guarded by a circuit breaker;
// the rest are simulated. The returned closers release collaborator
// clients the service does not own.
func serviceOptions(ctx context.Context, cfg *config.Config, log logger.Logger) ([]app.Option, []func() error, error) {
	var closers []func() error
	sim := []simulate.Option{
		simulate.WithLatency(cfg.SimulateLatency()),
		simulate.WithFailureRate(cfg.SimulateFailureRate),
		simulate.WithLogger(log.Named("simulate")),
	}
	breaker := func(name string) *resilience.Breaker {
		return resilience.New(name,
			resilience.WithTimeout(cfg.BreakerTimeout()),
			resilience.WithTrip(uint32(cfg.BreakerMinRequests), cfg.BreakerFailureRatio), //nolint:gosec // validated positive
			resilience.WithLogger(log.Named("breaker")),
		)
	}

	repo, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	bus, err := events.NewBus(events.WithLogger(log.Named("events")))
	if err != nil {
		_ = repo.Close()
		return nil, nil, fmt.Errorf("create event bus: %w", err)
	}

	fail := func(err error) ([]app.Option, []func() error, error) {
		_ = bus.Close()
		_ = repo.Close()
		for _, c := range closers {
			_ = c()
		}
		return nil, nil, err
	}

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithRepository(repo),
		app.WithBus(bus),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithBatchSize(cfg.BatchSize),
		app.WithPoolSize(cfg.PoolSize),
		app.WithRescanSchedule(cfg.RescanSchedule),
		app.WithRankingWeights(ranking.Weights{
			Team: cfg.WeightTeam, Player: cfg.WeightPlayer, PlayType: cfg.WeightPlayType, Sport: cfg.WeightSport,
		}),
		app.WithPollerOptions(
			jobs.WithInterval(cfg.PollInterval()),
			jobs.WithMaxAttempts(cfg.PollMaxAttempts),
			jobs.WithTimeout(cfg.PollTimeout()),
			jobs.WithLogger(log.Named("jobs")),
		),
		app.WithClipOptions(
			clip.WithFrameRate(cfg.ClipFrameRate),
			clip.WithDestination(cfg.ClipDestination),
			clip.WithLogger(log.Named("clips")),
		),
	}

	clusterOpts := []clustering.Option{
		clustering.WithMinConfidence(cfg.MinConfidence),
		clustering.WithMaxConfidence(cfg.MaxConfidence),
		clustering.WithMaxGap(cfg.MaxGap()),
		clustering.WithMinTimestamps(cfg.MinTimestamps),
	}
	if len(cfg.Labels) > 0 {
		clusterOpts = append(clusterOpts, clustering.WithLabels(cfg.Labels))
	}
	opts = append(opts, app.WithClusteringOptions(clusterOpts...))

	if cfg.DetectionURL != "" {
		d, err := detection.New(cfg.DetectionURL,
			detection.WithAPIKey(cfg.DetectionAPIKey),
			detection.WithTimeout(cfg.CollaboratorTimeout()),
			detection.WithMinConfidence(cfg.MinConfidence),
		)
		if err != nil {
			return fail(err)
		}
		opts = append(opts, app.WithDetector(d))
	} else {
		opts = append(opts, app.WithDetector(simulate.NewDetector(sim...)))
	}

	if cfg.TranscoderURL != "" {
		t, err := transcoder.New(cfg.TranscoderURL,
			transcoder.WithAPIKey(cfg.TranscoderAPIKey),
			transcoder.WithCallbackURL(cfg.TranscoderCallbackURL),
			transcoder.WithTimeout(cfg.CollaboratorTimeout()),
		)
		if err != nil {
			return fail(err)
		}
		opts = append(opts, app.WithTranscoder(resilience.Transcoder(breaker("transcoder"), t)))
	} else {
		opts = append(opts, app.WithTranscoder(simulate.NewTranscoder(bus, simulatedMediaBase, sim...)))
	}

	if cfg.RecommenderURL != "" {
		r, err := recommender.New(cfg.RecommenderURL,
			recommender.WithAPIKey(cfg.RecommenderAPIKey),
			recommender.WithTimeout(cfg.CollaboratorTimeout()),
		)
		if err != nil {
			return fail(err)
		}
		opts = append(opts, app.WithRecommender(resilience.Recommender(breaker("recommender"), r)))
	}

	enrichOpts := []enrichment.Option{
		enrichment.WithConcurrency(cfg.EnrichConcurrency),
		enrichment.WithRateLimit(cfg.TextRateLimit, cfg.TextRateBurst),
		enrichment.WithSentimentThreshold(cfg.SentimentThreshold),
		enrichment.WithLogger(log.Named("enrichment")),
	}
	if cfg.OpenAIAPIKey != "" {
		a := contextual.New(cfg.OpenAIAPIKey,
			contextual.WithModel(cfg.OpenAIModel),
			contextual.WithBaseURL(cfg.OpenAIBaseURL),
		)
		enrichOpts = append(enrichOpts, enrichment.WithContextualAnalyzer(resilience.Contextual(breaker("contextual"), a)))
	} else {
		enrichOpts = append(enrichOpts, enrichment.WithContextualAnalyzer(simulate.Contextual{}))
	}
	if cfg.TextAnalytics {
		creds, err := credentials(cfg)
		if err != nil {
			return fail(err)
		}
		a, err := textanalytics.New(ctx, creds)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, a.Close)
		enrichOpts = append(enrichOpts, enrichment.WithTextAnalyzer(resilience.Text(breaker("text"), a)))
	} else {
		enrichOpts = append(enrichOpts, enrichment.WithTextAnalyzer(simulate.Text{}))
	}
	opts = append(opts, app.WithEnrichmentOptions(enrichOpts...))

	return opts, closers, nil
}

func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Repository, error) {
	switch cfg.Store {
	case config.StoreBadger:
		return repository.OpenBadgerStore(
			repository.WithBadgerPath(cfg.BadgerPath),
			repository.WithBadgerLogger(log.Named("badger")),
		)
	case config.StoreFirestore:
		creds, err := credentials(cfg)
		if err != nil {
			return nil, err
		}
		return repository.OpenFirestoreStore(ctx, cfg.FirestoreProject, creds)
	default:
		return repository.NewMemoryStore(ctx, repository.WithMetricsUpdateInterval(10*time.Second)), nil
	}
}

// credentials reads the service-account file; none means application
// default credentials.
func credentials(cfg *config.Config) ([]byte, error) {
	if cfg.GoogleCredentialsFile == "" {
		return nil, nil
	}
	b, err := os.ReadFile(cfg.GoogleCredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read google credentials: %w", err)
	}
	return b, nil
}
