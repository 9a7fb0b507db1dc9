// Package service wires the highlight pipeline together and exposes the
// operations the HTTP API serves.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/highlights/internal/adapters/mq/events"
	"github.com/okian/highlights/internal/adapters/mq/queue"
	"github.com/okian/highlights/internal/adapters/mq/worker"
	"github.com/okian/highlights/internal/adapters/repository"
	"github.com/okian/highlights/internal/adapters/simulate"
	"github.com/okian/highlights/internal/domain/clip"
	"github.com/okian/highlights/internal/domain/clustering"
	"github.com/okian/highlights/internal/domain/dedupe"
	"github.com/okian/highlights/internal/domain/enrichment"
	"github.com/okian/highlights/internal/domain/jobs"
	"github.com/okian/highlights/internal/domain/model"
	"github.com/okian/highlights/internal/domain/ranking"
	"github.com/okian/highlights/internal/validation"
	"github.com/okian/highlights/pkg/logger"
	"github.com/okian/highlights/pkg/metrics"
)

const (
	defaultQueueSize   = 1024
	defaultDedupeSize  = 50_000
	defaultPoolSize    = 500
	defaultStatusSize  = 10_000
	defaultRescan      = "@every 10m"
	busStartTimeout    = 5 * time.Second
	simulatedMediaBase = "memory://media"
	completionHandler  = "clip-completion"
	persistedHandler   = "clip-submission"
)

// Service runs the segment pipeline and serves highlight queries.
type Service struct {
	mu sync.RWMutex

	// Components
	repo        repository.Repository
	bus         *events.Bus
	detector    Detector
	transcoder  clip.Transcoder
	recommender ranking.Recommender
	queue       *queue.InMemoryQueue
	pool        *worker.Pool
	pipeline    *Pipeline
	tracker     *clip.Tracker
	ranker      *ranking.Chain
	guard       dedupe.Guard
	statuses    *statusBook
	cron        *cron.Cron

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	batchSize      int
	poolSize       int
	rescanSchedule string
	weights        ranking.Weights
	pollerOpts     []jobs.Option
	clusterOpts    []clustering.Option
	enrichOpts     []enrichment.Option
	clipOpts       []clip.Option
	now            func() time.Time

	// State
	started bool
	cancel  context.CancelFunc
	busDone chan struct{}

	logger logger.Logger
}

// New constructs a Service. Collaborators left unset are replaced on Start
// by in-memory storage and local simulators.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU() * 2,
		queueSize:      defaultQueueSize,
		dedupeSize:     defaultDedupeSize,
		batchSize:      defaultBatchSize,
		poolSize:       defaultPoolSize,
		rescanSchedule: defaultRescan,
		weights:        ranking.DefaultWeights(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the pipeline and starts the workers, the event bus and the
// rescan schedule.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting highlight service...")

	runCtx, cancel := context.WithCancel(context.Background())

	if s.repo == nil {
		s.repo = repository.NewMemoryStore(runCtx)
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.bus == nil {
		bus, err := events.NewBus(events.WithLogger(s.logger.Named("events")))
		if err != nil {
			cancel()
			return fmt.Errorf("create event bus: %w", err)
		}
		s.bus = bus
	}
	if s.detector == nil {
		s.detector = simulate.NewDetector(simulate.WithLogger(s.logger))
		s.logger.Info(ctx, "using simulated detection")
	}
	if s.transcoder == nil {
		s.transcoder = simulate.NewTranscoder(s.bus, simulatedMediaBase, simulate.WithLogger(s.logger))
		s.logger.Info(ctx, "using simulated transcoder")
	}

	s.tracker = clip.New(s.repo, s.transcoder, s.clipOpts...)
	s.bus.OnPersisted(persistedHandler, func(ctx context.Context, e events.HighlightPersisted) error {
		return s.tracker.OnPersisted(ctx, e.HighlightID)
	})
	s.bus.OnCompletion(completionHandler, s.tracker.OnCompletion)

	s.busDone = make(chan struct{})
	go func() {
		defer close(s.busDone)
		if err := s.bus.Run(runCtx); err != nil {
			s.logger.Error(runCtx, "event bus stopped", logger.Error(err))
		}
	}()
	select {
	case <-s.bus.Running():
	case <-time.After(busStartTimeout):
		cancel()
		return errors.New("event bus did not start")
	}

	rankers := []ranking.Ranker{}
	if s.recommender != nil {
		rankers = append(rankers, ranking.NewDelegate(s.recommender))
	}
	rankers = append(rankers, ranking.NewRuleBased(ranking.WithWeights(s.weights)))
	s.ranker = ranking.NewChain(s.logger.Named("ranking"), rankers...)

	s.pipeline = &Pipeline{
		detector:  s.detector,
		poller:    jobs.New("detection", s.pollerOpts...),
		engine:    clustering.New(s.clusterOpts...),
		merger:    enrichment.New(s.enrichOpts...),
		store:     s.repo,
		publisher: s.bus,
		batchSize: s.batchSize,
		logger:    s.logger.Named("pipeline"),
	}
	s.guard = dedupe.NewInMemoryGuard(dedupe.WithMaxSize(s.dedupeSize))
	s.statuses = newStatusBook(defaultStatusSize)
	s.statuses.now = s.now
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, segmentProcessor{s: s})
	s.pool.Start(runCtx)

	if s.rescanSchedule != "" {
		s.cron = cron.New()
		if _, err := s.cron.AddFunc(s.rescanSchedule, func() { s.scheduledRescan(runCtx) }); err != nil {
			cancel()
			return fmt.Errorf("schedule clip rescan %q: %w", s.rescanSchedule, err)
		}
		s.cron.Start()
	}

	s.cancel = cancel
	s.started = true
	metrics.UpdateWorkerCount(s.workerCount)
	s.logger.Info(ctx, "highlight service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("batchSize", s.batchSize),
		logger.String("rescan", s.rescanSchedule))
	return nil
}

// Stop drains queued segments and shuts everything down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping highlight service...")

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	if c, ok := s.transcoder.(interface{ Close() error }); ok {
		_ = c.Close()
	}
	if err := s.bus.Close(); err != nil {
		s.logger.Warn(ctx, "event bus close", logger.Error(err))
	}
	s.cancel()
	<-s.busDone
	if err := s.repo.Close(); err != nil {
		s.logger.Warn(ctx, "store close", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "highlight service stopped")
}

func (s *Service) running() error {
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Submit validates seg and queues it. A segment ID is accepted once;
// resubmitting it is ErrDuplicateSegment unless its earlier run failed.
func (s *Service) Submit(ctx context.Context, seg model.Segment) (model.SegmentStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.running(); err != nil {
		return model.SegmentStatus{}, err
	}
	if err := validation.Struct(seg); err != nil {
		return model.SegmentStatus{}, err
	}
	if !s.guard.Claim(ctx, seg.ID) {
		metrics.RecordSegmentDuplicate()
		s.logger.Debug(ctx, "duplicate segment rejected", logger.String("segment_id", seg.ID))
		return model.SegmentStatus{}, fmt.Errorf("%w: %s", ErrDuplicateSegment, seg.ID)
	}
	seg.CreatedAt = s.statuses.creation(seg.ID, seg.CreatedAt)
	s.statuses.set(seg.ID, model.SegmentQueued, 0, "")
	if err := s.queue.Enqueue(ctx, seg); err != nil {
		s.guard.Release(ctx, seg.ID)
		s.statuses.set(seg.ID, model.SegmentFailed, 0, err.Error())
		return model.SegmentStatus{}, fmt.Errorf("%w: %w", ErrBusy, err)
	}
	metrics.RecordSegmentSubmitted()
	metrics.UpdateQueueSize(s.queue.Len(ctx))

	st, _ := s.statuses.get(seg.ID)
	return st, nil
}

// SegmentStatus reports the progress of a submitted segment.
func (s *Service) SegmentStatus(_ context.Context, id string) (model.SegmentStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.running(); err != nil {
		return model.SegmentStatus{}, err
	}
	st, ok := s.statuses.get(id)
	if !ok {
		return model.SegmentStatus{}, fmt.Errorf("%w: %s", ErrSegmentNotFound, id)
	}
	return st, nil
}

// segmentProcessor adapts the pipeline to worker.Processor and keeps the
// segment's status current.
type segmentProcessor struct {
	s *Service
}

func (p segmentProcessor) Process(ctx context.Context, seg queue.Segment) error { //nolint:gocritic // hugeParam: matches worker.Processor
	s := p.s
	start := time.Now()
	s.statuses.set(seg.ID, model.SegmentProcessing, 0, "")

	n, err := s.pipeline.Run(ctx, seg)
	if err != nil {
		s.guard.Release(ctx, seg.ID)
		s.statuses.set(seg.ID, model.SegmentFailed, n, err.Error())
		metrics.RecordSegmentFinished(string(model.SegmentFailed), time.Since(start).Seconds())
		return fmt.Errorf("segment %s: %w", seg.ID, err)
	}
	s.statuses.set(seg.ID, model.SegmentCompleted, n, "")
	metrics.RecordSegmentFinished(string(model.SegmentCompleted), time.Since(start).Seconds())
	return nil
}

// Highlights lists stored highlights, newest first.
func (s *Service) Highlights(ctx context.Context, f model.HighlightFilter) ([]model.EnrichedHighlight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.repo.Scan(ctx, f)
}

// Highlight returns one stored highlight.
func (s *Service) Highlight(ctx context.Context, id string) (model.EnrichedHighlight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.running(); err != nil {
		return model.EnrichedHighlight{}, err
	}
	return s.repo.Get(ctx, id)
}

// Personalized ranks the enriched highlight pool for userID and returns at
// most limit entries (all when limit <= 0).
func (s *Service) Personalized(ctx context.Context, userID string, limit int) ([]model.PersonalizedHighlight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.running(); err != nil {
		return nil, err
	}
	prefs, err := s.repo.Preferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	pool, err := s.repo.Scan(ctx, model.HighlightFilter{EnrichmentComplete: model.Bool(true), Limit: s.poolSize})
	if err != nil {
		return nil, fmt.Errorf("load highlight pool: %w", err)
	}
	ranked, err := s.ranker.Rank(ctx, userID, pool, prefs)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// Preferences returns the stored preferences of userID.
func (s *Service) Preferences(ctx context.Context, userID string) ([]model.UserPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.repo.Preferences(ctx, userID)
}

// SetPreferences validates and replaces the preferences of userID.
func (s *Service) SetPreferences(ctx context.Context, userID string, prefs []model.UserPreference) ([]model.UserPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.running(); err != nil {
		return nil, err
	}
	out := make([]model.UserPreference, len(prefs))
	for i, p := range prefs {
		if t, ok := model.ParsePreferenceType(string(p.Type)); ok {
			p.Type = t
		}
		if err := validation.Struct(p); err != nil {
			return nil, fmt.Errorf("preference %d: %w", i, err)
		}
		p.UserID = userID
		out[i] = p
	}
	if err := s.repo.SetPreferences(ctx, userID, out); err != nil {
		return nil, err
	}
	return out, nil
}

// RescanClips submits clip jobs for highlights that have none.
func (s *Service) RescanClips(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.running(); err != nil {
		return 0, err
	}
	return s.tracker.Rescan(ctx)
}

func (s *Service) scheduledRescan(ctx context.Context) {
	n, err := s.tracker.Rescan(ctx)
	if err != nil {
		s.logger.Warn(ctx, "scheduled clip rescan incomplete", logger.Int("submitted", n), logger.Error(err))
	}
}

// CompleteClip accepts a transcoder completion and hands it to the clip
// tracker through the event bus.
func (s *Service) CompleteClip(ctx context.Context, c clip.Completion) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.running(); err != nil {
		return err
	}
	if err := validation.Struct(c); err != nil {
		return err
	}
	return s.bus.PublishCompletion(ctx, c)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"batchSize":   s.batchSize,
	}
	if !s.started {
		return stats
	}

	queueLen := s.queue.Len(ctx)
	stats["queueLength"] = queueLen
	stats["segmentsProcessed"] = s.pool.Processed()
	stats["segmentsTracked"] = s.guard.Size()
	states := s.statuses.counts()
	segs := make(map[string]int, len(states))
	for k, v := range states {
		segs[string(k)] = v
	}
	stats["segments"] = segs
	if n, err := s.repo.Count(ctx); err == nil {
		stats["highlights"] = n
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateWorkerCount(s.workerCount)
	metrics.UpdateSystemMemoryUsage(mem.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	return stats
}
