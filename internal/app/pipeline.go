package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/okian/highlights/internal/adapters/mq/events"
	"github.com/okian/highlights/internal/adapters/repository"
	"github.com/okian/highlights/internal/domain/clustering"
	"github.com/okian/highlights/internal/domain/enrichment"
	"github.com/okian/highlights/internal/domain/jobs"
	"github.com/okian/highlights/internal/domain/model"
	"github.com/okian/highlights/pkg/logger"
	"github.com/okian/highlights/pkg/metrics"
)

const defaultBatchSize = 25

// Detector runs the asynchronous label detection and person tracking jobs
// of a video.
type Detector interface {
	StartLabelDetection(ctx context.Context, videoRef string) (string, error)
	GetLabelDetection(ctx context.Context, jobID string) (jobs.Status, []model.DetectionEvent, string, error)
	StartPersonTracking(ctx context.Context, videoRef string) (string, error)
	GetPersonTracking(ctx context.Context, jobID string) (jobs.Status, []model.PersonTrack, string, error)
}

// Publisher announces stored highlights.
type Publisher interface {
	PublishPersisted(ctx context.Context, e events.HighlightPersisted) error
}

// Pipeline turns one segment into persisted, enriched highlights.
type Pipeline struct {
	detector  Detector
	poller    *jobs.Poller
	engine    *clustering.Engine
	merger    *enrichment.Merger
	store     repository.Store
	publisher Publisher
	batchSize int
	logger    logger.Logger
}

// Run detects, clusters, enriches and stores the highlights of seg, then
// publishes one persisted event per stored highlight. It returns how many
// highlights were stored. A failed detection or tracking job stores
// nothing. Batches are written independently; IDs are deterministic, so a
// rerun after a partial failure overwrites rather than duplicates.
func (p *Pipeline) Run(ctx context.Context, seg model.Segment) (int, error) {
	log := p.logger.With(logger.String("segment_id", seg.ID), logger.String("source_id", seg.SourceID))

	detections, tracks, err := p.detect(ctx, seg.VideoRef)
	if err != nil {
		return 0, err
	}

	candidates := p.engine.Cluster(detections, tracks)
	metrics.RecordCandidates(len(candidates))
	log.Debug(ctx, "segment clustered",
		logger.Int("detections", len(detections)),
		logger.Int("tracks", len(tracks)),
		logger.Int("candidates", len(candidates)))
	if len(candidates) == 0 {
		return 0, nil
	}

	highlights := p.merger.Enrich(ctx, enrichment.SegmentContext{
		SourceID: seg.SourceID,
		GameType: seg.GameType,
		Teams:    seg.Teams,
		Players:  seg.Players,
	}, candidates)
	for i := range highlights {
		h := &highlights[i]
		h.ID = model.HighlightID(seg.SourceID, seg.CreatedAt, h.Ordinal)
		h.SourceID = seg.SourceID
		h.VideoRef = seg.VideoRef
		h.Created = seg.CreatedAt
	}

	stored := 0
	for start := 0; start < len(highlights); start += p.batchSize {
		end := min(start+p.batchSize, len(highlights))
		batch := highlights[start:end]
		if err := p.store.BatchPut(ctx, batch); err != nil {
			metrics.RecordStoreBatch("error")
			return stored, fmt.Errorf("store highlights %d-%d: %w", start, end-1, err)
		}
		metrics.RecordStoreBatch("ok")
		metrics.RecordHighlightsStored(len(batch))
		stored += len(batch)
		p.announce(ctx, log, batch)
	}
	log.Info(ctx, "segment highlights stored", logger.Int("highlights", stored))
	return stored, nil
}

// detect runs label detection and person tracking side by side.
func (p *Pipeline) detect(ctx context.Context, videoRef string) ([]model.DetectionEvent, []model.PersonTrack, error) {
	var detections []model.DetectionEvent
	var tracks []model.PersonTrack

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		jobID, err := p.detector.StartLabelDetection(gctx, videoRef)
		if err != nil {
			return fmt.Errorf("start label detection: %w", err)
		}
		detections, err = jobs.Wait(gctx, p.poller, jobID, func(ctx context.Context) (jobs.Status, []model.DetectionEvent, string, error) {
			return p.detector.GetLabelDetection(ctx, jobID)
		})
		return err
	})
	g.Go(func() error {
		jobID, err := p.detector.StartPersonTracking(gctx, videoRef)
		if err != nil {
			return fmt.Errorf("start person tracking: %w", err)
		}
		tracks, err = jobs.Wait(gctx, p.poller, jobID, func(ctx context.Context) (jobs.Status, []model.PersonTrack, string, error) {
			return p.detector.GetPersonTracking(ctx, jobID)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return detections, tracks, nil
}

// announce publishes persisted events. A lost event is recovered by the
// next clip rescan, so failures are only logged.
func (p *Pipeline) announce(ctx context.Context, log logger.Logger, batch []model.EnrichedHighlight) {
	if p.publisher == nil {
		return
	}
	for _, h := range batch {
		if err := p.publisher.PublishPersisted(ctx, events.HighlightPersisted{HighlightID: h.ID, SourceID: h.SourceID}); err != nil {
			metrics.RecordErrorByComponent("pipeline", "publish")
			log.Warn(ctx, "persisted event not published", logger.String("highlight_id", h.ID), logger.Error(err))
		}
	}
}
