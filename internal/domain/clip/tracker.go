package clip

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"

	"github.com/okian/highlights/internal/domain/dedupe"
	"github.com/okian/highlights/internal/domain/model"
	"github.com/okian/highlights/pkg/logger"
	"github.com/okian/highlights/pkg/metrics"
)

const (
	defaultDestination = "clips"
	defaultEarlyLimit  = 1024
)

// Tracker moves a highlight's clip through pending, processing and a
// terminal state. It is the only writer of model.ClipState.
type Tracker struct {
	store       Store
	transcoder  Transcoder
	guard       dedupe.Guard
	frameRate   int
	destination string
	logger      logger.Logger

	// early holds completions that arrived before their job ID was
	// recorded, oldest first in earlyOrder.
	mu         sync.Mutex
	early      map[string]Completion
	earlyOrder []string
	earlyLimit int
}

// New creates a Tracker.
func New(store Store, transcoder Transcoder, opts ...Option) *Tracker {
	t := &Tracker{
		store:       store,
		transcoder:  transcoder,
		frameRate:   defaultFrameRate,
		destination: defaultDestination,
		logger:      logger.Named("clip"),
		early:       map[string]Completion{},
		earlyLimit:  defaultEarlyLimit,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.guard == nil {
		t.guard = dedupe.NewInMemoryGuard()
	}
	return t
}

// OnPersisted submits a clip job for highlight id unless one was already
// submitted. Concurrent calls for the same id submit at most once.
func (t *Tracker) OnPersisted(ctx context.Context, id string) error {
	_, err := t.submit(ctx, id)
	return err
}

func (t *Tracker) submit(ctx context.Context, id string) (bool, error) {
	if !t.guard.Claim(ctx, id) {
		return false, nil
	}
	defer t.guard.Release(ctx, id)

	var h model.EnrichedHighlight
	err := t.store.Update(ctx, id, func(cur *model.EnrichedHighlight) error {
		if cur.Clip.Generated {
			return errAlreadyGenerated
		}
		cur.Clip = model.ClipState{Status: model.ClipProcessing, Generated: true}
		h = *cur
		return nil
	})
	if errors.Is(err, errAlreadyGenerated) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("claim clip for %s: %w", id, err)
	}
	metrics.RecordClipTransition(string(model.ClipProcessing))

	req := t.request(h)
	jobID, err := t.transcoder.SubmitClip(ctx, req)
	if err != nil {
		metrics.RecordErrorByComponent("clip", "submit")
		t.logger.Error(ctx, "clip submission failed",
			logger.String("highlight_id", id),
			logger.Error(err))
		// Leave the highlight eligible for the next rescan.
		rerr := t.store.Update(ctx, id, func(cur *model.EnrichedHighlight) error {
			if cur.Clip.JobID != "" || cur.Clip.Status != model.ClipProcessing {
				return errNotProcessing
			}
			cur.Clip = model.ClipState{Status: model.ClipPending, Error: ErrSubmit.Error()}
			return nil
		})
		if rerr == nil {
			metrics.RecordClipTransition(string(model.ClipPending))
		}
		return false, fmt.Errorf("%w: %s: %w", ErrSubmit, id, err)
	}

	early, err := t.recordJob(ctx, id, jobID)
	if err != nil {
		return true, fmt.Errorf("record clip job %s for %s: %w", jobID, id, err)
	}
	t.logger.Info(ctx, "clip job submitted",
		logger.String("highlight_id", id),
		logger.String("job_id", jobID),
		logger.String("start", req.StartTimecode),
		logger.String("end", req.EndTimecode))
	if early != nil {
		if err := t.apply(ctx, id, *early); err != nil {
			return true, err
		}
	}
	return true, nil
}

// recordJob stores jobID on the highlight and hands back a completion for
// that job which arrived while the transcoder call was in flight.
func (t *Tracker) recordJob(ctx context.Context, id, jobID string) (*Completion, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.store.Update(ctx, id, func(cur *model.EnrichedHighlight) error {
		// A fast completion naming the highlight may already have finished the clip.
		if cur.Clip.JobID == "" {
			cur.Clip.JobID = jobID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c, ok := t.early[jobID]
	if !ok {
		return nil, nil
	}
	delete(t.early, jobID)
	return &c, nil
}

// holdEarly keeps c until its job ID is recorded. It reports false when the
// job turned out to be known already, in which case c is not held.
func (t *Tracker) holdEarly(ctx context.Context, c Completion) (string, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	found, err := t.store.Scan(ctx, model.HighlightFilter{ClipJobID: c.JobID, Limit: 1})
	if err != nil {
		return "", false, err
	}
	if len(found) > 0 {
		return found[0].ID, false, nil
	}
	if _, ok := t.early[c.JobID]; !ok {
		t.earlyOrder = append(t.earlyOrder, c.JobID)
	}
	t.early[c.JobID] = c
	for len(t.earlyOrder) > t.earlyLimit {
		delete(t.early, t.earlyOrder[0])
		t.earlyOrder = t.earlyOrder[1:]
	}
	return "", true, nil
}

func (t *Tracker) request(h model.EnrichedHighlight) Request {
	source := h.VideoRef
	if source == "" {
		source = h.SourceID
	}
	return Request{
		HighlightID:   h.ID,
		SourceRef:     source,
		StartTimecode: Timecode(h.StartTimeSec, t.frameRate, false),
		EndTimecode:   Timecode(h.EndTimeSec, t.frameRate, true),
		Destination:   path.Join(t.destination, h.SourceID, h.ID),
	}
}

// OnCompletion applies a transcoder completion. A completion for a job not
// yet recorded is held until its submission records it; clips that are not
// processing ignore completions.
func (t *Tracker) OnCompletion(ctx context.Context, c Completion) error {
	if c.Status != StatusComplete && c.Status != StatusError {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, c.Status)
	}

	id := c.HighlightID
	if id == "" {
		found, err := t.store.Scan(ctx, model.HighlightFilter{ClipJobID: c.JobID, Limit: 1})
		if err != nil {
			return fmt.Errorf("find clip job %s: %w", c.JobID, err)
		}
		if len(found) > 0 {
			id = found[0].ID
		} else {
			known, held, err := t.holdEarly(ctx, c)
			if err != nil {
				return fmt.Errorf("find clip job %s: %w", c.JobID, err)
			}
			if held {
				t.logger.Debug(ctx, "completion for unrecorded clip job held", logger.String("job_id", c.JobID))
				return nil
			}
			id = known
		}
	}
	return t.apply(ctx, id, c)
}

func (t *Tracker) apply(ctx context.Context, id string, c Completion) error {
	var status model.ClipStatus
	err := t.store.Update(ctx, id, func(cur *model.EnrichedHighlight) error {
		if cur.Clip.Status != model.ClipProcessing {
			return errNotProcessing
		}
		if cur.Clip.JobID != "" && c.JobID != "" && cur.Clip.JobID != c.JobID {
			return errNotProcessing
		}
		if cur.Clip.JobID == "" {
			cur.Clip.JobID = c.JobID
		}
		switch c.Status {
		case StatusComplete:
			cur.Clip.Status = model.ClipCompleted
			cur.Clip.MediaURL = c.MediaURL
			cur.Clip.ThumbnailURL = c.ThumbnailURL
			cur.Clip.Error = ""
		case StatusError:
			cur.Clip.Status = model.ClipFailed
			cur.Clip.Error = failureMessage
		}
		status = cur.Clip.Status
		return nil
	})
	if errors.Is(err, errNotProcessing) {
		t.logger.Debug(ctx, "completion for clip not in processing ignored",
			logger.String("highlight_id", id),
			logger.String("job_id", c.JobID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply completion %s to %s: %w", c.JobID, id, err)
	}
	metrics.RecordClipTransition(string(status))
	t.logger.Info(ctx, "clip job finished",
		logger.String("highlight_id", id),
		logger.String("job_id", c.JobID),
		logger.String("status", string(status)))
	return nil
}

// Rescan submits clip jobs for every highlight without a generated clip
// and returns how many were submitted.
func (t *Tracker) Rescan(ctx context.Context) (int, error) {
	pending, err := t.store.Scan(ctx, model.HighlightFilter{ClipGenerated: model.Bool(false)})
	if err != nil {
		return 0, fmt.Errorf("scan unclipped highlights: %w", err)
	}

	var errs []error
	submitted := 0
	for _, h := range pending {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		ok, err := t.submit(ctx, h.ID)
		if err != nil {
			errs = append(errs, err)
		}
		if ok {
			submitted++
		}
	}
	t.logger.Info(ctx, "clip rescan finished",
		logger.Int("candidates", len(pending)),
		logger.Int("submitted", submitted),
		logger.Int("errors", len(errs)))
	return submitted, errors.Join(errs...)
}
