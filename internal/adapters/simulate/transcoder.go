package simulate

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/highlights/internal/domain/clip"
	"github.com/okian/highlights/pkg/logger"
)

// Completer receives out-of-band clip completions.
type Completer interface {
	PublishCompletion(ctx context.Context, c clip.Completion) error
}

// Transcoder simulates the clip transcoding service. Each accepted job
// completes after the configured latency through the Completer.
type Transcoder struct {
	completer Completer
	mediaBase string

	mu     sync.Mutex
	rng    *rand.Rand
	timers map[string]*time.Timer
	closed bool

	cfg    config
	logger logger.Logger
}

// NewTranscoder creates a transcoder simulator publishing to c. Media URLs
// are rooted at mediaBase.
func NewTranscoder(c Completer, mediaBase string, opts ...Option) *Transcoder {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Transcoder{
		completer: c,
		mediaBase: mediaBase,
		rng:       rand.New(rand.NewPCG(cfg.seed, cfg.seed+1)),
		timers:    make(map[string]*time.Timer),
		cfg:       cfg,
		logger:    cfg.logger.Named("transcoder"),
	}
}

// SubmitClip implements clip.Transcoder.
func (t *Transcoder) SubmitClip(ctx context.Context, req clip.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	jobID := uuid.NewString()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return "", context.Canceled
	}
	fail := t.rng.Float64() < t.cfg.failureRate
	t.timers[jobID] = time.AfterFunc(t.cfg.latency, func() { t.complete(jobID, req, fail) })
	return jobID, nil
}

func (t *Transcoder) complete(jobID string, req clip.Request, fail bool) {
	t.mu.Lock()
	delete(t.timers, jobID)
	t.mu.Unlock()

	c := clip.Completion{JobID: jobID, HighlightID: req.HighlightID, Status: clip.StatusComplete}
	if fail {
		c.Status = clip.StatusError
	} else {
		c.MediaURL = t.mediaBase + "/" + req.Destination + "/clip.mp4"
		c.ThumbnailURL = t.mediaBase + "/" + req.Destination + "/thumb.jpg"
	}
	ctx := context.Background()
	if err := t.completer.PublishCompletion(ctx, c); err != nil {
		t.logger.Error(ctx, "publish simulated completion", logger.String("jobID", jobID), logger.Error(err))
	}
}

// Pending returns the number of jobs not yet completed.
func (t *Transcoder) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}

// Close cancels pending jobs. They never complete.
func (t *Transcoder) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for id, tm := range t.timers {
		tm.Stop()
		delete(t.timers, id)
	}
	return nil
}
