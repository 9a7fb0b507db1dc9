// Package simulate provides in-process stand-ins for the external
// collaborators so the service runs end to end without cloud accounts.
package simulate

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/highlights/internal/domain/jobs"
	"github.com/okian/highlights/internal/domain/model"
	"github.com/okian/highlights/pkg/logger"
)

const (
	videoLengthMillis = 180_000
	burstCount        = 3
	crowdedPersons    = 7
)

var burstLabels = []string{"Goal", "Celebration", "Cheering", "Crowd", "Sports Ball"} //nolint:gochecknoglobals // fixture vocabulary
var noiseLabels = []string{"Grass", "Person", "Stadium", "Field"}                     //nolint:gochecknoglobals // fixture vocabulary

type detectionJob struct {
	videoRef string
	ready    time.Time
	failed   bool
}

// Detector simulates the asynchronous label detection and person tracking
// service. Results are a pure function of the video reference.
type Detector struct {
	mu     sync.Mutex
	jobs   map[string]detectionJob
	rng    *rand.Rand
	cfg    config
	logger logger.Logger
}

// NewDetector creates a detection simulator.
func NewDetector(opts ...Option) *Detector {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Detector{
		jobs:   make(map[string]detectionJob),
		rng:    rand.New(rand.NewPCG(cfg.seed, cfg.seed^0x9e3779b97f4a7c15)),
		cfg:    cfg,
		logger: cfg.logger.Named("detector"),
	}
}

// StartLabelDetection starts a simulated label job.
func (d *Detector) StartLabelDetection(ctx context.Context, videoRef string) (string, error) {
	return d.start(ctx, "labels", videoRef)
}

// StartPersonTracking starts a simulated tracking job.
func (d *Detector) StartPersonTracking(ctx context.Context, videoRef string) (string, error) {
	return d.start(ctx, "persons", videoRef)
}

func (d *Detector) start(ctx context.Context, kind, videoRef string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := kind + "-" + uuid.NewString()
	d.mu.Lock()
	failed := d.rng.Float64() < d.cfg.failureRate
	d.jobs[id] = detectionJob{videoRef: videoRef, ready: time.Now().Add(d.cfg.latency), failed: failed}
	d.mu.Unlock()
	d.logger.Debug(ctx, "simulated job started", logger.String("jobID", id), logger.Bool("willFail", failed))
	return id, nil
}

func (d *Detector) poll(jobID string) (detectionJob, jobs.Status, string, error) {
	d.mu.Lock()
	job, ok := d.jobs[jobID]
	d.mu.Unlock()
	switch {
	case !ok:
		return job, "", "", fmt.Errorf("%w: %s", ErrUnknownJob, jobID)
	case time.Now().Before(job.ready):
		return job, jobs.StatusInProgress, "", nil
	case job.failed:
		return job, jobs.StatusFailed, "simulated analysis failure", nil
	}
	return job, jobs.StatusSucceeded, "", nil
}

// GetLabelDetection reports a simulated label job.
func (d *Detector) GetLabelDetection(_ context.Context, jobID string) (jobs.Status, []model.DetectionEvent, string, error) {
	job, status, reason, err := d.poll(jobID)
	if err != nil || status != jobs.StatusSucceeded {
		return status, nil, reason, err
	}
	events, _ := Fixture(job.videoRef)
	return status, events, "", nil
}

// GetPersonTracking reports a simulated tracking job.
func (d *Detector) GetPersonTracking(_ context.Context, jobID string) (jobs.Status, []model.PersonTrack, string, error) {
	job, status, reason, err := d.poll(jobID)
	if err != nil || status != jobs.StatusSucceeded {
		return status, nil, reason, err
	}
	_, tracks := Fixture(job.videoRef)
	return status, tracks, "", nil
}

// Fixture generates the detections and person tracks of a video. The
// output has burstCount dense bursts of interesting labels and scattered
// low-confidence noise; the first burst is crowded.
func Fixture(videoRef string) ([]model.DetectionEvent, []model.PersonTrack) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(videoRef))
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed>>1))

	var events []model.DetectionEvent
	var tracks []model.PersonTrack
	span := int64(videoLengthMillis / burstCount)
	for b := 0; b < burstCount; b++ {
		start := int64(b)*span + rng.Int64N(span/2)
		steps := 3 + rng.IntN(4)
		for s := 0; s < steps; s++ {
			ts := start + int64(s)*1000
			for _, label := range pick(rng, burstLabels, 1+rng.IntN(2)) {
				events = append(events, model.DetectionEvent{
					TimestampMillis: ts,
					Label:           label,
					Confidence:      86 + float64(rng.IntN(1300))/100,
				})
			}
		}
		persons := 2
		if b == 0 {
			persons = crowdedPersons
		}
		for p := 0; p < persons; p++ {
			tracks = append(tracks, model.PersonTrack{PersonIndex: b*10 + p, TimestampMillis: start + int64(rng.IntN(steps))*1000})
		}
	}
	for i := 0; i < 20; i++ {
		events = append(events, model.DetectionEvent{
			TimestampMillis: rng.Int64N(videoLengthMillis),
			Label:           noiseLabels[rng.IntN(len(noiseLabels))],
			Confidence:      40 + float64(rng.IntN(4000))/100,
		})
	}
	return events, tracks
}

func pick(rng *rand.Rand, from []string, n int) []string {
	idx := rng.Perm(len(from))
	out := make([]string, 0, n)
	for _, i := range idx[:n] {
		out = append(out, from[i])
	}
	return out
}
