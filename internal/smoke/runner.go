package smoke

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/highlights/internal/adapters/collaborators/httpjson"
	"github.com/okian/highlights/internal/domain/model"
	"github.com/okian/highlights/pkg/logger"
)

// ErrUnhealthy is returned when the service does not answer its health
// probe.
var ErrUnhealthy = errors.New("service unhealthy")

const personalizedTop = 5

// Run executes a complete smoke run against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	log := logger.Named("smoke")
	report := &Report{
		Submitted: map[Outcome]int{},
		Finished:  map[model.SegmentState]int{},
		StartTime: time.Now(),
	}
	defer func() { report.Duration = time.Since(report.StartTime) }()

	client, err := NewClient(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}

	segs := GenerateSegments(cfg.Segments, cfg.Seed)
	log.Info(ctx, "submitting segments", logger.Int("segments", len(segs)), logger.Int("workers", cfg.Workers))
	accepted := submitAll(ctx, client, cfg.Workers, segs, report)

	log.Info(ctx, "waiting for segments", logger.Int("accepted", len(accepted)))
	waitAll(ctx, client, cfg, accepted, report)

	for _, seg := range accepted {
		hs, err := client.Highlights(ctx, seg.SourceID, false, 0)
		if err != nil {
			return report, fmt.Errorf("list highlights of %s: %w", seg.SourceID, err)
		}
		report.Highlights += len(hs)
		clips, err := client.Highlights(ctx, seg.SourceID, true, 0)
		if err != nil {
			return report, fmt.Errorf("list clips of %s: %w", seg.SourceID, err)
		}
		report.ClipsReady += len(clips)
	}

	if len(accepted) > 0 && cfg.UserID != "" {
		favourite := accepted[0]
		prefs := []model.UserPreference{
			{Type: model.PreferenceSport, Value: favourite.GameType, Weight: 1},
			{Type: model.PreferenceTeam, Value: favourite.Teams[0], Weight: 5},
		}
		if err := client.SetPreferences(ctx, cfg.UserID, prefs); err != nil {
			return report, fmt.Errorf("set preferences: %w", err)
		}
		report.Personalized, err = client.Personalized(ctx, cfg.UserID, personalizedTop)
		if err != nil {
			return report, fmt.Errorf("personalized highlights: %w", err)
		}
	}
	return report, nil
}

func submitAll(ctx context.Context, client *Client, workers int, segs []model.Segment, report *Report) []model.Segment {
	var (
		mu       sync.Mutex
		accepted []model.Segment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for _, seg := range segs {
		g.Go(func() error {
			_, err := client.Submit(gctx, seg)
			outcome := classify(err)
			mu.Lock()
			defer mu.Unlock()
			report.Submitted[outcome]++
			if outcome == OutcomeAccepted {
				accepted = append(accepted, seg)
			}
			return nil
		})
	}
	_ = g.Wait()
	return accepted
}

func classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeAccepted
	case httpjson.IsStatus(err, http.StatusConflict):
		return OutcomeDuplicate
	case httpjson.IsStatus(err, http.StatusBadRequest):
		return OutcomeRejected
	case httpjson.IsStatus(err, http.StatusTooManyRequests):
		return OutcomeBusy
	default:
		return OutcomeFailed
	}
}

// waitAll polls each accepted segment until it is completed or failed, or
// the wait times out. Segments still pending are reported as unfinished.
func waitAll(ctx context.Context, client *Client, cfg *Config, segs []model.Segment, report *Report) {
	ctx, cancel := context.WithTimeout(ctx, cfg.WaitTimeout)
	defer cancel()

	pending := make(map[string]bool, len(segs))
	for _, s := range segs {
		pending[s.ID] = true
	}
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()
	for len(pending) > 0 {
		for id := range pending {
			st, err := client.Status(ctx, id)
			if err != nil {
				continue
			}
			if st.State == model.SegmentCompleted || st.State == model.SegmentFailed {
				report.Finished[st.State]++
				delete(pending, id)
			}
		}
		if len(pending) == 0 {
			break
		}
		select {
		case <-ctx.Done():
			for id := range pending {
				report.Unfinished = append(report.Unfinished, id)
			}
			return
		case <-ticker.C:
		}
	}
}
