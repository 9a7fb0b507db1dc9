package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/highlights/internal/adapters/repository"
	"github.com/okian/highlights/internal/adapters/simulate"
	service "github.com/okian/highlights/internal/app"
	"github.com/okian/highlights/internal/domain/clip"
	"github.com/okian/highlights/internal/domain/jobs"
	"github.com/okian/highlights/internal/domain/model"
	"github.com/okian/highlights/internal/validation"
	"github.com/okian/highlights/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func newService(opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithWorkerCount(2),
		service.WithRescanSchedule(""),
		service.WithPollerOptions(jobs.WithInterval(time.Millisecond), jobs.WithMaxAttempts(100)),
		service.WithDetector(simulate.NewDetector(simulate.WithLatency(0))),
	}
	return service.New(append(base, opts...)...)
}

func segment(id string) model.Segment {
	return model.Segment{
		ID: id, SourceID: "match-" + id, VideoRef: "s3://videos/" + id + ".mp4",
		GameType: "soccer", Teams: []string{"Barcelona"},
	}
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := newService()
		ctx := context.Background()

		Convey("Then operations fail before Start", func() {
			_, err := svc.Submit(ctx, segment("a"))
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats(ctx)["started"], ShouldEqual, false)
		})

		Convey("When the service is started and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats(ctx)["started"], ShouldEqual, true)
			svc.Stop()
			svc.Stop()

			Convey("Then it reports stopped", func() {
				So(svc.GetStats(ctx)["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_Pipeline(t *testing.T) {
	Convey("Given a started service with fast simulators", t, func() {
		ctx := context.Background()
		created := time.Date(2025, 5, 1, 18, 0, 0, 0, time.UTC)
		svc := newService(service.WithClock(func() time.Time { return created }))
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		Convey("When a segment is submitted", func() {
			st, err := svc.Submit(ctx, segment("s1"))
			So(err, ShouldBeNil)
			So(st.State, ShouldEqual, model.SegmentQueued)

			Convey("Then it completes with enriched, stored highlights", func() {
				So(eventually(func() bool {
					st, _ := svc.SegmentStatus(ctx, "s1")
					return st.State == model.SegmentCompleted
				}), ShouldBeTrue)
				st, _ := svc.SegmentStatus(ctx, "s1")
				So(st.HighlightCount, ShouldEqual, 3)

				hs, err := svc.Highlights(ctx, model.HighlightFilter{SourceID: "match-s1"})
				So(err, ShouldBeNil)
				So(hs, ShouldHaveLength, 3)
				for _, h := range hs {
					So(h.EnrichmentComplete, ShouldBeTrue)
					So(h.Sport, ShouldEqual, "soccer")
					So(h.Teams, ShouldContain, "Barcelona")
					So(h.Created.Equal(created), ShouldBeTrue)
				}
				one, err := svc.Highlight(ctx, model.HighlightID("match-s1", created, 0))
				So(err, ShouldBeNil)
				So(one.Ordinal, ShouldEqual, 0)
			})

			Convey("Then every highlight gets a completed clip", func() {
				So(eventually(func() bool {
					hs, _ := svc.Highlights(ctx, model.HighlightFilter{SourceID: "match-s1"})
					if len(hs) != 3 {
						return false
					}
					for _, h := range hs {
						if h.Clip.Status != model.ClipCompleted {
							return false
						}
					}
					return true
				}), ShouldBeTrue)
				hs, _ := svc.Highlights(ctx, model.HighlightFilter{SourceID: "match-s1"})
				So(hs[0].Clip.Generated, ShouldBeTrue)
				So(hs[0].Clip.MediaURL, ShouldStartWith, "memory://media/clips/match-s1/")
			})

			Convey("Then resubmitting the same segment is rejected", func() {
				_, err := svc.Submit(ctx, segment("s1"))
				So(errors.Is(err, service.ErrDuplicateSegment), ShouldBeTrue)
			})
		})

		Convey("When an invalid segment is submitted", func() {
			_, err := svc.Submit(ctx, model.Segment{ID: "bad"})
			So(errors.Is(err, validation.ErrInvalid), ShouldBeTrue)
		})

		Convey("When an unknown segment is queried", func() {
			_, err := svc.SegmentStatus(ctx, "nope")
			So(errors.Is(err, service.ErrSegmentNotFound), ShouldBeTrue)
		})

		Convey("When an invalid completion arrives", func() {
			err := svc.CompleteClip(ctx, clip.Completion{Status: "DONE"})
			So(errors.Is(err, validation.ErrInvalid), ShouldBeTrue)
		})
	})
}

func TestService_FailedDetection(t *testing.T) {
	Convey("Given a service whose detection jobs fail", t, func() {
		ctx := context.Background()
		svc := newService(service.WithDetector(simulate.NewDetector(simulate.WithLatency(0), simulate.WithFailureRate(1))))
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		_, err := svc.Submit(ctx, segment("f1"))
		So(err, ShouldBeNil)

		Convey("Then the segment fails, nothing is stored and it may be resubmitted", func() {
			So(eventually(func() bool {
				st, _ := svc.SegmentStatus(ctx, "f1")
				return st.State == model.SegmentFailed
			}), ShouldBeTrue)
			st, _ := svc.SegmentStatus(ctx, "f1")
			So(st.Error, ShouldContainSubstring, "job failed")

			hs, _ := svc.Highlights(ctx, model.HighlightFilter{})
			So(hs, ShouldBeEmpty)

			_, err := svc.Submit(ctx, segment("f1"))
			So(err, ShouldBeNil)
		})
	})
}

func TestService_Personalization(t *testing.T) {
	Convey("Given a service with processed highlights", t, func() {
		ctx := context.Background()
		svc := newService()
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		_, _ = svc.Submit(ctx, segment("p1"))
		seg := segment("p2")
		seg.GameType = "basketball"
		seg.Teams = []string{"Lakers"}
		_, _ = svc.Submit(ctx, seg)
		So(eventually(func() bool {
			hs, _ := svc.Highlights(ctx, model.HighlightFilter{})
			return len(hs) == 6
		}), ShouldBeTrue)

		Convey("When preferences are saved", func() {
			saved, err := svc.SetPreferences(ctx, "fan", []model.UserPreference{
				{Type: "team", Value: "lakers", Weight: 20},
			})
			So(err, ShouldBeNil)
			So(saved[0].Type, ShouldEqual, model.PreferenceTeam)
			So(saved[0].UserID, ShouldEqual, "fan")

			Convey("Then the preferred team's highlights rank first", func() {
				ranked, err := svc.Personalized(ctx, "fan", 0)
				So(err, ShouldBeNil)
				So(ranked, ShouldHaveLength, 6)
				for i := 0; i < 3; i++ {
					So(ranked[i].SourceID, ShouldEqual, "match-p2")
				}
				for i := 1; i < len(ranked); i++ {
					So(ranked[i-1].PersonalizedScore, ShouldBeGreaterThanOrEqualTo, ranked[i].PersonalizedScore)
				}

				top, _ := svc.Personalized(ctx, "fan", 2)
				So(top, ShouldHaveLength, 2)
			})
		})

		Convey("When invalid preferences are saved", func() {
			_, err := svc.SetPreferences(ctx, "fan", []model.UserPreference{{Type: "MOOD", Value: "happy"}})
			So(errors.Is(err, validation.ErrInvalid), ShouldBeTrue)
			prefs, _ := svc.Preferences(ctx, "fan")
			So(prefs, ShouldBeEmpty)
		})
	})
}

// partialRepository fails the failOn-th BatchPut and passes the rest through.
type partialRepository struct {
	repository.Repository
	mu     sync.Mutex
	calls  int
	failOn int
}

func (r *partialRepository) BatchPut(ctx context.Context, hs []model.EnrichedHighlight) error {
	r.mu.Lock()
	r.calls++
	fail := r.calls == r.failOn
	r.mu.Unlock()
	if fail {
		return errors.New("write quota exceeded")
	}
	return r.Repository.BatchPut(ctx, hs)
}

func TestService_RetryAfterPartialWrite(t *testing.T) {
	Convey("Given a service whose second store batch fails", t, func() {
		ctx := context.Background()
		repo := &partialRepository{Repository: repository.NewMemoryStore(ctx), failOn: 2}
		var tick atomic.Int64
		clock := func() time.Time {
			return time.Date(2025, 5, 1, 18, 0, 0, 0, time.UTC).Add(time.Duration(tick.Add(1)) * time.Second)
		}
		svc := newService(service.WithRepository(repo), service.WithBatchSize(1), service.WithClock(clock))
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		_, err := svc.Submit(ctx, segment("r1"))
		So(err, ShouldBeNil)
		So(eventually(func() bool {
			st, _ := svc.SegmentStatus(ctx, "r1")
			return st.State == model.SegmentFailed
		}), ShouldBeTrue)
		partial, _ := svc.Highlights(ctx, model.HighlightFilter{SourceID: "match-r1"})
		So(partial, ShouldHaveLength, 1)

		Convey("When the segment is resubmitted without a creation time", func() {
			_, err := svc.Submit(ctx, segment("r1"))
			So(err, ShouldBeNil)

			Convey("Then the stored highlights are overwritten, not duplicated", func() {
				So(eventually(func() bool {
					st, _ := svc.SegmentStatus(ctx, "r1")
					return st.State == model.SegmentCompleted
				}), ShouldBeTrue)
				hs, err := svc.Highlights(ctx, model.HighlightFilter{SourceID: "match-r1"})
				So(err, ShouldBeNil)
				So(hs, ShouldHaveLength, 3)
				So(hs[0].Created.Equal(partial[0].Created), ShouldBeTrue)
			})
		})
	})
}
