package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/highlights/internal/adapters/repository"
	"github.com/okian/highlights/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func highlight(source string, created time.Time, ordinal int) model.EnrichedHighlight {
	h := model.NewEnrichedHighlight(model.HighlightCandidate{
		StartTimeSec: float64(ordinal), EndTimeSec: float64(ordinal) + 3, DurationSec: 3,
		Confidence: 90, Labels: []string{"Goal"},
	})
	h.ID = model.HighlightID(source, created, ordinal)
	h.SourceID = source
	h.Created = created
	h.Ordinal = ordinal
	h.Title = fmt.Sprintf("%s #%d", source, ordinal)
	h.Sentiment = &model.Sentiment{Label: "POSITIVE", Score: 0.9, Scores: map[string]float64{"POSITIVE": 0.9}}
	h.EnrichmentComplete = true
	return h
}

func ids(hs []model.EnrichedHighlight) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = h.ID
	}
	return out
}

// storeContract runs the behaviour every Repository must share.
func storeContract(t *testing.T, name string, open func() repository.Repository) {
	ctx := context.Background()

	Convey("Given an empty "+name+" store", t, func() {
		s := open()
		Reset(func() { _ = s.Close() })

		Convey("Then reads report not found and zero count", func() {
			_, err := s.Get(ctx, "missing")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			n, err := s.Count(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)
			err = s.Update(ctx, "missing", func(*model.EnrichedHighlight) error { return nil })
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a batch is written", func() {
			older := base.Add(-time.Hour)
			batch := []model.EnrichedHighlight{
				highlight("match-a", base, 0),
				highlight("match-a", base, 1),
				highlight("match-b", older, 0),
			}
			So(s.BatchPut(ctx, batch), ShouldBeNil)

			Convey("Then every highlight round-trips", func() {
				got, err := s.Get(ctx, batch[1].ID)
				So(err, ShouldBeNil)
				So(got.Title, ShouldEqual, "match-a #1")
				So(got.Labels, ShouldResemble, []string{"Goal"})
				So(got.Sentiment.Scores["POSITIVE"], ShouldEqual, 0.9)
				So(got.Created.Equal(base), ShouldBeTrue)
				n, _ := s.Count(ctx)
				So(n, ShouldEqual, 3)
			})

			Convey("Then rewriting the same batch does not duplicate", func() {
				So(s.BatchPut(ctx, batch), ShouldBeNil)
				n, _ := s.Count(ctx)
				So(n, ShouldEqual, 3)
			})

			Convey("Then scans are newest first and filterable", func() {
				all, err := s.Scan(ctx, model.HighlightFilter{})
				So(err, ShouldBeNil)
				So(ids(all), ShouldResemble, []string{batch[0].ID, batch[1].ID, batch[2].ID})

				bySource, _ := s.Scan(ctx, model.HighlightFilter{SourceID: "match-b"})
				So(ids(bySource), ShouldResemble, []string{batch[2].ID})

				limited, _ := s.Scan(ctx, model.HighlightFilter{Limit: 2})
				So(limited, ShouldHaveLength, 2)
			})

			Convey("Then updates apply atomically", func() {
				err := s.Update(ctx, batch[0].ID, func(h *model.EnrichedHighlight) error {
					h.Clip.Generated = true
					h.Clip.JobID = "job-1"
					h.Clip.Status = model.ClipProcessing
					return nil
				})
				So(err, ShouldBeNil)

				pending, _ := s.Scan(ctx, model.HighlightFilter{ClipGenerated: model.Bool(false)})
				So(pending, ShouldHaveLength, 2)
				byJob, _ := s.Scan(ctx, model.HighlightFilter{ClipJobID: "job-1"})
				So(ids(byJob), ShouldResemble, []string{batch[0].ID})
			})

			Convey("Then a failing update writes nothing", func() {
				boom := errors.New("boom")
				err := s.Update(ctx, batch[0].ID, func(h *model.EnrichedHighlight) error {
					h.Title = "changed"
					return boom
				})
				So(errors.Is(err, boom), ShouldBeTrue)
				got, _ := s.Get(ctx, batch[0].ID)
				So(got.Title, ShouldEqual, "match-a #0")
			})

			Convey("Then concurrent updates are not lost", func() {
				var wg sync.WaitGroup
				for i := 0; i < 10; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						_ = s.Update(ctx, batch[0].ID, func(h *model.EnrichedHighlight) error {
							h.PersonCount++
							return nil
						})
					}()
				}
				wg.Wait()
				got, _ := s.Get(ctx, batch[0].ID)
				So(got.PersonCount, ShouldEqual, 10)
			})
		})

		Convey("When a batch carries an empty id", func() {
			err := s.BatchPut(ctx, []model.EnrichedHighlight{{}})
			So(errors.Is(err, repository.ErrInvalidID), ShouldBeTrue)
		})

		Convey("When a batch is too large", func() {
			err := s.BatchPut(ctx, make([]model.EnrichedHighlight, repository.MaxBatchSize+1))
			So(errors.Is(err, repository.ErrBatchTooLarge), ShouldBeTrue)
		})

		Convey("When preferences are stored", func() {
			empty, err := s.Preferences(ctx, "u1")
			So(err, ShouldBeNil)
			So(empty, ShouldBeEmpty)

			prefs := []model.UserPreference{
				{Type: model.PreferenceSport, Value: "soccer", Weight: 10},
				{Type: model.PreferenceTeam, Value: "Barcelona", Weight: 2},
			}
			So(s.SetPreferences(ctx, "u1", prefs), ShouldBeNil)

			Convey("Then they are owned by the user and replaced wholesale", func() {
				got, err := s.Preferences(ctx, "u1")
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				So(got[0].UserID, ShouldEqual, "u1")
				So(got[1].Value, ShouldEqual, "Barcelona")

				So(s.SetPreferences(ctx, "u1", prefs[:1]), ShouldBeNil)
				got, _ = s.Preferences(ctx, "u1")
				So(got, ShouldHaveLength, 1)

				other, _ := s.Preferences(ctx, "u2")
				So(other, ShouldBeEmpty)
			})
		})
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, "memory", func() repository.Repository {
		return repository.NewMemoryStore(context.Background(), repository.WithMetricsUpdateInterval(10*time.Millisecond))
	})

	Convey("Given a memory store", t, func() {
		ctx := context.Background()
		s := repository.NewMemoryStore(ctx)
		defer s.Close()
		h := highlight("m", base, 0)
		So(s.BatchPut(ctx, []model.EnrichedHighlight{h}), ShouldBeNil)

		Convey("Then returned records do not alias stored ones", func() {
			got, _ := s.Get(ctx, h.ID)
			got.Labels[0] = "mutated"
			got.Sentiment.Label = "NEGATIVE"
			again, _ := s.Get(ctx, h.ID)
			So(again.Labels[0], ShouldEqual, "Goal")
			So(again.Sentiment.Label, ShouldEqual, "POSITIVE")
		})

		Convey("Then Close is idempotent", func() {
			So(s.Close(), ShouldBeNil)
			So(s.Close(), ShouldBeNil)
		})
	})
}

func TestBadgerStore(t *testing.T) {
	storeContract(t, "badger", func() repository.Repository {
		s, err := repository.OpenBadgerStore(repository.WithBadgerInMemory(), repository.WithUpdateRetries(50))
		if err != nil {
			t.Fatalf("open badger: %v", err)
		}
		return s
	})

	Convey("Given no data path", t, func() {
		_, err := repository.OpenBadgerStore()
		So(err, ShouldNotBeNil)
	})

	Convey("Given an on-disk store", t, func() {
		dir := t.TempDir()
		ctx := context.Background()
		s, err := repository.OpenBadgerStore(repository.WithBadgerPath(dir))
		So(err, ShouldBeNil)
		h := highlight("disk", base, 0)
		So(s.BatchPut(ctx, []model.EnrichedHighlight{h}), ShouldBeNil)
		So(s.Close(), ShouldBeNil)

		Convey("Then data survives a reopen", func() {
			s2, err := repository.OpenBadgerStore(repository.WithBadgerPath(dir))
			So(err, ShouldBeNil)
			defer s2.Close()
			got, err := s2.Get(ctx, h.ID)
			So(err, ShouldBeNil)
			So(got.SourceID, ShouldEqual, "disk")
		})
	})
}
