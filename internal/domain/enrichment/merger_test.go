package enrichment_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/highlights/internal/domain/enrichment"
	"github.com/okian/highlights/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type contextualFunc func(ctx context.Context, req enrichment.ContextRequest) (enrichment.ContextResponse, error)

func (f contextualFunc) Analyze(ctx context.Context, req enrichment.ContextRequest) (enrichment.ContextResponse, error) {
	return f(ctx, req)
}

type textFunc func(ctx context.Context, text string) (enrichment.TextAnalysis, error)

func (f textFunc) Analyze(ctx context.Context, text string) (enrichment.TextAnalysis, error) {
	return f(ctx, text)
}

func candidates() []model.HighlightCandidate {
	return []model.HighlightCandidate{
		{StartTimeSec: 1, EndTimeSec: 4, DurationSec: 3, Confidence: 92, Labels: []string{"Goal"}},
		{StartTimeSec: 20, EndTimeSec: 22, DurationSec: 2, Confidence: 88, Labels: []string{"Ball"}},
	}
}

func assertTotal(hs []model.EnrichedHighlight) {
	for _, h := range hs {
		So(h.EnrichmentComplete, ShouldBeTrue)
		So(h.Title, ShouldNotBeBlank)
		So(h.PlayType, ShouldNotBeBlank)
		So(h.TargetAudience, ShouldNotBeBlank)
		So(h.ExcitementLevel, ShouldBeBetweenOrEqual, 1, 10)
		So(h.GamingContext.EmotionalTone, ShouldNotBeBlank)
		So(h.GamingContext.GameplayType, ShouldNotBeBlank)
		So(h.GamingContext.AudienceAppeal, ShouldNotBeBlank)
		So(h.Clip.Status, ShouldEqual, model.ClipPending)
	}
}

func TestMerger_Fallbacks(t *testing.T) {
	Convey("Given a merger whose collaborators fail", t, func() {
		ctx := context.Background()
		failing := contextualFunc(func(context.Context, enrichment.ContextRequest) (enrichment.ContextResponse, error) {
			return enrichment.ContextResponse{}, errors.New("upstream unavailable")
		})
		failingText := textFunc(func(context.Context, string) (enrichment.TextAnalysis, error) {
			return enrichment.TextAnalysis{}, errors.New("quota exceeded")
		})
		m := enrichment.New(
			enrichment.WithContextualAnalyzer(failing),
			enrichment.WithTextAnalyzer(failingText),
		)

		Convey("When a batch is enriched", func() {
			hs := m.Enrich(ctx, enrichment.SegmentContext{SourceID: "match-1", GameType: "soccer"}, candidates())

			Convey("Then every candidate gets the fallback values", func() {
				So(hs, ShouldHaveLength, 2)
				assertTotal(hs)
				So(hs[0].AIEnhanced, ShouldBeFalse)
				So(hs[0].TextEnhanced, ShouldBeFalse)
				So(hs[0].PlayType, ShouldEqual, "detected")
				So(hs[0].Title, ShouldEqual, "Auto-detected Highlight")
				So(hs[0].TargetAudience, ShouldEqual, "general")
				So(hs[0].ExcitementLevel, ShouldAlmostEqual, 9.2, 1e-9)
				So(hs[1].ExcitementLevel, ShouldAlmostEqual, 8.8, 1e-9)
				So(hs[0].GamingContext, ShouldResemble, model.GamingContext{
					EmotionalTone:  enrichment.ToneNeutral,
					GameplayType:   enrichment.GameplayGeneral,
					AudienceAppeal: enrichment.AppealBroad,
				})
				So(hs[0].Sport, ShouldEqual, "soccer")
				So(hs[1].Ordinal, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a merger with no collaborators", t, func() {
		m := enrichment.New()

		Convey("Then records are still complete", func() {
			hs := m.Enrich(context.Background(), enrichment.SegmentContext{}, candidates())
			assertTotal(hs)
		})

		Convey("Then an empty batch yields an empty result", func() {
			hs := m.Enrich(context.Background(), enrichment.SegmentContext{}, nil)
			So(hs, ShouldNotBeNil)
			So(hs, ShouldBeEmpty)
		})
	})

	Convey("Given custom defaults", t, func() {
		m := enrichment.New(enrichment.WithDefaults(enrichment.Defaults{Title: "Highlight"}))

		Convey("Then unset fields keep the standard values", func() {
			hs := m.Enrich(context.Background(), enrichment.SegmentContext{}, candidates()[:1])
			So(hs[0].Title, ShouldEqual, "Highlight")
			So(hs[0].PlayType, ShouldEqual, "detected")
		})
	})

	Convey("Given a low confidence candidate", t, func() {
		m := enrichment.New()
		hs := m.Enrich(context.Background(), enrichment.SegmentContext{},
			[]model.HighlightCandidate{{Confidence: 3}})

		Convey("Then derived excitement is clamped to the minimum", func() {
			So(hs[0].ExcitementLevel, ShouldEqual, 1)
		})
	})
}

func TestMerger_ContextualJoin(t *testing.T) {
	Convey("Given a collaborator that answers out of order", t, func() {
		var got enrichment.ContextRequest
		c := contextualFunc(func(_ context.Context, req enrichment.ContextRequest) (enrichment.ContextResponse, error) {
			got = req
			return enrichment.ContextResponse{Highlights: []enrichment.ContextResult{
				{ID: req.Highlights[1].ID, ExcitementLevel: 4, PlayType: "Skill Move", Title: "Nice touch", TargetAudience: "Casual"},
				{ID: req.Highlights[0].ID, ExcitementLevel: 14, PlayType: "goal", Title: "Screamer"},
			}}, nil
		})
		m := enrichment.New(enrichment.WithContextualAnalyzer(c))
		hs := m.Enrich(context.Background(), enrichment.SegmentContext{SourceID: "s", GameType: "soccer"}, candidates())

		Convey("Then one batched request carries every candidate", func() {
			So(got.Highlights, ShouldHaveLength, 2)
			So(got.VideoSource, ShouldEqual, "s")
			So(got.GameType, ShouldEqual, "soccer")
			So(got.Highlights[0].Labels, ShouldResemble, []string{"Goal"})
		})

		Convey("Then results are joined by id", func() {
			So(hs[0].Title, ShouldEqual, "Screamer")
			So(hs[0].ExcitementLevel, ShouldEqual, 10)
			So(hs[0].TargetAudience, ShouldEqual, "general")
			So(hs[1].Title, ShouldEqual, "Nice touch")
			So(hs[1].PlayType, ShouldEqual, "skill_move")
			So(hs[1].TargetAudience, ShouldEqual, "casual")
			So(hs[0].AIEnhanced, ShouldBeTrue)
			So(hs[1].AIEnhanced, ShouldBeTrue)
		})
	})

	Convey("Given a collaborator that omits ids and drops a result", t, func() {
		c := contextualFunc(func(context.Context, enrichment.ContextRequest) (enrichment.ContextResponse, error) {
			return enrichment.ContextResponse{Highlights: []enrichment.ContextResult{
				{ExcitementLevel: 7, PlayType: "goal", Title: "First"},
			}}, nil
		})
		m := enrichment.New(enrichment.WithContextualAnalyzer(c))
		hs := m.Enrich(context.Background(), enrichment.SegmentContext{}, candidates())

		Convey("Then positional matching covers the first and the rest fall back", func() {
			So(hs[0].Title, ShouldEqual, "First")
			So(hs[0].AIEnhanced, ShouldBeTrue)
			So(hs[1].AIEnhanced, ShouldBeFalse)
			So(hs[1].Title, ShouldEqual, "Auto-detected Highlight")
			assertTotal(hs)
		})
	})

	Convey("Given a collaborator returning an empty result", t, func() {
		c := contextualFunc(func(_ context.Context, req enrichment.ContextRequest) (enrichment.ContextResponse, error) {
			return enrichment.ContextResponse{Highlights: []enrichment.ContextResult{{ID: req.Highlights[0].ID}}}, nil
		})
		m := enrichment.New(enrichment.WithContextualAnalyzer(c))
		hs := m.Enrich(context.Background(), enrichment.SegmentContext{}, candidates())

		Convey("Then the malformed result is treated as missing", func() {
			So(hs[0].AIEnhanced, ShouldBeFalse)
			So(hs[0].PlayType, ShouldEqual, "detected")
		})
	})
}

func TestMerger_TextStage(t *testing.T) {
	Convey("Given a text analyzer that recognizes people and teams", t, func() {
		var calls atomic.Int64
		var mu sync.Mutex
		var texts []string
		ta := textFunc(func(_ context.Context, text string) (enrichment.TextAnalysis, error) {
			calls.Add(1)
			mu.Lock()
			texts = append(texts, text)
			mu.Unlock()
			return enrichment.TextAnalysis{
				Sentiment: &model.Sentiment{Label: "POSITIVE", Score: 0.93},
				Entities: []model.Entity{
					{Text: "Messi", Type: "PERSON", Score: 0.9},
					{Text: "Barcelona", Type: "ORGANIZATION", Score: 0.8},
					{Text: "Somebody", Type: "PERSON", Score: 0.1},
				},
				KeyPhrases: []model.KeyPhrase{{Text: "incredible goal", Score: 0.9}},
			}, nil
		})
		m := enrichment.New(enrichment.WithTextAnalyzer(ta), enrichment.WithConcurrency(2))
		seg := enrichment.SegmentContext{Teams: []string{"barcelona"}, Players: []string{"Pedri"}}
		hs := m.Enrich(context.Background(), seg, candidates())

		Convey("Then each highlight is analyzed once", func() {
			So(calls.Load(), ShouldEqual, 2)
			So(texts[0], ShouldContainSubstring, "Auto-detected Highlight")
		})

		Convey("Then analytics are attached and folded", func() {
			h := hs[0]
			So(h.TextEnhanced, ShouldBeTrue)
			So(h.Sentiment.Label, ShouldEqual, "POSITIVE")
			So(h.Players, ShouldResemble, []string{"Pedri", "Messi"})
			So(h.Teams, ShouldResemble, []string{"barcelona"})
			So(h.GamingContext.EmotionalTone, ShouldEqual, enrichment.ToneExcited)
			So(h.GamingContext.GameplayType, ShouldEqual, enrichment.GameplayScoring)
			So(h.GamingContext.AudienceAppeal, ShouldEqual, enrichment.AppealEnthusiast)
		})
	})

	Convey("Given a text analyzer failing only for one text", t, func() {
		ta := textFunc(func(_ context.Context, text string) (enrichment.TextAnalysis, error) {
			if strings.Contains(text, "boom") {
				return enrichment.TextAnalysis{}, errors.New("boom")
			}
			return enrichment.TextAnalysis{Sentiment: &model.Sentiment{Label: "NEGATIVE", Score: 0.8}}, nil
		})
		c := contextualFunc(func(_ context.Context, req enrichment.ContextRequest) (enrichment.ContextResponse, error) {
			return enrichment.ContextResponse{Highlights: []enrichment.ContextResult{
				{ID: req.Highlights[0].ID, Title: "boom", PlayType: "goal"},
				{ID: req.Highlights[1].ID, Title: "calm", PlayType: "save"},
			}}, nil
		})
		m := enrichment.New(enrichment.WithTextAnalyzer(ta), enrichment.WithContextualAnalyzer(c))
		hs := m.Enrich(context.Background(), enrichment.SegmentContext{}, candidates())

		Convey("Then the failure stays isolated", func() {
			So(hs[0].TextEnhanced, ShouldBeFalse)
			So(hs[0].GamingContext.EmotionalTone, ShouldEqual, enrichment.ToneNeutral)
			So(hs[1].TextEnhanced, ShouldBeTrue)
			So(hs[1].GamingContext.EmotionalTone, ShouldEqual, enrichment.ToneTense)
			assertTotal(hs)
		})
	})

	Convey("Given a rate-limited merger and a cancelled context", t, func() {
		var calls atomic.Int64
		ta := textFunc(func(context.Context, string) (enrichment.TextAnalysis, error) {
			calls.Add(1)
			return enrichment.TextAnalysis{}, nil
		})
		m := enrichment.New(enrichment.WithTextAnalyzer(ta), enrichment.WithRateLimit(0.001, 1))
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		hs := m.Enrich(ctx, enrichment.SegmentContext{}, candidates())

		Convey("Then throttled calls fall back instead of blocking", func() {
			So(calls.Load(), ShouldEqual, 1)
			assertTotal(hs)
		})
	})
}

func TestDeriveGamingContext(t *testing.T) {
	Convey("Given text analytics results", t, func() {
		Convey("When sentiment is below the threshold", func() {
			gc := enrichment.DeriveGamingContext(enrichment.TextAnalysis{
				Sentiment: &model.Sentiment{Label: "POSITIVE", Score: 0.69},
			}, 0.7)
			So(gc.EmotionalTone, ShouldEqual, enrichment.ToneNeutral)
		})

		Convey("When sentiment is mixed and strong", func() {
			gc := enrichment.DeriveGamingContext(enrichment.TextAnalysis{
				Sentiment: &model.Sentiment{Label: "mixed", Score: 0.7},
			}, 0.7)
			So(gc.EmotionalTone, ShouldEqual, enrichment.ToneDramatic)
		})

		Convey("When key phrases mention a save", func() {
			gc := enrichment.DeriveGamingContext(enrichment.TextAnalysis{
				KeyPhrases: []model.KeyPhrase{{Text: "Diving save"}},
			}, 0.7)
			So(gc.GameplayType, ShouldEqual, enrichment.GameplayDefensive)
		})

		Convey("When a keyword only appears inside another word", func() {
			gc := enrichment.DeriveGamingContext(enrichment.TextAnalysis{
				Entities: []model.Entity{{Text: "country"}},
			}, 0.7)
			So(gc.GameplayType, ShouldEqual, enrichment.GameplayGeneral)
		})

		Convey("When many superlatives are present", func() {
			gc := enrichment.DeriveGamingContext(enrichment.TextAnalysis{
				KeyPhrases: []model.KeyPhrase{
					{Text: "incredible dribble"},
					{Text: "the greatest run"},
					{Text: "epic finish"},
				},
			}, 0.7)
			So(gc.AudienceAppeal, ShouldEqual, enrichment.AppealViral)
			So(gc.GameplayType, ShouldEqual, enrichment.GameplaySkill)
		})

		Convey("When nothing is available", func() {
			gc := enrichment.DeriveGamingContext(enrichment.TextAnalysis{}, 0.7)
			So(gc, ShouldResemble, model.GamingContext{
				EmotionalTone:  enrichment.ToneNeutral,
				GameplayType:   enrichment.GameplayGeneral,
				AudienceAppeal: enrichment.AppealBroad,
			})
		})
	})
}
