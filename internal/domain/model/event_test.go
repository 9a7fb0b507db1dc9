package model_test

import (
	"testing"
	"time"

	"github.com/okian/highlights/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestHighlightID(t *testing.T) {
	Convey("Given a source and creation time", t, func() {
		created := time.UnixMilli(1_700_000_000_123)

		Convey("Then the identifier is deterministic per ordinal", func() {
			So(model.HighlightID("match-42", created, 0), ShouldEqual, "match-42_1700000000123_0")
			So(model.HighlightID("match-42", created, 0), ShouldEqual, model.HighlightID("match-42", created, 0))
			So(model.HighlightID("match-42", created, 1), ShouldNotEqual, model.HighlightID("match-42", created, 0))
		})

		Convey("Then unsafe characters are escaped", func() {
			So(model.HighlightID("s3://bucket/a b.mp4", created, 2), ShouldEqual, "s3~3A~2F~2Fbucket~2Fa~20b.mp4_1700000000123_2")
			So(model.HighlightID("  ", created, 0), ShouldEqual, "~20~20_1700000000123_0")
		})

		Convey("Then sources differing only in unsafe characters do not collide", func() {
			ids := map[string]bool{}
			for _, src := range []string{"game-1", "game_1", "game/1", "game 1", "game~1", " game-1"} {
				ids[model.HighlightID(src, created, 0)] = true
			}
			So(ids, ShouldHaveLength, 6)
		})
	})
}

func TestNewEnrichedHighlight(t *testing.T) {
	Convey("Given a candidate", t, func() {
		c := model.HighlightCandidate{
			StartTimeSec: 1, EndTimeSec: 4, DurationSec: 3,
			Confidence: 91, Labels: []string{"Ball", "Goal"}, PersonCount: 2,
		}

		Convey("When it is seeded into a highlight", func() {
			h := model.NewEnrichedHighlight(c)

			Convey("Then candidate fields are copied and the clip is pending", func() {
				So(h.StartTimeSec, ShouldEqual, 1)
				So(h.EndTimeSec, ShouldEqual, 4)
				So(h.Confidence, ShouldEqual, 91)
				So(h.Labels, ShouldResemble, []string{"Ball", "Goal"})
				So(h.Clip.Status, ShouldEqual, model.ClipPending)
				So(h.EnrichmentComplete, ShouldBeFalse)
			})

			Convey("And the label slice is not shared", func() {
				h.Labels[0] = "Crowd"
				So(c.Labels[0], ShouldEqual, "Ball")
			})
		})
	})
}

func TestParsePreferenceType(t *testing.T) {
	Convey("Given preference type strings", t, func() {
		pt, ok := model.ParsePreferenceType(" play_type ")
		So(ok, ShouldBeTrue)
		So(pt, ShouldEqual, model.PreferencePlayType)

		pt, ok = model.ParsePreferenceType("team")
		So(ok, ShouldBeTrue)
		So(pt, ShouldEqual, model.PreferenceTeam)

		_, ok = model.ParsePreferenceType("league")
		So(ok, ShouldBeFalse)
	})
}
