package clustering_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/okian/highlights/internal/domain/clustering"
	"github.com/okian/highlights/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func ev(ts int64, label string, conf float64) model.DetectionEvent {
	return model.DetectionEvent{TimestampMillis: ts, Label: label, Confidence: conf}
}

func TestCluster_Scenario(t *testing.T) {
	Convey("Given a ball, a goal and a celebration one second apart", t, func() {
		engine := clustering.New()
		events := []model.DetectionEvent{
			ev(0, "Ball", 90),
			ev(1000, "Goal", 92),
			ev(2000, "Celebration", 95),
		}

		Convey("When clustering", func() {
			out := engine.Cluster(events, nil)

			Convey("Then exactly one candidate spans the three detections", func() {
				So(out, ShouldHaveLength, 1)
				c := out[0]
				So(c.StartTimeSec, ShouldEqual, 0)
				So(c.EndTimeSec, ShouldEqual, 2)
				So(c.DurationSec, ShouldEqual, 2)
				So(c.Confidence, ShouldAlmostEqual, 92.333, 0.001)
				So(c.Labels, ShouldResemble, []string{"Ball", "Goal", "Celebration"})
				So(c.PersonCount, ShouldEqual, 0)
			})
		})
	})
}

func TestCluster_Filtering(t *testing.T) {
	Convey("Given a default engine", t, func() {
		engine := clustering.New()

		Convey("When no detection is interesting", func() {
			out := engine.Cluster([]model.DetectionEvent{
				ev(0, "Tree", 99), ev(1000, "Car", 99), ev(2000, "Sky", 99),
			}, nil)

			Convey("Then the result is empty, not nil", func() {
				So(out, ShouldNotBeNil)
				So(out, ShouldBeEmpty)
			})
		})

		Convey("When confidence sits exactly at the floor", func() {
			out := engine.Cluster([]model.DetectionEvent{
				ev(0, "Ball", 85), ev(1000, "Ball", 85), ev(2000, "Ball", 85),
			}, nil)

			Convey("Then detections are discarded", func() {
				So(out, ShouldBeEmpty)
			})
		})

		Convey("When labels differ only in case", func() {
			out := engine.Cluster([]model.DetectionEvent{
				ev(0, "ball", 90), ev(500, "GOAL", 90), ev(900, " Crowd ", 90),
			}, nil)

			Convey("Then they still match the allow-list", func() {
				So(out, ShouldHaveLength, 1)
			})
		})

		Convey("When only two timestamps are close together", func() {
			out := engine.Cluster([]model.DetectionEvent{
				ev(0, "Ball", 90), ev(0, "Goal", 91), ev(0, "Crowd", 92),
				ev(1000, "Ball", 90),
			}, nil)

			Convey("Then the run is dropped as noise regardless of detection count", func() {
				So(out, ShouldBeEmpty)
			})
		})
	})
}

func TestCluster_Gaps(t *testing.T) {
	Convey("Given two bursts separated by more than five seconds", t, func() {
		engine := clustering.New()
		events := []model.DetectionEvent{
			ev(0, "Ball", 88), ev(1000, "Ball", 88), ev(2000, "Ball", 88),
			ev(7001, "Goal", 97), ev(8000, "Goal", 97), ev(9000, "Celebration", 97),
		}

		Convey("When clustering", func() {
			out := engine.Cluster(events, nil)

			Convey("Then two candidates come out, the stronger first", func() {
				So(out, ShouldHaveLength, 2)
				So(out[0].StartTimeSec, ShouldEqual, 7.001)
				So(out[0].Confidence, ShouldEqual, 97)
				So(out[1].StartTimeSec, ShouldEqual, 0)
			})
		})
	})

	Convey("Given timestamps exactly five seconds apart", t, func() {
		engine := clustering.New()
		out := engine.Cluster([]model.DetectionEvent{
			ev(0, "Ball", 90), ev(5000, "Ball", 90), ev(10000, "Ball", 90),
		}, nil)

		Convey("Then they stay in one cluster", func() {
			So(out, ShouldHaveLength, 1)
			So(out[0].DurationSec, ShouldEqual, 10)
		})
	})

	Convey("Given equal-confidence clusters", t, func() {
		engine := clustering.New()
		out := engine.Cluster([]model.DetectionEvent{
			ev(20000, "Goal", 90), ev(21000, "Goal", 90), ev(22000, "Goal", 90),
			ev(0, "Ball", 90), ev(1000, "Ball", 90), ev(2000, "Ball", 90),
		}, nil)

		Convey("Then ties keep timeline order", func() {
			So(out, ShouldHaveLength, 2)
			So(out[0].StartTimeSec, ShouldEqual, 0)
			So(out[1].StartTimeSec, ShouldEqual, 20)
		})
	})
}

func TestCluster_PersonTracks(t *testing.T) {
	Convey("Given a cluster from 1s to 3s", t, func() {
		events := []model.DetectionEvent{ev(1000, "Ball", 90), ev(2000, "Ball", 90), ev(3000, "Ball", 90)}

		Convey("When six distinct people are tracked inside the window", func() {
			var tracks []model.PersonTrack
			for p := 0; p < 6; p++ {
				tracks = append(tracks, model.PersonTrack{PersonIndex: p, TimestampMillis: 1000 + int64(p)*200})
				tracks = append(tracks, model.PersonTrack{PersonIndex: p, TimestampMillis: 3000})
			}
			tracks = append(tracks, model.PersonTrack{PersonIndex: 99, TimestampMillis: 3001})
			out := clustering.New(clustering.WithMaxConfidence(200)).Cluster(events, tracks)

			Convey("Then confidence is boosted by 1.2 and the outsider is ignored", func() {
				So(out[0].PersonCount, ShouldEqual, 6)
				So(out[0].Confidence, ShouldAlmostEqual, 108, 1e-6)
			})
		})

		Convey("When exactly five people are tracked", func() {
			var tracks []model.PersonTrack
			for p := 0; p < 5; p++ {
				tracks = append(tracks, model.PersonTrack{PersonIndex: p, TimestampMillis: 2000})
			}
			out := clustering.New().Cluster(events, tracks)

			Convey("Then no boost applies", func() {
				So(out[0].PersonCount, ShouldEqual, 5)
				So(out[0].Confidence, ShouldEqual, 90)
			})
		})
	})

	Convey("Given a boosted cluster that would exceed the cap", t, func() {
		events := []model.DetectionEvent{ev(0, "Goal", 95), ev(500, "Goal", 95), ev(1000, "Goal", 95)}
		var tracks []model.PersonTrack
		for p := 0; p < 10; p++ {
			tracks = append(tracks, model.PersonTrack{PersonIndex: p, TimestampMillis: 500})
		}

		Convey("Then confidence is clamped to the configured maximum", func() {
			So(clustering.New().Cluster(events, tracks)[0].Confidence, ShouldEqual, 100)
			So(clustering.New(clustering.WithMaxConfidence(110)).Cluster(events, tracks)[0].Confidence, ShouldEqual, 110)
		})
	})
}

func TestCluster_Options(t *testing.T) {
	Convey("Given custom labels and a tighter gap", t, func() {
		engine := clustering.New(
			clustering.WithLabels([]string{"Puck"}),
			clustering.WithMaxGap(time.Second),
			clustering.WithMinTimestamps(2),
			clustering.WithMinConfidence(50),
		)
		out := engine.Cluster([]model.DetectionEvent{
			ev(0, "Puck", 60), ev(1000, "Puck", 60),
			ev(2500, "Puck", 70), ev(3000, "Puck", 70),
			ev(3500, "Ball", 99),
		}, nil)

		Convey("Then clustering follows the options", func() {
			So(out, ShouldHaveLength, 2)
			So(out[0].Confidence, ShouldEqual, 70)
			So(out[1].Confidence, ShouldEqual, 60)
		})
	})
}

func TestCluster_Invariants(t *testing.T) {
	Convey("Given random detection sets", t, func() {
		rng := rand.New(rand.NewSource(7)) //nolint:gosec // deterministic test data
		labels := append([]string{"Tree"}, clustering.DefaultLabels...)
		engine := clustering.New()

		for run := 0; run < 200; run++ {
			var events []model.DetectionEvent
			for i := 0; i < rng.Intn(60); i++ {
				events = append(events, ev(
					int64(rng.Intn(120))*500,
					labels[rng.Intn(len(labels))],
					80+rng.Float64()*20,
				))
			}
			var tracks []model.PersonTrack
			for i := 0; i < rng.Intn(30); i++ {
				tracks = append(tracks, model.PersonTrack{PersonIndex: rng.Intn(12), TimestampMillis: int64(rng.Intn(60000))})
			}

			out := engine.Cluster(events, tracks)
			for i, c := range out {
				So(c.EndTimeSec, ShouldBeGreaterThanOrEqualTo, c.StartTimeSec)
				So(c.Confidence, ShouldBeGreaterThan, 85)
				So(c.Confidence, ShouldBeLessThanOrEqualTo, 100)
				So(distinctTimestamps(events, c), ShouldBeGreaterThanOrEqualTo, 3)
				if i > 0 {
					So(out[i-1].Confidence, ShouldBeGreaterThanOrEqualTo, c.Confidence)
				}
			}
			So(engine.Cluster(events, tracks), ShouldResemble, out)
		}
	})
}

// distinctTimestamps counts interesting timestamps within a candidate window.
func distinctTimestamps(events []model.DetectionEvent, c model.HighlightCandidate) int {
	allowed := map[string]bool{}
	for _, l := range clustering.DefaultLabels {
		allowed[l] = true
	}
	seen := map[int64]bool{}
	for _, e := range events {
		sec := float64(e.TimestampMillis) / 1000
		if allowed[e.Label] && e.Confidence > 85 && sec >= c.StartTimeSec && sec <= c.EndTimeSec {
			seen[e.TimestampMillis] = true
		}
	}
	return len(seen)
}
