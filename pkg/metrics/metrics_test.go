package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a dedicated registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When a manager is created with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 1}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then its collectors are registered on that registry", func() {
				So(m, ShouldNotBeNil)
				m.segmentsSubmitted.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_segments_submitted_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given an isolated global manager", t, func() {
		m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))
		So(Use(m), ShouldBeNil)
		defer func() { _ = Use(NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))) }()

		Convey("When helpers are invoked", func() {
			RecordSegmentSubmitted()
			RecordSegmentSubmitted()
			RecordSegmentFinished("completed", 3)
			RecordEnrichment("contextual", "fallback")
			RecordClipTransition("processing")
			UpdateQueueSize(7)
			RecordRanking("rule_based", 0.01)

			Convey("Then the collectors reflect them", func() {
				So(testutil.ToFloat64(m.segmentsSubmitted), ShouldEqual, 2)
				So(testutil.ToFloat64(m.segmentsFinished.WithLabelValues("completed")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.enrichmentOutcomes.WithLabelValues("contextual", "fallback")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.clipTransitions.WithLabelValues("processing")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.queueSize), ShouldEqual, 7)
				So(testutil.ToFloat64(m.rankingRequests.WithLabelValues("rule_based")), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a nil manager", t, func() {
		So(Use(nil), ShouldEqual, ErrUnknownManager)
	})
}
