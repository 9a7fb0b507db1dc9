package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/highlights/internal/adapters/http/api"
	app "github.com/okian/highlights/internal/app"
	"github.com/okian/highlights/internal/config"
	"github.com/okian/highlights/internal/domain/model"
	"github.com/okian/highlights/pkg/logger"
)

func testConfig() *config.Config {
	cfg := config.New()
	cfg.WorkerCount = 2
	cfg.SimulateLatencyMS = 0
	cfg.PollIntervalMS = 1
	cfg.PollMaxAttempts = 100
	cfg.RescanSchedule = ""
	return cfg
}

func startService(ctx context.Context, cfg *config.Config) (*app.Service, http.Handler) {
	opts, closers, err := serviceOptions(ctx, cfg, logger.Get())
	convey.So(err, convey.ShouldBeNil)
	convey.So(closers, convey.ShouldBeEmpty)
	svc := app.New(opts...)
	convey.So(svc.Start(ctx), convey.ShouldBeNil)
	convey.Reset(svc.Stop)
	return svc, api.NewServer(svc).Handler()
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

func get(h http.Handler, target string, v any) int {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	if v != nil {
		_ = json.Unmarshal(w.Body.Bytes(), v)
	}
	return w.Code
}

func TestWiring(t *testing.T) {
	convey.Convey("Given the default wiring with simulated collaborators", t, func() {
		ctx := context.Background()
		_, h := startService(ctx, testConfig())

		convey.Convey("When a segment is posted over HTTP", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/segments",
				strings.NewReader(`{"id":"seg-1","sourceId":"match-1","videoRef":"gs://videos/1.mp4","gameType":"basketball"}`)))
			convey.So(w.Code, convey.ShouldEqual, http.StatusAccepted)

			convey.Convey("Then it completes and its highlights are served", func() {
				var st model.SegmentStatus
				convey.So(eventually(func() bool {
					get(h, "/segments/seg-1", &st)
					return st.State == model.SegmentCompleted
				}), convey.ShouldBeTrue)
				convey.So(st.HighlightCount, convey.ShouldEqual, 3)

				var list struct {
					Items []model.EnrichedHighlight `json:"items"`
					Count int                       `json:"count"`
				}
				convey.So(get(h, "/highlights?sourceId=match-1", &list), convey.ShouldEqual, http.StatusOK)
				convey.So(list.Count, convey.ShouldEqual, 3)
				convey.So(list.Items[0].Title, convey.ShouldNotBeEmpty)

				convey.So(eventually(func() bool {
					var done struct{ Count int }
					get(h, "/highlights?sourceId=match-1&clipGenerated=true", &done)
					return done.Count == 3
				}), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given the badger store", t, func() {
		cfg := testConfig()
		cfg.Store = config.StoreBadger
		cfg.BadgerPath = t.TempDir()
		ctx := context.Background()
		svc, _ := startService(ctx, cfg)

		convey.Convey("Then the service runs on it", func() {
			stats := svc.GetStats(ctx)
			convey.So(stats["started"], convey.ShouldEqual, true)
			convey.So(stats["highlights"], convey.ShouldEqual, 0)
		})
	})

	convey.Convey("Given an unreachable detection URL", t, func() {
		cfg := testConfig()
		cfg.DetectionURL = "not a url"

		convey.Convey("Then wiring fails", func() {
			_, _, err := serviceOptions(context.Background(), cfg, logger.Get())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
