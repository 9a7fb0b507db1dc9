package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/highlights/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given the default config", t, func() {
		cfg := config.New()

		convey.Convey("Then it is valid", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then durations derive from their settings", func() {
			convey.So(cfg.PollInterval(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.MaxGap(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.PollTimeout(), convey.ShouldEqual, 30*time.Minute)
			convey.So(cfg.BreakerTimeout(), convey.ShouldEqual, 30*time.Second)
		})

		convey.Convey("When several settings are broken", func() {
			cfg.LogLevel = "loud"
			cfg.BatchSize = 0
			cfg.Store = "cassandra"
			cfg.MaxConfidence = 10
			cfg.WeightTeam = -1

			err := cfg.Validate()

			convey.Convey("Then every problem is reported", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				for _, want := range []string{"log_level", "batch_size", "store", "max_confidence", "weights"} {
					convey.So(err.Error(), convey.ShouldContainSubstring, want)
				}
			})
		})

		convey.Convey("When the badger store has no path", func() {
			cfg.Store = config.StoreBadger
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			cfg.BadgerPath = t.TempDir()
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When the batch is larger than a store batch", func() {
			cfg.BatchSize = 501
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
