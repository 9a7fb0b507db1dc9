package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(Init(), ShouldBeNil)
		defer func() { _ = Sync() }()

		Convey("Then Get returns a usable instance", func() {
			So(Get(), ShouldNotBeNil)
			So(Slog(), ShouldNotBeNil)
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithOutput(&buf)), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with a named logger and fields", func() {
			Named("clustering").With(String("segment", "s-1")).Info(ctx, "clustered", Int("candidates", 3))

			Convey("Then the component, fields and caller are rendered", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "component=clustering")
				So(out, ShouldContainSubstring, "segment=s-1")
				So(out, ShouldContainSubstring, "candidates=3")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised to warn", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Warn(ctx, "shown")

			Convey("Then info lines are dropped", func() {
				So(strings.Contains(buf.String(), "hidden"), ShouldBeFalse)
				So(buf.String(), ShouldContainSubstring, "shown")
			})
		})

		Convey("When JSON output is requested", func() {
			buf.Reset()
			So(Init(WithOutput(&buf), WithJSON(true)), ShouldBeNil)
			Get().Error(ctx, "boom", Bool("fatal", true))

			Convey("Then lines are JSON objects", func() {
				So(buf.String(), ShouldStartWith, "{")
				So(buf.String(), ShouldContainSubstring, `"fatal":true`)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(SetLevelString("debug"), ShouldBeNil)
		So(SetLevelString("WARNING"), ShouldBeNil)
		So(SetLevelString(""), ShouldBeNil)
		So(SetLevelString("verbose"), ShouldNotBeNil)
	})
}
