package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/highlights/internal/domain/jobs"
	. "github.com/smartystreets/goconvey/convey"
)

// scripted replays a fixed sequence of statuses, repeating the last one.
func scripted(statuses ...jobs.Status) (jobs.Poll[string], *int) {
	calls := 0
	return func(ctx context.Context) (jobs.Status, string, string, error) {
		i := calls
		calls++
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		s := statuses[i]
		if s == jobs.StatusSucceeded {
			return s, "labels", "", nil
		}
		if s == jobs.StatusFailed {
			return s, "", "video unreadable", nil
		}
		return s, "", "", nil
	}, &calls
}

func TestWait(t *testing.T) {
	Convey("Given a poller with a short interval", t, func() {
		ctx := context.Background()
		p := jobs.New("label-detection", jobs.WithInterval(time.Millisecond))

		Convey("When the job progresses to SUCCEEDED", func() {
			poll, calls := scripted(jobs.StatusPending, jobs.StatusInProgress, jobs.StatusSucceeded)
			res, err := jobs.Wait(ctx, p, "job-1", poll)

			Convey("Then the result is returned after three polls", func() {
				So(err, ShouldBeNil)
				So(res, ShouldEqual, "labels")
				So(*calls, ShouldEqual, 3)
			})
		})

		Convey("When the job reaches FAILED", func() {
			poll, _ := scripted(jobs.StatusInProgress, jobs.StatusFailed)
			_, err := jobs.Wait(ctx, p, "job-2", poll)

			Convey("Then ErrJobFailed carries the reason", func() {
				So(errors.Is(err, jobs.ErrJobFailed), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "video unreadable")
			})
		})

		Convey("When polling itself errors", func() {
			boom := errors.New("connection refused")
			_, err := jobs.Wait(ctx, p, "job-3", func(context.Context) (jobs.Status, string, string, error) {
				return "", "", "", boom
			})

			Convey("Then the wait aborts with that error", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
			})
		})
	})

	Convey("Given a poller with an attempt budget", t, func() {
		p := jobs.New("person-tracking", jobs.WithInterval(time.Millisecond), jobs.WithMaxAttempts(4))
		poll, calls := scripted(jobs.StatusInProgress)

		_, err := jobs.Wait(context.Background(), p, "job-4", poll)

		Convey("Then it stops after the budget", func() {
			So(errors.Is(err, jobs.ErrPollExhausted), ShouldBeTrue)
			So(*calls, ShouldEqual, 4)
		})
	})

	Convey("Given a poller with a timeout", t, func() {
		p := jobs.New("label-detection", jobs.WithInterval(5*time.Millisecond), jobs.WithTimeout(20*time.Millisecond))
		poll, _ := scripted(jobs.StatusPending)

		_, err := jobs.Wait(context.Background(), p, "job-5", poll)

		Convey("Then ErrPollTimeout is returned", func() {
			So(errors.Is(err, jobs.ErrPollTimeout), ShouldBeTrue)
		})
	})

	Convey("Given a cancelled context", t, func() {
		p := jobs.New("label-detection", jobs.WithInterval(time.Hour))
		ctx, cancel := context.WithCancel(context.Background())
		poll, _ := scripted(jobs.StatusInProgress)
		cancel()

		_, err := jobs.Wait(ctx, p, "job-6", poll)

		Convey("Then the wait ends with the context error", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestStatusTerminal(t *testing.T) {
	Convey("Terminal states end a job", t, func() {
		So(jobs.StatusSucceeded.Terminal(), ShouldBeTrue)
		So(jobs.StatusFailed.Terminal(), ShouldBeTrue)
		So(jobs.StatusPending.Terminal(), ShouldBeFalse)
		So(jobs.StatusInProgress.Terminal(), ShouldBeFalse)
	})
}
