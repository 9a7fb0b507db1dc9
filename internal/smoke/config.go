// Package smoke drives a running highlights service end to end over HTTP:
// it submits generated segments, waits for them to finish and checks that
// highlights, clips and personalized rankings come back.
package smoke

import (
	"time"

	"github.com/okian/highlights/internal/domain/model"
)

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Segments     int           // Number of segments to submit
	Workers      int           // Concurrent submissions
	Timeout      time.Duration // Per-request timeout
	WaitTimeout  time.Duration // How long to wait for segments to finish
	PollInterval time.Duration // Delay between status checks
	UserID       string        // Viewer used for the personalization check
	Seed         uint64        // Seed for generated segments; zero is random
}

// Outcome classifies one submission.
type Outcome string

// Submission outcomes.
const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeRejected  Outcome = "rejected"
	OutcomeBusy      Outcome = "busy"
	OutcomeFailed    Outcome = "failed"
)

// Report summarizes a smoke run.
type Report struct {
	Submitted    map[Outcome]int
	Finished     map[model.SegmentState]int
	Unfinished   []string
	Highlights   int
	ClipsReady   int
	Personalized []model.PersonalizedHighlight
	StartTime    time.Time
	Duration     time.Duration
}

// OK reports whether every accepted segment finished and produced
// highlights.
func (r *Report) OK() bool {
	return len(r.Unfinished) == 0 && r.Finished[model.SegmentFailed] == 0 && r.Highlights > 0
}
