// Package model contains domain models passed between layers.
package model

import "time"

// DetectionEvent is a single labeled detection reported by the detection
// service. It is consumed by clustering and never persisted.
type DetectionEvent struct {
	TimestampMillis int64   `json:"timestampMillis"`
	Label           string  `json:"label"`
	Confidence      float64 `json:"confidence"` // 0-100
}

// PersonTrack is one sighting of a tracked person.
type PersonTrack struct {
	PersonIndex     int   `json:"personIndex"`
	TimestampMillis int64 `json:"timestampMillis"`
}

// HighlightCandidate is a temporally bounded span produced by clustering.
type HighlightCandidate struct {
	StartTimeSec float64  `json:"startTimeSec"`
	EndTimeSec   float64  `json:"endTimeSec"`
	DurationSec  float64  `json:"durationSec"`
	Confidence   float64  `json:"confidence"`
	Labels       []string `json:"labels"`
	PersonCount  int      `json:"personCount"`
}

// Segment is the unit of work submitted to the pipeline.
type Segment struct {
	ID        string    `json:"id" validate:"required,max=128"`
	SourceID  string    `json:"sourceId" validate:"required,max=256"`
	VideoRef  string    `json:"videoRef" validate:"required"`
	GameType  string    `json:"gameType" validate:"omitempty,max=64"`
	Teams     []string  `json:"teams,omitempty" validate:"omitempty,dive,required"`
	Players   []string  `json:"players,omitempty" validate:"omitempty,dive,required"`
	CreatedAt time.Time `json:"createdAt"`
}

// SegmentState is the lifecycle of a submitted segment.
type SegmentState string

// Segment states.
const (
	SegmentQueued     SegmentState = "queued"
	SegmentProcessing SegmentState = "processing"
	SegmentCompleted  SegmentState = "completed"
	SegmentFailed     SegmentState = "failed"
)

// SegmentStatus reports progress of a segment through the pipeline.
type SegmentStatus struct {
	SegmentID      string       `json:"segmentId"`
	State          SegmentState `json:"state"`
	HighlightCount int          `json:"highlightCount"`
	Error          string       `json:"error,omitempty"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}
