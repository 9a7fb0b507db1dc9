// Package clip tracks the transcoding job of every persisted highlight.
package clip

import (
	"context"

	"github.com/okian/highlights/internal/domain/model"
)

// Request asks the transcoder for one clip.
type Request struct {
	HighlightID   string `json:"highlightId"`
	SourceRef     string `json:"sourceRef"`
	StartTimecode string `json:"startTimecode"`
	EndTimecode   string `json:"endTimecode"`
	Destination   string `json:"destination"`
}

// Transcoder submits clip jobs. Completions arrive out of band.
type Transcoder interface {
	SubmitClip(ctx context.Context, req Request) (string, error)
}

// CompletionStatus is the terminal state reported by the transcoder.
type CompletionStatus string

// Completion states.
const (
	StatusComplete CompletionStatus = "COMPLETE"
	StatusError    CompletionStatus = "ERROR"
)

// Completion is the out-of-band job result. HighlightID is optional; when
// empty the highlight is found by job ID.
type Completion struct {
	JobID        string           `json:"jobId" validate:"required"`
	HighlightID  string           `json:"highlightId,omitempty"`
	Status       CompletionStatus `json:"status" validate:"required,oneof=COMPLETE ERROR"`
	MediaURL     string           `json:"mediaUrl,omitempty"`
	ThumbnailURL string           `json:"thumbnailUrl,omitempty"`
}

// Store is the slice of the highlight store the tracker needs. Update must
// not write when fn returns an error.
type Store interface {
	Get(ctx context.Context, id string) (model.EnrichedHighlight, error)
	Update(ctx context.Context, id string, fn func(*model.EnrichedHighlight) error) error
	Scan(ctx context.Context, f model.HighlightFilter) ([]model.EnrichedHighlight, error)
}
