// Package enrichment attaches contextual and text-analytics signals to
// highlight candidates and guarantees a fully populated record even when
// the collaborators are unavailable.
package enrichment

import (
	"context"

	"github.com/okian/highlights/internal/domain/model"
)

// SegmentContext is the segment-level context sent with a batch.
type SegmentContext struct {
	SourceID string
	GameType string
	Teams    []string
	Players  []string
}

// ContextItem describes one candidate to the generative collaborator.
type ContextItem struct {
	ID         string   `json:"id"`
	StartTime  float64  `json:"startTime"`
	Duration   float64  `json:"duration"`
	Labels     []string `json:"labels"`
	Confidence float64  `json:"confidence"`
}

// ContextRequest is the single batched contextual call.
type ContextRequest struct {
	VideoSource string        `json:"videoSource"`
	GameType    string        `json:"gameType"`
	Highlights  []ContextItem `json:"highlights"`
}

// ContextResult is the collaborator's verdict on one candidate. ID echoes
// ContextItem.ID; results without an ID are matched by array position.
type ContextResult struct {
	ID              string  `json:"id,omitempty"`
	ExcitementLevel float64 `json:"excitementLevel"`
	PlayType        string  `json:"playType"`
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	TargetAudience  string  `json:"targetAudience"`
}

// ContextResponse is the structured collaborator reply.
type ContextResponse struct {
	Highlights []ContextResult `json:"highlights"`
}

// ContextualAnalyzer rates, classifies and titles a batch of candidates.
type ContextualAnalyzer interface {
	Analyze(ctx context.Context, req ContextRequest) (ContextResponse, error)
}

// TextAnalysis is the text-analytics reply for one text.
type TextAnalysis struct {
	Sentiment  *model.Sentiment
	Entities   []model.Entity
	KeyPhrases []model.KeyPhrase
}

// TextAnalyzer runs sentiment, entity and key phrase detection on a text.
type TextAnalyzer interface {
	Analyze(ctx context.Context, text string) (TextAnalysis, error)
}
