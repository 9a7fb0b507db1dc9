package simulate

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/okian/highlights/internal/domain/enrichment"
	"github.com/okian/highlights/internal/domain/model"
)

// playTypes maps detection labels to the play type a model would name.
var playTypes = map[string]string{ //nolint:gochecknoglobals // fixture vocabulary
	"goal":        "goal",
	"scoring":     "goal",
	"dunk":        "slam_dunk",
	"celebration": "celebration",
	"cheering":    "crowd_reaction",
	"crowd":       "crowd_reaction",
}

// Contextual is a deterministic enrichment.ContextualAnalyzer.
type Contextual struct{}

// Analyze implements enrichment.ContextualAnalyzer.
func (Contextual) Analyze(ctx context.Context, req enrichment.ContextRequest) (enrichment.ContextResponse, error) {
	if err := ctx.Err(); err != nil {
		return enrichment.ContextResponse{}, err
	}
	out := enrichment.ContextResponse{Highlights: make([]enrichment.ContextResult, 0, len(req.Highlights))}
	for _, item := range req.Highlights {
		playType := "highlight"
		for _, l := range item.Labels {
			if pt, ok := playTypes[strings.ToLower(l)]; ok {
				playType = pt
				break
			}
		}
		minute := int(item.StartTime) / 60
		sec := int(item.StartTime) % 60
		sport := req.GameType
		if sport == "" {
			sport = "match"
		}
		out.Highlights = append(out.Highlights, enrichment.ContextResult{
			ID:              item.ID,
			ExcitementLevel: math.Min(math.Round(item.Confidence/10)+1, 10),
			PlayType:        playType,
			Title:           fmt.Sprintf("Amazing %s at %02d:%02d", strings.ReplaceAll(playType, "_", " "), minute, sec),
			Description:     fmt.Sprintf("An incredible %s moment in the %s.", strings.ReplaceAll(playType, "_", " "), sport),
			TargetAudience:  "general",
		})
	}
	return out, nil
}

var positiveWords = []string{"amazing", "incredible", "great", "brilliant", "goal"} //nolint:gochecknoglobals // fixture vocabulary

// Text is a keyword-driven enrichment.TextAnalyzer.
type Text struct{}

// Analyze implements enrichment.TextAnalyzer.
func (Text) Analyze(ctx context.Context, text string) (enrichment.TextAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return enrichment.TextAnalysis{}, err
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			hits++
		}
	}
	pos := math.Min(0.5+0.15*float64(hits), 0.99)
	s := &model.Sentiment{Label: "POSITIVE", Score: pos, Scores: map[string]float64{"POSITIVE": pos, "NEUTRAL": 1 - pos}}
	if hits == 0 {
		s = &model.Sentiment{Label: "NEUTRAL", Score: 0.9, Scores: map[string]float64{"NEUTRAL": 0.9, "POSITIVE": 0.1}}
	}

	var phrases []model.KeyPhrase
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool { return r == ' ' || r == '.' || r == ',' }) {
		if len(w) > 3 {
			phrases = append(phrases, model.KeyPhrase{Text: w, Score: 0.8})
		}
	}
	return enrichment.TextAnalysis{Sentiment: s, KeyPhrases: phrases}, nil
}
