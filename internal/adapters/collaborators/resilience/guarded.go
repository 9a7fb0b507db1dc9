package resilience

import (
	"context"

	"github.com/okian/highlights/internal/domain/clip"
	"github.com/okian/highlights/internal/domain/enrichment"
	"github.com/okian/highlights/internal/domain/ranking"
)

type contextual struct {
	b    *Breaker
	next enrichment.ContextualAnalyzer
}

// Contextual guards a contextual analyzer with b.
func Contextual(b *Breaker, next enrichment.ContextualAnalyzer) enrichment.ContextualAnalyzer {
	return contextual{b: b, next: next}
}

func (g contextual) Analyze(ctx context.Context, req enrichment.ContextRequest) (enrichment.ContextResponse, error) {
	return Execute(ctx, g.b, func(ctx context.Context) (enrichment.ContextResponse, error) {
		return g.next.Analyze(ctx, req)
	})
}

type text struct {
	b    *Breaker
	next enrichment.TextAnalyzer
}

// Text guards a text analyzer with b.
func Text(b *Breaker, next enrichment.TextAnalyzer) enrichment.TextAnalyzer {
	return text{b: b, next: next}
}

func (g text) Analyze(ctx context.Context, s string) (enrichment.TextAnalysis, error) {
	return Execute(ctx, g.b, func(ctx context.Context) (enrichment.TextAnalysis, error) {
		return g.next.Analyze(ctx, s)
	})
}

type transcoder struct {
	b    *Breaker
	next clip.Transcoder
}

// Transcoder guards a transcoder with b.
func Transcoder(b *Breaker, next clip.Transcoder) clip.Transcoder {
	return transcoder{b: b, next: next}
}

func (g transcoder) SubmitClip(ctx context.Context, req clip.Request) (string, error) {
	return Execute(ctx, g.b, func(ctx context.Context) (string, error) {
		return g.next.SubmitClip(ctx, req)
	})
}

type recommender struct {
	b    *Breaker
	next ranking.Recommender
}

// Recommender guards a recommender with b.
func Recommender(b *Breaker, next ranking.Recommender) ranking.Recommender {
	return recommender{b: b, next: next}
}

func (g recommender) Recommend(ctx context.Context, userID string) ([]string, error) {
	return Execute(ctx, g.b, func(ctx context.Context) ([]string, error) {
		return g.next.Recommend(ctx, userID)
	})
}
