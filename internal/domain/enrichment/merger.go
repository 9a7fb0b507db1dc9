package enrichment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/okian/highlights/internal/domain/model"
	"github.com/okian/highlights/pkg/logger"
	"github.com/okian/highlights/pkg/metrics"
)

const (
	stageContextual = "contextual"
	stageText       = "text"

	outcomeEnhanced = "enhanced"
	outcomeFallback = "fallback"
	outcomeSkipped  = "skipped"

	defaultConcurrency    = 4
	defaultMinEntityScore = 0.5
)

// Merger runs both enrichment stages over a batch of candidates.
type Merger struct {
	contextual         ContextualAnalyzer
	text               TextAnalyzer
	defaults           Defaults
	concurrency        int
	limiter            *rate.Limiter
	sentimentThreshold float64
	minEntityScore     float64
	logger             logger.Logger
}

// New creates a Merger.
func New(opts ...Option) *Merger {
	m := &Merger{
		defaults:           StandardDefaults(),
		concurrency:        defaultConcurrency,
		sentimentThreshold: defaultSentimentThreshold,
		minEntityScore:     defaultMinEntityScore,
		logger:             logger.Named("enrichment"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Enrich returns one enriched highlight per candidate, in candidate order.
// It never fails: collaborator errors, timeouts and malformed replies all
// degrade to defaults, and EnrichmentComplete is set on every record.
func (m *Merger) Enrich(ctx context.Context, seg SegmentContext, candidates []model.HighlightCandidate) []model.EnrichedHighlight {
	out := make([]model.EnrichedHighlight, len(candidates))
	for i, c := range candidates {
		h := model.NewEnrichedHighlight(c)
		h.Ordinal = i
		h.Sport = seg.GameType
		h.Teams = appendUnique(nil, seg.Teams...)
		h.Players = appendUnique(nil, seg.Players...)
		out[i] = h
	}
	if len(out) == 0 {
		return out
	}

	m.applyContextual(ctx, seg, out)
	m.applyText(ctx, out)

	for i := range out {
		out[i].EnrichmentComplete = true
	}
	return out
}

func joinKey(i int) string { return fmt.Sprintf("h%d", i) }

func (m *Merger) applyContextual(ctx context.Context, seg SegmentContext, hs []model.EnrichedHighlight) {
	matched := make([]*ContextResult, len(hs))

	if m.contextual != nil {
		req := ContextRequest{
			VideoSource: seg.SourceID,
			GameType:    seg.GameType,
			Highlights:  make([]ContextItem, len(hs)),
		}
		for i, h := range hs {
			req.Highlights[i] = ContextItem{
				ID:         joinKey(i),
				StartTime:  h.StartTimeSec,
				Duration:   h.DurationSec,
				Labels:     h.Labels,
				Confidence: h.Confidence,
			}
		}

		start := time.Now()
		resp, err := m.contextual.Analyze(ctx, req)
		metrics.RecordEnrichmentLatency(stageContextual, time.Since(start).Seconds())
		if err != nil {
			m.logger.Warn(ctx, "contextual analysis failed, using defaults",
				logger.String("source_id", seg.SourceID),
				logger.Int("candidates", len(hs)),
				logger.Error(err))
			metrics.RecordErrorByComponent("enrichment", stageContextual)
		} else {
			matched = joinResults(resp.Highlights, len(hs))
		}
	}

	for i := range hs {
		if r := matched[i]; r != nil && usable(r) {
			m.applyContextResult(&hs[i], r)
			metrics.RecordEnrichment(stageContextual, outcomeEnhanced)
			continue
		}
		m.applyContextFallback(&hs[i])
		metrics.RecordEnrichment(stageContextual, outcomeFallback)
	}
}

// joinResults matches results to candidates by ID, then places results
// without a recognizable ID into the remaining slots in order.
func joinResults(results []ContextResult, n int) []*ContextResult {
	matched := make([]*ContextResult, n)
	var loose []*ContextResult
	for i := range results {
		r := &results[i]
		idx := -1
		if r.ID != "" {
			for j := 0; j < n; j++ {
				if r.ID == joinKey(j) {
					idx = j
					break
				}
			}
		}
		if idx >= 0 && matched[idx] == nil {
			matched[idx] = r
			continue
		}
		if r.ID == "" {
			loose = append(loose, r)
		}
	}
	for j := 0; j < n && len(loose) > 0; j++ {
		if matched[j] == nil {
			matched[j] = loose[0]
			loose = loose[1:]
		}
	}
	return matched
}

func usable(r *ContextResult) bool {
	return strings.TrimSpace(r.Title) != "" || strings.TrimSpace(r.PlayType) != ""
}

func (m *Merger) applyContextResult(h *model.EnrichedHighlight, r *ContextResult) {
	h.AIEnhanced = true
	if r.ExcitementLevel > 0 {
		h.ExcitementLevel = clampExcitement(r.ExcitementLevel)
	} else {
		h.ExcitementLevel = m.defaults.excitementFromConfidence(h.Confidence)
	}
	if pt := normalizePlayType(r.PlayType); pt != "" {
		h.PlayType = pt
	} else {
		h.PlayType = m.defaults.PlayType
	}
	if t := strings.TrimSpace(r.Title); t != "" {
		h.Title = t
	} else {
		h.Title = m.defaults.Title
	}
	h.Description = strings.TrimSpace(r.Description)
	if a := strings.TrimSpace(r.TargetAudience); a != "" {
		h.TargetAudience = strings.ToLower(a)
	} else {
		h.TargetAudience = m.defaults.TargetAudience
	}
}

func (m *Merger) applyContextFallback(h *model.EnrichedHighlight) {
	h.AIEnhanced = false
	h.ExcitementLevel = m.defaults.excitementFromConfidence(h.Confidence)
	h.PlayType = m.defaults.PlayType
	h.Title = m.defaults.Title
	h.TargetAudience = m.defaults.TargetAudience
}

func (m *Merger) applyText(ctx context.Context, hs []model.EnrichedHighlight) {
	if m.text == nil {
		for i := range hs {
			hs[i].GamingContext = DeriveGamingContext(TextAnalysis{}, m.sentimentThreshold)
			metrics.RecordEnrichment(stageText, outcomeSkipped)
		}
		return
	}

	g := errgroup.Group{}
	g.SetLimit(m.concurrency)
	for i := range hs {
		h := &hs[i]
		g.Go(func() error {
			m.analyzeOne(ctx, h)
			return nil
		})
	}
	_ = g.Wait()
}

// analyzeOne enriches a single highlight. Each call writes only to its own
// record so calls run without further locking.
func (m *Merger) analyzeOne(ctx context.Context, h *model.EnrichedHighlight) {
	text := strings.TrimSpace(strings.Join(nonEmpty(h.Title, h.Description), ". "))
	if text == "" {
		h.GamingContext = DeriveGamingContext(TextAnalysis{}, m.sentimentThreshold)
		metrics.RecordEnrichment(stageText, outcomeSkipped)
		return
	}

	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			h.GamingContext = DeriveGamingContext(TextAnalysis{}, m.sentimentThreshold)
			metrics.RecordEnrichment(stageText, outcomeFallback)
			return
		}
	}

	start := time.Now()
	a, err := m.text.Analyze(ctx, text)
	metrics.RecordEnrichmentLatency(stageText, time.Since(start).Seconds())
	if err != nil {
		m.logger.Warn(ctx, "text analysis failed, using defaults",
			logger.Int("ordinal", h.Ordinal),
			logger.Error(err))
		metrics.RecordErrorByComponent("enrichment", stageText)
		metrics.RecordEnrichment(stageText, outcomeFallback)
		h.GamingContext = DeriveGamingContext(TextAnalysis{}, m.sentimentThreshold)
		return
	}

	h.TextEnhanced = true
	h.Sentiment = a.Sentiment
	h.Entities = a.Entities
	h.KeyPhrases = a.KeyPhrases
	h.GamingContext = DeriveGamingContext(a, m.sentimentThreshold)
	for _, e := range a.Entities {
		if e.Score < m.minEntityScore {
			continue
		}
		switch strings.ToUpper(e.Type) {
		case "PERSON":
			h.Players = appendUnique(h.Players, e.Text)
		case "ORGANIZATION":
			h.Teams = appendUnique(h.Teams, e.Text)
		}
	}
	metrics.RecordEnrichment(stageText, outcomeEnhanced)
}

// appendUnique appends values not already present, compared
// case-insensitively.
func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		dup := false
		for _, have := range dst {
			if strings.EqualFold(have, v) {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
