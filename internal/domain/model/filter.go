package model

// HighlightFilter selects highlights in a store scan. Zero fields match
// everything.
type HighlightFilter struct {
	SourceID           string
	ClipJobID          string
	ClipGenerated      *bool
	EnrichmentComplete *bool
	Limit              int
}

// Matches reports whether h satisfies every set field of f. Limit is
// applied by the caller.
func (f HighlightFilter) Matches(h EnrichedHighlight) bool {
	if f.SourceID != "" && h.SourceID != f.SourceID {
		return false
	}
	if f.ClipJobID != "" && h.Clip.JobID != f.ClipJobID {
		return false
	}
	if f.ClipGenerated != nil && h.Clip.Generated != *f.ClipGenerated {
		return false
	}
	if f.EnrichmentComplete != nil && h.EnrichmentComplete != *f.EnrichmentComplete {
		return false
	}
	return true
}

// Bool returns a pointer to b for filter fields.
func Bool(b bool) *bool { return &b }
