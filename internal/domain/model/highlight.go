package model

import (
	"fmt"
	"strings"
	"time"
)

// ClipStatus is the transcoding state of a highlight's clip.
type ClipStatus string

// Clip states. Only the clip tracker moves a highlight between them.
const (
	ClipPending    ClipStatus = "pending"
	ClipProcessing ClipStatus = "processing"
	ClipCompleted  ClipStatus = "completed"
	ClipFailed     ClipStatus = "failed"
)

// ClipState is the clip sub-record of a highlight.
type ClipState struct {
	JobID        string     `json:"jobId,omitempty" firestore:"jobId"`
	Status       ClipStatus `json:"status" firestore:"status"`
	MediaURL     string     `json:"mediaUrl,omitempty" firestore:"mediaUrl"`
	ThumbnailURL string     `json:"thumbnailUrl,omitempty" firestore:"thumbnailUrl"`
	Error        string     `json:"error,omitempty" firestore:"error"`
	Generated    bool       `json:"generated" firestore:"generated"`
}

// Sentiment is the dominant sentiment of a highlight's text.
type Sentiment struct {
	Label  string             `json:"label" firestore:"label"`
	Score  float64            `json:"score" firestore:"score"`
	Scores map[string]float64 `json:"scores,omitempty" firestore:"scores"`
}

// Entity is a named entity found in a highlight's text.
type Entity struct {
	Text  string  `json:"text" firestore:"text"`
	Type  string  `json:"type" firestore:"type"`
	Score float64 `json:"score" firestore:"score"`
}

// KeyPhrase is a salient phrase found in a highlight's text.
type KeyPhrase struct {
	Text  string  `json:"text" firestore:"text"`
	Score float64 `json:"score" firestore:"score"`
}

// GamingContext summarizes text analytics into audience-facing tags.
type GamingContext struct {
	EmotionalTone  string `json:"emotionalTone" firestore:"emotionalTone"`
	GameplayType   string `json:"gameplayType" firestore:"gameplayType"`
	AudienceAppeal string `json:"audienceAppeal" firestore:"audienceAppeal"`
}

// EnrichedHighlight is a candidate plus everything enrichment attached.
type EnrichedHighlight struct {
	ID       string    `json:"id" firestore:"id"`
	SourceID string    `json:"sourceId" firestore:"sourceId"`
	VideoRef string    `json:"videoRef" firestore:"videoRef"`
	Ordinal  int       `json:"ordinal" firestore:"ordinal"`
	Created  time.Time `json:"createdAt" firestore:"createdAt"`

	StartTimeSec float64  `json:"startTimeSec" firestore:"startTimeSec"`
	EndTimeSec   float64  `json:"endTimeSec" firestore:"endTimeSec"`
	DurationSec  float64  `json:"durationSec" firestore:"durationSec"`
	Confidence   float64  `json:"confidence" firestore:"confidence"`
	Labels       []string `json:"labels" firestore:"labels"`
	PersonCount  int      `json:"personCount" firestore:"personCount"`

	Sport   string   `json:"sport,omitempty" firestore:"sport"`
	Teams   []string `json:"teams,omitempty" firestore:"teams"`
	Players []string `json:"players,omitempty" firestore:"players"`

	ExcitementLevel float64 `json:"excitementLevel" firestore:"excitementLevel"`
	PlayType        string  `json:"playType" firestore:"playType"`
	Title           string  `json:"title" firestore:"title"`
	Description     string  `json:"description,omitempty" firestore:"description"`
	TargetAudience  string  `json:"targetAudience" firestore:"targetAudience"`

	Sentiment     *Sentiment    `json:"sentiment,omitempty" firestore:"sentiment"`
	Entities      []Entity      `json:"entities,omitempty" firestore:"entities"`
	KeyPhrases    []KeyPhrase   `json:"keyPhrases,omitempty" firestore:"keyPhrases"`
	GamingContext GamingContext `json:"gamingContext" firestore:"gamingContext"`

	AIEnhanced         bool `json:"aiEnhanced" firestore:"aiEnhanced"`
	TextEnhanced       bool `json:"textEnhanced" firestore:"textEnhanced"`
	EnrichmentComplete bool `json:"enrichmentComplete" firestore:"enrichmentComplete"`

	Clip ClipState `json:"clip" firestore:"clip"`
}

// NewEnrichedHighlight seeds a highlight record from a candidate.
func NewEnrichedHighlight(c HighlightCandidate) EnrichedHighlight {
	labels := make([]string, len(c.Labels))
	copy(labels, c.Labels)
	return EnrichedHighlight{
		StartTimeSec: c.StartTimeSec,
		EndTimeSec:   c.EndTimeSec,
		DurationSec:  c.DurationSec,
		Confidence:   c.Confidence,
		Labels:       labels,
		PersonCount:  c.PersonCount,
		Clip:         ClipState{Status: ClipPending},
	}
}

// HighlightID derives the deterministic identifier of the ordinal-th
// highlight of a source created at created. Re-running a segment with the
// same creation time overwrites rather than duplicates. Distinct sources
// always yield distinct identifiers.
func HighlightID(sourceID string, created time.Time, ordinal int) string {
	return fmt.Sprintf("%s_%d_%d", escapeID(sourceID), created.UnixMilli(), ordinal)
}

// escapeID keeps letters, digits, '-' and '.' and writes every other byte
// as ~XX, so the result is reversible and safe as a key or path segment.
func escapeID(s string) string {
	const hex = "0123456789ABCDEF"
	b := strings.Builder{}
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '.':
			b.WriteByte(c)
		default:
			b.WriteByte('~')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0f])
		}
	}
	return b.String()
}

// PersonalizedHighlight is a highlight scored for one viewer.
type PersonalizedHighlight struct {
	EnrichedHighlight
	PersonalizedScore float64 `json:"personalizedScore"`
}
