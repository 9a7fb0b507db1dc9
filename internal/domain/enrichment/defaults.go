package enrichment

import (
	"math"
	"strings"
)

// Defaults carries the values substituted when a collaborator fails.
type Defaults struct {
	PlayType          string
	Title             string
	TargetAudience    string
	ExcitementDivisor float64
}

// StandardDefaults returns the stock fallback values.
func StandardDefaults() Defaults {
	return Defaults{
		PlayType:          "detected",
		Title:             "Auto-detected Highlight",
		TargetAudience:    "general",
		ExcitementDivisor: 10,
	}
}

// merge fills zero fields of d from StandardDefaults.
func (d Defaults) merge() Defaults {
	std := StandardDefaults()
	if strings.TrimSpace(d.PlayType) == "" {
		d.PlayType = std.PlayType
	}
	if strings.TrimSpace(d.Title) == "" {
		d.Title = std.Title
	}
	if strings.TrimSpace(d.TargetAudience) == "" {
		d.TargetAudience = std.TargetAudience
	}
	if d.ExcitementDivisor <= 0 {
		d.ExcitementDivisor = std.ExcitementDivisor
	}
	return d
}

const (
	minExcitement = 1.0
	maxExcitement = 10.0
)

// excitementFromConfidence derives a 1-10 rating from a 0-100 confidence.
func (d Defaults) excitementFromConfidence(confidence float64) float64 {
	return clampExcitement(confidence / d.ExcitementDivisor)
}

func clampExcitement(v float64) float64 {
	if math.IsNaN(v) {
		return minExcitement
	}
	return math.Max(minExcitement, math.Min(maxExcitement, v))
}

// normalizePlayType lower-cases and snake-cases a play type ("Skill Move" ->
// "skill_move").
func normalizePlayType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_")
}
