package ranking

import (
	"context"
	"sort"
	"strings"

	"github.com/okian/highlights/internal/domain/model"
)

// Weights are the multipliers applied to matched preference weights.
type Weights struct {
	Team     float64
	Player   float64
	PlayType float64
	Sport    float64
}

// DefaultWeights returns 10 per team, 15 per player, 5 for the play type and
// 3 for the sport.
func DefaultWeights() Weights {
	return Weights{Team: 10, Player: 15, PlayType: 5, Sport: 3}
}

// RuleBased scores highlights as confidence plus weighted preference
// matches. Scores are unbounded sums.
type RuleBased struct {
	weights Weights
}

// RuleOption configures a RuleBased ranker.
type RuleOption func(*RuleBased)

// WithWeights overrides the factor multipliers.
func WithWeights(w Weights) RuleOption {
	return func(r *RuleBased) {
		r.weights = w
	}
}

// NewRuleBased creates a rule-based ranker.
func NewRuleBased(opts ...RuleOption) *RuleBased {
	r := &RuleBased{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name implements Ranker.
func (r *RuleBased) Name() string { return "rule_based" }

type prefKey struct {
	kind  model.PreferenceType
	value string
}

// Rank implements Ranker. It never fails.
func (r *RuleBased) Rank(_ context.Context, _ string, pool []model.EnrichedHighlight, prefs []model.UserPreference) ([]model.PersonalizedHighlight, error) {
	lookup := make(map[prefKey]float64, len(prefs))
	for _, p := range prefs {
		kind, ok := model.ParsePreferenceType(string(p.Type))
		if !ok || p.Weight < 0 {
			continue
		}
		lookup[prefKey{kind: kind, value: normalize(p.Value)}] += p.Weight
	}

	out := make([]model.PersonalizedHighlight, len(pool))
	for i, h := range pool {
		out[i] = model.PersonalizedHighlight{
			EnrichedHighlight: h,
			PersonalizedScore: r.score(h, lookup),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PersonalizedScore > out[j].PersonalizedScore
	})
	return out, nil
}

func (r *RuleBased) score(h model.EnrichedHighlight, lookup map[prefKey]float64) float64 {
	total := h.Confidence
	for _, team := range distinct(h.Teams) {
		total += r.weights.Team * lookup[prefKey{model.PreferenceTeam, team}]
	}
	for _, player := range distinct(h.Players) {
		total += r.weights.Player * lookup[prefKey{model.PreferencePlayer, player}]
	}
	if h.PlayType != "" {
		total += r.weights.PlayType * lookup[prefKey{model.PreferencePlayType, normalize(h.PlayType)}]
	}
	if h.Sport != "" {
		total += r.weights.Sport * lookup[prefKey{model.PreferenceSport, normalize(h.Sport)}]
	}
	return total
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		n := normalize(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
