package enrichment

import (
	"strings"

	"github.com/okian/highlights/internal/domain/model"
)

// Gaming context values.
const (
	ToneNeutral  = "neutral"
	ToneExcited  = "excited"
	ToneTense    = "tense"
	ToneDramatic = "dramatic"

	GameplayGeneral     = "general"
	GameplayScoring     = "scoring"
	GameplayDefensive   = "defensive"
	GameplaySkill       = "skill"
	GameplayCelebration = "celebration"

	AppealBroad      = "broad"
	AppealEnthusiast = "enthusiast"
	AppealViral      = "viral"
)

const (
	defaultSentimentThreshold = 0.7
	enthusiastAppealScore     = 1
	viralAppealScore          = 3
)

// gameplayKeywords is checked in order; the first category with a hit wins.
var gameplayKeywords = []struct { //nolint:gochecknoglobals // static lookup table
	category string
	words    []string
}{
	{GameplayScoring, []string{"goal", "score", "touchdown", "dunk", "basket", "three-pointer", "home run", "try"}},
	{GameplayDefensive, []string{"save", "block", "tackle", "defen", "interception", "steal"}},
	{GameplaySkill, []string{"dribble", "skill", "trick", "nutmeg", "assist", "volley", "bicycle"}},
	{GameplayCelebration, []string{"celebrat", "crowd", "fans", "cheer"}},
}

var superlatives = []string{ //nolint:gochecknoglobals // static lookup table
	"amazing", "incredible", "unbelievable", "spectacular", "epic", "insane",
	"stunning", "best", "greatest", "brilliant", "legendary", "historic",
}

var tones = map[string]string{ //nolint:gochecknoglobals // static lookup table
	"POSITIVE": ToneExcited,
	"NEGATIVE": ToneTense,
	"MIXED":    ToneDramatic,
	"NEUTRAL":  ToneNeutral,
}

// DeriveGamingContext summarizes whatever text analytics are available. A
// sentiment below threshold, or no signal at all, yields the defaults
// neutral/general/broad.
func DeriveGamingContext(a TextAnalysis, threshold float64) model.GamingContext {
	gc := model.GamingContext{
		EmotionalTone:  ToneNeutral,
		GameplayType:   GameplayGeneral,
		AudienceAppeal: AppealBroad,
	}

	if s := a.Sentiment; s != nil && s.Score >= threshold {
		if tone, ok := tones[strings.ToUpper(s.Label)]; ok {
			gc.EmotionalTone = tone
		}
	}

	texts := make([]string, 0, len(a.KeyPhrases)+len(a.Entities))
	for _, kp := range a.KeyPhrases {
		texts = append(texts, strings.ToLower(kp.Text))
	}
	for _, e := range a.Entities {
		texts = append(texts, strings.ToLower(e.Text))
	}
	gc.GameplayType = classifyGameplay(texts)

	appeal := 0
	for _, kp := range a.KeyPhrases {
		phrase := strings.ToLower(kp.Text)
		for _, s := range superlatives {
			if strings.Contains(phrase, s) {
				appeal++
			}
		}
	}
	switch {
	case appeal >= viralAppealScore:
		gc.AudienceAppeal = AppealViral
	case appeal >= enthusiastAppealScore:
		gc.AudienceAppeal = AppealEnthusiast
	}
	return gc
}

func classifyGameplay(texts []string) string {
	for _, group := range gameplayKeywords {
		for _, text := range texts {
			for _, w := range group.words {
				if containsWord(text, w) {
					return group.category
				}
			}
		}
	}
	return GameplayGeneral
}

// containsWord matches w at a word start so "try" does not hit "country".
func containsWord(text, w string) bool {
	for i := 0; ; {
		j := strings.Index(text[i:], w)
		if j < 0 {
			return false
		}
		pos := i + j
		if pos == 0 || !isLetter(text[pos-1]) {
			return true
		}
		i = pos + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
