// Package textanalytics runs sentiment and entity analysis on highlight
// text with the Cloud Natural Language API.
package textanalytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	language "cloud.google.com/go/language/apiv2"
	"cloud.google.com/go/language/apiv2/languagepb"
	"google.golang.org/api/option"

	"github.com/okian/highlights/internal/domain/enrichment"
	"github.com/okian/highlights/internal/domain/model"
)

// Sentiment labels.
const (
	LabelPositive = "POSITIVE"
	LabelNegative = "NEGATIVE"
	LabelNeutral  = "NEUTRAL"
	LabelMixed    = "MIXED"
)

const (
	// polarScore is the document score beyond which text is polar.
	polarScore = 0.25
	// mixedMagnitude is the magnitude that makes near-zero text mixed.
	mixedMagnitude = 1.5
	maxKeyPhrases  = 10
	// modifierWords is how many words before a mention join its phrase.
	modifierWords = 2
)

type annotateFunc func(ctx context.Context, req *languagepb.AnnotateTextRequest) (*languagepb.AnnotateTextResponse, error)

// Analyzer implements enrichment.TextAnalyzer.
type Analyzer struct {
	annotate     annotateFunc
	closeFn      func() error
	languageCode string
}

// New creates a client from service-account JSON. Empty credentials use
// application default credentials.
func New(ctx context.Context, credentialsJSON []byte, opts ...Option) (*Analyzer, error) {
	var copts []option.ClientOption
	if len(credentialsJSON) > 0 {
		copts = append(copts, option.WithCredentialsJSON(credentialsJSON))
	}
	client, err := language.NewClient(ctx, copts...)
	if err != nil {
		return nil, fmt.Errorf("create language client: %w", err)
	}
	a := newAnalyzer(func(ctx context.Context, req *languagepb.AnnotateTextRequest) (*languagepb.AnnotateTextResponse, error) {
		return client.AnnotateText(ctx, req)
	}, opts...)
	a.closeFn = client.Close
	return a, nil
}

func newAnalyzer(fn annotateFunc, opts ...Option) *Analyzer {
	cfg := config{languageCode: "en"}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Analyzer{annotate: fn, closeFn: func() error { return nil }, languageCode: cfg.languageCode}
}

// Close releases the client.
func (a *Analyzer) Close() error { return a.closeFn() }

// Analyze implements enrichment.TextAnalyzer with a single AnnotateText
// call. Key phrases are the common-noun mentions the API reports, widened
// to the adjectives just before them in the text ("incredible goal").
func (a *Analyzer) Analyze(ctx context.Context, text string) (enrichment.TextAnalysis, error) {
	var out enrichment.TextAnalysis
	if strings.TrimSpace(text) == "" {
		return out, ErrEmptyText
	}
	resp, err := a.annotate(ctx, &languagepb.AnnotateTextRequest{
		Document: &languagepb.Document{
			Source:       &languagepb.Document_Content{Content: text},
			Type:         languagepb.Document_PLAIN_TEXT,
			LanguageCode: a.languageCode,
		},
		Features: &languagepb.AnnotateTextRequest_Features{
			ExtractEntities:          true,
			ExtractDocumentSentiment: true,
		},
		EncodingType: languagepb.EncodingType_UTF8,
	})
	if err != nil {
		return out, fmt.Errorf("annotate text: %w", err)
	}

	if s := resp.GetDocumentSentiment(); s != nil {
		out.Sentiment = sentiment(float64(s.GetScore()), float64(s.GetMagnitude()))
	}
	out.Entities, out.KeyPhrases = entities(text, resp.GetEntities())
	return out, nil
}

// sentiment maps a document score in [-1, 1] and its magnitude onto
// per-label scores. The dominant label carries the highest score.
func sentiment(score, magnitude float64) *model.Sentiment {
	pos := math.Max(score, 0)
	neg := math.Max(-score, 0)
	mixed := 0.0
	if math.Abs(score) < polarScore {
		mixed = math.Min(magnitude/(2*mixedMagnitude), 1)
	}
	neutral := math.Max(1-math.Abs(score)-mixed, 0)

	scores := map[string]float64{
		LabelPositive: round(pos),
		LabelNegative: round(neg),
		LabelMixed:    round(mixed),
		LabelNeutral:  round(neutral),
	}

	label := LabelNeutral
	switch {
	case score >= polarScore:
		label = LabelPositive
	case score <= -polarScore:
		label = LabelNegative
	case magnitude >= mixedMagnitude:
		label = LabelMixed
	}
	return &model.Sentiment{Label: label, Score: scores[label], Scores: scores}
}

func entities(text string, in []*languagepb.Entity) ([]model.Entity, []model.KeyPhrase) {
	var ents []model.Entity
	phrases := map[string]model.KeyPhrase{}
	for _, e := range in {
		best := 0.0
		for _, m := range e.GetMentions() {
			p := float64(m.GetProbability())
			best = math.Max(best, p)
			if m.GetType() != languagepb.EntityMention_COMMON {
				continue
			}
			t := phrase(text, m.GetText())
			key := strings.ToLower(t)
			if t == "" {
				continue
			}
			if cur, ok := phrases[key]; !ok || p > cur.Score {
				phrases[key] = model.KeyPhrase{Text: t, Score: round(p)}
			}
		}
		ents = append(ents, model.Entity{Text: e.GetName(), Type: e.GetType().String(), Score: round(best)})
	}

	kps := make([]model.KeyPhrase, 0, len(phrases))
	for _, kp := range phrases {
		kps = append(kps, kp)
	}
	sort.Slice(kps, func(i, j int) bool {
		if kps[i].Score != kps[j].Score {
			return kps[i].Score > kps[j].Score
		}
		return kps[i].Text < kps[j].Text
	})
	if len(kps) > maxKeyPhrases {
		kps = kps[:maxKeyPhrases]
	}
	return ents, kps
}

// phrase returns the mention with up to modifierWords preceding words of
// the same clause. Offsets are UTF-8 byte offsets into text.
func phrase(text string, span *languagepb.TextSpan) string {
	content := strings.TrimSpace(span.GetContent())
	begin := int(span.GetBeginOffset())
	if begin <= 0 || begin > len(text) || !strings.HasPrefix(text[begin:], span.GetContent()) {
		return content
	}
	start := begin
	for words := 0; words < modifierWords; words++ {
		i := strings.TrimRight(text[:start], " ")
		j := len(i)
		for j > 0 {
			r, size := utf8.DecodeLastRuneInString(i[:j])
			if !unicode.IsLetter(r) && r != '-' && r != '\'' {
				break
			}
			j -= size
		}
		if j == len(i) {
			break
		}
		start = j
		if j > 0 && i[j-1] != ' ' {
			break
		}
	}
	mods := strings.TrimSpace(text[start:begin])
	if mods == "" {
		return content
	}
	return mods + " " + content
}

func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}
