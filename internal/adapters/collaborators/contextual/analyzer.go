// Package contextual asks a chat-completion model to rate, classify and
// title a batch of highlight candidates.
package contextual

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"

	"github.com/okian/highlights/internal/domain/enrichment"
)

const systemPrompt = `You are a sports highlight analyst. For every highlight in the user's JSON
return an object with: "id" (copied from the input), "excitementLevel" (1-10),
"playType" (snake_case, e.g. "goal", "save", "slam_dunk"), "title" (under 60
characters), "description" (one sentence) and "targetAudience" (e.g. "general",
"hardcore_fans", "casual_viewers"). Reply with a JSON object of the form
{"highlights": [...]} and nothing else.`

// Analyzer implements enrichment.ContextualAnalyzer on the OpenAI chat API.
type Analyzer struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// New creates an analyzer authenticated with apiKey.
func New(apiKey string, opts ...Option) *Analyzer {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	oc := openai.DefaultConfig(apiKey)
	if cfg.baseURL != "" {
		oc.BaseURL = cfg.baseURL
	}
	return &Analyzer{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.model,
		temperature: cfg.temperature,
		maxTokens:   cfg.maxTokens,
	}
}

// Analyze implements enrichment.ContextualAnalyzer.
func (a *Analyzer) Analyze(ctx context.Context, req enrichment.ContextRequest) (enrichment.ContextResponse, error) {
	var out enrichment.ContextResponse
	payload, err := json.Marshal(req)
	if err != nil {
		return out, fmt.Errorf("encode context request: %w", err)
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
	})
	if err != nil {
		return out, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return out, ErrEmptyResponse
	}

	content := stripFence(resp.Choices[0].Message.Content)
	if content == "" {
		return out, ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return out, nil
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
