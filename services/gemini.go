package services

import (
	"context"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GenerationParams carry the per-call settings for the model capability.
type GenerationParams struct {
	Model       string
	Temperature float32
	MaxTokens   int32
}

// Completer is the external generation capability: given a prompt and
// parameters, it returns a text completion or fails.
type Completer interface {
	Complete(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// GeminiCompleter talks to the Gemini API. The underlying client is created
// lazily on first use, exactly once, and is safe for concurrent callers.
type GeminiCompleter struct {
	apiKey string

	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewGeminiCompleter prepares a completer without opening the connection yet.
func NewGeminiCompleter(apiKey string) *GeminiCompleter {
	return &GeminiCompleter{apiKey: apiKey}
}

func (g *GeminiCompleter) init(ctx context.Context) {
	config := &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
	if g.apiKey != "" {
		config.APIKey = g.apiKey
	}
	g.client, g.initErr = genai.NewClient(ctx, config)
}

// Complete sends the prompt to Gemini and returns the raw completion text.
func (g *GeminiCompleter) Complete(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	g.once.Do(func() { g.init(ctx) })
	if g.initErr != nil {
		return "", g.initErr
	}

	model := params.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(params.Temperature),
		ResponseMIMEType: "application/json",
	}
	if params.MaxTokens > 0 {
		cfg.MaxOutputTokens = params.MaxTokens
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// cleanModelOutput strips the markdown code fences models like to wrap JSON
// in, plus surrounding whitespace.
func cleanModelOutput(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
