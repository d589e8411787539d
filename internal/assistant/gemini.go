package assistant

import (
	"context"
	"fmt"
	"sync"

	"eventhorizon/internal/status"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

// GeminiRecommender calls the Gemini API. The client is created on first use.
type GeminiRecommender struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

func NewGeminiRecommender(apiKey, model string) *GeminiRecommender {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiRecommender{apiKey: apiKey, model: model}
}

func (g *GeminiRecommender) Model() string { return g.model }

func (g *GeminiRecommender) Recommend(ctx context.Context, instructions, query string) (string, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(query), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instructions, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return resp.Text(), nil
}

func (g *GeminiRecommender) getClient(ctx context.Context) (*genai.Client, error) {
	if g.apiKey == "" {
		return nil, status.ErrAssistantUnavailable
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrAssistantUnavailable, err)
	}
	g.client = client
	return client, nil
}
