package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coursewell/config"

	"google.golang.org/genai"
)

// GeminiProvider implements Generator using the Google Gemini SDK. Selected
// by the tutor.provider config; embeddings always go through OpenAI.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context) (*GeminiProvider, error) {
	cfg := config.Cfg.Gemini
	if cfg.Key == "" {
		return nil, errors.New("missing gemini key")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		model:  cfg.Model,
	}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}
	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Text()), nil
}
