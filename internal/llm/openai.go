package llm

import (
	"context"
	"errors"
	"strings"

	"coursewell/config"
	"coursewell/pkg/logger"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

type openAIEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// OpenAIProvider implements Generator and Embedder against the OpenAI API.
type OpenAIProvider struct {
	key            string
	model          string
	embeddingModel string
}

func NewOpenAIProvider() *OpenAIProvider {
	return &OpenAIProvider{
		key:            config.Cfg.OpenAI.Key,
		model:          config.Cfg.OpenAI.Model,
		embeddingModel: config.Cfg.OpenAI.EmbeddingModel,
	}
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if p.key == "" {
		return "", errors.New("missing openai key")
	}
	client := openai.NewClient(option.WithAPIKey(p.key))

	req := chatRequest{
		Model:       p.model,
		Temperature: 0.2,
		MaxTokens:   1024,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	}
	var out chatResponse
	if err := client.Post(ctx, "/chat/completions", req, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// Embed calls OpenAI embeddings for the given inputs and returns vectors.
// OpenAI embeddings are symmetric, so mode is accepted but not forwarded.
// Retries are disabled; each batch is attempted only once.
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if p.key == "" {
		return nil, errors.New("missing openai key")
	}
	// Batch in chunks of up to 100 inputs
	var all [][]float32
	for i := 0; i < len(texts); i += 100 {
		j := i + 100
		if j > len(texts) {
			j = len(texts)
		}
		batch := texts[i:j]
		vectors, err := p.embedBatch(ctx, batch)
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"model":       p.embeddingModel,
				"mode":        mode,
				"batch_start": i,
				"batch_end":   j,
				"error":       err,
			}).Errorf("openai: embedding batch failed")
			return nil, err
		}
		all = append(all, vectors...)
	}
	return all, nil
}

func (p *OpenAIProvider) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	client := openai.NewClient(option.WithAPIKey(p.key))

	reqBody := openAIEmbeddingRequest{Model: p.embeddingModel, Input: batch}
	var out openAIEmbeddingResponse
	if err := client.Post(ctx, "/embeddings", reqBody, &out); err != nil {
		return nil, err
	}
	if out.Error != nil {
		return nil, errors.New(out.Error.Message)
	}
	vectors := make([][]float32, len(out.Data))
	for i := range out.Data {
		src := out.Data[i].Embedding
		vec := make([]float32, len(src))
		for k := range src {
			vec[k] = float32(src[k])
		}
		vectors[i] = vec
	}
	return vectors, nil
}
