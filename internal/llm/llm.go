package llm

import (
	"context"
	"fmt"
	"strings"

	"coursewell/config"
	"coursewell/pkg/logger"
)

// EmbedMode distinguishes document-side and query-side embedding requests so
// backends that support asymmetric retrieval embeddings can pick the right
// task type.
type EmbedMode string

const (
	EmbedDocument EmbedMode = "document"
	EmbedQuery    EmbedMode = "query"
)

// Generator produces a reply for a prompt. Implementations are opaque
// synchronous calls with their own latency and failure profile.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder turns texts into vectors, one vector per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error)
}

// Fixed user-safe replies for degraded generation. A backend outage never
// aborts a turn; it only degrades response quality.
const (
	TroubleThinkingMessage = "I seem to be having a little trouble thinking. Could you try again?"
	EmptyReplyMessage      = "Let's try that another way."
)

// TutorReply calls the generator and degrades to a fixed apology on failure
// or an empty reply. It never returns an error.
func TutorReply(ctx context.Context, g Generator, prompt string) string {
	text, err := g.Generate(ctx, prompt)
	if err != nil {
		logger.Error(err, "%v: tutor generation failed", config.ModuleChat)
		return TroubleThinkingMessage
	}
	if strings.TrimSpace(text) == "" {
		return EmptyReplyMessage
	}
	return text
}

// NewGeneratorFromConfig builds the configured generation backend.
func NewGeneratorFromConfig(ctx context.Context) (Generator, error) {
	switch config.Cfg.Tutor.Provider {
	case "gemini":
		return NewGeminiProvider(ctx)
	case "openai":
		return NewOpenAIProvider(), nil
	default:
		return nil, fmt.Errorf("unknown tutor provider %q", config.Cfg.Tutor.Provider)
	}
}
