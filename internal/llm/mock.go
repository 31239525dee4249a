package llm

import (
	"context"
	"sync"
)

// MockProvider implements Generator and Embedder for tests. GenerateFunc and
// EmbedFunc default to canned successes; recorded calls are safe for
// concurrent inspection.
type MockProvider struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
	EmbedFunc    func(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error)

	mu         sync.Mutex
	prompts    []string
	embedCalls int
}

func (m *MockProvider) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return "ok", nil
}

func (m *MockProvider) Embed(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error) {
	m.mu.Lock()
	m.embedCalls++
	m.mu.Unlock()
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, texts, mode)
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

// Prompts returns a copy of all prompts passed to Generate.
func (m *MockProvider) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// EmbedCalls returns how many times Embed was invoked.
func (m *MockProvider) EmbedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embedCalls
}
