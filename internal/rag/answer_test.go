package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"coursewell/internal/llm"
)

func TestAnswer_NoChunks(t *testing.T) {
	mock := &llm.MockProvider{}
	a := NewAnswerer(mock, mock)

	got := a.Answer(context.Background(), "what is this?", nil)
	if got != NoKnowledgeMessage {
		t.Fatalf("expected the no-knowledge reply, got %q", got)
	}
	if mock.EmbedCalls() != 0 {
		t.Fatal("no embedding should happen without chunks")
	}
}

func TestAnswer_QueryEmbedFailure(t *testing.T) {
	mock := &llm.MockProvider{}
	mock.EmbedFunc = func(ctx context.Context, texts []string, mode llm.EmbedMode) ([][]float32, error) {
		return nil, errors.New("backend down")
	}
	a := NewAnswerer(mock, mock)

	chunks := []Chunk{{Text: "some text", Embedding: []float32{1}}}
	got := a.Answer(context.Background(), "what?", chunks)
	if got != TroubleUnderstandingMessage {
		t.Fatalf("expected the rephrase reply, got %q", got)
	}
}

func TestAnswer_RanksByDotProduct(t *testing.T) {
	mock := &llm.MockProvider{}
	mock.EmbedFunc = func(ctx context.Context, texts []string, mode llm.EmbedMode) ([][]float32, error) {
		if mode != llm.EmbedQuery {
			t.Fatalf("expected query-mode embedding, got %v", mode)
		}
		return [][]float32{{1, 0}}, nil
	}
	mock.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "grounded answer", nil
	}
	a := NewAnswerer(mock, mock)

	// Dot products against the query {1,0}: a=1, b=0, c=3, d=2.
	chunks := []Chunk{
		{Text: "a", Embedding: []float32{1, 0}},
		{Text: "b", Embedding: []float32{0, 5}},
		{Text: "c", Embedding: []float32{3, 0}},
		{Text: "d", Embedding: []float32{2, 0}},
	}
	got := a.Answer(context.Background(), "which?", chunks)
	if got != "grounded answer" {
		t.Fatalf("unexpected answer: %q", got)
	}

	prompts := mock.Prompts()
	if len(prompts) != 1 {
		t.Fatalf("expected one generation, got %d", len(prompts))
	}
	wantContext := "c" + contextSeparator + "d" + contextSeparator + "a"
	if !strings.Contains(prompts[0], wantContext) {
		t.Fatalf("prompt context not ranked by dot product:\n%s", prompts[0])
	}
	if strings.Contains(prompts[0], "\nb\n") {
		t.Fatalf("chunk outside the top 3 leaked into the prompt:\n%s", prompts[0])
	}

	// Scoring works on a copy; caller chunks stay untouched.
	for _, ch := range chunks {
		if ch.Similarity != 0 {
			t.Fatalf("caller chunk mutated: %+v", ch)
		}
	}
}

func TestAnswer_GenerationFailure(t *testing.T) {
	mock := &llm.MockProvider{}
	mock.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("backend down")
	}
	a := NewAnswerer(mock, mock)

	chunks := []Chunk{{Text: "some text", Embedding: []float32{1, 0, 0}}}
	got := a.Answer(context.Background(), "what?", chunks)
	if got != llm.TroubleThinkingMessage {
		t.Fatalf("expected the trouble-thinking reply, got %q", got)
	}
}

func TestAnswer_EmptyGeneration(t *testing.T) {
	mock := &llm.MockProvider{}
	mock.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "   ", nil
	}
	a := NewAnswerer(mock, mock)

	chunks := []Chunk{{Text: "some text", Embedding: []float32{1, 0, 0}}}
	got := a.Answer(context.Background(), "what?", chunks)
	if got != llm.EmptyReplyMessage {
		t.Fatalf("expected the empty-reply fallback, got %q", got)
	}
}

func TestDotProduct_LengthMismatch(t *testing.T) {
	got := dotProduct([]float32{1, 2, 3}, []float32{4, 5})
	if got != 14 {
		t.Fatalf("expected the shorter length to bound the product, got %v", got)
	}
}
