package rag

import (
	"context"
	"errors"
	"testing"

	"coursewell/internal/llm"
)

func TestCache_BuildsOnce(t *testing.T) {
	mock := &llm.MockProvider{}
	cache := NewCache(mock)

	script := "Para one.\n\nPara two."
	chunks, err := cache.GetOrBuild(context.Background(), "lesson-1", script)
	if err != nil {
		t.Fatalf("GetOrBuild: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "Para one." || chunks[1].Text != "Para two." {
		t.Fatalf("unexpected chunk texts: %+v", chunks)
	}

	if _, err := cache.GetOrBuild(context.Background(), "lesson-1", script); err != nil {
		t.Fatalf("second GetOrBuild: %v", err)
	}
	if got := mock.EmbedCalls(); got != 1 {
		t.Fatalf("expected a single embed call, got %d", got)
	}
}

func TestCache_EmptyScript(t *testing.T) {
	mock := &llm.MockProvider{}
	cache := NewCache(mock)

	chunks, err := cache.GetOrBuild(context.Background(), "lesson-1", "   \n\n  ")
	if err != nil {
		t.Fatalf("GetOrBuild: %v", err)
	}
	if chunks != nil {
		t.Fatalf("expected nil chunks for empty script, got %+v", chunks)
	}
	if got := mock.EmbedCalls(); got != 0 {
		t.Fatalf("embedder must not be called for empty scripts, got %d calls", got)
	}
}

func TestCache_FailureNotCached(t *testing.T) {
	boom := errors.New("backend down")
	fail := true
	mock := &llm.MockProvider{}
	mock.EmbedFunc = func(ctx context.Context, texts []string, mode llm.EmbedMode) ([][]float32, error) {
		if fail {
			return nil, boom
		}
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1}
		}
		return out, nil
	}
	cache := NewCache(mock)

	if _, err := cache.GetOrBuild(context.Background(), "lesson-1", "Para."); !errors.Is(err, boom) {
		t.Fatalf("expected embed error, got %v", err)
	}

	fail = false
	chunks, err := cache.GetOrBuild(context.Background(), "lesson-1", "Para.")
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected the retry to build chunks, got %+v", chunks)
	}
	if got := mock.EmbedCalls(); got != 2 {
		t.Fatalf("expected 2 embed calls, got %d", got)
	}
}

func TestCache_Invalidate(t *testing.T) {
	mock := &llm.MockProvider{}
	cache := NewCache(mock)

	if _, err := cache.GetOrBuild(context.Background(), "lesson-1", "Para."); err != nil {
		t.Fatalf("GetOrBuild: %v", err)
	}
	cache.Invalidate("lesson-1")
	if _, err := cache.GetOrBuild(context.Background(), "lesson-1", "Para."); err != nil {
		t.Fatalf("rebuild after invalidate: %v", err)
	}
	if got := mock.EmbedCalls(); got != 2 {
		t.Fatalf("expected a rebuild after invalidate, got %d embed calls", got)
	}
}
