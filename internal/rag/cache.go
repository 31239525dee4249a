package rag

import (
	"context"
	"sync"

	"coursewell/config"
	"coursewell/internal/lesson"
	"coursewell/internal/llm"
	"coursewell/pkg/logger"
)

// Chunk is one retrieval unit: a blank-line-separated paragraph of the raw
// lesson script with its embedding. Similarity is transient and query-scoped.
type Chunk struct {
	Text       string
	Embedding  []float32
	Similarity float32
}

// Cache holds per-lesson retrieval chunks, built lazily on first access and
// kept until explicitly invalidated by the lesson-edit workflow. There is no
// eviction. Concurrent first access for the same lesson may embed twice; both
// builds produce equivalent entries and the later write simply overwrites.
type Cache struct {
	embedder llm.Embedder

	mu      sync.Mutex
	entries map[string][]Chunk
}

func NewCache(embedder llm.Embedder) *Cache {
	return &Cache{
		embedder: embedder,
		entries:  make(map[string][]Chunk),
	}
}

// GetOrBuild returns the cached chunks for a lesson, embedding the script's
// paragraphs on first access. A nil, nil return means the lesson has no text
// to retrieve from. Embedding failures are not cached, so the next call
// retries.
func (c *Cache) GetOrBuild(ctx context.Context, lessonID, rawScript string) ([]Chunk, error) {
	c.mu.Lock()
	if chunks, ok := c.entries[lessonID]; ok {
		c.mu.Unlock()
		return chunks, nil
	}
	c.mu.Unlock()

	texts := lesson.SplitParagraphs(rawScript)
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := c.embedder.Embed(ctx, texts, llm.EmbedDocument)
	if err != nil {
		logger.Error(err, "%v: embedding lesson script failed: %s", config.ModuleRag, lessonID)
		return nil, err
	}

	chunks := make([]Chunk, len(texts))
	for i, t := range texts {
		var vec []float32
		if i < len(vectors) {
			vec = vectors[i]
		}
		chunks[i] = Chunk{Text: t, Embedding: vec}
	}

	c.mu.Lock()
	c.entries[lessonID] = chunks
	c.mu.Unlock()
	return chunks, nil
}

// Invalidate drops the cached entry for a lesson. Must be called whenever a
// lesson's script is edited or answers will be grounded in stale text.
func (c *Cache) Invalidate(lessonID string) {
	c.mu.Lock()
	delete(c.entries, lessonID)
	c.mu.Unlock()
}
