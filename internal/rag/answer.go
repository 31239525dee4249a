package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"coursewell/config"
	"coursewell/internal/llm"
	"coursewell/pkg/logger"
)

// Fixed replies for the question-answering side-channel. QNA always returns
// some string; it never fails a turn.
const (
	NoKnowledgeMessage          = "I'm sorry, I don't have enough information to answer that."
	TroubleUnderstandingMessage = "I had trouble understanding your question. Please try rephrasing."
)

const notCoveredSentence = "That's a great question, but it's not covered in this chapter's material."

const contextSeparator = "\n---\n"

// topChunks is how many chunks are stuffed into the answer context. There is
// no score threshold; low-similarity chunks still make the cut if ranked.
const topChunks = 3

// Answerer composes grounded answers to ad-hoc questions from a lesson's
// retrieval chunks.
type Answerer struct {
	embedder  llm.Embedder
	generator llm.Generator
}

func NewAnswerer(embedder llm.Embedder, generator llm.Generator) *Answerer {
	return &Answerer{embedder: embedder, generator: generator}
}

// Answer embeds the question, ranks chunks by raw dot product against the
// query vector (embeddings are taken as-is; no cosine normalization at query
// time), and asks the generator to answer only from the top-ranked context.
func (a *Answerer) Answer(ctx context.Context, question string, chunks []Chunk) string {
	if len(chunks) == 0 {
		return NoKnowledgeMessage
	}

	vectors, err := a.embedder.Embed(ctx, []string{question}, llm.EmbedQuery)
	if err != nil || len(vectors) == 0 {
		logger.Error(err, "%v: embedding question failed", config.ModuleRag)
		return TroubleUnderstandingMessage
	}
	query := vectors[0]

	scored := make([]Chunk, len(chunks))
	copy(scored, chunks)
	for i := range scored {
		scored[i].Similarity = dotProduct(scored[i].Embedding, query)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	n := topChunks
	if n > len(scored) {
		n = len(scored)
	}
	texts := make([]string, 0, n)
	for _, ch := range scored[:n] {
		texts = append(texts, ch.Text)
	}
	prompt := answerPrompt(strings.Join(texts, contextSeparator), question)

	return llm.TutorReply(ctx, a.generator, prompt)
}

func answerPrompt(contextText, question string) string {
	return fmt.Sprintf("Based ONLY on the following context, provide a concise answer to the user's question. "+
		"If the context doesn't contain the answer, say %q\n\nCONTEXT:\n%s\n\nUSER'S QUESTION:\n%s",
		notCoveredSentence, contextText, question)
}

func dotProduct(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
