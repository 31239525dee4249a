package chat

import (
	"context"
	"encoding/json"
	"strings"

	"coursewell/config"
	"coursewell/internal/llm"
	"coursewell/pkg/logger"
)

// Intent is the classifier's verdict on a free-form user input: either a
// general question (QNA with the query) or a request to replay a specific
// piece of media (MEDIA_REQUEST with the matching alt text).
type Intent struct {
	Intent  string `json:"intent"`
	Query   string `json:"query,omitempty"`
	AltText string `json:"alt_text,omitempty"`
}

// ClassifyIntent asks the generator to classify a user input against the
// lesson's media descriptions. Any failure, including unparseable output,
// falls open to QNA with the raw input so a classifier outage never blocks a
// turn.
func ClassifyIntent(ctx context.Context, g llm.Generator, userInput string, mediaDescriptions []string) Intent {
	fallback := Intent{Intent: string(RequestQNA), Query: userInput}

	text, err := g.Generate(ctx, intentPrompt(userInput, mediaDescriptions))
	if err != nil {
		logger.Error(err, "%v: intent classification failed", config.ModuleChat)
		return fallback
	}

	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, "```", ""))

	var in Intent
	if err := json.Unmarshal([]byte(cleaned), &in); err != nil || in.Intent == "" {
		return fallback
	}
	return in
}
