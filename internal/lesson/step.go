package lesson

import (
	"encoding/json"
	"errors"
	"strings"
)

// StepType tags one instruction unit of a parsed lesson script.
type StepType string

const (
	StepContent     StepType = "CONTENT"
	StepMedia       StepType = "MEDIA"
	StepQuestionMCQ StepType = "QUESTION_MCQ"
	StepQuestionSA  StepType = "QUESTION_SA"
)

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaAudio MediaType = "audio"
)

// Step is one unit of a lesson. Which fields are meaningful depends on Type:
// CONTENT carries Text; MEDIA carries MediaType, AltText and MediaURL;
// QUESTION_MCQ carries Question, Options and Answer; QUESTION_SA carries
// Question and Keywords. The JSON shape matches lessons.parsed_json as
// produced by the upstream script parser.
type Step struct {
	Type      StepType  `json:"type"`
	Text      string    `json:"text,omitempty"`
	MediaType MediaType `json:"media_type,omitempty"`
	AltText   string    `json:"alt_text,omitempty"`
	MediaURL  string    `json:"media_url,omitempty"`
	Question  string    `json:"question,omitempty"`
	Options   []string  `json:"options,omitempty"`
	Answer    string    `json:"answer,omitempty"`
	Keywords  []string  `json:"keywords,omitempty"`
}

type parsedScript struct {
	Steps []Step `json:"steps"`
}

var ErrNoSteps = errors.New("parsed script has no steps")

// ParseSteps decodes a lesson's parsed_json into its ordered step list.
// The list is immutable once parsed; editing a lesson replaces it wholesale.
func ParseSteps(parsedJSON string) ([]Step, error) {
	var script parsedScript
	if err := json.Unmarshal([]byte(parsedJSON), &script); err != nil {
		return nil, err
	}
	if len(script.Steps) == 0 {
		return nil, ErrNoSteps
	}
	return script.Steps, nil
}

// SplitParagraphs splits text on blank-line boundaries into trimmed,
// non-empty paragraph chunks. Content steps are delivered one chunk per turn,
// and the retrieval index chunks the raw script the same way.
func SplitParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	chunks := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			chunks = append(chunks, t)
		}
	}
	return chunks
}

// ContentChunks returns the paragraph chunks of a CONTENT step.
func (s Step) ContentChunks() []string {
	return SplitParagraphs(s.Text)
}

// MediaDescriptions lists the alt texts of all MEDIA steps, in order.
// These double as replay-matching keys for MEDIA_REQUEST turns.
func MediaDescriptions(steps []Step) []string {
	var out []string
	for _, s := range steps {
		if s.Type == StepMedia && s.AltText != "" {
			out = append(out, s.AltText)
		}
	}
	return out
}

// FindMedia returns the first MEDIA step whose alt text exactly equals
// altText, or nil if none matches.
func FindMedia(steps []Step, altText string) *Step {
	for i := range steps {
		if steps[i].Type == StepMedia && steps[i].AltText == altText {
			return &steps[i]
		}
	}
	return nil
}
