package lesson

import (
	"errors"
	"testing"
)

func TestSplitParagraphs(t *testing.T) {
	chunks := SplitParagraphs("Para one.\n\nPara two.\n\n   \n\nPara three.")
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "Para one." || chunks[2] != "Para three." {
		t.Fatalf("unexpected chunk content: %v", chunks)
	}

	if got := SplitParagraphs("  padded  \n\nnext"); got[0] != "padded" {
		t.Fatalf("chunks must be trimmed, got %q", got[0])
	}
}

func TestSplitParagraphs_Empty(t *testing.T) {
	if got := SplitParagraphs(""); len(got) != 0 {
		t.Fatalf("expected no chunks for empty text, got %v", got)
	}
	if got := SplitParagraphs("  \n\n\t\n\n"); len(got) != 0 {
		t.Fatalf("expected no chunks for whitespace-only text, got %v", got)
	}
}

func TestSplitParagraphs_SingleNewlineKeptTogether(t *testing.T) {
	chunks := SplitParagraphs("line one\nline two")
	if len(chunks) != 1 {
		t.Fatalf("single newlines must not split, got %v", chunks)
	}
}

func TestParseSteps(t *testing.T) {
	js := `{"steps":[
		{"type":"CONTENT","text":"Hello"},
		{"type":"MEDIA","media_type":"image","alt_text":"a cat","media_url":"http://x/cat.png"},
		{"type":"QUESTION_MCQ","question":"Pick one","options":["a","b"],"answer":"a"},
		{"type":"QUESTION_SA","question":"Explain","keywords":["k1"]}
	]}`
	steps, err := ParseSteps(js)
	if err != nil {
		t.Fatalf("ParseSteps: %v", err)
	}
	if len(steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(steps))
	}
	if steps[0].Type != StepContent || steps[0].Text != "Hello" {
		t.Fatalf("bad content step: %+v", steps[0])
	}
	if steps[1].MediaType != MediaImage || steps[1].AltText != "a cat" {
		t.Fatalf("bad media step: %+v", steps[1])
	}
	if len(steps[2].Options) != 2 || steps[2].Answer != "a" {
		t.Fatalf("bad mcq step: %+v", steps[2])
	}
}

func TestParseSteps_NoSteps(t *testing.T) {
	if _, err := ParseSteps(`{"steps":[]}`); !errors.Is(err, ErrNoSteps) {
		t.Fatalf("expected ErrNoSteps, got %v", err)
	}
	if _, err := ParseSteps(`{}`); !errors.Is(err, ErrNoSteps) {
		t.Fatalf("expected ErrNoSteps for missing steps key, got %v", err)
	}
}

func TestParseSteps_BadJSON(t *testing.T) {
	if _, err := ParseSteps("not json"); err == nil {
		t.Fatal("expected a decode error")
	}
}

func TestFindMedia(t *testing.T) {
	steps := []Step{
		{Type: StepContent, Text: "intro"},
		{Type: StepMedia, MediaType: MediaImage, AltText: "a cat", MediaURL: "http://x/cat.png"},
		{Type: StepMedia, MediaType: MediaAudio, AltText: "a song", MediaURL: "http://x/song.mp3"},
	}

	m := FindMedia(steps, "a song")
	if m == nil || m.MediaURL != "http://x/song.mp3" {
		t.Fatalf("expected the song step, got %+v", m)
	}
	if FindMedia(steps, "a dog") != nil {
		t.Fatal("expected nil for unmatched alt text")
	}
	// Matching is exact, not fuzzy.
	if FindMedia(steps, "A Cat") != nil {
		t.Fatal("alt text matching must be case sensitive")
	}

	descs := MediaDescriptions(steps)
	if len(descs) != 2 || descs[0] != "a cat" || descs[1] != "a song" {
		t.Fatalf("unexpected media descriptions: %v", descs)
	}
}
