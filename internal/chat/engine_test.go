package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"coursewell/internal/lesson"
	"coursewell/internal/llm"
	"coursewell/internal/rag"
)

type fakeBackend struct {
	lessons    map[string]*LessonInfo
	enrollment *Enrollment

	chapterMarks []int
	courseMarks  int
	lessonLoads  int
}

func (f *fakeBackend) Lesson(ctx context.Context, lessonID string) (*LessonInfo, error) {
	f.lessonLoads++
	les, ok := f.lessons[lessonID]
	if !ok {
		return nil, errors.New("lesson not found")
	}
	return les, nil
}

func (f *fakeBackend) Enrollment(ctx context.Context, enrollmentID string) (*Enrollment, error) {
	return f.enrollment, nil
}

func (f *fakeBackend) MarkChapterComplete(ctx context.Context, enrollmentID string, chapterNumber int) error {
	f.chapterMarks = append(f.chapterMarks, chapterNumber)
	f.enrollment.LastCompletedChapterNumber = chapterNumber
	return nil
}

func (f *fakeBackend) MarkCourseComplete(ctx context.Context, enrollmentID string) error {
	f.courseMarks++
	now := time.Now()
	f.enrollment.CompletedAt = &now
	return nil
}

func testLesson(chapter, total int) *LessonInfo {
	return &LessonInfo{
		ID:            "lesson-1",
		CourseID:      "course-1",
		ChapterNumber: chapter,
		TotalChapters: total,
		RawScript:     "Para one.\n\nPara two.",
		Steps: []lesson.Step{
			{Type: lesson.StepContent, Text: "Para one.\n\nPara two."},
			{Type: lesson.StepMedia, MediaType: lesson.MediaImage, AltText: "a cat", MediaURL: "http://x/cat.png"},
			{Type: lesson.StepQuestionSA, Question: "Explain it.", Keywords: []string{"k"}},
		},
	}
}

func newTestEngine(backend *fakeBackend, mock *llm.MockProvider) *Engine {
	cache := rag.NewCache(mock)
	answerer := rag.NewAnswerer(mock, mock)
	return NewEngine(backend, backend, backend, mock, cache, answerer)
}

func flowTurnReq(id Identity, input string) TurnRequest {
	return TurnRequest{
		LessonID:    "lesson-1",
		UserInput:   input,
		RequestType: RequestLessonFlow,
		Identity:    id,
	}
}

func TestTurn_LessonFlowSequence(t *testing.T) {
	backend := &fakeBackend{lessons: map[string]*LessonInfo{"lesson-1": testLesson(1, 2)}}
	mock := &llm.MockProvider{}
	engine := newTestEngine(backend, mock)
	store := NewMemoryStore()
	id := Identity{LessonID: "lesson-1"}
	ctx := context.Background()

	wantPointers := [][2]int{{0, 1}, {1, 0}, {2, 0}, {3, 0}}
	for i, want := range wantPointers {
		resp, err := engine.Turn(ctx, store, flowTurnReq(id, ContinueSentinel))
		if err != nil {
			t.Fatalf("turn %d: %v", i+1, err)
		}
		st, _ := store.Load(ctx, id)
		if st.StepIndex != want[0] || st.ChunkIndex != want[1] {
			t.Fatalf("turn %d: pointer (%d,%d), want (%d,%d)", i+1, st.StepIndex, st.ChunkIndex, want[0], want[1])
		}
		if resp.IsLessonEnd {
			t.Fatalf("turn %d: premature lesson end", i+1)
		}
		switch i {
		case 2:
			if resp.MediaURL != "http://x/cat.png" || resp.MediaType != "image" {
				t.Fatalf("turn 3: media not surfaced: %+v", resp)
			}
		case 3:
			if resp.Question == nil || resp.Question.Question != "Explain it." {
				t.Fatalf("turn 4: question not surfaced: %+v", resp)
			}
		}
	}

	resp, err := engine.Turn(ctx, store, flowTurnReq(id, ContinueSentinel))
	if err != nil {
		t.Fatalf("final turn: %v", err)
	}
	if !resp.IsLessonEnd || resp.TutorText != CompletionMessage {
		t.Fatalf("expected lesson end with the completion message, got %+v", resp)
	}
}

func TestTurn_ContinueNotLogged(t *testing.T) {
	backend := &fakeBackend{lessons: map[string]*LessonInfo{"lesson-1": testLesson(1, 2)}}
	mock := &llm.MockProvider{}
	engine := newTestEngine(backend, mock)
	store := NewMemoryStore()
	id := Identity{LessonID: "lesson-1"}
	ctx := context.Background()

	if _, err := engine.Turn(ctx, store, flowTurnReq(id, ContinueSentinel)); err != nil {
		t.Fatalf("Turn: %v", err)
	}
	st, _ := store.Load(ctx, id)
	for _, e := range st.Transcript {
		if e.Sender == SenderStudent {
			t.Fatalf("the continue sentinel must not be logged: %+v", e)
		}
	}

	if _, err := engine.Turn(ctx, store, flowTurnReq(id, "sounds good")); err != nil {
		t.Fatalf("Turn: %v", err)
	}
	st, _ = store.Load(ctx, id)
	var logged bool
	for _, e := range st.Transcript {
		if e.Sender == SenderStudent && e.Content == "sounds good" {
			logged = true
		}
	}
	if !logged {
		t.Fatal("free-typed input missing from the transcript")
	}
}

func TestTurn_MediaReplay(t *testing.T) {
	backend := &fakeBackend{lessons: map[string]*LessonInfo{"lesson-1": testLesson(1, 2)}}
	mock := &llm.MockProvider{}
	engine := newTestEngine(backend, mock)
	store := NewMemoryStore()
	id := Identity{LessonID: "lesson-1"}
	ctx := context.Background()

	before := State{StepIndex: 2, ChunkIndex: 0}
	_ = store.Save(ctx, id, &before)

	resp, err := engine.Turn(ctx, store, TurnRequest{
		LessonID:    "lesson-1",
		UserInput:   "a cat",
		RequestType: RequestMediaReplay,
		Identity:    id,
	})
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if resp.MediaURL != "http://x/cat.png" || !strings.Contains(resp.TutorText, "'a cat'") {
		t.Fatalf("replay response wrong: %+v", resp)
	}

	st, _ := store.Load(ctx, id)
	if st.StepIndex != 2 || st.ChunkIndex != 0 || len(st.Transcript) != 0 {
		t.Fatalf("media replay must not mutate state, got %+v", st)
	}
}

func TestTurn_MediaReplayFallsThroughToQna(t *testing.T) {
	backend := &fakeBackend{lessons: map[string]*LessonInfo{"lesson-1": testLesson(1, 2)}}
	mock := &llm.MockProvider{}
	mock.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "an answer", nil
	}
	engine := newTestEngine(backend, mock)
	store := NewMemoryStore()
	id := Identity{LessonID: "lesson-1"}
	ctx := context.Background()

	_ = store.Save(ctx, id, &State{StepIndex: 1, ChunkIndex: 0})

	resp, err := engine.Turn(ctx, store, TurnRequest{
		LessonID:    "lesson-1",
		UserInput:   "a dog",
		RequestType: RequestMediaReplay,
		Identity:    id,
	})
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if !resp.IsQnaResponse || resp.TutorText != "an answer" {
		t.Fatalf("expected a QNA answer for unmatched alt text, got %+v", resp)
	}

	st, _ := store.Load(ctx, id)
	if st.StepIndex != 1 || st.ChunkIndex != 0 {
		t.Fatalf("QNA fallback moved the pointer: %+v", st)
	}
	if len(st.Transcript) != 2 {
		t.Fatalf("expected question and answer in the transcript, got %+v", st.Transcript)
	}
}

func TestTurn_QnaDoesNotAdvance(t *testing.T) {
	backend := &fakeBackend{lessons: map[string]*LessonInfo{"lesson-1": testLesson(1, 2)}}
	mock := &llm.MockProvider{}
	engine := newTestEngine(backend, mock)
	store := NewMemoryStore()
	id := Identity{LessonID: "lesson-1"}
	ctx := context.Background()

	_ = store.Save(ctx, id, &State{StepIndex: 1, ChunkIndex: 0})

	resp, err := engine.Turn(ctx, store, TurnRequest{
		LessonID:    "lesson-1",
		UserInput:   "what does para one mean?",
		RequestType: RequestQNA,
		Identity:    id,
	})
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if !resp.IsQnaResponse || resp.TutorText == "" {
		t.Fatalf("expected a QNA answer, got %+v", resp)
	}

	st, _ := store.Load(ctx, id)
	if st.StepIndex != 1 || st.ChunkIndex != 0 {
		t.Fatalf("QNA moved the pointer: %+v", st)
	}
	if len(st.Transcript) != 2 || st.Transcript[0].Sender != SenderStudent || st.Transcript[1].Sender != SenderTutor {
		t.Fatalf("unexpected transcript: %+v", st.Transcript)
	}
}

func TestTurn_QnaEmptyScriptAnswersWithoutBackend(t *testing.T) {
	les := testLesson(1, 2)
	les.RawScript = "   \n\n  "
	backend := &fakeBackend{lessons: map[string]*LessonInfo{"lesson-1": les}}
	mock := &llm.MockProvider{}
	engine := newTestEngine(backend, mock)
	store := NewMemoryStore()
	id := Identity{LessonID: "lesson-1"}
	ctx := context.Background()

	resp, err := engine.Turn(ctx, store, TurnRequest{
		LessonID:    "lesson-1",
		UserInput:   "what is this about?",
		RequestType: RequestQNA,
		Identity:    id,
	})
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if resp.TutorText != rag.NoKnowledgeMessage {
		t.Fatalf("expected the no-information answer, got %q", resp.TutorText)
	}
	if mock.EmbedCalls() != 0 {
		t.Fatalf("blank script must not reach the embedding backend, got %d calls", mock.EmbedCalls())
	}
	if len(mock.Prompts()) != 0 {
		t.Fatalf("blank script must not reach the generation backend, got %v", mock.Prompts())
	}

	st, _ := store.Load(ctx, id)
	if st.StepIndex != 0 || st.ChunkIndex != 0 {
		t.Fatalf("QNA moved the pointer: %+v", st)
	}
	if len(st.Transcript) != 2 || st.Transcript[1].Content != rag.NoKnowledgeMessage {
		t.Fatalf("unexpected transcript: %+v", st.Transcript)
	}
}

func TestTurnForLesson_UsesCallerLoadedLesson(t *testing.T) {
	les := testLesson(1, 2)
	backend := &fakeBackend{lessons: map[string]*LessonInfo{"lesson-1": les}}
	mock := &llm.MockProvider{}
	engine := newTestEngine(backend, mock)
	store := NewMemoryStore()
	id := Identity{LessonID: "lesson-1"}
	ctx := context.Background()

	resp, err := engine.TurnForLesson(ctx, store, flowTurnReq(id, ContinueSentinel), les)
	if err != nil {
		t.Fatalf("TurnForLesson: %v", err)
	}
	if resp.TutorText == "" {
		t.Fatalf("expected a tutor reply, got %+v", resp)
	}
	if backend.lessonLoads != 0 {
		t.Fatalf("caller-loaded lesson must not be re-fetched, got %d provider loads", backend.lessonLoads)
	}
	st, _ := store.Load(ctx, id)
	if st.StepIndex != 0 || st.ChunkIndex != 1 {
		t.Fatalf("pointer did not advance: (%d,%d)", st.StepIndex, st.ChunkIndex)
	}
}

func TestTurn_GenerationFailureStillAdvances(t *testing.T) {
	backend := &fakeBackend{lessons: map[string]*LessonInfo{"lesson-1": testLesson(1, 2)}}
	mock := &llm.MockProvider{}
	mock.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("backend down")
	}
	engine := newTestEngine(backend, mock)
	store := NewMemoryStore()
	id := Identity{LessonID: "lesson-1"}
	ctx := context.Background()

	resp, err := engine.Turn(ctx, store, flowTurnReq(id, ContinueSentinel))
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if resp.TutorText != llm.TroubleThinkingMessage {
		t.Fatalf("expected the trouble-thinking reply, got %q", resp.TutorText)
	}
	st, _ := store.Load(ctx, id)
	if st.StepIndex != 0 || st.ChunkIndex != 1 {
		t.Fatalf("pointer must advance despite generation failure, got (%d,%d)", st.StepIndex, st.ChunkIndex)
	}
}

func TestTurn_CompletionAdvancesProgressOnce(t *testing.T) {
	backend := &fakeBackend{
		lessons:    map[string]*LessonInfo{"lesson-1": testLesson(1, 2)},
		enrollment: &Enrollment{ID: "enr-1"},
	}
	mock := &llm.MockProvider{}
	engine := newTestEngine(backend, mock)
	store := NewMemoryStore()
	id := Identity{EnrollmentID: "enr-1", LessonID: "lesson-1"}
	ctx := context.Background()

	_ = store.Save(ctx, id, &State{StepIndex: 3})

	resp, err := engine.Turn(ctx, store, flowTurnReq(id, ContinueSentinel))
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if !resp.IsLessonEnd {
		t.Fatalf("expected lesson end, got %+v", resp)
	}
	if resp.NextChapterURL != "/course/course-1/2" {
		t.Fatalf("unexpected next chapter url: %q", resp.NextChapterURL)
	}
	if resp.CertificateURL != "" {
		t.Fatal("no certificate before the final chapter")
	}
	if len(backend.chapterMarks) != 1 || backend.chapterMarks[0] != 1 {
		t.Fatalf("expected one chapter mark, got %v", backend.chapterMarks)
	}

	// Re-entering the completed chapter is a no-op for progress.
	if _, err := engine.Turn(ctx, store, flowTurnReq(id, ContinueSentinel)); err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if len(backend.chapterMarks) != 1 {
		t.Fatalf("completion bookkeeping not idempotent: %v", backend.chapterMarks)
	}
}

func TestTurn_FinalChapterCertificate(t *testing.T) {
	backend := &fakeBackend{
		lessons:    map[string]*LessonInfo{"lesson-1": testLesson(2, 2)},
		enrollment: &Enrollment{ID: "enr-1", LastCompletedChapterNumber: 1},
	}
	mock := &llm.MockProvider{}
	engine := newTestEngine(backend, mock)
	store := NewMemoryStore()
	id := Identity{EnrollmentID: "enr-1", LessonID: "lesson-1"}
	ctx := context.Background()

	_ = store.Save(ctx, id, &State{StepIndex: 3})

	resp, err := engine.Turn(ctx, store, flowTurnReq(id, ContinueSentinel))
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if resp.CertificateURL != "/course/course-1/certificate" {
		t.Fatalf("unexpected certificate url: %q", resp.CertificateURL)
	}
	if resp.NextChapterURL != "" {
		t.Fatal("final chapter must not link onward")
	}
	if backend.courseMarks != 1 {
		t.Fatalf("expected one course completion mark, got %d", backend.courseMarks)
	}
}

func TestTurn_PreviewCompletionSkipsProgress(t *testing.T) {
	backend := &fakeBackend{lessons: map[string]*LessonInfo{"lesson-1": testLesson(1, 1)}}
	mock := &llm.MockProvider{}
	engine := newTestEngine(backend, mock)
	store := NewMemoryStore()
	id := Identity{LessonID: "lesson-1"}
	ctx := context.Background()

	_ = store.Save(ctx, id, &State{StepIndex: 3})

	resp, err := engine.Turn(ctx, store, flowTurnReq(id, ContinueSentinel))
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if !resp.IsLessonEnd {
		t.Fatalf("expected lesson end, got %+v", resp)
	}
	if len(backend.chapterMarks) != 0 || backend.courseMarks != 0 {
		t.Fatal("preview sessions must not advance enrollment progress")
	}
}

func TestPlanTurn_SkipsUnknownStepTypes(t *testing.T) {
	steps := []lesson.Step{{Type: "SOMETHING_NEW"}, {Type: lesson.StepContent, Text: "Para."}}
	plan := planTurn(steps, 0, 0)
	if plan.prompt != "" || plan.media != nil || plan.question != nil {
		t.Fatalf("unknown step must produce nothing, got %+v", plan)
	}
	if plan.nextStep != 1 || plan.nextChunk != 0 {
		t.Fatalf("unknown step must be skipped, pointer went to (%d,%d)", plan.nextStep, plan.nextChunk)
	}
}
