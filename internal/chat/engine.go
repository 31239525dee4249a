package chat

import (
	"context"
	"fmt"
	"time"

	"coursewell/config"
	"coursewell/internal/lesson"
	"coursewell/internal/llm"
	"coursewell/internal/rag"
	"coursewell/pkg/logger"
)

type RequestType string

const (
	RequestLessonFlow  RequestType = "LESSON_FLOW"
	RequestQNA         RequestType = "QNA"
	RequestMediaReplay RequestType = "MEDIA_REQUEST"
)

// ContinueSentinel is the UI's "next" button input. It drives the flow
// without being logged as a student utterance.
const ContinueSentinel = "Continue"

const CompletionMessage = "Congratulations! You've completed this chapter."

// LessonInfo is everything the engine needs to know about one chapter.
type LessonInfo struct {
	ID            string
	CourseID      string
	ChapterNumber int
	TotalChapters int
	RawScript     string
	Steps         []lesson.Step
}

// Enrollment carries the chapter-completion progress the engine reads and
// updates through the progress collaborator.
type Enrollment struct {
	ID                         string
	LastCompletedChapterNumber int
	CompletedAt                *time.Time
}

// LessonProvider supplies parsed lessons.
type LessonProvider interface {
	Lesson(ctx context.Context, lessonID string) (*LessonInfo, error)
}

// EnrollmentProvider supplies enrollment records by id.
type EnrollmentProvider interface {
	Enrollment(ctx context.Context, enrollmentID string) (*Enrollment, error)
}

// ProgressUpdater advances enrollment progress. Both operations must be
// idempotent: re-entering a completed chapter never re-advances progress or
// re-stamps the completion timestamp.
type ProgressUpdater interface {
	MarkChapterComplete(ctx context.Context, enrollmentID string, chapterNumber int) error
	MarkCourseComplete(ctx context.Context, enrollmentID string) error
}

// TurnRequest is one inbound turn event.
type TurnRequest struct {
	LessonID    string
	UserInput   string
	RequestType RequestType
	Identity    Identity
}

// TurnResponse carries the tutor's reply plus any structured extras the
// rendering layer needs. Which fields are set depends on the branch taken.
type TurnResponse struct {
	TutorText      string       `json:"tutor_text,omitempty"`
	MediaURL       string       `json:"media_url,omitempty"`
	MediaType      string       `json:"media_type,omitempty"`
	Question       *lesson.Step `json:"question,omitempty"`
	IsLessonEnd    bool         `json:"is_lesson_end,omitempty"`
	IsQnaResponse  bool         `json:"is_qna_response,omitempty"`
	NextChapterURL string       `json:"next_chapter_url,omitempty"`
	CertificateURL string       `json:"certificate_url,omitempty"`
}

// Engine is the lesson playback state machine. It owns no state itself;
// the caller picks the StateStore matching the identity kind (durable for
// enrolled learners, ephemeral for previewers) and passes it per turn.
type Engine struct {
	lessons     LessonProvider
	enrollments EnrollmentProvider
	progress    ProgressUpdater
	generator   llm.Generator
	cache       *rag.Cache
	answerer    *rag.Answerer
}

func NewEngine(lessons LessonProvider, enrollments EnrollmentProvider, progress ProgressUpdater,
	generator llm.Generator, cache *rag.Cache, answerer *rag.Answerer) *Engine {
	return &Engine{
		lessons:     lessons,
		enrollments: enrollments,
		progress:    progress,
		generator:   generator,
		cache:       cache,
		answerer:    answerer,
	}
}

// Turn handles one inbound event. A turn is atomic: it either produces a
// response and persists state, or fails before persisting so the identical
// turn is safe to retry. Generation-backend failures never fail a turn; they
// degrade to fixed apology strings while the pointer still advances.
func (e *Engine) Turn(ctx context.Context, store StateStore, req TurnRequest) (*TurnResponse, error) {
	les, err := e.lessons.Lesson(ctx, req.LessonID)
	if err != nil {
		return nil, err
	}
	return e.TurnForLesson(ctx, store, req, les)
}

// TurnForLesson runs one turn against an already-loaded lesson. Callers that
// load the lesson while authorizing the request pass it here instead of paying
// a second fetch through the provider.
func (e *Engine) TurnForLesson(ctx context.Context, store StateStore, req TurnRequest, les *LessonInfo) (*TurnResponse, error) {
	// Media replay is a non-mutating side-channel: no pointer change, no
	// transcript append. An unmatched alt text falls through to QNA.
	if req.RequestType == RequestMediaReplay {
		if media := lesson.FindMedia(les.Steps, req.UserInput); media != nil {
			return &TurnResponse{
				TutorText:     fmt.Sprintf("Of course, here is '%s' again.", media.AltText),
				MediaURL:      media.MediaURL,
				MediaType:     string(media.MediaType),
				IsQnaResponse: true,
			}, nil
		}
		req.RequestType = RequestQNA
	}

	st, err := store.Load(ctx, req.Identity)
	if err != nil {
		return nil, err
	}

	if req.RequestType == RequestQNA {
		return e.answerTurn(ctx, store, req, les, st)
	}

	return e.flowTurn(ctx, store, req, les, st)
}

// answerTurn handles a QNA turn: transcript grows, the pointer never moves,
// and some answer string always comes back regardless of retrieval outcome.
func (e *Engine) answerTurn(ctx context.Context, store StateStore, req TurnRequest, les *LessonInfo, st *State) (*TurnResponse, error) {
	st.appendStudent(req.UserInput)

	chunks, err := e.cache.GetOrBuild(ctx, les.ID, les.RawScript)
	if err != nil {
		logger.Error(err, "%v: retrieval index unavailable for lesson %s", config.ModuleChat, les.ID)
		chunks = nil
	}
	answer := e.answerer.Answer(ctx, req.UserInput, chunks)

	st.appendTutorText(answer)
	if err := store.Save(ctx, req.Identity, st); err != nil {
		return nil, err
	}
	return &TurnResponse{IsQnaResponse: true, TutorText: answer}, nil
}

func (e *Engine) flowTurn(ctx context.Context, store StateStore, req TurnRequest, les *LessonInfo, st *State) (*TurnResponse, error) {
	// Free-typed acknowledgements show in the transcript without being
	// treated as answers to grade.
	if req.UserInput != "" && req.UserInput != ContinueSentinel {
		st.appendStudent(req.UserInput)
	}

	resp := &TurnResponse{}

	if st.StepIndex >= len(les.Steps) {
		resp.IsLessonEnd = true
		resp.TutorText = CompletionMessage
		if err := e.recordCompletion(ctx, req.Identity, les, resp); err != nil {
			return nil, err
		}
		if err := store.Save(ctx, req.Identity, st); err != nil {
			return nil, err
		}
		return resp, nil
	}

	plan := planTurn(les.Steps, st.StepIndex, st.ChunkIndex)

	if plan.prompt != "" {
		text := llm.TutorReply(ctx, e.generator, plan.prompt)
		resp.TutorText = text
		st.appendTutorText(text)
	}
	if plan.media != nil {
		st.Transcript = append(st.Transcript, TranscriptEntry{
			Sender: SenderTutor,
			Kind:   string(plan.media.MediaType),
			URL:    plan.media.MediaURL,
			Alt:    plan.media.AltText,
		})
		resp.MediaURL = plan.media.MediaURL
		resp.MediaType = string(plan.media.MediaType)
	}
	if plan.question != nil {
		resp.Question = plan.question
	}

	st.StepIndex, st.ChunkIndex = plan.nextStep, plan.nextChunk

	if err := store.Save(ctx, req.Identity, st); err != nil {
		return nil, err
	}
	return resp, nil
}

// recordCompletion advances enrollment progress the first time completion is
// observed, guarded by last_completed_chapter_number so the bookkeeping stays
// idempotent. Preview identities have no progress to advance.
func (e *Engine) recordCompletion(ctx context.Context, id Identity, les *LessonInfo, resp *TurnResponse) error {
	if id.Preview() {
		return nil
	}
	enr, err := e.enrollments.Enrollment(ctx, id.EnrollmentID)
	if err != nil {
		return err
	}
	if enr == nil || enr.LastCompletedChapterNumber >= les.ChapterNumber {
		return nil
	}

	if err := e.progress.MarkChapterComplete(ctx, enr.ID, les.ChapterNumber); err != nil {
		return err
	}
	if les.ChapterNumber >= les.TotalChapters {
		if enr.CompletedAt == nil {
			if err := e.progress.MarkCourseComplete(ctx, enr.ID); err != nil {
				return err
			}
		}
		resp.CertificateURL = fmt.Sprintf("/course/%s/certificate", les.CourseID)
	} else {
		resp.NextChapterURL = fmt.Sprintf("/course/%s/%d", les.CourseID, les.ChapterNumber+1)
	}
	return nil
}

// turnPlan is the pure outcome of dispatching one LESSON_FLOW turn against
// the step at the current pointer: what to say, what to surface, and where
// the pointer lands.
type turnPlan struct {
	prompt    string
	media     *lesson.Step
	question  *lesson.Step
	nextStep  int
	nextChunk int
}

func planTurn(steps []lesson.Step, stepIndex, chunkIndex int) turnPlan {
	plan := turnPlan{nextStep: stepIndex, nextChunk: chunkIndex}
	step := steps[stepIndex]

	switch step.Type {
	case lesson.StepContent:
		chunks := step.ContentChunks()
		if chunkIndex < len(chunks) {
			plan.prompt = contentPrompt(chunks[chunkIndex])
			plan.nextChunk = chunkIndex + 1
		}
		// Delivering the last chunk advances past the step in the same turn.
		if plan.nextChunk >= len(chunks) {
			plan.nextStep, plan.nextChunk = stepIndex+1, 0
		}
	case lesson.StepMedia:
		plan.prompt = mediaPrompt(step.MediaType, step.AltText)
		plan.media = &step
		plan.nextStep, plan.nextChunk = stepIndex+1, 0
	case lesson.StepQuestionMCQ, lesson.StepQuestionSA:
		plan.prompt = questionPrompt(step.Question)
		plan.question = &step
		plan.nextStep, plan.nextChunk = stepIndex+1, 0
	default:
		// Unknown step types are skipped silently.
		plan.nextStep, plan.nextChunk = stepIndex+1, 0
	}
	return plan
}
