package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"coursewell/config"
	"coursewell/internal/api/identity"
	corechat "coursewell/internal/chat"
	"coursewell/internal/course"
	"coursewell/internal/database"
	"coursewell/internal/lesson"
	"coursewell/internal/llm"
	"coursewell/pkg/apperror"
	"coursewell/pkg/apperror/status"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"
)

// Handler holds the playback engine and the two state stores; the store for
// a turn is picked by identity kind (durable for enrolled learners, ephemeral
// for previewers).
type Handler struct {
	Engine    *corechat.Engine
	Durable   corechat.StateStore
	Preview   *corechat.MemoryStore
	Generator llm.Generator
}

type turnRequest struct {
	LessonID    string `json:"lesson_id"`
	UserInput   string `json:"user_input"`
	RequestType string `json:"request_type"`
}

type intentRequest struct {
	LessonID  string `json:"lesson_id"`
	UserInput string `json:"user_input"`
}

type pointerRequest struct {
	LessonID string `json:"lesson_id"`
}

var (
	errMissingIdentity = errors.New("missing identity")
	errNotEnrolled     = errors.New("not enrolled in this course")
	errScriptUnparsed  = errors.New("lesson has no parsed steps")
)

// resolve authorizes the caller for a lesson and returns the playback
// identity, the matching state store, and the lesson loaded for the
// authorization check. The lesson is handed straight to the engine so a turn
// costs one lesson fetch, not two. Authorization happens before any state is
// touched.
func (h *Handler) resolve(c fiber.Ctx, lessonID string) (corechat.Identity, corechat.StateStore, *corechat.LessonInfo, error) {
	var zero corechat.Identity

	caller := identity.FromRequest(c)
	if caller.UserID == "" {
		return zero, nil, nil, errMissingIdentity
	}

	db, err := database.GetDB()
	if err != nil {
		return zero, nil, nil, err
	}
	les, err := course.GetLesson(db, lessonID)
	if err != nil {
		return zero, nil, nil, err
	}
	crs, err := course.GetCourse(db, les.CourseID)
	if err != nil {
		return zero, nil, nil, err
	}

	enrollment, err := course.GetEnrollment(db, caller.UserID, les.CourseID)
	if err != nil {
		return zero, nil, nil, err
	}
	isCreator := crs.UserID == caller.UserID
	if enrollment == nil && !isCreator && !caller.IsAdmin {
		return zero, nil, nil, errNotEnrolled
	}

	steps, err := lesson.ParseSteps(les.ParsedJSON)
	if err != nil {
		return zero, nil, nil, errScriptUnparsed
	}
	info := &corechat.LessonInfo{
		ID:            les.ID,
		CourseID:      les.CourseID,
		ChapterNumber: les.ChapterNumber,
		TotalChapters: crs.LessonCount,
		RawScript:     les.RawScript,
		Steps:         steps,
	}

	id := corechat.Identity{LessonID: lessonID}
	var store corechat.StateStore = h.Preview
	if enrollment != nil {
		id.EnrollmentID = enrollment.ID
		store = h.Durable
	}
	return id, store, info, nil
}

func writeResolveError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errMissingIdentity), errors.Is(err, errNotEnrolled):
		return apperror.Forbidden(config.ModuleChat, c, status.NotAuthorized, err.Error())
	case errors.Is(err, errScriptUnparsed):
		return apperror.BadRequest(config.ModuleChat, c, status.ScriptUnparsed, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.NotFound(config.ModuleChat, c, status.LessonNotFound, "lesson not found")
	default:
		return apperror.InternalError(config.ModuleChat, c, err)
	}
}

func (h *Handler) HandleTurn(c fiber.Ctx) error {
	trackingID := c.Get("X-Request-ID")

	var req turnRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return apperror.BadRequest(config.ModuleChat, c, status.InvalidRequestBody, err.Error())
	}
	if strings.TrimSpace(req.LessonID) == "" {
		return apperror.BadRequest(config.ModuleChat, c, status.MissingParams, "lesson_id is required")
	}
	requestType := corechat.RequestType(req.RequestType)
	if requestType == "" {
		requestType = corechat.RequestLessonFlow
	}

	id, store, info, err := h.resolve(c, req.LessonID)
	if err != nil {
		return writeResolveError(c, err)
	}

	resp, err := h.Engine.TurnForLesson(context.Background(), store, corechat.TurnRequest{
		LessonID:    req.LessonID,
		UserInput:   req.UserInput,
		RequestType: requestType,
		Identity:    id,
	}, info)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound(config.ModuleChat, c, status.LessonNotFound, "lesson not found")
		}
		return apperror.InternalError(config.ModuleChat, c, err)
	}

	return apperror.Success(config.ModuleChat, c, apperror.FiberSuccessMessage{
		Code:       status.OK,
		Message:    "turn ok",
		TrackingID: trackingID,
		Data:       resp,
	})
}

func (h *Handler) HandleIntent(c fiber.Ctx) error {
	trackingID := c.Get("X-Request-ID")

	var req intentRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return apperror.BadRequest(config.ModuleChat, c, status.InvalidRequestBody, err.Error())
	}
	if strings.TrimSpace(req.LessonID) == "" {
		return apperror.BadRequest(config.ModuleChat, c, status.MissingParams, "lesson_id is required")
	}

	_, _, info, err := h.resolve(c, req.LessonID)
	if err != nil {
		return writeResolveError(c, err)
	}

	intent := corechat.ClassifyIntent(context.Background(), h.Generator, req.UserInput, lesson.MediaDescriptions(info.Steps))

	return apperror.Success(config.ModuleChat, c, apperror.FiberSuccessMessage{
		Code:       status.OK,
		Message:    "intent ok",
		TrackingID: trackingID,
		Data:       intent,
	})
}

func (h *Handler) HandleReset(c fiber.Ctx) error {
	trackingID := c.Get("X-Request-ID")

	var req pointerRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return apperror.BadRequest(config.ModuleChat, c, status.InvalidRequestBody, err.Error())
	}
	id, store, _, err := h.resolve(c, req.LessonID)
	if err != nil {
		return writeResolveError(c, err)
	}
	if err := store.Reset(context.Background(), id); err != nil {
		return apperror.InternalError(config.ModuleChat, c, err)
	}
	return apperror.Success(config.ModuleChat, c, apperror.FiberSuccessMessage{
		Code:       status.OK,
		Message:    "reset ok",
		TrackingID: trackingID,
	})
}

// HandleStepBack rewinds the playback pointer one position. The transcript
// tail is deliberately left in place.
func (h *Handler) HandleStepBack(c fiber.Ctx) error {
	trackingID := c.Get("X-Request-ID")

	var req pointerRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return apperror.BadRequest(config.ModuleChat, c, status.InvalidRequestBody, err.Error())
	}
	id, store, _, err := h.resolve(c, req.LessonID)
	if err != nil {
		return writeResolveError(c, err)
	}
	if err := store.StepBack(context.Background(), id); err != nil {
		return apperror.InternalError(config.ModuleChat, c, err)
	}
	return apperror.Success(config.ModuleChat, c, apperror.FiberSuccessMessage{
		Code:       status.OK,
		Message:    "step back ok",
		TrackingID: trackingID,
	})
}
