package course

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"coursewell/config"
	"coursewell/internal/api/identity"
	corechat "coursewell/internal/chat"
	"coursewell/internal/course"
	"coursewell/internal/database"
	"coursewell/internal/database/model"
	"coursewell/internal/rag"
	"coursewell/pkg/apperror"
	"coursewell/pkg/apperror/status"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"
)

// Handler serves course authoring and browsing. It holds the retrieval cache
// so chapter edits can invalidate stale embeddings, and the preview store so
// navigating to a chapter restarts unenrolled playback.
type Handler struct {
	Cache   *rag.Cache
	Preview *corechat.MemoryStore
}

type createCourseRequest struct {
	Title string `json:"title"`
}

type updateCourseRequest struct {
	Description  string  `json:"description"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

type decideRequest struct {
	Decision string `json:"decision"`
}

type chapterRequest struct {
	Title      string  `json:"title"`
	RawScript  string  `json:"raw_script"`
	EditorHTML *string `json:"editor_html"`
	ParsedJSON string  `json:"parsed_json"`
}

// canViewCourse reports whether the caller may see a course that is not
// published: the creator, an admin, or anyone holding the share link.
func canViewCourse(crs *model.Course, caller identity.Caller, shareID string) bool {
	if crs.Status == model.CourseStatusPublished {
		return true
	}
	if caller.IsAdmin || crs.UserID == caller.UserID {
		return true
	}
	return shareID != "" && crs.ShareableLinkID != nil && *crs.ShareableLinkID == shareID
}

// requireOwner loads a course and rejects callers who neither own it nor hold
// the admin role. Returns course.ErrNotOwner or gorm.ErrRecordNotFound for
// the caller to map.
func requireOwner(c fiber.Ctx, db *gorm.DB, courseID string) (*model.Course, error) {
	caller := identity.FromRequest(c)
	crs, err := course.GetCourse(db, courseID)
	if err != nil {
		return nil, err
	}
	if crs.UserID != caller.UserID && !caller.IsAdmin {
		return nil, course.ErrNotOwner
	}
	return crs, nil
}

func writeCourseError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, course.ErrNotOwner):
		return apperror.Forbidden(config.ModuleCourse, c, status.NotCourseOwner, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.NotFound(config.ModuleCourse, c, status.CourseNotFound, "course not found")
	default:
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
}

func (h *Handler) HandleCreateCourse(c fiber.Ctx) error {
	caller := identity.FromRequest(c)
	if caller.UserID == "" {
		return apperror.Forbidden(config.ModuleCourse, c, status.Forbidden, "missing identity")
	}

	var req createCourseRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return apperror.BadRequest(config.ModuleCourse, c, status.InvalidRequestBody, err.Error())
	}
	if strings.TrimSpace(req.Title) == "" {
		return apperror.BadRequest(config.ModuleCourse, c, status.MissingParams, "title is required")
	}

	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	crs, err := course.CreateCourse(db, caller.UserID, req.Title)
	if err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	return apperror.Success(config.ModuleCourse, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "course created",
		Data:    crs,
	})
}

func (h *Handler) HandleListCourses(c fiber.Ctx) error {
	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}

	caller := identity.FromRequest(c)
	var courses []model.Course
	switch {
	case c.Query("mine") == "true" && caller.UserID != "":
		courses, err = course.ListCoursesByCreator(db, caller.UserID)
	case c.Query("status") != "" && caller.IsAdmin:
		courses, err = course.ListCoursesByStatus(db, c.Query("status"))
	default:
		courses, err = course.ListPublishedCourses(db)
	}
	if err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	return apperror.Success(config.ModuleCourse, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "courses listed",
		Data:    courses,
	})
}

func (h *Handler) HandleGetCourse(c fiber.Ctx) error {
	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	crs, err := course.GetCourse(db, c.Params("courseID"))
	if err != nil {
		return writeCourseError(c, err)
	}

	if !canViewCourse(crs, identity.FromRequest(c), c.Query("share_id")) {
		return apperror.Forbidden(config.ModuleCourse, c, status.Forbidden, "course is not published")
	}

	chapters, err := course.ListChapters(db, crs.ID)
	if err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	return apperror.Success(config.ModuleCourse, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "course detail",
		Data: fiber.Map{
			"course":   crs,
			"chapters": chapters,
		},
	})
}

func (h *Handler) HandleUpdateCourse(c fiber.Ctx) error {
	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	crs, err := requireOwner(c, db, c.Params("courseID"))
	if err != nil {
		return writeCourseError(c, err)
	}

	var req updateCourseRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return apperror.BadRequest(config.ModuleCourse, c, status.InvalidRequestBody, err.Error())
	}
	if err := course.UpdateCourseDetails(db, crs.ID, req.Description, req.ThumbnailURL); err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	return apperror.Success(config.ModuleCourse, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "course updated",
	})
}

func (h *Handler) HandleSubmitForReview(c fiber.Ctx) error {
	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	crs, err := requireOwner(c, db, c.Params("courseID"))
	if err != nil {
		return writeCourseError(c, err)
	}
	if err := course.SubmitForReview(db, crs.ID); err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	return apperror.Success(config.ModuleCourse, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "course submitted for review",
	})
}

func (h *Handler) HandleDecideCourse(c fiber.Ctx) error {
	caller := identity.FromRequest(c)
	if !caller.IsAdmin {
		return apperror.Forbidden(config.ModuleCourse, c, status.Forbidden, "admin role required")
	}

	var req decideRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return apperror.BadRequest(config.ModuleCourse, c, status.InvalidRequestBody, err.Error())
	}

	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	if err := course.DecideCourse(db, c.Params("courseID"), req.Decision); err != nil {
		if errors.Is(err, course.ErrBadDecision) {
			return apperror.BadRequest(config.ModuleCourse, c, status.InvalidRequestBody, err.Error())
		}
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	return apperror.Success(config.ModuleCourse, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "decision recorded",
	})
}

func (h *Handler) HandleUnpublishCourse(c fiber.Ctx) error {
	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	crs, err := requireOwner(c, db, c.Params("courseID"))
	if err != nil {
		return writeCourseError(c, err)
	}
	if err := course.UnpublishCourse(db, crs.ID); err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	return apperror.Success(config.ModuleCourse, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "course unpublished",
	})
}

func (h *Handler) HandleShareLink(c fiber.Ctx) error {
	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	crs, err := requireOwner(c, db, c.Params("courseID"))
	if err != nil {
		return writeCourseError(c, err)
	}
	linkID, err := course.EnsureShareLink(db, crs.ID)
	if err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	return apperror.Success(config.ModuleCourse, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "share link",
		Data:    fiber.Map{"share_id": linkID},
	})
}

func (h *Handler) HandleGetCourseByShareLink(c fiber.Ctx) error {
	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	crs, err := course.GetCourseByShareLink(db, c.Params("linkID"))
	if err != nil {
		return writeCourseError(c, err)
	}
	chapters, err := course.ListChapters(db, crs.ID)
	if err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	return apperror.Success(config.ModuleCourse, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "shared course",
		Data: fiber.Map{
			"course":   crs,
			"chapters": chapters,
		},
	})
}

// HandleGetChapter serves the chapter view. Navigating here restarts an
// unenrolled preview session, so the ephemeral playback state for the lesson
// is dropped before responding.
func (h *Handler) HandleGetChapter(c fiber.Ctx) error {
	chapterNumber, err := strconv.Atoi(c.Params("chapterNumber"))
	if err != nil {
		return apperror.BadRequest(config.ModuleCourse, c, status.MissingParams, "chapter number must be an integer")
	}

	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	crs, err := course.GetCourse(db, c.Params("courseID"))
	if err != nil {
		return writeCourseError(c, err)
	}
	caller := identity.FromRequest(c)
	if !canViewCourse(crs, caller, c.Query("share_id")) {
		return apperror.Forbidden(config.ModuleCourse, c, status.Forbidden, "course is not published")
	}

	les, err := course.GetChapterByNumber(db, crs.ID, chapterNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound(config.ModuleCourse, c, status.ChapterNotFound, "chapter not found")
		}
		return apperror.InternalError(config.ModuleCourse, c, err)
	}

	enrollment, err := course.GetEnrollment(db, caller.UserID, crs.ID)
	if err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	if enrollment == nil {
		h.Preview.Clear(les.ID)
	}

	return apperror.Success(config.ModuleCourse, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "chapter detail",
		Data: fiber.Map{
			"lesson":   les,
			"enrolled": enrollment != nil,
		},
	})
}

func (h *Handler) HandleAddChapter(c fiber.Ctx) error {
	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	crs, err := requireOwner(c, db, c.Params("courseID"))
	if err != nil {
		return writeCourseError(c, err)
	}

	var req chapterRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return apperror.BadRequest(config.ModuleCourse, c, status.InvalidRequestBody, err.Error())
	}
	les, err := course.AddChapter(db, crs.ID, req.Title, req.RawScript, req.EditorHTML, req.ParsedJSON)
	if err != nil {
		return apperror.BadRequest(config.ModuleCourse, c, status.ScriptUnparsed, err.Error())
	}
	return apperror.Success(config.ModuleCourse, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "chapter added",
		Data:    les,
	})
}

func (h *Handler) HandleUpdateChapter(c fiber.Ctx) error {
	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	lessonID := c.Params("lessonID")
	les, err := course.GetLesson(db, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound(config.ModuleCourse, c, status.ChapterNotFound, "chapter not found")
		}
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	if _, err := requireOwner(c, db, les.CourseID); err != nil {
		return writeCourseError(c, err)
	}

	var req chapterRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return apperror.BadRequest(config.ModuleCourse, c, status.InvalidRequestBody, err.Error())
	}
	if err := course.UpdateChapter(db, lessonID, req.Title, req.RawScript, req.EditorHTML, req.ParsedJSON); err != nil {
		return apperror.BadRequest(config.ModuleCourse, c, status.ScriptUnparsed, err.Error())
	}

	// The stored embeddings describe the old script.
	h.Cache.Invalidate(lessonID)

	return apperror.Success(config.ModuleCourse, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "chapter updated",
	})
}

func (h *Handler) HandleDeleteChapter(c fiber.Ctx) error {
	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	lessonID := c.Params("lessonID")
	les, err := course.GetLesson(db, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound(config.ModuleCourse, c, status.ChapterNotFound, "chapter not found")
		}
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	if _, err := requireOwner(c, db, les.CourseID); err != nil {
		return writeCourseError(c, err)
	}

	if err := course.DeleteChapter(db, lessonID); err != nil {
		return apperror.InternalError(config.ModuleCourse, c, err)
	}
	h.Cache.Invalidate(lessonID)

	return apperror.Success(config.ModuleCourse, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "chapter deleted",
	})
}
