package enrollment

import (
	"encoding/json"
	"errors"
	"strings"

	"coursewell/config"
	"coursewell/internal/api/identity"
	"coursewell/internal/course"
	"coursewell/internal/database"
	"coursewell/pkg/apperror"
	"coursewell/pkg/apperror/status"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"
)

type enrollRequest struct {
	CourseID string `json:"course_id"`
}

func HandleEnroll(c fiber.Ctx) error {
	caller := identity.FromRequest(c)
	if caller.UserID == "" {
		return apperror.Forbidden(config.ModuleEnrollment, c, status.Forbidden, "missing identity")
	}

	var req enrollRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return apperror.BadRequest(config.ModuleEnrollment, c, status.InvalidRequestBody, err.Error())
	}
	if strings.TrimSpace(req.CourseID) == "" {
		return apperror.BadRequest(config.ModuleEnrollment, c, status.MissingParams, "course_id is required")
	}

	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleEnrollment, c, err)
	}
	e, err := course.Enroll(db, caller.UserID, req.CourseID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return apperror.NotFound(config.ModuleEnrollment, c, status.CourseNotFound, "course not found")
		case errors.Is(err, course.ErrOwnCourse):
			return apperror.Conflict(config.ModuleEnrollment, c, status.OwnCourseEnroll, err.Error())
		case errors.Is(err, course.ErrAlreadyEnrolled):
			return apperror.Conflict(config.ModuleEnrollment, c, status.AlreadyEnrolled, err.Error())
		default:
			return apperror.InternalError(config.ModuleEnrollment, c, err)
		}
	}
	return apperror.Success(config.ModuleEnrollment, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "enrolled",
		Data:    e,
	})
}

// HandleCertificate serves the completion certificate view. Only a learner
// whose enrollment carries a completion timestamp gets one.
func HandleCertificate(c fiber.Ctx) error {
	caller := identity.FromRequest(c)
	if caller.UserID == "" {
		return apperror.Forbidden(config.ModuleEnrollment, c, status.Forbidden, "missing identity")
	}

	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleEnrollment, c, err)
	}
	courseID := c.Params("courseID")
	e, err := course.GetEnrollment(db, caller.UserID, courseID)
	if err != nil {
		return apperror.InternalError(config.ModuleEnrollment, c, err)
	}
	if e == nil || e.CompletedAt == nil {
		return apperror.NotFound(config.ModuleEnrollment, c, status.NotFound, "no certificate for this course")
	}

	crs, err := course.GetCourse(db, courseID)
	if err != nil {
		return apperror.InternalError(config.ModuleEnrollment, c, err)
	}
	return apperror.Success(config.ModuleEnrollment, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "certificate",
		Data: fiber.Map{
			"course_title": crs.Title,
			"user_id":      caller.UserID,
			"completed_at": e.CompletedAt,
		},
	})
}
