package review

import (
	"encoding/json"
	"errors"

	"coursewell/config"
	"coursewell/internal/api/identity"
	"coursewell/internal/course"
	"coursewell/internal/database"
	"coursewell/pkg/apperror"
	"coursewell/pkg/apperror/status"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"
)

type submitRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func HandleSubmitReview(c fiber.Ctx) error {
	caller := identity.FromRequest(c)
	if caller.UserID == "" {
		return apperror.Forbidden(config.ModuleReview, c, status.Forbidden, "missing identity")
	}

	var req submitRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return apperror.BadRequest(config.ModuleReview, c, status.InvalidRequestBody, err.Error())
	}

	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleReview, c, err)
	}
	courseID := c.Params("courseID")

	// Only enrolled learners may rate a course.
	e, err := course.GetEnrollment(db, caller.UserID, courseID)
	if err != nil {
		return apperror.InternalError(config.ModuleReview, c, err)
	}
	if e == nil {
		return apperror.Forbidden(config.ModuleReview, c, status.Forbidden, "not enrolled in this course")
	}

	r, err := course.SubmitReview(db, courseID, caller.UserID, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, course.ErrBadRating):
			return apperror.BadRequest(config.ModuleReview, c, status.InvalidRequestBody, err.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			return apperror.NotFound(config.ModuleReview, c, status.CourseNotFound, "course not found")
		default:
			return apperror.InternalError(config.ModuleReview, c, err)
		}
	}
	return apperror.Success(config.ModuleReview, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "review submitted",
		Data:    r,
	})
}

func HandleListReviews(c fiber.Ctx) error {
	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleReview, c, err)
	}
	reviews, err := course.ListReviews(db, c.Params("courseID"))
	if err != nil {
		return apperror.InternalError(config.ModuleReview, c, err)
	}
	return apperror.Success(config.ModuleReview, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "reviews listed",
		Data:    reviews,
	})
}
