package course

import (
	"github.com/gofiber/fiber/v3"
)

// RegisterRoutes registers course authoring and browsing routes on the
// provided router.
func RegisterRoutes(r fiber.Router, h *Handler) {
	grp := r.Group("/courses")
	grp.Post("/", h.HandleCreateCourse)
	grp.Get("/", h.HandleListCourses)
	grp.Get("/:courseID", h.HandleGetCourse)
	grp.Put("/:courseID", h.HandleUpdateCourse)
	grp.Post("/:courseID/submit", h.HandleSubmitForReview)
	grp.Post("/:courseID/decide", h.HandleDecideCourse)
	grp.Post("/:courseID/unpublish", h.HandleUnpublishCourse)
	grp.Post("/:courseID/share-link", h.HandleShareLink)
	grp.Get("/:courseID/chapters/:chapterNumber", h.HandleGetChapter)
	grp.Post("/:courseID/chapters", h.HandleAddChapter)

	r.Put("/chapters/:lessonID", h.HandleUpdateChapter)
	r.Delete("/chapters/:lessonID", h.HandleDeleteChapter)

	r.Get("/share/:linkID", h.HandleGetCourseByShareLink)
}
