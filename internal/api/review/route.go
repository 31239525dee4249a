package review

import (
	"github.com/gofiber/fiber/v3"
)

// RegisterRoutes registers course review routes on the provided router.
func RegisterRoutes(r fiber.Router) {
	r.Post("/courses/:courseID/reviews", HandleSubmitReview)
	r.Get("/courses/:courseID/reviews", HandleListReviews)
}
