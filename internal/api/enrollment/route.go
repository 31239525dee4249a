package enrollment

import (
	"github.com/gofiber/fiber/v3"
)

// RegisterRoutes registers enrollment routes on the provided router.
func RegisterRoutes(r fiber.Router) {
	grp := r.Group("/enrollments")
	grp.Post("/", HandleEnroll)

	r.Get("/courses/:courseID/certificate", HandleCertificate)
}
