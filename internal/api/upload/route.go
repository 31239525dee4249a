package upload

import (
	"github.com/gofiber/fiber/v3"
)

// RegisterRoutes registers media upload routes on the provided router.
func RegisterRoutes(r fiber.Router) {
	r.Post("/upload", HandleUploadMedia)
}
