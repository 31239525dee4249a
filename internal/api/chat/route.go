package chat

import (
	"github.com/gofiber/fiber/v3"
)

// RegisterRoutes registers lesson playback routes on the provided router.
func RegisterRoutes(r fiber.Router, h *Handler) {
	grp := r.Group("/chat")
	grp.Post("/", h.HandleTurn)
	grp.Post("/intent", h.HandleIntent)
	grp.Post("/reset", h.HandleReset)
	grp.Post("/step-back", h.HandleStepBack)
}
