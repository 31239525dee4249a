package identity

import "github.com/gofiber/fiber/v3"

// Caller is the authenticated identity resolved by the upstream auth layer.
// This service trusts the gateway's claims headers; it does not authenticate.
type Caller struct {
	UserID  string
	IsAdmin bool
}

func FromRequest(c fiber.Ctx) Caller {
	return Caller{
		UserID:  c.Get("X-User-ID"),
		IsAdmin: c.Get("X-User-Role") == "admin",
	}
}
