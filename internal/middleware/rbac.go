package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/school-admin-api/internal/auth"
	"github.com/noah-isme/school-admin-api/internal/utils"
)

// RequireRole rejects callers whose role differs from role. It must run after Authenticate.
func RequireRole(role string, responder utils.ErrorResponder) fiber.Handler {
	requirement := auth.Requirement{Role: role}

	return func(c *fiber.Ctx) error {
		identity, _ := IdentityFromContext(c)
		if _, err := auth.Authorize(identity, requirement); err != nil {
			return responder.Send(c, err, "")
		}
		return c.Next()
	}
}
