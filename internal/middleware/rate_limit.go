package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/school-admin-api/internal/utils"
	"github.com/noah-isme/school-admin-api/pkg/apperror"
)

// RateLimit creates a per-user rate limiter middleware instance. Rejections are
// rendered through responder, so legacy mode answers 500.
func RateLimit(identifier string, max int, window time.Duration, responder utils.ErrorResponder) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			key := c.IP()
			if identity, ok := IdentityFromContext(c); ok && identity.ID != "" {
				key = identity.ID
			}
			return fmt.Sprintf("%s:%s", identifier, key)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return responder.Send(c, apperror.RateLimited("too many requests, please slow down"), "too many requests")
		},
	})
}
