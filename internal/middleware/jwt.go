package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/school-admin-api/internal/auth"
	"github.com/noah-isme/school-admin-api/internal/utils"
	"github.com/noah-isme/school-admin-api/pkg/apperror"
)

const localIdentity = "identity"

// IdentityResolver maps a token subject to a known caller.
type IdentityResolver interface {
	Resolve(ctx context.Context, subject string) (auth.Identity, error)
}

// Authenticate is the auth gate: it validates the bearer token, resolves the
// caller and stores the identity for downstream handlers.
func Authenticate(tokens *auth.TokenManager, identities IdentityResolver, responder utils.ErrorResponder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if authorization == "" {
			return responder.Send(c, apperror.Unauthenticated("missing authorization header"), "")
		}

		const bearer = "bearer "
		if len(authorization) <= len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return responder.Send(c, apperror.Unauthenticated("invalid authorization header"), "")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		subject, err := tokens.Subject(tokenString)
		if err != nil {
			return responder.Send(c, apperror.Unauthenticated("invalid or expired token"), "")
		}

		identity, err := identities.Resolve(c.UserContext(), subject)
		if err != nil {
			return responder.Send(c, err, "failed to authenticate request")
		}

		c.Locals(localIdentity, identity)
		c.Locals("user_id", identity.ID)
		c.Locals("user_role", identity.Role)

		return c.Next()
	}
}

// IdentityFromContext returns the caller stored by Authenticate.
func IdentityFromContext(c *fiber.Ctx) (auth.Identity, bool) {
	identity, ok := c.Locals(localIdentity).(auth.Identity)
	return identity, ok
}
