package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/educa-pb/demandas-service/internal/domain"
	apperrors "github.com/educa-pb/demandas-service/pkg/util/errorutil"
)

// RequirePrincipal rejects anonymous callers when enforce is set.
func RequirePrincipal(enforce bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !enforce {
			return c.Next()
		}
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireRole ensures the caller has one of the allowed roles. With enforce
// unset, anonymous callers pass but authenticated ones are still checked.
func RequireRole(enforce bool, allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			if enforce {
				return apperrors.NewUnauthorized("authentication required")
			}
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
