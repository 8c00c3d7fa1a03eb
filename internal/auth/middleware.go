package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/educa-pb/demandas-service/internal/domain"
	apperrors "github.com/educa-pb/demandas-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle loads the principal when an Authorization header is present. A
// missing header passes through; a malformed or invalid one is rejected.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return c.Next()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := claims.Principal()
	c.Locals(principalKey, &principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok
}
