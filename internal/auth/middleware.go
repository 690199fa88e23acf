package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/supportdesk/internal/domain"
	apperrors "github.com/spec-kit/supportdesk/pkg/util"
)

const principalKey = "principal"

// Middleware authenticates requests with a bearer token and stores the
// principal in the request locals.
func Middleware(tokens *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return apperrors.NewUnauthorized("missing bearer token")
		}
		principal, err := tokens.Verify(token)
		if err != nil {
			return err
		}
		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// PrincipalFrom returns the authenticated principal stored by Middleware.
func PrincipalFrom(c *fiber.Ctx) Principal {
	principal, _ := c.Locals(principalKey).(Principal)
	return principal
}

// RequireStaff rejects callers below the staff role.
func RequireStaff() fiber.Handler {
	return requireRole(domain.RoleStaff, domain.RoleAdmin)
}

// RequireAdmin rejects callers below the admin role.
func RequireAdmin() fiber.Handler {
	return requireRole(domain.RoleAdmin)
}

func requireRole(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := PrincipalFrom(c)
		for _, role := range roles {
			if principal.Role == role {
				return c.Next()
			}
		}
		return apperrors.NewPermissionDenied("insufficient role")
	}
}
