package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/registration-api/internal/utils"
)

// RequireRole rejects callers whose token did not grant one of roles.
// It must run after AdminAuth or ApplicantAuth.
func RequireRole(roles ...string) fiber.Handler {
	permitted := func(role string) bool {
		for _, candidate := range roles {
			if strings.EqualFold(strings.TrimSpace(candidate), role) {
				return true
			}
		}
		return false
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(localsAuthRole).(string)
		if role == "" || !permitted(role) {
			return utils.SendError(c, fiber.StatusForbidden, "this account may not access "+c.Path())
		}
		return c.Next()
	}
}
