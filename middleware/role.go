package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// RequireRole rejects requests whose authenticated role is not in the allowed
// set. It assumes UserContextMiddleware ran first.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		if !allowed[role] {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "insufficient permissions for this operation",
			})
		}
		return c.Next()
	}
}
