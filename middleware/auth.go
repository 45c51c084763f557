package middleware

import (
	"log"
	"strings"

	"asl-holdem/utils"

	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware validates the Bearer token and attaches user identity
// to the request context for handlers.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or malformed Authorization header",
			})
		}

		claims, err := utils.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			log.Printf("[AUTH] token rejected on %s: %v", c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}
		if refresh, _ := claims["refresh"].(bool); refresh {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "refresh token cannot be used for API access",
			})
		}

		userID, _ := claims["sub"].(string)
		role, _ := claims["role"].(string)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "token has no subject",
			})
		}

		// Attach to ctx for handlers
		c.Locals("user_id", userID)
		c.Locals("user_role", role)

		return c.Next()
	}
}
