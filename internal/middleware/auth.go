package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sparisa0x/FinanceBuddy/internal/utils"
)

const (
	LocalUserID  = "userID"
	LocalIsAdmin = "isAdmin"

	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// RequireAuth validates the access-token cookie and stashes the caller's
// identity in request locals.
func RequireAuth(tokens *utils.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(AccessCookie)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
		}
		claims, err := tokens.VerifyAccessToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
		}
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalIsAdmin, claims.IsAdmin)
		return c.Next()
	}
}

// AdminOnly must run after RequireAuth.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isAdmin, _ := c.Locals(LocalIsAdmin).(bool)
		if !isAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Forbidden"})
		}
		return c.Next()
	}
}
