package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/acwadtec/cashapp-backend/internal/config"
)

const UserIDKey = "user_id"

// GatewayAuth trusts the platform gateway: requests must carry the
// shared API key, and the authenticated user id arrives in X-User-ID.
// Session handling itself lives upstream.
func GatewayAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.Server.APIKey != "" && c.Get("X-Api-Key") != cfg.Server.APIKey {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid api key",
			})
		}

		userID, err := strconv.ParseInt(c.Get("X-User-ID"), 10, 64)
		if err != nil || userID <= 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing user identity",
			})
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

func GetUserID(c *fiber.Ctx) int64 {
	if id, ok := c.Locals(UserIDKey).(int64); ok {
		return id
	}
	return 0
}

// AdminAuth guards lifecycle transitions reserved for administrators.
func AdminAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.Server.AdminAPIKey == "" || c.Get("X-Admin-Key") != cfg.Server.AdminAPIKey {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin access required",
			})
		}
		return c.Next()
	}
}
