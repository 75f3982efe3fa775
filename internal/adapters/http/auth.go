package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// HeaderUserID is set by the upstream gateway after authenticating the caller.
const HeaderUserID = "X-User-ID"

const userIDKey = "user_id"

// RequireUser rejects requests that carry no authenticated user.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid := strings.TrimSpace(c.Get(HeaderUserID))
		if uid == "" {
			return errUnauthorized(c, "authentication required")
		}
		c.Locals(userIDKey, uid)
		return c.Next()
	}
}

// userID returns the caller set by RequireUser.
func userID(c *fiber.Ctx) string {
	uid, _ := c.Locals(userIDKey).(string)
	return uid
}
