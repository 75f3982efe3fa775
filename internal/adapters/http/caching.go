package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Adds sensible defaults if not already set by the handler.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		// Only set on GET requests
		if c.Method() != "GET" {
			return err
		}

		// Don't override if already set
		if existing := string(c.Response().Header.Peek("Cache-Control")); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10"

		case path == "/metrics":
			ttl = "no-cache"

		case path == "/graphql":
			ttl = "private, max-age=0"

		// per-user data must never be shared
		case strings.HasPrefix(path, "/v1/cart"),
			strings.HasPrefix(path, "/v1/orders"),
			strings.HasPrefix(path, "/v1/location"):
			ttl = "private, no-store"

		case strings.HasPrefix(path, "/v1/pharmacies/nearby"),
			strings.HasPrefix(path, "/v1/stores/nearby"):
			ttl = "public, max-age=60"

		case path == "/v1/medicines/categories":
			ttl = "public, max-age=600"

		case strings.HasPrefix(path, "/v1/pharmacies/"),
			strings.HasPrefix(path, "/v1/medicines/"):
			ttl = "public, max-age=600"

		case strings.HasPrefix(path, "/v1/medicines"):
			ttl = "public, max-age=120"

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=60"
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
