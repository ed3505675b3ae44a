package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// PublicCache sets public cache headers on successful GET responses
func PublicCache(maxAge time.Duration) fiber.Handler {
	return cacheHeaders("public", maxAge)
}

// PrivateCache sets private cache headers (for user-specific data)
func PrivateCache(maxAge time.Duration) fiber.Handler {
	return cacheHeaders("private", maxAge)
}

func cacheHeaders(scope string, maxAge time.Duration) fiber.Handler {
	value := scope + ", max-age=" + strconv.Itoa(int(maxAge.Seconds()))
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if c.Method() == fiber.MethodGet && c.Response().StatusCode() == fiber.StatusOK {
			c.Set(fiber.HeaderCacheControl, value)
		}
		return err
	}
}

// NoStore marks responses as uncacheable. Renewal data changes on review
// and clients keep their own cache, so intermediaries must not.
func NoStore() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate")
		c.Set(fiber.HeaderPragma, "no-cache")
		c.Set(fiber.HeaderExpires, "0")
		return c.Next()
	}
}
