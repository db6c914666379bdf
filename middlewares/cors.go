package middlewares

import (
	"github.com/gofiber/fiber/v2"
)

const (
	corsAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, partner-token, x-api-key, X-Requested-With, Accept, Origin"
)

// CORS stamps permissive cross-origin headers on every response, errors
// included, and answers preflight requests with an empty 200 before any
// other handler runs.
func CORS(allowOrigin string) fiber.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAccessControlAllowOrigin, allowOrigin)
		c.Set(fiber.HeaderAccessControlAllowMethods, corsAllowMethods)
		c.Set(fiber.HeaderAccessControlAllowHeaders, corsAllowHeaders)

		if c.Method() == fiber.MethodOptions {
			return c.Status(fiber.StatusOK).Send(nil)
		}
		return c.Next()
	}
}
