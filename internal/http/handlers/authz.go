package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "oakline/internal/log"
	"oakline/internal/services"
)

func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return unauthorized(c)
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil {
			return unauthorized(c)
		}
		if !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"user_id": u.ID})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": fiber.Map{"kind": "FORBIDDEN", "message": "admin role required"},
			})
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// RequireUser enforces that a staff session exists.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return unauthorized(c)
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil {
			return unauthorized(c)
		}
		c.Locals("user", u)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": fiber.Map{"kind": "UNAUTHORIZED", "message": "login required"},
	})
}
