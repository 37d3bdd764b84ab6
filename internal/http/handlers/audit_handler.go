package handlers

import (
	"github.com/gofiber/fiber/v2"

	"oakline/internal/repos"
)

type AuditHandler struct {
	Logs *repos.AuditRepo
}

// List returns the newest audit entries, admin only.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	out, err := h.Logs.ListLatest(c.QueryInt("limit", 100))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"auditLogs": out})
}
