package handlers

import (
	"github.com/gofiber/fiber/v2"

	"oakline/internal/domain"
	"oakline/internal/services"
	"oakline/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

// Check answers GET /api/v1/availability for an item or a specific variant.
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	kind, ok := validate.ItemKind(c.Query("itemKind", "product"))
	if !ok {
		return badRequest(c, "itemKind", "must be product or material")
	}
	itemID, ok := validate.ID(c.Query("itemId"))
	if !ok {
		return badRequest(c, "itemId", "invalid identifier")
	}

	a, err := h.Inv.CheckAvailability(domain.ItemKind(kind), itemID, c.Query("colorId"), c.Query("size"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(a)
}
