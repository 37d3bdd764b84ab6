package handlers

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"oakline/internal/domain"
	applog "oakline/internal/log"
	"oakline/internal/repos"
	"oakline/internal/services"
	"oakline/internal/validate"
)

type PurchaseHandler struct {
	Purchases *repos.PurchaseRepo
	Vendors   *repos.VendorRepo
	Coord     *services.Coordinator
}

type purchaseOrderReq struct {
	VendorID string `json:"vendorId"`
	Items    []struct {
		ItemKind string          `json:"itemKind"`
		ItemID   string          `json:"itemId"`
		ColorID  string          `json:"colorId"`
		Size     string          `json:"size"`
		Quantity int             `json:"quantity"`
		UnitCost decimal.Decimal `json:"unitCost"`
	} `json:"items"`
}

func (h *PurchaseHandler) Create(c *fiber.Ctx) error {
	var req purchaseOrderReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON")
	}
	vendorID, ok := validate.ID(req.VendorID)
	if !ok {
		return badRequest(c, "vendorId", "invalid identifier")
	}
	if len(req.Items) == 0 {
		return badRequest(c, "items", "purchase order has no lines")
	}
	if _, err := h.Vendors.Get(vendorID); err != nil {
		if err == sql.ErrNoRows {
			return writeError(c, &domain.NotFoundError{Kind: "vendor", ID: vendorID})
		}
		return writeError(c, err)
	}

	po := domain.PurchaseOrder{ID: uuid.NewString(), VendorID: vendorID}
	items := make([]domain.PurchaseOrderItem, 0, len(req.Items))
	for i, it := range req.Items {
		kind, ok := validate.ItemKind(it.ItemKind)
		if !ok {
			return badRequest(c, "items.itemKind", "must be product or material")
		}
		id, ok := validate.ID(it.ItemID)
		if !ok {
			return badRequest(c, "items.itemId", "invalid identifier")
		}
		if !validate.Qty(it.Quantity) {
			return badRequest(c, "items.quantity", "must be between 1 and 1000")
		}
		if (it.ColorID == "") != (it.Size == "") {
			return badRequest(c, "items.colorId", "color and size go together")
		}
		items = append(items, domain.PurchaseOrderItem{
			PurchaseOrderID: po.ID,
			LineNo:          i + 1,
			ItemKind:        kind,
			ItemID:          id,
			ColorID:         it.ColorID,
			SizeName:        it.Size,
			Quantity:        it.Quantity,
			UnitCost:        it.UnitCost,
		})
	}

	if err := h.Purchases.Create(po, items); err != nil {
		return writeError(c, err)
	}
	applog.Audit(c, "purchase.create", map[string]any{"po_id": po.ID, "vendor_id": vendorID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"purchaseOrderId": po.ID, "status": "ORDERED"})
}

// Receive books the goods of an ORDERED purchase order into stock through
// the order engine (source purchase-receipt, stock direction increment).
func (h *PurchaseHandler) Receive(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "invalid identifier")
	}
	po, items, err := h.Purchases.Get(id)
	if err != nil {
		return writeError(c, err)
	}

	req := services.OrderRequest{
		Source:          services.SourceReceipt,
		PurchaseOrderID: po.ID,
	}
	for _, it := range items {
		req.Items = append(req.Items, services.CartLine{
			ItemKind: it.ItemKind,
			ItemID:   it.ItemID,
			ColorID:  it.ColorID,
			SizeName: it.SizeName,
			Quantity: it.Quantity,
			UnitCost: decimal.NullDecimal{Decimal: it.UnitCost, Valid: true},
		})
	}

	res, err := h.Coord.Submit(req)
	if err != nil {
		applog.Security(c, "purchase.receive.fail", map[string]any{"po_id": po.ID, "error": err.Error()})
		return writeError(c, err)
	}
	applog.Audit(c, "purchase.receive", map[string]any{"po_id": po.ID, "receipt_id": res.OrderID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"purchaseOrderId": po.ID,
		"receiptId":       res.OrderID,
		"status":          res.Status,
		"total":           res.Breakdown.Total,
	})
}

func (h *PurchaseHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "invalid identifier")
	}
	po, items, err := h.Purchases.Get(id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"purchaseOrder": po, "items": items})
}

func (h *PurchaseHandler) List(c *fiber.Ctx) error {
	out, err := h.Purchases.List(c.QueryInt("limit", 100))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"purchaseOrders": out})
}
