package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "oakline/internal/log"
	"oakline/internal/repos"
	"oakline/internal/services"
	"oakline/internal/validate"
)

type OrderHandler struct {
	Coord *services.Coordinator
	Repo  *repos.OrderRepo
}

type orderItemReq struct {
	ItemKind string   `json:"itemKind"`
	ItemID   string   `json:"itemId"`
	ColorID  string   `json:"colorId"`
	Size     string   `json:"size"`
	Quantity int      `json:"quantity"`
	Addons   []string `json:"addons"` // material ids; omit to take all attached addons
}

type orderReq struct {
	Customer struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
		Email   string `json:"email"`
	} `json:"customer"`
	Items             []orderItemReq `json:"items"`
	DeliveryZoneID    string         `json:"deliveryZoneId"`
	PaymentMethod     string         `json:"paymentMethod"`
	AppliedCouponCode string         `json:"appliedCouponCode"`
}

// PlacePOS is the point-of-sale checkout.
func (h *OrderHandler) PlacePOS(c *fiber.Ctx) error {
	return h.place(c, services.SourcePOS)
}

// PlaceEcommerce is the storefront checkout.
func (h *OrderHandler) PlaceEcommerce(c *fiber.Ctx) error {
	return h.place(c, services.SourceEcommerce)
}

func (h *OrderHandler) place(c *fiber.Ctx, source services.Source) error {
	var req orderReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON")
	}

	if len(req.Items) == 0 {
		return badRequest(c, "items", "order has no lines")
	}
	pay, ok := validate.PaymentMethod(req.PaymentMethod)
	if !ok {
		return badRequest(c, "paymentMethod", "must be cash, card, online or bank_transfer")
	}
	code, ok := validate.CouponCode(req.AppliedCouponCode)
	if !ok {
		return badRequest(c, "appliedCouponCode", "invalid coupon code")
	}
	name := req.Customer.Name
	if source == services.SourceEcommerce {
		var ok bool
		if name, ok = validate.Name(name); !ok {
			return badRequest(c, "customer.name", "must be 1-60 characters")
		}
		if _, ok := validate.Email(req.Customer.Email); req.Customer.Email != "" && !ok {
			return badRequest(c, "customer.email", "invalid email")
		}
	}
	if _, ok := validate.Phone(req.Customer.Phone); !ok {
		return badRequest(c, "customer.phone", "invalid phone number")
	}

	order := services.OrderRequest{
		Source: source,
		Customer: services.Customer{
			Name:    name,
			Phone:   req.Customer.Phone,
			Address: req.Customer.Address,
			Email:   req.Customer.Email,
		},
		DeliveryZoneID: req.DeliveryZoneID,
		PaymentMethod:  pay,
		CouponCode:     code,
	}
	for _, it := range req.Items {
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
		order.Items = append(order.Items, services.CartLine{
			ItemKind: kind,
			ItemID:   id,
			ColorID:  it.ColorID,
			SizeName: it.Size,
			Quantity: it.Quantity,
			AddonIDs: it.Addons,
		})
	}

	res, err := h.Coord.Submit(order)
	if err != nil {
		applog.Security(c, "order.place.fail", map[string]any{"source": string(source), "error": err.Error()})
		return writeError(c, err)
	}

	applog.Audit(c, "order.place", map[string]any{
		"order_id": res.OrderID,
		"source":   string(source),
		"total":    res.Breakdown.Total.String(),
	})
	return c.Status(fiber.StatusCreated).JSON(orderResponse(res))
}

func orderResponse(res services.OrderResult) fiber.Map {
	bd := res.Breakdown
	return fiber.Map{
		"orderId":          res.OrderID,
		"status":           res.Status,
		"subtotal":         bd.Subtotal,
		"categoryTaxTotal": bd.CategoryTaxTotal,
		"fullBillTaxTotal": bd.FullBillTaxTotal,
		"discount":         bd.Discount,
		"deliveryCharge":   bd.DeliveryCharge,
		"total":            bd.Total,
	}
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "invalid identifier")
	}
	order, items, err := h.Repo.Get(id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"order": order, "items": items})
}

func (h *OrderHandler) List(c *fiber.Ctx) error {
	orders, err := h.Repo.ListLatest(c.QueryInt("limit", 100))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

// Refund restocks a placed order and marks it REFUNDED.
func (h *OrderHandler) Refund(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "invalid identifier")
	}
	order, err := h.Coord.Refund(id)
	if err != nil {
		return writeError(c, err)
	}
	applog.Audit(c, "order.refund", map[string]any{"order_id": id})
	return c.JSON(fiber.Map{"order": order})
}
