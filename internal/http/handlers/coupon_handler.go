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

type CouponHandler struct {
	Svc  *services.CouponService
	Repo *repos.CouponRepo
}

// Validate is the explicit coupon check. Unlike checkout it rejects: unknown
// codes 404, ineligible ones 422.
func (h *CouponHandler) Validate(c *fiber.Ctx) error {
	var req struct {
		Code   string          `json:"code"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON")
	}
	code, ok := validate.CouponCode(req.Code)
	if !ok || code == "" {
		return badRequest(c, "code", "invalid coupon code")
	}

	coupon, discount, err := h.Svc.Validate(code, req.Amount)
	if err != nil {
		applog.Info(c, "coupon.validate.reject", map[string]any{"code": code, "error": err.Error()})
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"code":         coupon.Code,
		"discountType": coupon.DiscountType,
		"discount":     discount,
	})
}

type couponCreateReq struct {
	Code          string          `json:"code"`
	DiscountType  string          `json:"discountType"`
	Percent       decimal.Decimal `json:"percent"`
	Amount        decimal.Decimal `json:"amount"`
	MinimumAmount decimal.Decimal `json:"minimumAmount"`
	MaxDiscount   *decimal.Decimal `json:"maxDiscount"`
	UsageLimit    *int64          `json:"usageLimit"`
	ValidFrom     string          `json:"validFrom"`
	ValidTo       string          `json:"validTo"`
	IsActive      *bool           `json:"isActive"`
}

func (h *CouponHandler) Create(c *fiber.Ctx) error {
	var req couponCreateReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON")
	}
	code, ok := validate.CouponCode(req.Code)
	if !ok || code == "" {
		return badRequest(c, "code", "invalid coupon code")
	}
	if req.DiscountType != "percentage" && req.DiscountType != "fixed" {
		return badRequest(c, "discountType", "must be percentage or fixed")
	}
	if req.ValidFrom == "" || req.ValidTo == "" {
		return badRequest(c, "validFrom", "validity window is required")
	}

	coupon := domain.Coupon{
		ID:            uuid.NewString(),
		Code:          code,
		DiscountType:  req.DiscountType,
		Percent:       req.Percent,
		Amount:        req.Amount,
		MinimumAmount: req.MinimumAmount,
		ValidFrom:     req.ValidFrom,
		ValidTo:       req.ValidTo,
		IsActive:      req.IsActive == nil || *req.IsActive,
	}
	if req.MaxDiscount != nil {
		coupon.MaxDiscount = decimal.NullDecimal{Decimal: *req.MaxDiscount, Valid: true}
	}
	if req.UsageLimit != nil {
		coupon.UsageLimit = sql.NullInt64{Int64: *req.UsageLimit, Valid: true}
	}

	if err := h.Repo.Create(coupon); err != nil {
		return writeError(c, err)
	}
	applog.Audit(c, "coupon.create", map[string]any{"code": code})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": coupon.ID, "code": coupon.Code})
}

func (h *CouponHandler) List(c *fiber.Ctx) error {
	out, err := h.Repo.List()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"coupons": out})
}
