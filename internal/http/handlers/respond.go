package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"oakline/internal/domain"
	applog "oakline/internal/log"
)

// writeError maps the engine's error taxonomy onto HTTP statuses with a
// machine-readable kind. Storage internals never leak to the caller.
func writeError(c *fiber.Ctx, err error) error {
	var (
		ve *domain.ValidationError
		nf *domain.NotFoundError
		is *domain.InsufficientStockError
		ii *domain.InvalidItemError
		cr *domain.CouponRejectedError
		tf *domain.TransactionFailure
	)
	switch {
	case errors.As(err, &ve):
		return fail(c, fiber.StatusBadRequest, "VALIDATION", ve.Error(), fiber.Map{"field": ve.Field})
	case errors.As(err, &ii):
		return fail(c, fiber.StatusBadRequest, "INVALID_ITEM", ii.Error(), fiber.Map{
			"itemId": ii.ItemID, "field": ii.Field,
		})
	case errors.As(err, &nf):
		return fail(c, fiber.StatusNotFound, "NOT_FOUND", nf.Error(), fiber.Map{
			"kind": nf.Kind, "id": nf.ID,
		})
	case errors.As(err, &is):
		return fail(c, fiber.StatusConflict, "INSUFFICIENT_STOCK", is.Error(), fiber.Map{
			"itemId": is.ItemID, "colorId": is.ColorID, "size": is.SizeName,
			"requested": is.Requested, "available": is.Available,
		})
	case errors.As(err, &cr):
		return fail(c, fiber.StatusUnprocessableEntity, "COUPON_REJECTED", cr.Error(), fiber.Map{
			"code": cr.Code, "reason": cr.Reason,
		})
	case errors.As(err, &tf):
		applog.Error(c, "storage.error", err, nil)
		return fail(c, fiber.StatusInternalServerError, "TRANSACTION_FAILURE",
			"the order could not be processed, please try again", nil)
	default:
		applog.Error(c, "server.error", err, nil)
		return fail(c, fiber.StatusInternalServerError, "INTERNAL",
			"something went wrong, please try again", nil)
	}
}

func fail(c *fiber.Ctx, status int, kind, message string, details fiber.Map) error {
	body := fiber.Map{"kind": kind, "message": message}
	if details != nil {
		body["details"] = details
	}
	return c.Status(status).JSON(fiber.Map{"error": body})
}

func badRequest(c *fiber.Ctx, field, reason string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return writeError(c, &domain.ValidationError{Field: field, Reason: reason})
}
