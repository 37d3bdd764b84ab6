package services

import (
	"time"

	"github.com/shopspring/decimal"

	"oakline/internal/domain"
)

// PricedLine is one validated cart line with its price and category captured
// at validation time. The pipeline never re-reads the catalog.
type PricedLine struct {
	Kind      domain.ItemKind
	ItemID    string
	ItemName  string
	ColorID   string
	SizeName  string
	Category  string
	Quantity  int
	UnitPrice decimal.Decimal
	Addons    []domain.Addon
}

func (l PricedLine) lineTotal() decimal.Decimal {
	qty := decimal.NewFromInt(int64(l.Quantity))
	total := l.UnitPrice.Mul(qty)
	for _, a := range l.Addons {
		total = total.Add(a.SalePrice.Mul(qty))
	}
	return total
}

// Breakdown is the persisted price decomposition. Every field is rounded to
// the cent, and Total is exactly the sum of the rounded fields, so the total
// can always be reproduced from the stored breakdown alone.
type Breakdown struct {
	Subtotal         decimal.Decimal
	CategoryTaxTotal decimal.Decimal
	FullBillTaxTotal decimal.Decimal
	Discount         decimal.Decimal
	DeliveryCharge   decimal.Decimal
	Total            decimal.Decimal
	CouponCode       string
}

var hundred = decimal.NewFromInt(100)

// Price computes the breakdown for a set of validated lines. The step order
// is fixed: subtotal, category tax, discount, delivery, full-bill tax, total.
// An ineligible or nil coupon prices as zero discount; rejecting it is the
// caller's decision, not the pipeline's.
func Price(lines []PricedLine, coupon *domain.Coupon, delivery decimal.Decimal, taxes []domain.Tax, now time.Time) Breakdown {
	sub := decimal.Zero
	for _, ln := range lines {
		sub = sub.Add(ln.lineTotal())
	}
	sub = sub.Round(2)

	catTax := decimal.Zero
	for _, ln := range lines {
		for _, t := range taxes {
			if t.IsActive && t.AppliesTo(ln.Category) {
				catTax = catTax.Add(ln.lineTotal().Mul(t.Rate).Div(hundred))
			}
		}
	}
	catTax = catTax.Round(2)

	discount := decimal.Zero
	code := ""
	if coupon != nil && CouponEligible(coupon, sub, now) == nil {
		discount = couponDiscount(coupon, sub)
		code = coupon.Code
	}
	discount = discount.Round(2)

	delivery = delivery.Round(2)

	taxable := sub.Add(catTax).Sub(discount).Add(delivery)
	fullBill := decimal.Zero
	for _, t := range taxes {
		if t.IsActive && t.TaxType == "full_bill" {
			fullBill = fullBill.Add(taxable.Mul(t.Rate).Div(hundred))
		}
	}
	fullBill = fullBill.Round(2)

	total := sub.Add(catTax).Add(fullBill).Sub(discount).Add(delivery)

	return Breakdown{
		Subtotal:         sub,
		CategoryTaxTotal: catTax,
		FullBillTaxTotal: fullBill,
		Discount:         discount,
		DeliveryCharge:   delivery,
		Total:            total,
		CouponCode:       code,
	}
}

func couponDiscount(c *domain.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if c.DiscountType == "fixed" {
		// deliberately not capped by the subtotal
		return c.Amount
	}
	d := subtotal.Mul(c.Percent).Div(hundred)
	if c.MaxDiscount.Valid && d.GreaterThan(c.MaxDiscount.Decimal) {
		d = c.MaxDiscount.Decimal
	}
	return d
}

// CouponEligible checks a coupon against an order amount at a moment in
// time. A nil return means the coupon may be applied; otherwise the returned
// *domain.CouponRejectedError names the reason.
func CouponEligible(c *domain.Coupon, amount decimal.Decimal, now time.Time) error {
	if !c.IsActive {
		return &domain.CouponRejectedError{Code: c.Code, Reason: "inactive"}
	}
	from, err := time.Parse(time.RFC3339, c.ValidFrom)
	if err != nil {
		return &domain.CouponRejectedError{Code: c.Code, Reason: "invalid validity window"}
	}
	to, err := time.Parse(time.RFC3339, c.ValidTo)
	if err != nil {
		return &domain.CouponRejectedError{Code: c.Code, Reason: "invalid validity window"}
	}
	if now.Before(from) || now.After(to) {
		return &domain.CouponRejectedError{Code: c.Code, Reason: "expired"}
	}
	if c.UsageLimit.Valid && int64(c.UsedCount) >= c.UsageLimit.Int64 {
		return &domain.CouponRejectedError{Code: c.Code, Reason: "usage limit reached"}
	}
	if amount.LessThan(c.MinimumAmount) {
		return &domain.CouponRejectedError{Code: c.Code, Reason: "below minimum spend"}
	}
	return nil
}
