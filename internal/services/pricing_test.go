package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"oakline/internal/domain"
	"oakline/internal/services"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var priceNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func activeCoupon(typ string) *domain.Coupon {
	c := &domain.Coupon{
		Code:         "TEST",
		DiscountType: typ,
		IsActive:     true,
		ValidFrom:    "2026-01-01T00:00:00Z",
		ValidTo:      "2027-01-01T00:00:00Z",
	}
	return c
}

func TestPrice_StepOrderAndTaxScope(t *testing.T) {
	lines := []services.PricedLine{
		{ItemID: "tbl", Category: "Tables", Quantity: 1, UnitPrice: dec("1000")},
		{ItemID: "chr", Category: "Chairs", Quantity: 1, UnitPrice: dec("500")},
	}
	taxes := []domain.Tax{
		{Rate: dec("5"), TaxType: "category", Categories: "Tables", IsActive: true},
		{Rate: dec("10"), TaxType: "full_bill", IsActive: true},
	}

	bd := services.Price(lines, nil, dec("40"), taxes, priceNow)

	// category tax covers the table line only; full-bill tax runs on
	// subtotal + category tax - discount + delivery
	if bd.Subtotal.StringFixed(2) != "1500.00" {
		t.Fatalf("subtotal = %s", bd.Subtotal)
	}
	if bd.CategoryTaxTotal.StringFixed(2) != "50.00" {
		t.Fatalf("category tax = %s", bd.CategoryTaxTotal)
	}
	if bd.FullBillTaxTotal.StringFixed(2) != "159.00" {
		t.Fatalf("full-bill tax = %s", bd.FullBillTaxTotal)
	}
	if bd.Total.StringFixed(2) != "1749.00" {
		t.Fatalf("total = %s", bd.Total)
	}
}

func TestPrice_AddonsBilledPerUnit(t *testing.T) {
	lines := []services.PricedLine{
		{ItemID: "sofa", Category: "Sofas", Quantity: 2, UnitPrice: dec("1250"),
			Addons: []domain.Addon{
				{MaterialID: "mat-fabric", QtyPerUnit: 4, SalePrice: dec("55")},
				{MaterialID: "mat-foam", QtyPerUnit: 2, SalePrice: dec("25")},
			}},
	}
	bd := services.Price(lines, nil, decimal.Zero, nil, priceNow)
	// 2*1250 + 2*55 + 2*25 = 2660; addon sale price is per unit sold,
	// not per unit of material consumed
	if bd.Subtotal.StringFixed(2) != "2660.00" {
		t.Fatalf("subtotal = %s", bd.Subtotal)
	}
}

func TestPrice_PercentageCouponCapped(t *testing.T) {
	c := activeCoupon("percentage")
	c.Percent = dec("20")
	c.MaxDiscount = decimal.NullDecimal{Decimal: dec("150"), Valid: true}

	lines := []services.PricedLine{{ItemID: "x", Quantity: 1, UnitPrice: dec("1000")}}
	bd := services.Price(lines, c, decimal.Zero, nil, priceNow)

	if bd.Discount.StringFixed(2) != "150.00" {
		t.Fatalf("discount = %s, want the cap", bd.Discount)
	}
	if bd.Total.StringFixed(2) != "850.00" {
		t.Fatalf("total = %s", bd.Total)
	}
	if bd.CouponCode != "TEST" {
		t.Fatalf("coupon code = %q", bd.CouponCode)
	}
}

func TestPrice_FixedCouponNotCappedBySubtotal(t *testing.T) {
	c := activeCoupon("fixed")
	c.Amount = dec("50")
	c.MinimumAmount = dec("100")

	lines := []services.PricedLine{{ItemID: "x", Quantity: 1, UnitPrice: dec("120")}}
	bd := services.Price(lines, c, decimal.Zero, nil, priceNow)
	if bd.Discount.StringFixed(2) != "50.00" || bd.Total.StringFixed(2) != "70.00" {
		t.Fatalf("discount = %s total = %s", bd.Discount, bd.Total)
	}
}

func TestPrice_IneligibleCouponPricesSilently(t *testing.T) {
	c := activeCoupon("fixed")
	c.Amount = dec("50")
	c.MinimumAmount = dec("100")

	lines := []services.PricedLine{{ItemID: "x", Quantity: 1, UnitPrice: dec("80")}}
	bd := services.Price(lines, c, decimal.Zero, nil, priceNow)
	if !bd.Discount.IsZero() || bd.CouponCode != "" {
		t.Fatalf("want zero discount for below-minimum coupon, got %s (%q)", bd.Discount, bd.CouponCode)
	}
	if bd.Total.StringFixed(2) != "80.00" {
		t.Fatalf("total = %s", bd.Total)
	}
}

func TestPrice_TotalEqualsSumOfRoundedFields(t *testing.T) {
	c := activeCoupon("percentage")
	c.Percent = dec("7")

	lines := []services.PricedLine{
		{ItemID: "a", Category: "Tables", Quantity: 3, UnitPrice: dec("33.33")},
		{ItemID: "b", Category: "Chairs", Quantity: 1, UnitPrice: dec("19.99")},
	}
	taxes := []domain.Tax{
		{Rate: dec("5"), TaxType: "category", Categories: "Tables", IsActive: true},
		{Rate: dec("10"), TaxType: "full_bill", IsActive: true},
	}
	bd := services.Price(lines, c, dec("12.5"), taxes, priceNow)

	// every stored field is already rounded to the cent
	for name, v := range map[string]decimal.Decimal{
		"subtotal": bd.Subtotal, "categoryTax": bd.CategoryTaxTotal,
		"fullBillTax": bd.FullBillTaxTotal, "discount": bd.Discount,
		"delivery": bd.DeliveryCharge, "total": bd.Total,
	} {
		if !v.Equal(v.Round(2)) {
			t.Fatalf("%s = %s is not rounded to the cent", name, v)
		}
	}

	// and the total reproduces exactly from the stored breakdown
	sum := bd.Subtotal.Add(bd.CategoryTaxTotal).Add(bd.FullBillTaxTotal).
		Sub(bd.Discount).Add(bd.DeliveryCharge)
	if !bd.Total.Equal(sum) {
		t.Fatalf("total %s != field sum %s", bd.Total, sum)
	}
}

func TestCouponEligible_Reasons(t *testing.T) {
	cases := []struct {
		name   string
		mut    func(*domain.Coupon)
		amount string
		reason string
	}{
		{"inactive", func(c *domain.Coupon) { c.IsActive = false }, "500", "inactive"},
		{"before window", func(c *domain.Coupon) { c.ValidFrom = "2026-06-01T00:00:00Z" }, "500", "expired"},
		{"after window", func(c *domain.Coupon) { c.ValidTo = "2026-02-01T00:00:00Z" }, "500", "expired"},
		{"garbled window", func(c *domain.Coupon) { c.ValidFrom = "yesterday" }, "500", "invalid validity window"},
		{"usage limit", func(c *domain.Coupon) {
			c.UsageLimit.Valid = true
			c.UsageLimit.Int64 = 3
			c.UsedCount = 3
		}, "500", "usage limit reached"},
		{"below minimum", func(c *domain.Coupon) { c.MinimumAmount = dec("1000") }, "500", "below minimum spend"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := activeCoupon("percentage")
			c.Percent = dec("10")
			tc.mut(c)

			err := services.CouponEligible(c, dec(tc.amount), priceNow)
			var cr *domain.CouponRejectedError
			if !errors.As(err, &cr) {
				t.Fatalf("want CouponRejectedError, got %v", err)
			}
			if cr.Reason != tc.reason {
				t.Fatalf("reason = %q, want %q", cr.Reason, tc.reason)
			}
		})
	}

	if err := services.CouponEligible(activeCoupon("percentage"), dec("500"), priceNow); err != nil {
		t.Fatalf("healthy coupon rejected: %v", err)
	}
}
