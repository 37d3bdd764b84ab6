package services

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"oakline/internal/domain"
	"oakline/internal/repos"
)

// CouponService backs the explicit validate-coupon endpoint. Unlike
// checkout, which silently drops an unusable coupon, this path rejects:
// unknown codes return NotFoundError and ineligible ones CouponRejectedError.
type CouponService struct {
	Coupons *repos.CouponRepo
	Now     func() time.Time
}

func NewCouponService(coupons *repos.CouponRepo) *CouponService {
	return &CouponService{Coupons: coupons, Now: time.Now}
}

// Validate checks a code against an order amount and returns the discount it
// would grant. No state changes; used_count only moves on a committed order.
func (s *CouponService) Validate(code string, amount decimal.Decimal) (*domain.Coupon, decimal.Decimal, error) {
	c, err := s.Coupons.ByCode(s.Coupons.DB(), code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, decimal.Zero, &domain.NotFoundError{Kind: "coupon", ID: code}
		}
		return nil, decimal.Zero, err
	}
	if err := CouponEligible(c, amount, s.Now()); err != nil {
		return nil, decimal.Zero, err
	}
	return c, couponDiscount(c, amount).Round(2), nil
}
