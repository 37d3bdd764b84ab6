package repos

import (
	"github.com/jmoiron/sqlx"

	"oakline/internal/domain"
)

type CouponRepo struct{ db *sqlx.DB }

func NewCouponRepo(db *sqlx.DB) *CouponRepo { return &CouponRepo{db: db} }

// DB exposes the pool as an sqlx.Ext for non-transactional reads.
func (r *CouponRepo) DB() sqlx.Ext { return r.db }

const couponCols = `
  id, code, discount_type, percent, amount, minimum_amount, max_discount,
  usage_limit, used_count, valid_from, valid_to, is_active, created_at`

// ByCode looks a coupon up case-insensitively. Returns sql.ErrNoRows when
// unknown; callers decide whether that is silent or a rejection.
func (r *CouponRepo) ByCode(e sqlx.Ext, code string) (*domain.Coupon, error) {
	var c domain.Coupon
	err := sqlx.Get(e, &c, `SELECT `+couponCols+` FROM coupons WHERE LOWER(code) = LOWER(?)`, code)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Redeem bumps used_count by exactly one, but only while the usage limit
// still allows it. Losing the race surfaces as CouponRejectedError so the
// surrounding order transaction aborts rather than over-redeeming.
func (r *CouponRepo) Redeem(e sqlx.Ext, code string) error {
	res, err := e.Exec(`
	  UPDATE coupons SET used_count = used_count + 1
	  WHERE LOWER(code) = LOWER(?) AND is_active = 1
	    AND (usage_limit IS NULL OR used_count < usage_limit)
	`, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.CouponRejectedError{Code: code, Reason: "usage limit reached"}
	}
	return nil
}

func (r *CouponRepo) Create(c domain.Coupon) error {
	_, err := r.db.Exec(`
	  INSERT INTO coupons(id,code,discount_type,percent,amount,minimum_amount,max_discount,
	    usage_limit,used_count,valid_from,valid_to,is_active)
	  VALUES(?,?,?,?,?,?,?,?,0,?,?,?)
	`, c.ID, c.Code, c.DiscountType, c.Percent, c.Amount, c.MinimumAmount, c.MaxDiscount,
		c.UsageLimit, c.ValidFrom, c.ValidTo, c.IsActive)
	return err
}

func (r *CouponRepo) List() ([]domain.Coupon, error) {
	var out []domain.Coupon
	err := r.db.Select(&out, `SELECT `+couponCols+` FROM coupons ORDER BY code`)
	return out, err
}
