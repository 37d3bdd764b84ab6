package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"oakline/internal/domain"
)

// StockRepo owns every stock counter mutation. Decrements are conditional
// single-statement updates (qty must still cover the request), so concurrent
// orders racing for the last unit cannot both win. All methods take an
// sqlx.Ext and are expected to run inside the order's transaction.
type StockRepo struct{ db *sqlx.DB }

func NewStockRepo(db *sqlx.DB) *StockRepo { return &StockRepo{db: db} }

// Decrement subtracts qty from the counter named by loc if and only if the
// current stock still covers it. On shortfall it returns
// *domain.InsufficientStockError carrying the fresh availability.
func (r *StockRepo) Decrement(e sqlx.Ext, loc domain.StockLocator, qty int) (int, error) {
	var res sql.Result
	var err error
	switch {
	case loc.Kind == domain.KindMaterial:
		res, err = e.Exec(`UPDATE materials SET stock = stock - ? WHERE id = ? AND stock >= ?`,
			qty, loc.ItemID, qty)
	case loc.Variant():
		res, err = e.Exec(`UPDATE color_sizes SET stock = stock - ? WHERE color_id = ? AND name = ? AND stock >= ?`,
			qty, loc.ColorID, loc.SizeName, qty)
	default:
		res, err = e.Exec(`UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?`,
			qty, loc.ItemID, qty)
	}
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		avail, err := r.Available(e, loc)
		if err != nil {
			return 0, err
		}
		return 0, &domain.InsufficientStockError{
			ItemID:    loc.ItemID,
			ColorID:   loc.ColorID,
			SizeName:  loc.SizeName,
			Requested: qty,
			Available: avail,
		}
	}
	return r.Available(e, loc)
}

// Increment adds qty to the counter named by loc (goods received, refunds).
func (r *StockRepo) Increment(e sqlx.Ext, loc domain.StockLocator, qty int) (int, error) {
	var res sql.Result
	var err error
	switch {
	case loc.Kind == domain.KindMaterial:
		res, err = e.Exec(`UPDATE materials SET stock = stock + ? WHERE id = ?`, qty, loc.ItemID)
	case loc.Variant():
		res, err = e.Exec(`UPDATE color_sizes SET stock = stock + ? WHERE color_id = ? AND name = ?`,
			qty, loc.ColorID, loc.SizeName)
	default:
		res, err = e.Exec(`UPDATE products SET stock = stock + ? WHERE id = ?`, qty, loc.ItemID)
	}
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, notFoundFor(loc)
	}
	return r.Available(e, loc)
}

// ConsumeMaterial floors a raw-material counter at zero and reports the
// shortfall instead of failing, so addon consumption can be reconciled later.
func (r *StockRepo) ConsumeMaterial(e sqlx.Ext, materialID string, qty int) (shortfall int, err error) {
	var current int
	if err := sqlx.Get(e, &current, `SELECT stock FROM materials WHERE id = ?`, materialID); err != nil {
		if err == sql.ErrNoRows {
			return 0, &domain.NotFoundError{Kind: "material", ID: materialID}
		}
		return 0, err
	}
	if current < qty {
		shortfall = qty - current
	}
	if _, err := e.Exec(`UPDATE materials SET stock = MAX(0, stock - ?) WHERE id = ?`, qty, materialID); err != nil {
		return 0, err
	}
	return shortfall, nil
}

// RecomputeProduct rewrites a product's denormalized stock as the sum of its
// variant sizes. Must run after any size-level mutation.
func (r *StockRepo) RecomputeProduct(e sqlx.Ext, productID string) error {
	_, err := e.Exec(`
	  UPDATE products SET stock = (
	    SELECT COALESCE(SUM(cs.stock), 0)
	    FROM color_sizes cs JOIN product_colors pc ON pc.id = cs.color_id
	    WHERE pc.product_id = ?
	  )
	  WHERE id = ? AND has_variants = 1
	`, productID, productID)
	return err
}

// Available reads the current value of the counter named by loc.
func (r *StockRepo) Available(e sqlx.Ext, loc domain.StockLocator) (int, error) {
	var qty int
	var err error
	switch {
	case loc.Kind == domain.KindMaterial:
		err = sqlx.Get(e, &qty, `SELECT stock FROM materials WHERE id = ?`, loc.ItemID)
	case loc.Variant():
		err = sqlx.Get(e, &qty, `SELECT stock FROM color_sizes WHERE color_id = ? AND name = ?`,
			loc.ColorID, loc.SizeName)
	default:
		err = sqlx.Get(e, &qty, `SELECT stock FROM products WHERE id = ?`, loc.ItemID)
	}
	if err == sql.ErrNoRows {
		return 0, notFoundFor(loc)
	}
	return qty, err
}

func notFoundFor(loc domain.StockLocator) error {
	kind := "product"
	id := loc.ItemID
	switch {
	case loc.Kind == domain.KindMaterial:
		kind = "material"
	case loc.Variant():
		kind = "variant"
		id = loc.ItemID + "/" + loc.ColorID + "/" + loc.SizeName
	}
	return &domain.NotFoundError{Kind: kind, ID: id}
}
