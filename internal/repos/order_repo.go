package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"oakline/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `
  id, source, customer_name, customer_phone, customer_address, customer_email,
  payment_method, status, coupon_code, subtotal, category_tax_total,
  full_bill_tax_total, discount, delivery_charge, total, created_at`

// Create inserts the order header inside the coordinator's transaction.
func (r *OrderRepo) Create(e sqlx.Ext, o domain.Order) error {
	_, err := e.Exec(`
	  INSERT INTO orders
	    (id, source, customer_name, customer_phone, customer_address, customer_email,
	     payment_method, status, coupon_code, subtotal, category_tax_total,
	     full_bill_tax_total, discount, delivery_charge, total)
	  VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, o.ID, o.Source, o.CustomerName, o.CustomerPhone, o.CustomerAddress, o.CustomerEmail,
		o.PaymentMethod, o.Status, o.CouponCode, o.Subtotal, o.CategoryTaxTotal,
		o.FullBillTaxTotal, o.Discount, o.DeliveryCharge, o.Total)
	return err
}

func (r *OrderRepo) InsertItem(e sqlx.Ext, it domain.OrderItem) error {
	_, err := e.Exec(`
	  INSERT INTO order_items(order_id, line_no, item_kind, item_id, item_name, color_id, size_name, quantity, unit_price)
	  VALUES(?,?,?,?,?,?,?,?,?)
	`, it.OrderID, it.LineNo, it.ItemKind, it.ItemID, it.ItemName, it.ColorID, it.SizeName, it.Quantity, it.UnitPrice)
	if err != nil {
		return err
	}
	for _, a := range it.Addons {
		// qty_consumed starts at the nominal requirement; the stock stage
		// lowers it when the material counter floors at zero.
		if _, err := e.Exec(`
		  INSERT INTO order_item_addons(order_id, line_no, material_id, qty_per_unit, sale_price, qty_consumed)
		  VALUES(?,?,?,?,?,?)
		`, it.OrderID, it.LineNo, a.MaterialID, a.QtyPerUnit, a.SalePrice, a.QtyPerUnit*it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// SetAddonConsumption records how much material a line actually drew when
// the nominal requirement could not be met in full.
func (r *OrderRepo) SetAddonConsumption(e sqlx.Ext, orderID string, lineNo int, materialID string, consumed int) error {
	_, err := e.Exec(`
	  UPDATE order_item_addons SET qty_consumed = ?
	  WHERE order_id = ? AND line_no = ? AND material_id = ?
	`, consumed, orderID, lineNo, materialID)
	return err
}

// Get loads an order with its items and their captured addons.
func (r *OrderRepo) Get(id string) (domain.Order, []domain.OrderItem, error) {
	return r.GetTx(r.db, id)
}

// GetTx is Get inside a caller-owned transaction (used by refunds).
func (r *OrderRepo) GetTx(e sqlx.Ext, id string) (domain.Order, []domain.OrderItem, error) {
	var o domain.Order
	if err := sqlx.Get(e, &o, `SELECT `+orderCols+` FROM orders WHERE id = ?`, id); err != nil {
		if err == sql.ErrNoRows {
			return domain.Order{}, nil, &domain.NotFoundError{Kind: "order", ID: id}
		}
		return domain.Order{}, nil, err
	}

	var items []domain.OrderItem
	if err := sqlx.Select(e, &items, `
	  SELECT order_id, line_no, item_kind, item_id, item_name, color_id, size_name, quantity, unit_price
	  FROM order_items WHERE order_id = ? ORDER BY line_no
	`, id); err != nil {
		return domain.Order{}, nil, err
	}

	for i := range items {
		if err := sqlx.Select(e, &items[i].Addons, `
		  SELECT oia.material_id, m.name, oia.qty_per_unit, oia.sale_price, oia.qty_consumed
		  FROM order_item_addons oia JOIN materials m ON m.id = oia.material_id
		  WHERE oia.order_id = ? AND oia.line_no = ?
		`, id, items[i].LineNo); err != nil {
			return domain.Order{}, nil, err
		}
	}
	return o, items, nil
}

// TransitionStatus moves an order from one status to another; the conditional
// WHERE makes concurrent transitions lose cleanly.
func (r *OrderRepo) TransitionStatus(e sqlx.Ext, id, from, to string) error {
	res, err := e.Exec(`UPDATE orders SET status = ? WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ValidationError{Field: "status", Reason: "order is not " + from}
	}
	return nil
}

func (r *OrderRepo) ListLatest(limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.Order
	err := r.db.Select(&out, `
	  SELECT `+orderCols+` FROM orders ORDER BY datetime(created_at) DESC LIMIT ?
	`, limit)
	return out, err
}
