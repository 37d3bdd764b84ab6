package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"oakline/internal/domain"
)

type PurchaseRepo struct{ db *sqlx.DB }

func NewPurchaseRepo(db *sqlx.DB) *PurchaseRepo { return &PurchaseRepo{db: db} }

// Create inserts a purchase order with its lines in one transaction.
func (r *PurchaseRepo) Create(po domain.PurchaseOrder, items []domain.PurchaseOrderItem) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
	  INSERT INTO purchase_orders(id, vendor_id, status) VALUES(?,?,'ORDERED')
	`, po.ID, po.VendorID); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := tx.Exec(`
		  INSERT INTO purchase_order_items(purchase_order_id, line_no, item_kind, item_id, color_id, size_name, quantity, unit_cost)
		  VALUES(?,?,?,?,?,?,?,?)
		`, po.ID, it.LineNo, it.ItemKind, it.ItemID, it.ColorID, it.SizeName, it.Quantity, it.UnitCost); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *PurchaseRepo) Get(id string) (domain.PurchaseOrder, []domain.PurchaseOrderItem, error) {
	var po domain.PurchaseOrder
	if err := r.db.Get(&po, `
	  SELECT id, vendor_id, status, created_at FROM purchase_orders WHERE id = ?
	`, id); err != nil {
		if err == sql.ErrNoRows {
			return domain.PurchaseOrder{}, nil, &domain.NotFoundError{Kind: "purchase_order", ID: id}
		}
		return domain.PurchaseOrder{}, nil, err
	}

	var items []domain.PurchaseOrderItem
	if err := r.db.Select(&items, `
	  SELECT purchase_order_id, line_no, item_kind, item_id, color_id, size_name, quantity, unit_cost
	  FROM purchase_order_items WHERE purchase_order_id = ? ORDER BY line_no
	`, id); err != nil {
		return domain.PurchaseOrder{}, nil, err
	}
	return po, items, nil
}

// MarkReceived flips ORDERED->RECEIVED inside the receiving transaction;
// a second receive of the same PO loses the conditional update and aborts.
func (r *PurchaseRepo) MarkReceived(e sqlx.Ext, id string) error {
	res, err := e.Exec(`
	  UPDATE purchase_orders SET status = 'RECEIVED' WHERE id = ? AND status = 'ORDERED'
	`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ValidationError{Field: "purchaseOrderId", Reason: "not in a receivable state"}
	}
	return nil
}

func (r *PurchaseRepo) List(limit int) ([]domain.PurchaseOrder, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.PurchaseOrder
	err := r.db.Select(&out, `
	  SELECT id, vendor_id, status, created_at
	  FROM purchase_orders ORDER BY datetime(created_at) DESC LIMIT ?
	`, limit)
	return out, err
}
