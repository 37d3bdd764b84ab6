package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"oakline/internal/domain"
	applog "oakline/internal/log"
	"oakline/internal/metrics"
	"oakline/internal/repos"
)

// Source identifies which flow submitted the order. All three share one
// engine; a source only changes header fields, stock direction and
// notification behavior.
type Source string

const (
	SourcePOS       Source = "pos"
	SourceEcommerce Source = "ecommerce"
	SourceReceipt   Source = "purchase-receipt"
)

// CartLine is one requested line before validation. UnitCost overrides the
// catalog price when set (goods received capture the purchase cost, not the
// sale price).
type CartLine struct {
	ItemKind string
	ItemID   string
	ColorID  string
	SizeName string
	Quantity int
	// AddonIDs selects which of the product's attached addons apply to
	// this line. Nil means all of them; an empty slice means none.
	AddonIDs []string
	UnitCost decimal.NullDecimal
}

type Customer struct {
	Name    string
	Phone   string
	Address string
	Email   string
}

type OrderRequest struct {
	Source          Source
	Customer        Customer
	Items           []CartLine
	DeliveryZoneID  string
	PaymentMethod   string
	CouponCode      string
	PurchaseOrderID string // set by the goods-received flow only
}

type OrderResult struct {
	OrderID   string
	Status    string
	Breakdown Breakdown
}

// Coordinator owns the atomic begin-to-commit lifecycle of one order:
// validate every line, price once from the validated snapshot, persist the
// header and items, mutate stock, then commit. Any failure before commit
// rolls the whole unit back.
type Coordinator struct {
	DB        *sqlx.DB
	Catalog   *CatalogService
	Stock     *repos.StockRepo
	Coupons   *repos.CouponRepo
	Taxes     *repos.TaxRepo
	Zones     *repos.ZoneRepo
	Orders    *repos.OrderRepo
	Purchases *repos.PurchaseRepo
	Notifier  Notifier
	Audit     *Auditor

	// injected so tests and callers control identity and clock
	NewID func() string
	Now   func() time.Time
}

func NewCoordinator(db *sqlx.DB, catalog *CatalogService, stock *repos.StockRepo,
	coupons *repos.CouponRepo, taxes *repos.TaxRepo, zones *repos.ZoneRepo,
	orders *repos.OrderRepo, purchases *repos.PurchaseRepo, notifier Notifier, audit *Auditor) *Coordinator {
	return &Coordinator{
		DB: db, Catalog: catalog, Stock: stock, Coupons: coupons, Taxes: taxes,
		Zones: zones, Orders: orders, Purchases: purchases, Notifier: notifier, Audit: audit,
		NewID: uuid.NewString,
		Now:   time.Now,
	}
}

// Submit runs one order through the full state machine. The returned error,
// if any, is always one of the domain taxonomy; nothing has been persisted
// when it is non-nil.
func (co *Coordinator) Submit(req OrderRequest) (OrderResult, error) {
	if err := co.validateRequest(req); err != nil {
		metrics.OrdersTotal.WithLabelValues(string(req.Source), "aborted").Inc()
		return OrderResult{}, err
	}

	tx, err := co.DB.Beginx()
	if err != nil {
		metrics.OrdersTotal.WithLabelValues(string(req.Source), "aborted").Inc()
		return OrderResult{}, &domain.TransactionFailure{Op: "begin", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	res, err := co.run(tx, req)
	if err != nil {
		metrics.OrdersTotal.WithLabelValues(string(req.Source), "aborted").Inc()
		return OrderResult{}, err
	}

	if err := tx.Commit(); err != nil {
		metrics.OrdersTotal.WithLabelValues(string(req.Source), "aborted").Inc()
		return OrderResult{}, &domain.TransactionFailure{Op: "commit", Err: err}
	}
	metrics.OrdersTotal.WithLabelValues(string(req.Source), "committed").Inc()

	co.Audit.Record("", "order.commit", "orders",
		fmt.Sprintf("order %s (%s) total %s", res.OrderID, req.Source, res.Breakdown.Total.String()))

	// Fire-and-forget: notification latency and failure must never reach
	// the caller or the committed transaction.
	if co.Notifier != nil && req.Source != SourceReceipt {
		snap := OrderSnapshot{
			OrderID:       res.OrderID,
			Source:        req.Source,
			CustomerName:  req.Customer.Name,
			CustomerEmail: req.Customer.Email,
			Status:        res.Status,
			Total:         res.Breakdown.Total,
		}
		go func() {
			if err := co.Notifier.Notify(snap); err != nil {
				metrics.NotifyFailures.Inc()
				applog.Error(nil, "notify.fail", err, map[string]any{"order_id": snap.OrderID})
			}
		}()
	}

	return res, nil
}

// run executes Validating through Mutating Stock inside the open transaction.
func (co *Coordinator) run(tx *sqlx.Tx, req OrderRequest) (OrderResult, error) {
	// Validating
	lines := make([]PricedLine, 0, len(req.Items))
	for _, item := range req.Items {
		res, err := co.Catalog.Resolve(tx, domain.ItemKind(item.ItemKind), item.ItemID, item.ColorID, item.SizeName)
		if err != nil {
			return OrderResult{}, stage("validate", err)
		}
		if req.Source != SourceReceipt && item.Quantity > res.AvailableStock {
			return OrderResult{}, &domain.InsufficientStockError{
				ItemID:    item.ItemID,
				ColorID:   item.ColorID,
				SizeName:  item.SizeName,
				Requested: item.Quantity,
				Available: res.AvailableStock,
			}
		}
		price := res.UnitPrice
		addons := res.Addons
		if item.AddonIDs != nil {
			addons = addons[:0:0]
			for _, id := range item.AddonIDs {
				found := false
				for _, a := range res.Addons {
					if a.MaterialID == id {
						addons = append(addons, a)
						found = true
						break
					}
				}
				if !found {
					return OrderResult{}, &domain.InvalidItemError{ItemID: item.ItemID,
						Field: "addons", Reason: "addon " + id + " is not attached to this product"}
				}
			}
		}
		if item.UnitCost.Valid {
			price = item.UnitCost.Decimal
			addons = nil // receipts record goods at cost, no addon billing
		}
		lines = append(lines, PricedLine{
			Kind:      domain.ItemKind(item.ItemKind),
			ItemID:    item.ItemID,
			ItemName:  res.Name,
			ColorID:   item.ColorID,
			SizeName:  item.SizeName,
			Category:  res.Category,
			Quantity:  item.Quantity,
			UnitPrice: price,
			Addons:    addons,
		})
	}

	// Pricing, exactly once, from the validated snapshot.
	var coupon *domain.Coupon
	if req.CouponCode != "" && req.Source != SourceReceipt {
		c, err := co.Coupons.ByCode(tx, req.CouponCode)
		if err != nil && err != sql.ErrNoRows {
			return OrderResult{}, stage("price", err)
		}
		// unknown coupon at checkout: silently priced without a discount
		coupon = c
	}

	delivery := decimal.Zero
	if req.DeliveryZoneID != "" {
		charge, err := co.Zones.ChargeFor(tx, req.DeliveryZoneID)
		if err != nil {
			return OrderResult{}, stage("price", err)
		}
		delivery = charge
	}

	var taxes []domain.Tax
	if req.Source != SourceReceipt {
		var err error
		taxes, err = co.Taxes.Active(tx)
		if err != nil {
			return OrderResult{}, stage("price", err)
		}
	}

	bd := Price(lines, coupon, delivery, taxes, co.Now())

	// Persisting
	orderID := co.NewID()
	status := "PLACED"
	if req.Source == SourceReceipt {
		status = "RECEIVED"
	}
	order := domain.Order{
		ID:               orderID,
		Source:           string(req.Source),
		CustomerName:     req.Customer.Name,
		CustomerPhone:    req.Customer.Phone,
		CustomerAddress:  req.Customer.Address,
		CustomerEmail:    req.Customer.Email,
		PaymentMethod:    req.PaymentMethod,
		Status:           status,
		CouponCode:       bd.CouponCode,
		Subtotal:         bd.Subtotal,
		CategoryTaxTotal: bd.CategoryTaxTotal,
		FullBillTaxTotal: bd.FullBillTaxTotal,
		Discount:         bd.Discount,
		DeliveryCharge:   bd.DeliveryCharge,
		Total:            bd.Total,
	}
	if err := co.Orders.Create(tx, order); err != nil {
		return OrderResult{}, stage("persist", err)
	}
	for i, ln := range lines {
		item := domain.OrderItem{
			OrderID:   orderID,
			LineNo:    i + 1,
			ItemKind:  string(ln.Kind),
			ItemID:    ln.ItemID,
			ItemName:  ln.ItemName,
			ColorID:   ln.ColorID,
			SizeName:  ln.SizeName,
			Quantity:  ln.Quantity,
			UnitPrice: ln.UnitPrice,
			Addons:    ln.Addons,
		}
		if err := co.Orders.InsertItem(tx, item); err != nil {
			return OrderResult{}, stage("persist", err)
		}
	}

	// Mutating Stock
	if err := co.mutateStock(tx, req, orderID, lines); err != nil {
		return OrderResult{}, err
	}

	if bd.CouponCode != "" {
		if err := co.Coupons.Redeem(tx, bd.CouponCode); err != nil {
			return OrderResult{}, stage("mutate stock", err)
		}
	}

	if req.Source == SourceReceipt && req.PurchaseOrderID != "" {
		if err := co.Purchases.MarkReceived(tx, req.PurchaseOrderID); err != nil {
			return OrderResult{}, stage("mutate stock", err)
		}
	}

	return OrderResult{OrderID: orderID, Status: status, Breakdown: bd}, nil
}

func (co *Coordinator) mutateStock(tx *sqlx.Tx, req OrderRequest, orderID string, lines []PricedLine) error {
	receiving := req.Source == SourceReceipt
	touched := map[string]bool{} // products whose aggregate needs recomputing

	for i, ln := range lines {
		loc := domain.StockLocator{Kind: ln.Kind, ItemID: ln.ItemID, ColorID: ln.ColorID, SizeName: ln.SizeName}
		var err error
		if receiving {
			_, err = co.Stock.Increment(tx, loc, ln.Quantity)
		} else {
			_, err = co.Stock.Decrement(tx, loc, ln.Quantity)
		}
		if err != nil {
			return stage("mutate stock", err)
		}
		if loc.Variant() {
			touched[ln.ItemID] = true
		}

		if !receiving {
			for _, a := range ln.Addons {
				need := a.QtyPerUnit * ln.Quantity
				short, err := co.Stock.ConsumeMaterial(tx, a.MaterialID, need)
				if err != nil {
					return stage("mutate stock", err)
				}
				if short > 0 {
					// floored at zero; capture the real draw on the line
					// and leave a trace for reconciliation
					applog.Security(nil, "stock.material.floor", map[string]any{
						"material_id": a.MaterialID, "needed": need, "short": short,
					})
					if err := co.Orders.SetAddonConsumption(tx, orderID, i+1, a.MaterialID, need-short); err != nil {
						return stage("mutate stock", err)
					}
					co.Audit.RecordTx(tx, "", "stock.reconcile", "materials",
						fmt.Sprintf("material %s short by %d during order", a.MaterialID, short))
				}
			}
		}
	}

	for productID := range touched {
		if err := co.Stock.RecomputeProduct(tx, productID); err != nil {
			return stage("mutate stock", err)
		}
	}
	return nil
}

// Refund restocks a committed sale and marks it REFUNDED, atomically.
func (co *Coordinator) Refund(orderID string) (domain.Order, error) {
	tx, err := co.DB.Beginx()
	if err != nil {
		return domain.Order{}, &domain.TransactionFailure{Op: "begin", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	order, items, err := co.Orders.GetTx(tx, orderID)
	if err != nil {
		return domain.Order{}, stage("validate", err)
	}
	if order.Source == string(SourceReceipt) {
		return domain.Order{}, &domain.ValidationError{Field: "orderId", Reason: "goods receipts cannot be refunded"}
	}
	if err := co.Orders.TransitionStatus(tx, orderID, "PLACED", "REFUNDED"); err != nil {
		return domain.Order{}, stage("validate", err)
	}

	touched := map[string]bool{}
	for _, it := range items {
		loc := domain.StockLocator{Kind: domain.ItemKind(it.ItemKind), ItemID: it.ItemID,
			ColorID: it.ColorID, SizeName: it.SizeName}
		if _, err := co.Stock.Increment(tx, loc, it.Quantity); err != nil {
			return domain.Order{}, stage("mutate stock", err)
		}
		if loc.Variant() {
			touched[it.ItemID] = true
		}
		// Restore only what the sale actually drew. A floored line
		// consumed less than its nominal requirement, and crediting the
		// nominal amount back would invent material out of thin air.
		for _, a := range it.Addons {
			if a.Consumed <= 0 {
				continue
			}
			restock := domain.StockLocator{Kind: domain.KindMaterial, ItemID: a.MaterialID}
			if _, err := co.Stock.Increment(tx, restock, a.Consumed); err != nil {
				return domain.Order{}, stage("mutate stock", err)
			}
		}
	}
	for productID := range touched {
		if err := co.Stock.RecomputeProduct(tx, productID); err != nil {
			return domain.Order{}, stage("mutate stock", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Order{}, &domain.TransactionFailure{Op: "commit", Err: err}
	}

	order.Status = "REFUNDED"
	co.Audit.Record("", "order.refund", "orders", "order "+orderID+" refunded and restocked")
	return order, nil
}

func (co *Coordinator) validateRequest(req OrderRequest) error {
	switch req.Source {
	case SourcePOS, SourceEcommerce, SourceReceipt:
	default:
		return &domain.ValidationError{Field: "source", Reason: "unknown order source"}
	}
	if len(req.Items) == 0 {
		return &domain.ValidationError{Field: "items", Reason: "order has no lines"}
	}
	for _, it := range req.Items {
		if it.ItemID == "" {
			return &domain.ValidationError{Field: "items.itemId", Reason: "required"}
		}
		if it.Quantity < 1 {
			return &domain.ValidationError{Field: "items.quantity", Reason: "must be at least 1"}
		}
	}
	if req.Source == SourceReceipt {
		if req.CouponCode != "" {
			return &domain.ValidationError{Field: "appliedCouponCode", Reason: "not allowed on goods received"}
		}
		if req.DeliveryZoneID != "" {
			return &domain.ValidationError{Field: "deliveryZoneId", Reason: "not allowed on goods received"}
		}
	} else if req.PaymentMethod == "" {
		return &domain.ValidationError{Field: "paymentMethod", Reason: "required"}
	}
	return nil
}

// stage passes taxonomy errors through untouched and wraps anything else as
// a TransactionFailure for that stage.
func stage(op string, err error) error {
	var (
		ve *domain.ValidationError
		nf *domain.NotFoundError
		is *domain.InsufficientStockError
		ii *domain.InvalidItemError
		cr *domain.CouponRejectedError
	)
	if errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &is) ||
		errors.As(err, &ii) || errors.As(err, &cr) {
		return err
	}
	return &domain.TransactionFailure{Op: op, Err: err}
}
