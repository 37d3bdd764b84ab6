package domain

import (
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"
)

// ItemKind distinguishes finished products from raw materials on order lines.
type ItemKind string

const (
	KindProduct  ItemKind = "product"
	KindMaterial ItemKind = "material"
)

type Category struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

// Product is a finished catalog item. When HasVariants is set, Stock is a
// denormalized sum over all variant sizes and must never be written directly;
// otherwise Stock is the authoritative counter itself.
type Product struct {
	ID          string          `db:"id"`
	CategoryID  string          `db:"category_id"`
	Category    string          `db:"category"` // joined category name
	Name        string          `db:"name"`
	Description string          `db:"description"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	Unit        string          `db:"unit"`
	Stock       int             `db:"stock"`
	HasVariants bool            `db:"has_variants"`
	Active      bool            `db:"active"`
	CreatedAt   string          `db:"created_at"`
	UpdatedAt   string          `db:"updated_at"`
}

type ProductColor struct {
	ID        string `db:"id"`
	ProductID string `db:"product_id"`
	Name      string `db:"name"`
}

// ColorSize is the leaf of the variant hierarchy; its stock counter is the
// one orders actually decrement.
type ColorSize struct {
	ColorID string `db:"color_id"`
	Name    string `db:"name"`
	Stock   int    `db:"stock"`
	Width   string `db:"width"`
	Height  string `db:"height"`
	Depth   string `db:"depth"`
}

type Material struct {
	ID        string          `db:"id"`
	Name      string          `db:"name"`
	Unit      string          `db:"unit"`
	UnitPrice decimal.Decimal `db:"unit_price"`
	Stock     int             `db:"stock"`
	CreatedAt string          `db:"created_at"`
}

// Addon consumes QtyPerUnit of a raw material for every unit of the owning
// product sold, billed at SalePrice per unit sold.
type Addon struct {
	MaterialID string          `db:"material_id"`
	Name       string          `db:"name"`
	QtyPerUnit int             `db:"qty_per_unit"`
	SalePrice  decimal.Decimal `db:"sale_price"`
	// Consumed is the raw material an order line actually drew, which is
	// less than QtyPerUnit times the quantity when the counter floored at
	// zero. Catalog reads leave it zero.
	Consumed int `db:"qty_consumed"`
}

type Coupon struct {
	ID            string              `db:"id"`
	Code          string              `db:"code"`
	DiscountType  string              `db:"discount_type"` // percentage | fixed
	Percent       decimal.Decimal     `db:"percent"`
	Amount        decimal.Decimal     `db:"amount"`
	MinimumAmount decimal.Decimal     `db:"minimum_amount"`
	MaxDiscount   decimal.NullDecimal `db:"max_discount"` // cap, percentage type only
	UsageLimit    sql.NullInt64       `db:"usage_limit"`
	UsedCount     int                 `db:"used_count"`
	ValidFrom     string              `db:"valid_from"` // RFC3339
	ValidTo       string              `db:"valid_to"`   // RFC3339
	IsActive      bool                `db:"is_active"`
	CreatedAt     string              `db:"created_at"`
}

type Tax struct {
	ID         string          `db:"id"`
	Name       string          `db:"name"`
	Rate       decimal.Decimal `db:"rate"`     // percent
	TaxType    string          `db:"tax_type"` // category | full_bill
	Categories string          `db:"applicable_categories"`
	IsActive   bool            `db:"is_active"`
	CreatedAt  string          `db:"created_at"`
}

// AppliesTo reports whether a category-type tax covers the given category
// name. Matching is case-insensitive over the stored comma-separated set.
func (t Tax) AppliesTo(category string) bool {
	if t.TaxType != "category" || category == "" {
		return false
	}
	for _, c := range strings.Split(t.Categories, ",") {
		if strings.EqualFold(strings.TrimSpace(c), category) {
			return true
		}
	}
	return false
}

type Zone struct {
	ID             string          `db:"id"`
	Name           string          `db:"name"`
	DeliveryCharge decimal.Decimal `db:"delivery_charge"`
}

type Vendor struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Phone     string `db:"phone"`
	Address   string `db:"address"`
	CreatedAt string `db:"created_at"`
}

// StockLocator names one concrete stock counter: a material, a plain
// product, or a color+size variant of a product.
type StockLocator struct {
	Kind     ItemKind
	ItemID   string
	ColorID  string
	SizeName string
}

// Variant reports whether the locator points at a color+size counter.
func (l StockLocator) Variant() bool { return l.ColorID != "" && l.SizeName != "" }

type Order struct {
	ID               string          `db:"id"`
	Source           string          `db:"source"` // pos | ecommerce | purchase-receipt
	CustomerName     string          `db:"customer_name"`
	CustomerPhone    string          `db:"customer_phone"`
	CustomerAddress  string          `db:"customer_address"`
	CustomerEmail    string          `db:"customer_email"`
	PaymentMethod    string          `db:"payment_method"`
	Status           string          `db:"status"`
	CouponCode       string          `db:"coupon_code"`
	Subtotal         decimal.Decimal `db:"subtotal"`
	CategoryTaxTotal decimal.Decimal `db:"category_tax_total"`
	FullBillTaxTotal decimal.Decimal `db:"full_bill_tax_total"`
	Discount         decimal.Decimal `db:"discount"`
	DeliveryCharge   decimal.Decimal `db:"delivery_charge"`
	Total            decimal.Decimal `db:"total"`
	CreatedAt        string          `db:"created_at"`
}

type OrderItem struct {
	OrderID   string          `db:"order_id"`
	LineNo    int             `db:"line_no"`
	ItemKind  string          `db:"item_kind"`
	ItemID    string          `db:"item_id"`
	ItemName  string          `db:"item_name"`
	ColorID   string          `db:"color_id"`
	SizeName  string          `db:"size_name"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
	Addons    []Addon         `db:"-"`
}

type PurchaseOrder struct {
	ID        string `db:"id"`
	VendorID  string `db:"vendor_id"`
	Status    string `db:"status"` // ORDERED | RECEIVED
	CreatedAt string `db:"created_at"`
}

// PurchaseOrderItem carries the same variant coordinates as an order line,
// so receiving can book stock into the exact color+size counter.
type PurchaseOrderItem struct {
	PurchaseOrderID string          `db:"purchase_order_id"`
	LineNo          int             `db:"line_no"`
	ItemKind        string          `db:"item_kind"`
	ItemID          string          `db:"item_id"`
	ColorID         string          `db:"color_id"`
	SizeName        string          `db:"size_name"`
	Quantity        int             `db:"quantity"`
	UnitCost        decimal.Decimal `db:"unit_cost"`
}

type AuditLog struct {
	ID          string `db:"id"`
	UserID      string `db:"user_id"`
	Action      string `db:"action"`
	Module      string `db:"module"`
	Description string `db:"description"`
	CreatedAt   string `db:"created_at"`
}
