package repos

import (
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"oakline/internal/domain"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single pooled conn also keeps :memory:
	// schemas stable across the pool.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Categories
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_nocase ON categories(LOWER(name));

-- Products and the variant hierarchy (color -> size)
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  name TEXT NOT NULL,
  description TEXT,
  unit TEXT NOT NULL DEFAULT 'piece',
  unit_price NUMERIC NOT NULL CHECK (unit_price >= 0),
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  has_variants INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_name ON products(LOWER(name));

CREATE TABLE IF NOT EXISTS product_colors(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  UNIQUE(product_id, name)
);
CREATE INDEX IF NOT EXISTS idx_product_colors_product ON product_colors(product_id);

CREATE TABLE IF NOT EXISTS color_sizes(
  color_id TEXT NOT NULL REFERENCES product_colors(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  width TEXT,
  height TEXT,
  depth TEXT,
  PRIMARY KEY(color_id, name)
);

-- Raw materials
CREATE TABLE IF NOT EXISTS materials(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  unit TEXT NOT NULL DEFAULT 'piece',
  unit_price NUMERIC NOT NULL CHECK (unit_price >= 0),
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Addon rules: selling one unit of product consumes qty_per_unit of material
CREATE TABLE IF NOT EXISTS product_addons(
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  material_id TEXT NOT NULL REFERENCES materials(id) ON DELETE RESTRICT,
  qty_per_unit INTEGER NOT NULL CHECK (qty_per_unit >= 1),
  sale_price NUMERIC NOT NULL DEFAULT 0,
  PRIMARY KEY(product_id, material_id)
);

-- Coupons
CREATE TABLE IF NOT EXISTS coupons(
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL,
  discount_type TEXT NOT NULL CHECK (discount_type IN ('percentage','fixed')),
  percent NUMERIC NOT NULL DEFAULT 0,
  amount NUMERIC NOT NULL DEFAULT 0,
  minimum_amount NUMERIC NOT NULL DEFAULT 0,
  max_discount NUMERIC,
  usage_limit INTEGER,
  used_count INTEGER NOT NULL DEFAULT 0,
  valid_from TEXT NOT NULL,
  valid_to TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_coupons_code_nocase ON coupons(LOWER(code));

-- Taxes
CREATE TABLE IF NOT EXISTS taxes(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  rate NUMERIC NOT NULL CHECK (rate >= 0),
  tax_type TEXT NOT NULL CHECK (tax_type IN ('category','full_bill')),
  applicable_categories TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Delivery zones
CREATE TABLE IF NOT EXISTS zones(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  delivery_charge NUMERIC NOT NULL DEFAULT 0
);

-- Vendors
CREATE TABLE IF NOT EXISTS vendors(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  phone TEXT,
  address TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Orders (POS transactions, e-commerce orders, goods receipts)
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  source TEXT NOT NULL CHECK (source IN ('pos','ecommerce','purchase-receipt')),
  customer_name TEXT NOT NULL DEFAULT '',
  customer_phone TEXT NOT NULL DEFAULT '',
  customer_address TEXT NOT NULL DEFAULT '',
  customer_email TEXT NOT NULL DEFAULT '',
  payment_method TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'PLACED',
  coupon_code TEXT NOT NULL DEFAULT '',
  subtotal NUMERIC NOT NULL,
  category_tax_total NUMERIC NOT NULL,
  full_bill_tax_total NUMERIC NOT NULL,
  discount NUMERIC NOT NULL,
  delivery_charge NUMERIC NOT NULL,
  total NUMERIC NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_items(
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  line_no INTEGER NOT NULL,
  item_kind TEXT NOT NULL,
  item_id TEXT NOT NULL,
  item_name TEXT NOT NULL DEFAULT '',
  color_id TEXT NOT NULL DEFAULT '',
  size_name TEXT NOT NULL DEFAULT '',
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  unit_price NUMERIC NOT NULL,
  PRIMARY KEY(order_id, line_no)
);

CREATE TABLE IF NOT EXISTS order_item_addons(
  order_id TEXT NOT NULL,
  line_no INTEGER NOT NULL,
  material_id TEXT NOT NULL,
  qty_per_unit INTEGER NOT NULL,
  sale_price NUMERIC NOT NULL,
  qty_consumed INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY(order_id, line_no, material_id),
  FOREIGN KEY(order_id, line_no) REFERENCES order_items(order_id, line_no) ON DELETE CASCADE
);

-- Purchase orders
CREATE TABLE IF NOT EXISTS purchase_orders(
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL REFERENCES vendors(id) ON DELETE RESTRICT,
  status TEXT NOT NULL DEFAULT 'ORDERED',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS purchase_order_items(
  purchase_order_id TEXT NOT NULL REFERENCES purchase_orders(id) ON DELETE CASCADE,
  line_no INTEGER NOT NULL,
  item_kind TEXT NOT NULL,
  item_id TEXT NOT NULL,
  color_id TEXT NOT NULL DEFAULT '',
  size_name TEXT NOT NULL DEFAULT '',
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  unit_cost NUMERIC NOT NULL DEFAULT 0,
  PRIMARY KEY(purchase_order_id, line_no)
);

-- Audit trail (best-effort side channel)
CREATE TABLE IF NOT EXISTS audit_logs(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL DEFAULT '',
  action TEXT NOT NULL,
  module TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Users & sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('STAFF','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO categories(id,name) VALUES
	  ('tables','Tables'),
	  ('chairs','Chairs'),
	  ('sofas','Sofas'),
	  ('beds','Beds')`)

	tx.MustExec(`INSERT INTO products(id,category_id,name,description,unit,unit_price,stock,has_variants) VALUES
	  ('tbl-oak-01','tables','Oak Dining Table','Solid oak, seats six','piece',499.00,0,1),
	  ('chr-std-01','chairs','Standard Chair','Beech frame, no variants','piece',89.50,24,0),
	  ('sofa-l-01','sofas','L-Shaped Sofa','Corner sofa with fabric finish','piece',1250.00,6,0)`)

	tx.MustExec(`INSERT INTO product_colors(id,product_id,name) VALUES
	  ('col-walnut','tbl-oak-01','Walnut'),
	  ('col-natural','tbl-oak-01','Natural')`)

	tx.MustExec(`INSERT INTO color_sizes(color_id,name,stock,width,height,depth) VALUES
	  ('col-walnut','6-seat',4,'180','75','90'),
	  ('col-walnut','8-seat',2,'220','75','100'),
	  ('col-natural','6-seat',3,'180','75','90')`)

	// keep denormalized product stock in sync with the seeded sizes
	tx.MustExec(`UPDATE products SET stock = 9 WHERE id = 'tbl-oak-01'`)

	tx.MustExec(`INSERT INTO materials(id,name,unit,unit_price,stock) VALUES
	  ('mat-fabric','Upholstery Fabric','meter',12.00,200),
	  ('mat-varnish','Wood Varnish','liter',18.50,40),
	  ('mat-foam','Cushion Foam','sheet',9.75,80)`)

	tx.MustExec(`INSERT INTO product_addons(product_id,material_id,qty_per_unit,sale_price) VALUES
	  ('sofa-l-01','mat-fabric',4,55.00),
	  ('sofa-l-01','mat-foam',2,25.00),
	  ('tbl-oak-01','mat-varnish',1,22.00)`)

	tx.MustExec(`INSERT INTO taxes(id,name,rate,tax_type,applicable_categories,is_active) VALUES
	  ('tax-tables','Table Duty',5,'category','Tables',1),
	  ('tax-vat','VAT',10,'full_bill','',1)`)

	tx.MustExec(`INSERT INTO coupons(id,code,discount_type,percent,amount,minimum_amount,max_discount,usage_limit,valid_from,valid_to,is_active) VALUES
	  ('cpn-welcome','WELCOME10','percentage',10,0,0,100,NULL,'2024-01-01T00:00:00Z','2030-01-01T00:00:00Z',1),
	  ('cpn-flat50','FLAT50','fixed',0,50,100,NULL,500,'2024-01-01T00:00:00Z','2030-01-01T00:00:00Z',1)`)

	tx.MustExec(`INSERT INTO zones(id,name,delivery_charge) VALUES
	  ('zone-city','City Limits',40.00),
	  ('zone-suburb','Suburbs',75.00)`)

	tx.MustExec(`INSERT INTO vendors(id,name,phone,address) VALUES
	  ('vnd-timber','Timberline Supplies','+1 555 0100','12 Mill Road'),
	  ('vnd-textile','Northern Textiles','+1 555 0101','4 Weaver Lane')`)

	return tx.Commit()
}

// seedUsers ensures one STAFF and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-clerk", "clerk@oakline.test", "Clerk", domain.RoleStaff, "Passw0rd!"),
		mk("u-admin", "admin@oakline.test", "Admin", domain.RoleAdmin, "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
