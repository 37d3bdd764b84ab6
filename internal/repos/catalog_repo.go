package repos

import (
	"github.com/jmoiron/sqlx"

	"oakline/internal/domain"
)

// CatalogRepo reads and maintains products, materials and the variant
// hierarchy. Methods that take an sqlx.Ext participate in a caller-owned
// transaction; the rest run against the pool directly.
type CatalogRepo struct{ db *sqlx.DB }

func NewCatalogRepo(db *sqlx.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// DB exposes the pool as an sqlx.Ext for non-transactional lookups.
func (r *CatalogRepo) DB() sqlx.Ext { return r.db }

const productCols = `
  p.id, p.category_id, c.name AS category, p.name, COALESCE(p.description,'') AS description,
  p.unit, p.unit_price, p.stock, p.has_variants, p.active,
  p.created_at, COALESCE(p.updated_at,'') AS updated_at`

func (r *CatalogRepo) Product(e sqlx.Ext, id string) (domain.Product, error) {
	var p domain.Product
	err := sqlx.Get(e, &p, `
	  SELECT `+productCols+`
	  FROM products p JOIN categories c ON c.id = p.category_id
	  WHERE p.id = ?
	`, id)
	return p, err
}

func (r *CatalogRepo) Material(e sqlx.Ext, id string) (domain.Material, error) {
	var m domain.Material
	err := sqlx.Get(e, &m, `
	  SELECT id, name, unit, unit_price, stock, created_at
	  FROM materials WHERE id = ?
	`, id)
	return m, err
}

// VariantSize resolves one color+size leaf, verifying the color belongs to
// the product.
func (r *CatalogRepo) VariantSize(e sqlx.Ext, productID, colorID, sizeName string) (domain.ColorSize, error) {
	var cs domain.ColorSize
	err := sqlx.Get(e, &cs, `
	  SELECT cs.color_id, cs.name, cs.stock,
	         COALESCE(cs.width,'') AS width, COALESCE(cs.height,'') AS height, COALESCE(cs.depth,'') AS depth
	  FROM color_sizes cs
	  JOIN product_colors pc ON pc.id = cs.color_id
	  WHERE pc.product_id = ? AND cs.color_id = ? AND cs.name = ?
	`, productID, colorID, sizeName)
	return cs, err
}

// Addons returns the raw-material consumption rules attached to a product.
func (r *CatalogRepo) Addons(e sqlx.Ext, productID string) ([]domain.Addon, error) {
	var out []domain.Addon
	err := sqlx.Select(e, &out, `
	  SELECT pa.material_id, m.name, pa.qty_per_unit, pa.sale_price
	  FROM product_addons pa JOIN materials m ON m.id = pa.material_id
	  WHERE pa.product_id = ?
	  ORDER BY m.name
	`, productID)
	return out, err
}

func (r *CatalogRepo) ListProducts(categoryID string, limit, offset int) ([]domain.Product, error) {
	where := `p.active = 1`
	args := []any{}
	if categoryID != "" {
		where += ` AND p.category_id = ?`
		args = append(args, categoryID)
	}
	args = append(args, limit, offset)

	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+`
	  FROM products p JOIN categories c ON c.id = p.category_id
	  WHERE `+where+`
	  ORDER BY p.created_at DESC
	  LIMIT ? OFFSET ?
	`, args...)
	return out, err
}

func (r *CatalogRepo) ListMaterials() ([]domain.Material, error) {
	var out []domain.Material
	err := r.db.Select(&out, `
	  SELECT id, name, unit, unit_price, stock, created_at
	  FROM materials ORDER BY name
	`)
	return out, err
}

func (r *CatalogRepo) Colors(productID string) ([]domain.ProductColor, error) {
	var out []domain.ProductColor
	err := r.db.Select(&out, `
	  SELECT id, product_id, name FROM product_colors WHERE product_id = ? ORDER BY name
	`, productID)
	return out, err
}

func (r *CatalogRepo) Sizes(colorID string) ([]domain.ColorSize, error) {
	var out []domain.ColorSize
	err := r.db.Select(&out, `
	  SELECT color_id, name, stock,
	         COALESCE(width,'') AS width, COALESCE(height,'') AS height, COALESCE(depth,'') AS depth
	  FROM color_sizes WHERE color_id = ? ORDER BY name
	`, colorID)
	return out, err
}

func (r *CatalogRepo) CreateProduct(p domain.Product) error {
	_, err := r.db.Exec(`
	  INSERT INTO products(id,category_id,name,description,unit,unit_price,stock,has_variants,active)
	  VALUES(?,?,?,?,?,?,?,?,1)
	`, p.ID, p.CategoryID, p.Name, p.Description, p.Unit, p.UnitPrice, p.Stock, p.HasVariants)
	return err
}

func (r *CatalogRepo) CreateColor(c domain.ProductColor) error {
	_, err := r.db.Exec(`INSERT INTO product_colors(id,product_id,name) VALUES(?,?,?)`,
		c.ID, c.ProductID, c.Name)
	return err
}

func (r *CatalogRepo) CreateSize(cs domain.ColorSize) error {
	_, err := r.db.Exec(`
	  INSERT INTO color_sizes(color_id,name,stock,width,height,depth) VALUES(?,?,?,?,?,?)
	`, cs.ColorID, cs.Name, cs.Stock, cs.Width, cs.Height, cs.Depth)
	return err
}

func (r *CatalogRepo) CreateMaterial(m domain.Material) error {
	_, err := r.db.Exec(`
	  INSERT INTO materials(id,name,unit,unit_price,stock) VALUES(?,?,?,?,?)
	`, m.ID, m.Name, m.Unit, m.UnitPrice, m.Stock)
	return err
}

func (r *CatalogRepo) AttachAddon(productID string, a domain.Addon) error {
	_, err := r.db.Exec(`
	  INSERT INTO product_addons(product_id,material_id,qty_per_unit,sale_price)
	  VALUES(?,?,?,?)
	  ON CONFLICT(product_id,material_id) DO UPDATE
	  SET qty_per_unit = excluded.qty_per_unit, sale_price = excluded.sale_price
	`, productID, a.MaterialID, a.QtyPerUnit, a.SalePrice)
	return err
}
