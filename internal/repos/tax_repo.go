package repos

import (
	"github.com/jmoiron/sqlx"

	"oakline/internal/domain"
)

type TaxRepo struct{ db *sqlx.DB }

func NewTaxRepo(db *sqlx.DB) *TaxRepo { return &TaxRepo{db: db} }

const taxCols = `id, name, rate, tax_type, applicable_categories, is_active, created_at`

// Active returns the tax set a pricing run should apply.
func (r *TaxRepo) Active(e sqlx.Ext) ([]domain.Tax, error) {
	var out []domain.Tax
	err := sqlx.Select(e, &out, `SELECT `+taxCols+` FROM taxes WHERE is_active = 1 ORDER BY name`)
	return out, err
}

func (r *TaxRepo) Create(t domain.Tax) error {
	_, err := r.db.Exec(`
	  INSERT INTO taxes(id,name,rate,tax_type,applicable_categories,is_active)
	  VALUES(?,?,?,?,?,?)
	`, t.ID, t.Name, t.Rate, t.TaxType, t.Categories, t.IsActive)
	return err
}

func (r *TaxRepo) List() ([]domain.Tax, error) {
	var out []domain.Tax
	err := r.db.Select(&out, `SELECT `+taxCols+` FROM taxes ORDER BY name`)
	return out, err
}
