package repos

import (
	"github.com/jmoiron/sqlx"

	"oakline/internal/domain"
)

type VendorRepo struct{ db *sqlx.DB }

func NewVendorRepo(db *sqlx.DB) *VendorRepo { return &VendorRepo{db: db} }

func (r *VendorRepo) List() ([]domain.Vendor, error) {
	var out []domain.Vendor
	err := r.db.Select(&out, `
	  SELECT id, name, COALESCE(phone,'') AS phone, COALESCE(address,'') AS address, created_at
	  FROM vendors ORDER BY name
	`)
	return out, err
}

func (r *VendorRepo) Get(id string) (domain.Vendor, error) {
	var v domain.Vendor
	err := r.db.Get(&v, `
	  SELECT id, name, COALESCE(phone,'') AS phone, COALESCE(address,'') AS address, created_at
	  FROM vendors WHERE id = ?
	`, id)
	return v, err
}

func (r *VendorRepo) Create(v domain.Vendor) error {
	_, err := r.db.Exec(`INSERT INTO vendors(id,name,phone,address) VALUES(?,?,?,?)`,
		v.ID, v.Name, v.Phone, v.Address)
	return err
}
