package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"oakline/internal/domain"
)

type ZoneRepo struct{ db *sqlx.DB }

func NewZoneRepo(db *sqlx.DB) *ZoneRepo { return &ZoneRepo{db: db} }

// ChargeFor returns the fixed delivery charge for a zone.
func (r *ZoneRepo) ChargeFor(e sqlx.Ext, zoneID string) (decimal.Decimal, error) {
	var charge decimal.Decimal
	err := sqlx.Get(e, &charge, `SELECT delivery_charge FROM zones WHERE id = ?`, zoneID)
	if err == sql.ErrNoRows {
		return decimal.Zero, &domain.NotFoundError{Kind: "zone", ID: zoneID}
	}
	return charge, err
}

func (r *ZoneRepo) Create(z domain.Zone) error {
	_, err := r.db.Exec(`INSERT INTO zones(id,name,delivery_charge) VALUES(?,?,?)`,
		z.ID, z.Name, z.DeliveryCharge)
	return err
}

func (r *ZoneRepo) List() ([]domain.Zone, error) {
	var out []domain.Zone
	err := r.db.Select(&out, `SELECT id, name, delivery_charge FROM zones ORDER BY name`)
	return out, err
}
