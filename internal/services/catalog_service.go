package services

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"oakline/internal/domain"
	"oakline/internal/repos"
)

// Resolution is the read-only answer of a catalog lookup: everything the
// coordinator needs to price a line and later mutate its stock counter.
type Resolution struct {
	Name           string
	Category       string
	UnitPrice      decimal.Decimal
	AvailableStock int
	Locator        domain.StockLocator
	Addons         []domain.Addon
}

type CatalogService struct {
	Catalog *repos.CatalogRepo
}

func NewCatalogService(catalog *repos.CatalogRepo) *CatalogService {
	return &CatalogService{Catalog: catalog}
}

// Resolve maps an item reference (and optional color+size) to its current
// attributes and stock counter. It enforces the variant business rules:
// materials never carry a selection, variant products always require one.
func (s *CatalogService) Resolve(e sqlx.Ext, kind domain.ItemKind, itemID, colorID, sizeName string) (Resolution, error) {
	switch kind {
	case domain.KindMaterial:
		if colorID != "" || sizeName != "" {
			return Resolution{}, &domain.InvalidItemError{ItemID: itemID, Field: "colorId",
				Reason: "materials have no color or size variants"}
		}
		m, err := s.Catalog.Material(e, itemID)
		if err != nil {
			if err == sql.ErrNoRows {
				return Resolution{}, &domain.NotFoundError{Kind: "material", ID: itemID}
			}
			return Resolution{}, err
		}
		return Resolution{
			Name:           m.Name,
			UnitPrice:      m.UnitPrice,
			AvailableStock: m.Stock,
			Locator:        domain.StockLocator{Kind: domain.KindMaterial, ItemID: itemID},
		}, nil

	case domain.KindProduct:
		p, err := s.Catalog.Product(e, itemID)
		if err != nil {
			if err == sql.ErrNoRows {
				return Resolution{}, &domain.NotFoundError{Kind: "product", ID: itemID}
			}
			return Resolution{}, err
		}
		addons, err := s.Catalog.Addons(e, itemID)
		if err != nil {
			return Resolution{}, err
		}

		if p.HasVariants {
			if colorID == "" || sizeName == "" {
				return Resolution{}, &domain.InvalidItemError{ItemID: itemID, Field: "colorId",
					Reason: "product requires a color and size selection"}
			}
			cs, err := s.Catalog.VariantSize(e, itemID, colorID, sizeName)
			if err != nil {
				if err == sql.ErrNoRows {
					return Resolution{}, &domain.NotFoundError{Kind: "variant",
						ID: itemID + "/" + colorID + "/" + sizeName}
				}
				return Resolution{}, err
			}
			return Resolution{
				Name:           p.Name,
				Category:       p.Category,
				UnitPrice:      p.UnitPrice,
				AvailableStock: cs.Stock,
				Locator: domain.StockLocator{Kind: domain.KindProduct, ItemID: itemID,
					ColorID: colorID, SizeName: sizeName},
				Addons: addons,
			}, nil
		}

		if colorID != "" || sizeName != "" {
			return Resolution{}, &domain.InvalidItemError{ItemID: itemID, Field: "colorId",
				Reason: "product has no variants"}
		}
		return Resolution{
			Name:           p.Name,
			Category:       p.Category,
			UnitPrice:      p.UnitPrice,
			AvailableStock: p.Stock,
			Locator:        domain.StockLocator{Kind: domain.KindProduct, ItemID: itemID},
			Addons:         addons,
		}, nil
	}

	return Resolution{}, &domain.InvalidItemError{ItemID: itemID, Field: "itemKind",
		Reason: "must be product or material"}
}
