package services

import (
	"errors"

	"oakline/internal/domain"
)

// Availability is the public stock view for one catalog item or variant.
type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}

type InventoryService struct {
	Catalog *CatalogService
}

func NewInventoryService(catalog *CatalogService) *InventoryService {
	return &InventoryService{Catalog: catalog}
}

// CheckAvailability resolves the item and converts its counter to
// IN_STOCK / LOW_STOCK / OUT_OF_STOCK. Unknown items read as OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(kind domain.ItemKind, itemID, colorID, sizeName string) (Availability, error) {
	res, err := s.Catalog.Resolve(s.Catalog.Catalog.DB(), kind, itemID, colorID, sizeName)
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			return Availability{Status: "OUT_OF_STOCK", Qty: 0}, nil
		}
		return Availability{}, err
	}

	status := "OUT_OF_STOCK"
	switch {
	case res.AvailableStock >= 5:
		status = "IN_STOCK"
	case res.AvailableStock > 0:
		status = "LOW_STOCK"
	}
	return Availability{Status: status, Qty: res.AvailableStock}, nil
}
