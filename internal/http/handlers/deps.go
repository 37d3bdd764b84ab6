package handlers

import (
	"oakline/internal/config"
	"oakline/internal/repos"
	"oakline/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	OrderHandler     *OrderHandler
	PurchaseHandler  *PurchaseHandler
	CouponHandler    *CouponHandler
	CatalogHandler   *CatalogHandler
	InventoryHandler *InventoryHandler
	AuditHandler     *AuditHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	catalogRepo := repos.NewCatalogRepo(db)
	stockRepo := repos.NewStockRepo(db)
	couponRepo := repos.NewCouponRepo(db)
	taxRepo := repos.NewTaxRepo(db)
	zoneRepo := repos.NewZoneRepo(db)
	vendorRepo := repos.NewVendorRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	purchaseRepo := repos.NewPurchaseRepo(db)
	auditRepo := repos.NewAuditRepo(db)

	catalogSvc := services.NewCatalogService(catalogRepo)
	invSvc := services.NewInventoryService(catalogSvc)
	couponSvc := services.NewCouponService(couponRepo)
	auditor := services.NewAuditor(auditRepo)
	coord := services.NewCoordinator(db, catalogSvc, stockRepo, couponRepo, taxRepo,
		zoneRepo, orderRepo, purchaseRepo, services.LogNotifier{}, auditor)

	return &Deps{
		OrderHandler:     &OrderHandler{Coord: coord, Repo: orderRepo},
		PurchaseHandler:  &PurchaseHandler{Purchases: purchaseRepo, Vendors: vendorRepo, Coord: coord},
		CouponHandler:    &CouponHandler{Svc: couponSvc, Repo: couponRepo},
		CatalogHandler:   &CatalogHandler{Categories: catRepo, Taxes: taxRepo, Zones: zoneRepo, Vendors: vendorRepo, Catalog: catalogRepo},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		AuditHandler:     &AuditHandler{Logs: auditRepo},
	}
}
