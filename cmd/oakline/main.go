package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"oakline/internal/config"
	"oakline/internal/http/handlers"
	applog "oakline/internal/log"
	"oakline/internal/repos"
	"oakline/internal/services"
)

func main() {
	cfg := config.Load()
	if err := applog.Init(cfg.Env, cfg.LogLevel); err != nil {
		log.Fatal(err)
	}
	applog.Info(nil, "config.load", map[string]any{
		"port": cfg.Port, "db_dsn": cfg.DBDSN, "env": cfg.Env,
	})

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	app := fiber.New(fiber.Config{
		BodyLimit: 1 << 20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": fiber.Map{"kind": "INTERNAL", "message": "something went wrong, please try again"},
			})
		},
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.limit.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{"kind": "RATE_LIMITED", "message": "rate limit exceeded, retry soon"},
			})
		},
	}))

	deps := handlers.NewDeps(db, cfg, authSvc)
	admin := handlers.RequireAdmin(authSvc)
	staff := handlers.RequireUser(authSvc)

	api := app.Group("/api/v1")

	// Order engine: POS checkout, storefront checkout, goods received
	api.Post("/transactions", staff, deps.OrderHandler.PlacePOS)
	api.Post("/orders", deps.OrderHandler.PlaceEcommerce)
	api.Get("/orders", staff, deps.OrderHandler.List)
	api.Get("/orders/:id", deps.OrderHandler.Get)
	api.Post("/orders/:id/refund", admin, deps.OrderHandler.Refund)

	api.Post("/purchase-orders", admin, deps.PurchaseHandler.Create)
	api.Get("/purchase-orders", staff, deps.PurchaseHandler.List)
	api.Get("/purchase-orders/:id", staff, deps.PurchaseHandler.Get)
	api.Post("/purchase-orders/:id/receive", admin, deps.PurchaseHandler.Receive)

	// Coupons: the explicit validation path rejects; checkout never does
	api.Post("/coupons/validate", deps.CouponHandler.Validate)
	api.Post("/coupons", admin, deps.CouponHandler.Create)
	api.Get("/coupons", staff, deps.CouponHandler.List)

	// Availability
	api.Get("/availability", limiter.New(limiter.Config{Max: 30, Expiration: 30 * time.Second}),
		deps.InventoryHandler.Check)

	// Thin catalog CRUD
	api.Get("/categories", deps.CatalogHandler.ListCategories)
	api.Post("/categories", admin, deps.CatalogHandler.CreateCategory)
	api.Get("/taxes", staff, deps.CatalogHandler.ListTaxes)
	api.Post("/taxes", admin, deps.CatalogHandler.CreateTax)
	api.Get("/zones", deps.CatalogHandler.ListZones)
	api.Post("/zones", admin, deps.CatalogHandler.CreateZone)
	api.Get("/vendors", staff, deps.CatalogHandler.ListVendors)
	api.Post("/vendors", admin, deps.CatalogHandler.CreateVendor)
	api.Get("/materials", staff, deps.CatalogHandler.ListMaterials)
	api.Post("/materials", admin, deps.CatalogHandler.CreateMaterial)
	api.Get("/products", deps.CatalogHandler.ListProducts)
	api.Get("/products/:id", deps.CatalogHandler.GetProduct)
	api.Post("/products", admin, deps.CatalogHandler.CreateProduct)
	api.Get("/audit-logs", admin, deps.AuditHandler.List)

	// Auth (login throttled)
	api.Post("/auth/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{"kind": "RATE_LIMITED", "message": "too many attempts, try again later"},
			})
		},
	}), authH.Login)
	api.Post("/auth/logout", authH.Logout)

	// Health & metrics
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	log.Fatal(app.Listen(":" + cfg.Port))
}
