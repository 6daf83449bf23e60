package main

import (
	"context"
	"log"
	"strings"
	"time"

	"stocktier-backend/internal/auth"
	"stocktier-backend/internal/availability"
	"stocktier-backend/internal/cache"
	"stocktier-backend/internal/catalog"
	"stocktier-backend/internal/config"
	"stocktier-backend/internal/database"
	"stocktier-backend/internal/geo"
	"stocktier-backend/internal/inventory"
	"stocktier-backend/internal/ledger"
	"stocktier-backend/internal/logger"
	"stocktier-backend/internal/models"
	"stocktier-backend/internal/monitor"
	"stocktier-backend/internal/rebalance"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const verdictCacheTTL = 30 * time.Second

func main() {
	cfg := config.Load()
	logger.Init(false)
	defer logger.Sync()

	database.Init(cfg)

	verdictCache := cache.New(cfg.RedisAddr, verdictCacheTTL)

	resolver := geo.NewResolver(database.DB)
	if err := resolver.Load(context.Background()); err != nil {
		log.Fatalf("initial geo snapshot load failed: %v", err)
	}
	go resolver.Run(context.Background(), cfg.GeoRefreshInterval)

	store := ledger.NewGormStore(database.DB)
	products := catalog.NewService(database.DB)
	evaluator := availability.NewEvaluator(resolver, store, products, verdictCache)
	rebalancer := rebalance.NewRebalancer(resolver, store, verdictCache)

	lowStock := monitor.New(store, rebalancer, monitor.Options{
		Floor:        cfg.LowStockFloor,
		Cooldown:     cfg.SweepCooldown,
		MaxTransfers: cfg.SweepMaxTransfers,
		RowTimeout:   cfg.SweepRowTimeout,
	})
	if cfg.SweepInterval > 0 {
		go lowStock.Run(context.Background(), cfg.SweepInterval)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"success": false,
					"error":   e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public: storefront availability checks
	api.Get("/availability/check", availability.CheckHandler(evaluator))
	api.Post("/availability/check-cart", availability.CheckCartHandler(evaluator))
	api.Get("/products", inventory.ListProductsHandler())

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	// Ops and admin: stock movement triggers
	ops := protected.Group("")
	ops.Use(auth.RequireRole(models.RoleAdmin, models.RoleOps))

	ops.Post("/availability/transfer", rebalance.TransferHandler(rebalancer))
	ops.Post("/availability/monitor-transfer", monitor.SweepHandler(lowStock))

	ops.Get("/stock", inventory.ListStockHandler())
	ops.Get("/stock/low", inventory.ListLowStockHandler(store, cfg.LowStockFloor))
	ops.Post("/stock/restock", inventory.RestockHandler(store))
	ops.Post("/stock/restock-import", inventory.RestockImportHandler(store))
	ops.Put("/stock/:id/threshold", inventory.SetThresholdHandler())
	ops.Get("/stock/movements", inventory.ListMovementsHandler())
	ops.Get("/stock/movements/export", inventory.ExportMovementsHandler())

	// Admin only: catalog and network topology
	adminRoutes := protected.Group("")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/products", inventory.CreateProductHandler())
	adminRoutes.Put("/products/:id", inventory.UpdateProductHandler())

	adminRoutes.Post("/warehouses", inventory.CreateWarehouseHandler(resolver))
	adminRoutes.Get("/warehouses", inventory.ListWarehousesHandler())
	adminRoutes.Get("/warehouses/:id", inventory.GetWarehouseHandler())
	adminRoutes.Put("/warehouses/:id", inventory.UpdateWarehouseHandler(resolver))

	adminRoutes.Post("/zones", inventory.CreateZoneHandler())
	adminRoutes.Get("/zones", inventory.ListZonesHandler())
	adminRoutes.Post("/zones/:id/warehouses", inventory.LinkZoneWarehouseHandler(resolver))

	adminRoutes.Put("/pincodes", inventory.UpsertPincodeMappingHandler(resolver))
	adminRoutes.Get("/pincodes/:pincode", inventory.GetPincodeMappingHandler())

	log.Println("Server listening on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
