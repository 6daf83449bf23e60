package database

import (
	"log"

	"stocktier-backend/internal/config"
	"stocktier-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.Warehouse{},
		&models.DeliveryZone{},
		&models.ZoneWarehouse{},
		&models.PincodeMapping{},
		&models.Product{},
		&models.StockRecord{},
		&models.StockMovement{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	// Older deployments carried duplicate stock rows per (product,
	// variant, warehouse); the unique index in the model only applies
	// cleanly once those are collapsed. Keep the newest row.
	if DB.Migrator().HasTable(&models.StockRecord{}) {
		DB.Exec(`
			DELETE FROM stock_records a USING stock_records b
			WHERE a.id < b.id
			  AND a.product_id = b.product_id
			  AND a.warehouse_id = b.warehouse_id
			  AND a.variant_id IS NOT DISTINCT FROM b.variant_id
		`)
	}

	log.Println("database connected, migration complete")
}
