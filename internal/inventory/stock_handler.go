package inventory

import (
	"errors"
	"time"

	"stocktier-backend/internal/auth"
	"stocktier-backend/internal/database"
	"stocktier-backend/internal/ledger"
	"stocktier-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type RestockRequest struct {
	ProductID   uint    `json:"product_id"`
	VariantID   *uint   `json:"variant_id,omitempty"`
	WarehouseID uint    `json:"warehouse_id"`
	Quantity    int     `json:"quantity"`
	UnitCost    float64 `json:"unit_cost"`
	Threshold   *int    `json:"minimum_threshold,omitempty"`
	Reason      string  `json:"reason"`
}

type SetThresholdRequest struct {
	MinimumThreshold int `json:"minimum_threshold"`
}

// GET /api/stock?warehouse_id=
func ListStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouseID := c.QueryInt("warehouse_id")
		if warehouseID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "warehouse_id is required")
		}

		var rows []models.StockRecord
		if err := database.DB.
			Preload("Product").
			Where("warehouse_id = ? AND is_active = true", warehouseID).
			Order("product_id ASC").
			Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to list stock")
		}
		return c.JSON(fiber.Map{"success": true, "data": rows})
	}
}

// GET /api/stock/low?floor=
// Division rows at or below the floor: the same view the sweep acts on.
func ListLowStockHandler(store ledger.Store, defaultFloor int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		floor := c.QueryInt("floor", defaultFloor)
		if floor < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "floor cannot be negative")
		}

		rows, err := store.ListBelowFloor(c.Context(), models.WarehouseTypeDivision, floor)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to list low stock rows")
		}
		return c.JSON(fiber.Map{"success": true, "data": rows, "floor": floor})
	}
}

// POST /api/stock/restock
// Inbound supplier stock at a warehouse; goes through the ledger so a
// movement record is always written.
func RestockHandler(store ledger.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RestockRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.ProductID == 0 || body.WarehouseID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product_id and warehouse_id are required")
		}
		if body.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity must be positive")
		}

		var product models.Product
		if err := database.DB.First(&product, body.ProductID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}
		var warehouse models.Warehouse
		if err := database.DB.First(&warehouse, body.WarehouseID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Warehouse not found")
		}

		reason := body.Reason
		if reason == "" {
			reason = "manual restock"
		}

		view, err := store.Restock(c.Context(), ledger.RestockInput{
			ProductID:   body.ProductID,
			VariantID:   body.VariantID,
			WarehouseID: body.WarehouseID,
			Quantity:    body.Quantity,
			UnitCost:    decimal.NewFromFloat(body.UnitCost),
			Threshold:   body.Threshold,
			Reason:      reason,
			Actor:       auth.Actor(c),
		})
		if err != nil {
			if errors.Is(err, ledger.ErrInvalidQuantity) {
				return fiber.NewError(fiber.StatusBadRequest, "quantity must be positive")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Restock failed")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": view})
	}
}

// PUT /api/stock/:id/threshold
func SetThresholdHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid stock record id")
		}

		var body SetThresholdRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.MinimumThreshold < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "minimum_threshold cannot be negative")
		}

		res := database.DB.Model(&models.StockRecord{}).
			Where("id = ? AND is_active = true", id).
			Update("minimum_threshold", body.MinimumThreshold)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Threshold could not be updated")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Stock record not found")
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

// GET /api/stock/movements?warehouse_id=&product_id=&from=&to=
func ListMovementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Model(&models.StockMovement{}).
			Preload("Product").
			Preload("Warehouse").
			Order("created_at DESC, id DESC").
			Limit(500)

		if warehouseID := c.QueryInt("warehouse_id"); warehouseID > 0 {
			q = q.Where("warehouse_id = ?", warehouseID)
		}
		if productID := c.QueryInt("product_id"); productID > 0 {
			q = q.Where("product_id = ?", productID)
		}
		if from := c.Query("from"); from != "" {
			d, err := time.Parse("2006-01-02", from)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from must be 'YYYY-MM-DD'")
			}
			q = q.Where("created_at >= ?", d)
		}
		if to := c.Query("to"); to != "" {
			d, err := time.Parse("2006-01-02", to)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to must be 'YYYY-MM-DD'")
			}
			q = q.Where("created_at < ?", d.AddDate(0, 0, 1))
		}

		var movements []models.StockMovement
		if err := q.Find(&movements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to list movements")
		}
		return c.JSON(fiber.Map{"success": true, "data": movements})
	}
}
