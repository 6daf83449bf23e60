package inventory

import (
	"strings"

	"stocktier-backend/internal/database"
	"stocktier-backend/internal/geo"
	"stocktier-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateZoneRequest struct {
	Name string `json:"name"`
}

type LinkZoneWarehouseRequest struct {
	WarehouseID uint `json:"warehouse_id"`
	Position    int  `json:"position"`
}

type UpsertPincodeMappingRequest struct {
	Pincode             string `json:"pincode"`
	DivisionWarehouseID *uint  `json:"division_warehouse_id"`
	ZoneID              *uint  `json:"zone_id"`
}

// POST /api/zones
func CreateZoneHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateZoneRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}

		zone := models.DeliveryZone{Name: body.Name, IsActive: true}
		if err := database.DB.Create(&zone).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "Zone could not be created (duplicate name?)")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": zone})
	}
}

// GET /api/zones
func ListZonesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var zones []models.DeliveryZone
		if err := database.DB.Preload("Warehouses.Warehouse").Order("name ASC").Find(&zones).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to list zones")
		}
		return c.JSON(fiber.Map{"success": true, "data": zones})
	}
}

// POST /api/zones/:id/warehouses
// Links a zonal warehouse into a zone at a position; lower positions
// are tried first by the availability evaluator.
func LinkZoneWarehouseHandler(resolver *geo.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		zoneID, err := c.ParamsInt("id")
		if err != nil || zoneID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid zone id")
		}

		var body LinkZoneWarehouseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.WarehouseID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "warehouse_id is required")
		}

		var zone models.DeliveryZone
		if err := database.DB.First(&zone, zoneID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Zone not found")
		}
		var warehouse models.Warehouse
		if err := database.DB.First(&warehouse, body.WarehouseID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Warehouse not found")
		}
		if !warehouse.IsZonal() {
			return fiber.NewError(fiber.StatusBadRequest, "Only zonal warehouses can serve a zone")
		}

		link := models.ZoneWarehouse{
			ZoneID:      uint(zoneID),
			WarehouseID: body.WarehouseID,
			Position:    body.Position,
		}
		if err := database.DB.Create(&link).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "Warehouse already linked to this zone")
		}

		refreshGeo(c, resolver)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": link})
	}
}

// PUT /api/pincodes
// Upserts the mapping for one pincode: a direct division warehouse,
// a zone, or both.
func UpsertPincodeMappingHandler(resolver *geo.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpsertPincodeMappingRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Pincode = strings.TrimSpace(body.Pincode)
		if len(body.Pincode) != 6 {
			return fiber.NewError(fiber.StatusBadRequest, "pincode must be 6 digits")
		}
		if body.DivisionWarehouseID == nil && body.ZoneID == nil {
			return fiber.NewError(fiber.StatusBadRequest, "division_warehouse_id or zone_id is required")
		}

		if body.DivisionWarehouseID != nil {
			var warehouse models.Warehouse
			if err := database.DB.First(&warehouse, *body.DivisionWarehouseID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Division warehouse not found")
			}
			if !warehouse.IsDivision() {
				return fiber.NewError(fiber.StatusBadRequest, "Warehouse mapped to a pincode must be a division warehouse")
			}
		}
		if body.ZoneID != nil {
			var zone models.DeliveryZone
			if err := database.DB.First(&zone, *body.ZoneID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Zone not found")
			}
		}

		var mapping models.PincodeMapping
		err := database.DB.Where("pincode = ?", body.Pincode).First(&mapping).Error
		if err != nil {
			mapping = models.PincodeMapping{Pincode: body.Pincode}
		}
		mapping.DivisionWarehouseID = body.DivisionWarehouseID
		mapping.ZoneID = body.ZoneID

		if err := database.DB.Save(&mapping).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pincode mapping could not be saved")
		}

		refreshGeo(c, resolver)
		return c.JSON(fiber.Map{"success": true, "data": mapping})
	}
}

// GET /api/pincodes/:pincode
func GetPincodeMappingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		pincode := c.Params("pincode")
		var mapping models.PincodeMapping
		if err := database.DB.
			Preload("DivisionWarehouse").
			Preload("Zone").
			Where("pincode = ?", pincode).
			First(&mapping).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "No mapping for this pincode")
		}
		return c.JSON(fiber.Map{"success": true, "data": mapping})
	}
}
