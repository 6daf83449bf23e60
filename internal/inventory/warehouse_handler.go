package inventory

import (
	"strings"

	"stocktier-backend/internal/database"
	"stocktier-backend/internal/geo"
	"stocktier-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateWarehouseRequest struct {
	Code              string  `json:"code"`
	Name              string  `json:"name"`
	Type              string  `json:"type"`
	ParentWarehouseID *uint   `json:"parent_warehouse_id"`
	Pincode           string  `json:"pincode"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
}

type UpdateWarehouseRequest struct {
	Name              *string `json:"name"`
	ParentWarehouseID *uint   `json:"parent_warehouse_id"`
	IsActive          *bool   `json:"is_active"`
}

// validateParent enforces the two-level hierarchy: only division
// warehouses have a parent, and that parent must be an active zonal.
func validateParent(parentID *uint, typ models.WarehouseType) error {
	if parentID == nil {
		return nil
	}
	if typ != models.WarehouseTypeDivision {
		return fiber.NewError(fiber.StatusBadRequest, "Only division warehouses can have a parent")
	}
	var parent models.Warehouse
	if err := database.DB.First(&parent, *parentID).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Parent warehouse not found")
	}
	if !parent.IsZonal() {
		return fiber.NewError(fiber.StatusBadRequest, "Parent warehouse must be zonal")
	}
	return nil
}

// POST /api/warehouses
func CreateWarehouseHandler(resolver *geo.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateWarehouseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Code = strings.TrimSpace(strings.ToUpper(body.Code))
		body.Name = strings.TrimSpace(body.Name)
		typ := models.WarehouseType(body.Type)
		if body.Code == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "code and name are required")
		}
		if typ != models.WarehouseTypeDivision && typ != models.WarehouseTypeZonal {
			return fiber.NewError(fiber.StatusBadRequest, "type must be 'division' or 'zonal'")
		}
		if err := validateParent(body.ParentWarehouseID, typ); err != nil {
			return err
		}

		warehouse := models.Warehouse{
			Code:              body.Code,
			Name:              body.Name,
			Type:              typ,
			ParentWarehouseID: body.ParentWarehouseID,
			Pincode:           body.Pincode,
			Latitude:          body.Latitude,
			Longitude:         body.Longitude,
			IsActive:          true,
		}
		if err := database.DB.Create(&warehouse).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "Warehouse could not be created (duplicate code?)")
		}

		refreshGeo(c, resolver)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": warehouse})
	}
}

// GET /api/warehouses
func ListWarehousesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var warehouses []models.Warehouse
		q := database.DB.Order("type ASC, code ASC")
		if t := c.Query("type"); t != "" {
			q = q.Where("type = ?", t)
		}
		if err := q.Find(&warehouses).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to list warehouses")
		}
		return c.JSON(fiber.Map{"success": true, "data": warehouses})
	}
}

// GET /api/warehouses/:id
func GetWarehouseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid warehouse id")
		}
		var warehouse models.Warehouse
		if err := database.DB.Preload("Parent").First(&warehouse, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Warehouse not found")
		}
		return c.JSON(fiber.Map{"success": true, "data": warehouse})
	}
}

// PUT /api/warehouses/:id
func UpdateWarehouseHandler(resolver *geo.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid warehouse id")
		}

		var body UpdateWarehouseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		var warehouse models.Warehouse
		if err := database.DB.First(&warehouse, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Warehouse not found")
		}

		if body.Name != nil && strings.TrimSpace(*body.Name) != "" {
			warehouse.Name = strings.TrimSpace(*body.Name)
		}
		if body.ParentWarehouseID != nil {
			if err := validateParent(body.ParentWarehouseID, warehouse.Type); err != nil {
				return err
			}
			warehouse.ParentWarehouseID = body.ParentWarehouseID
		}
		if body.IsActive != nil {
			warehouse.IsActive = *body.IsActive
		}

		if err := database.DB.Save(&warehouse).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Warehouse could not be updated")
		}

		refreshGeo(c, resolver)
		return c.JSON(fiber.Map{"success": true, "data": warehouse})
	}
}

// refreshGeo reloads the pincode/hierarchy snapshot right after an
// admin mutation instead of waiting for the next interval.
func refreshGeo(c *fiber.Ctx, resolver *geo.Resolver) {
	if resolver == nil {
		return
	}
	_ = resolver.Load(c.Context())
}
