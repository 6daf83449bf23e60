package inventory

import (
	"strings"

	"stocktier-backend/internal/database"
	"stocktier-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateProductRequest struct {
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	DeliveryType string `json:"delivery_type"`
}

type UpdateProductRequest struct {
	Name         *string `json:"name"`
	DeliveryType *string `json:"delivery_type"`
	IsActive     *bool   `json:"is_active"`
}

// POST /api/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.SKU = strings.TrimSpace(strings.ToUpper(body.SKU))
		if body.Name == "" || body.SKU == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name and sku are required")
		}
		if body.DeliveryType == "" {
			body.DeliveryType = "standard"
		}

		product := models.Product{
			Name:         body.Name,
			SKU:          body.SKU,
			DeliveryType: body.DeliveryType,
			IsActive:     true,
		}
		if err := database.DB.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "Product could not be created (duplicate sku?)")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
	}
}

// GET /api/products
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var products []models.Product
		q := database.DB.Order("name ASC")
		if !c.QueryBool("include_inactive") {
			q = q.Where("is_active = true")
		}
		if err := q.Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to list products")
		}
		return c.JSON(fiber.Map{"success": true, "data": products})
	}
}

// PUT /api/products/:id
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid product id")
		}

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		var product models.Product
		if err := database.DB.First(&product, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}

		if body.Name != nil && strings.TrimSpace(*body.Name) != "" {
			product.Name = strings.TrimSpace(*body.Name)
		}
		if body.DeliveryType != nil && *body.DeliveryType != "" {
			product.DeliveryType = *body.DeliveryType
		}
		if body.IsActive != nil {
			product.IsActive = *body.IsActive
		}

		if err := database.DB.Save(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Product could not be updated")
		}
		return c.JSON(fiber.Map{"success": true, "data": product})
	}
}
