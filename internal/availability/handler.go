package availability

import (
	"errors"

	"stocktier-backend/internal/catalog"

	"github.com/gofiber/fiber/v2"
)

type CheckCartRequest struct {
	Pincode string     `json:"pincode"`
	Items   []CartItem `json:"items"`
}

// GET /api/availability/check?product_id=&variant_id=&pincode=
func CheckHandler(ev *Evaluator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID := c.QueryInt("product_id")
		if productID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product_id is required")
		}
		pincode := c.Query("pincode")
		if !validPincode(pincode) {
			return fiber.NewError(fiber.StatusBadRequest, "pincode must be 6 digits")
		}

		var variantID *uint
		if v := c.QueryInt("variant_id"); v > 0 {
			vid := uint(v)
			variantID = &vid
		}

		verdict, err := ev.CheckSingle(c.Context(), uint(productID), variantID, pincode)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Product not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Availability check failed")
		}

		return c.JSON(fiber.Map{"success": true, "data": verdict})
	}
}

// POST /api/availability/check-cart
func CheckCartHandler(ev *Evaluator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CheckCartRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if !validPincode(body.Pincode) {
			return fiber.NewError(fiber.StatusBadRequest, "pincode must be 6 digits")
		}
		if len(body.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "items cannot be empty")
		}
		for _, item := range body.Items {
			if item.ProductID == 0 || item.Quantity <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "every item needs product_id and a positive quantity")
			}
		}

		verdict, err := ev.CheckCart(c.Context(), body.Items, body.Pincode)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Product not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Cart availability check failed")
		}

		return c.JSON(fiber.Map{"success": true, "data": verdict})
	}
}

func validPincode(pincode string) bool {
	if len(pincode) != 6 {
		return false
	}
	for _, r := range pincode {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
