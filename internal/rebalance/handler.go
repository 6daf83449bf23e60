package rebalance

import (
	"errors"

	"stocktier-backend/internal/auth"
	"stocktier-backend/internal/ledger"

	"github.com/gofiber/fiber/v2"
)

type TransferRequest struct {
	ProductID           uint  `json:"product_id"`
	VariantID           *uint `json:"variant_id,omitempty"`
	DivisionWarehouseID uint  `json:"division_warehouse_id"`
	Quantity            *int  `json:"quantity,omitempty"`
}

// POST /api/availability/transfer
func TransferHandler(r *Rebalancer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TransferRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.ProductID == 0 || body.DivisionWarehouseID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product_id and division_warehouse_id are required")
		}
		if body.Quantity != nil && *body.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity must be positive when provided")
		}

		res, err := r.ManualTransfer(c.Context(), body.ProductID, body.VariantID, body.DivisionWarehouseID, body.Quantity, auth.Actor(c))
		if err != nil {
			return transferError(err)
		}

		return c.JSON(fiber.Map{"success": true, "data": res})
	}
}

// transferError maps rebalancer sentinels onto HTTP statuses. Callers
// see the specific reason, never a bare 500, except for storage
// failures.
func transferError(err error) error {
	switch {
	case errors.Is(err, ErrNoParentWarehouse):
		return fiber.NewError(fiber.StatusBadRequest, "Division warehouse has no configured zonal parent")
	case errors.Is(err, ledger.ErrInvalidQuantity):
		return fiber.NewError(fiber.StatusBadRequest, "Transfer quantity must be positive")
	case errors.Is(err, ledger.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Stock record not found")
	case errors.Is(err, ledger.ErrInsufficientStock):
		return fiber.NewError(fiber.StatusConflict, "Insufficient stock at source warehouse: "+err.Error())
	case errors.Is(err, ledger.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, "Transfer lost a write conflict, retry later")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Transfer failed")
	}
}
