package ledger

import (
	"context"
	"errors"

	"stocktier-backend/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("stock record not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrSameWarehouse     = errors.New("source and destination warehouse are the same")
	ErrConflict          = errors.New("write conflict, retries exhausted")
)

// StockView: point-in-time read of one stock row.
type StockView struct {
	RecordID    uint  `json:"record_id"`
	ProductID   uint  `json:"product_id"`
	VariantID   *uint `json:"variant_id,omitempty"`
	WarehouseID uint  `json:"warehouse_id"`
	Stock       int   `json:"stock_quantity"`
	Reserved    int   `json:"reserved_quantity"`
	Available   int   `json:"available_quantity"`
	Threshold   int   `json:"minimum_threshold"`
}

type TransferInput struct {
	ProductID       uint
	VariantID       *uint
	FromWarehouseID uint
	ToWarehouseID   uint
	Quantity        int
	Reason          string
	ReferenceType   models.MovementReference
	Actor           string
}

type TransferResult struct {
	ReferenceID string    `json:"reference_id"`
	Quantity    int       `json:"quantity"`
	FromAfter   StockView `json:"from_after"`
	ToAfter     StockView `json:"to_after"`
}

// RestockInput: inbound supplier stock landing at a warehouse.
type RestockInput struct {
	ProductID   uint
	VariantID   *uint
	WarehouseID uint
	Quantity    int
	UnitCost    decimal.Decimal
	Threshold   *int // applied when the row is first created
	Reason      string
	Actor       string
}

// Store is the stock ledger: the only way stock rows are read or
// mutated. Transfer and Restock are all-or-nothing units; both row
// updates and their movement records commit together or not at all.
// Concurrent transfers on disjoint row pairs proceed independently;
// transfers racing on the same source row serialize, so the sum of
// decrements never exceeds the available stock either of them saw.
type Store interface {
	// GetAvailable reads one active row; ErrNotFound when absent.
	GetAvailable(ctx context.Context, productID uint, variantID *uint, warehouseID uint) (*StockView, error)

	// Transfer atomically moves quantity between two rows and appends
	// the outbound/inbound movement pair. The destination row is
	// created on first assignment. Fails with ErrInsufficientStock
	// when the source's available quantity is short, ErrConflict when
	// contention outlives the retry budget.
	Transfer(ctx context.Context, in TransferInput) (*TransferResult, error)

	// Restock increments one row (creating it if needed) and appends
	// an inbound movement.
	Restock(ctx context.Context, in RestockInput) (*StockView, error)

	// ListBelowFloor returns active rows at warehouses of the given
	// type with stock_quantity <= floor.
	ListBelowFloor(ctx context.Context, warehouseType models.WarehouseType, floor int) ([]models.StockRecord, error)
}

func viewOf(rec *models.StockRecord) StockView {
	return StockView{
		RecordID:    rec.ID,
		ProductID:   rec.ProductID,
		VariantID:   rec.VariantID,
		WarehouseID: rec.WarehouseID,
		Stock:       rec.StockQuantity,
		Reserved:    rec.ReservedQuantity,
		Available:   rec.Available(),
		Threshold:   rec.MinimumThreshold,
	}
}
