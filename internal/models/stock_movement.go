package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MovementDirection string

const (
	MovementInbound  MovementDirection = "inbound"
	MovementOutbound MovementDirection = "outbound"
)

type MovementReference string

const (
	ReferenceManualTransfer MovementReference = "manual_transfer"
	ReferenceAutoTransfer   MovementReference = "auto_transfer"
	ReferenceSweepTransfer  MovementReference = "sweep_transfer"
	ReferenceRestock        MovementReference = "restock"
)

// StockMovement: append-only record of every stock quantity change.
// The two halves of a transfer share one ReferenceID. Rows are never
// updated or deleted; this is the audit trail for reconciling the
// ledger.
type StockMovement struct {
	ID            uint `gorm:"primaryKey"`
	ProductID     uint `gorm:"index;not null"`
	Product       Product
	VariantID     *uint
	WarehouseID   uint `gorm:"index;not null"`
	Warehouse     Warehouse
	Direction     MovementDirection `gorm:"size:10;not null"`
	Quantity      int               `gorm:"not null"`
	PreviousStock int               `gorm:"not null"`
	NewStock      int               `gorm:"not null"`
	UnitCost      decimal.Decimal   `gorm:"type:numeric(12,2);not null;default:0"`
	ReferenceType MovementReference `gorm:"size:30;not null;index"`
	ReferenceID   string            `gorm:"size:36;not null;index"`
	Reason        string            `gorm:"size:255"`
	CreatedBy     string            `gorm:"size:100"`
	CreatedAt     time.Time         `gorm:"index"`
}
