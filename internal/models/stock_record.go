package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockRecord: per (product, variant, warehouse) stock row. VariantID is
// nil for products without variants. Mutated only through the ledger's
// atomic operations; soft-deactivated, never deleted.
type StockRecord struct {
	ID               uint `gorm:"primaryKey"`
	ProductID        uint `gorm:"index:idx_stock_row,unique;not null"`
	Product          Product
	VariantID        *uint `gorm:"index:idx_stock_row,unique"`
	WarehouseID      uint  `gorm:"index:idx_stock_row,unique;not null"`
	Warehouse        Warehouse
	StockQuantity    int             `gorm:"not null;default:0"`
	ReservedQuantity int             `gorm:"not null;default:0"`
	MinimumThreshold int             `gorm:"not null;default:0"`
	CostPerUnit      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	LastRestockedAt  *time.Time
	IsActive         bool `gorm:"not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Available: on-hand minus reserved, never negative. The only quantity
// usable for new fulfillment.
func (s *StockRecord) Available() int {
	avail := s.StockQuantity - s.ReservedQuantity
	if avail < 0 {
		return 0
	}
	return avail
}

func (s *StockRecord) BelowThreshold() bool {
	return s.StockQuantity <= s.MinimumThreshold
}
