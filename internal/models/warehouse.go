package models

import "time"

type WarehouseType string

const (
	WarehouseTypeDivision WarehouseType = "division"
	WarehouseTypeZonal    WarehouseType = "zonal"
)

// Warehouse: a fulfillment node. Division warehouses serve pincodes
// directly (1 day delivery) and hang off a single zonal parent; zonal
// warehouses cover a delivery zone (3-4 working days). Hierarchy depth
// is at most two: zonal -> division.
type Warehouse struct {
	ID                uint          `gorm:"primaryKey"`
	Code              string        `gorm:"size:50;not null;uniqueIndex"`
	Name              string        `gorm:"size:100;not null"`
	Type              WarehouseType `gorm:"size:20;not null;index"`
	ParentWarehouseID *uint         `gorm:"index"` // zonal parent of a division warehouse
	Parent            *Warehouse    `gorm:"foreignKey:ParentWarehouseID"`
	Pincode           string        `gorm:"size:10"`
	Latitude          float64
	Longitude         float64
	IsActive          bool `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (w *Warehouse) IsDivision() bool { return w.Type == WarehouseTypeDivision }
func (w *Warehouse) IsZonal() bool    { return w.Type == WarehouseTypeZonal }
