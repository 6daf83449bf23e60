package models

import "time"

// PincodeMapping: postal code -> direct division warehouse and/or
// delivery zone. A pincode resolves to at most one of each.
type PincodeMapping struct {
	ID                  uint          `gorm:"primaryKey"`
	Pincode             string        `gorm:"size:10;not null;uniqueIndex"`
	DivisionWarehouseID *uint         `gorm:"index"`
	DivisionWarehouse   *Warehouse    `gorm:"foreignKey:DivisionWarehouseID"`
	ZoneID              *uint         `gorm:"index"`
	Zone                *DeliveryZone `gorm:"foreignKey:ZoneID"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
