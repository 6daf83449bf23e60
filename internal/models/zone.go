package models

import "time"

// DeliveryZone: a region aggregating one or more zonal warehouses.
type DeliveryZone struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;unique"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Warehouses []ZoneWarehouse `gorm:"foreignKey:ZoneID;constraint:OnDelete:CASCADE"`
}

// ZoneWarehouse: ordered link between a zone and a zonal warehouse.
// Position decides which zonal warehouse gets tried first when a
// pincode resolves to the zone (first configured wins).
type ZoneWarehouse struct {
	ID          uint `gorm:"primaryKey"`
	ZoneID      uint `gorm:"index:idx_zone_warehouse,unique;not null"`
	WarehouseID uint `gorm:"index:idx_zone_warehouse,unique;not null"`
	Warehouse   Warehouse
	Position    int `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
