package models

import "time"

type Product struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:100;not null"`
	SKU          string `gorm:"size:50;not null;uniqueIndex"`
	DeliveryType string `gorm:"size:20;not null;default:'standard'"` // standard, express
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
