package catalog

import (
	"context"
	"errors"
	"fmt"

	"stocktier-backend/internal/models"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("product not found")

// Service is the product catalog lookup the availability engine needs.
// Inactive products count as absent.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = true", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read product %d: %w", id, err)
	}
	return &p, nil
}

func (s *Service) GetProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Where("sku = ? AND is_active = true", sku).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product sku %q: %w", sku, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read product sku %q: %w", sku, err)
	}
	return &p, nil
}
