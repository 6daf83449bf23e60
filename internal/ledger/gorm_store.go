package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stocktier-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxTransferAttempts bounds the retry loop on serialization failures
// before ErrConflict surfaces to the caller.
const maxTransferAttempts = 3

// GormStore is the Postgres-backed ledger. Transfers lock both rows
// FOR UPDATE in ascending warehouse-id order inside one transaction,
// so a failed destination update can never leave a half-applied
// decrement visible to other readers.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func variantScope(variantID *uint) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if variantID == nil {
			return q.Where("variant_id IS NULL")
		}
		return q.Where("variant_id = ?", *variantID)
	}
}

func (s *GormStore) GetAvailable(ctx context.Context, productID uint, variantID *uint, warehouseID uint) (*StockView, error) {
	var rec models.StockRecord
	err := s.db.WithContext(ctx).
		Scopes(variantScope(variantID)).
		Where("product_id = ? AND warehouse_id = ? AND is_active = true", productID, warehouseID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read stock record: %w", err)
	}
	v := viewOf(&rec)
	return &v, nil
}

func (s *GormStore) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return nil, ErrSameWarehouse
	}

	var (
		result  *TransferResult
		lastErr error
	)
	for attempt := 0; attempt < maxTransferAttempts; attempt++ {
		result, lastErr = s.transferOnce(ctx, in)
		if lastErr == nil || !retryable(lastErr) {
			return result, lastErr
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrConflict, lastErr)
}

func (s *GormStore) transferOnce(ctx context.Context, in TransferInput) (*TransferResult, error) {
	var result TransferResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock both rows in ascending warehouse-id order so two
		// opposing transfers cannot deadlock.
		order := []uint{in.FromWarehouseID, in.ToWarehouseID}
		if order[0] > order[1] {
			order[0], order[1] = order[1], order[0]
		}

		rows := make(map[uint]*models.StockRecord, 2)
		for _, wid := range order {
			rec, err := lockRow(tx, in.ProductID, in.VariantID, wid)
			if err != nil {
				return err
			}
			rows[wid] = rec
		}

		src := rows[in.FromWarehouseID]
		if src == nil || !src.IsActive {
			return fmt.Errorf("source warehouse %d: %w", in.FromWarehouseID, ErrNotFound)
		}
		if src.Available() < in.Quantity {
			return fmt.Errorf("%w: available %d, requested %d", ErrInsufficientStock, src.Available(), in.Quantity)
		}

		now := time.Now()

		dst := rows[in.ToWarehouseID]
		if dst == nil {
			// First stock assignment to this warehouse creates the row.
			dst = &models.StockRecord{
				ProductID:   in.ProductID,
				VariantID:   in.VariantID,
				WarehouseID: in.ToWarehouseID,
				CostPerUnit: src.CostPerUnit,
				IsActive:    true,
			}
			if err := tx.Create(dst).Error; err != nil {
				return fmt.Errorf("create destination record: %w", err)
			}
		}

		// Conditional decrement: the availability guard in the WHERE
		// clause backs up the FOR UPDATE check.
		res := tx.Model(&models.StockRecord{}).
			Where("id = ? AND stock_quantity - reserved_quantity >= ?", src.ID, in.Quantity).
			Update("stock_quantity", gorm.Expr("stock_quantity - ?", in.Quantity))
		if res.Error != nil {
			return fmt.Errorf("decrement source: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: source row changed underneath", ErrInsufficientStock)
		}

		if err := tx.Model(&models.StockRecord{}).
			Where("id = ?", dst.ID).
			Updates(map[string]any{
				"stock_quantity":    gorm.Expr("stock_quantity + ?", in.Quantity),
				"last_restocked_at": now,
				"is_active":         true,
			}).Error; err != nil {
			return fmt.Errorf("increment destination: %w", err)
		}

		refID := uuid.NewString()
		movements := []models.StockMovement{
			{
				ProductID:     in.ProductID,
				VariantID:     in.VariantID,
				WarehouseID:   in.FromWarehouseID,
				Direction:     models.MovementOutbound,
				Quantity:      in.Quantity,
				PreviousStock: src.StockQuantity,
				NewStock:      src.StockQuantity - in.Quantity,
				UnitCost:      src.CostPerUnit,
				ReferenceType: in.ReferenceType,
				ReferenceID:   refID,
				Reason:        in.Reason,
				CreatedBy:     in.Actor,
			},
			{
				ProductID:     in.ProductID,
				VariantID:     in.VariantID,
				WarehouseID:   in.ToWarehouseID,
				Direction:     models.MovementInbound,
				Quantity:      in.Quantity,
				PreviousStock: dst.StockQuantity,
				NewStock:      dst.StockQuantity + in.Quantity,
				UnitCost:      src.CostPerUnit,
				ReferenceType: in.ReferenceType,
				ReferenceID:   refID,
				Reason:        in.Reason,
				CreatedBy:     in.Actor,
			},
		}
		if err := tx.Create(&movements).Error; err != nil {
			return fmt.Errorf("append movements: %w", err)
		}

		srcAfter := *src
		srcAfter.StockQuantity -= in.Quantity
		dstAfter := *dst
		dstAfter.StockQuantity += in.Quantity
		dstAfter.LastRestockedAt = &now

		result = TransferResult{
			ReferenceID: refID,
			Quantity:    in.Quantity,
			FromAfter:   viewOf(&srcAfter),
			ToAfter:     viewOf(&dstAfter),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *GormStore) Restock(ctx context.Context, in RestockInput) (*StockView, error) {
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var view StockView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := lockRow(tx, in.ProductID, in.VariantID, in.WarehouseID)
		if err != nil {
			return err
		}

		now := time.Now()
		prev := 0
		if rec == nil {
			rec = &models.StockRecord{
				ProductID:       in.ProductID,
				VariantID:       in.VariantID,
				WarehouseID:     in.WarehouseID,
				StockQuantity:   in.Quantity,
				CostPerUnit:     in.UnitCost,
				LastRestockedAt: &now,
				IsActive:        true,
			}
			if in.Threshold != nil {
				rec.MinimumThreshold = *in.Threshold
			}
			if err := tx.Create(rec).Error; err != nil {
				return fmt.Errorf("create stock record: %w", err)
			}
		} else {
			prev = rec.StockQuantity
			updates := map[string]any{
				"stock_quantity":    gorm.Expr("stock_quantity + ?", in.Quantity),
				"last_restocked_at": now,
				"is_active":         true,
			}
			if in.UnitCost.IsPositive() {
				updates["cost_per_unit"] = in.UnitCost
			}
			if err := tx.Model(&models.StockRecord{}).Where("id = ?", rec.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("increment stock record: %w", err)
			}
			rec.StockQuantity = prev + in.Quantity
			rec.LastRestockedAt = &now
		}

		movement := models.StockMovement{
			ProductID:     in.ProductID,
			VariantID:     in.VariantID,
			WarehouseID:   in.WarehouseID,
			Direction:     models.MovementInbound,
			Quantity:      in.Quantity,
			PreviousStock: prev,
			NewStock:      prev + in.Quantity,
			UnitCost:      in.UnitCost,
			ReferenceType: models.ReferenceRestock,
			ReferenceID:   uuid.NewString(),
			Reason:        in.Reason,
			CreatedBy:     in.Actor,
		}
		if err := tx.Create(&movement).Error; err != nil {
			return fmt.Errorf("append movement: %w", err)
		}

		view = viewOf(rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *GormStore) ListBelowFloor(ctx context.Context, warehouseType models.WarehouseType, floor int) ([]models.StockRecord, error) {
	var rows []models.StockRecord
	err := s.db.WithContext(ctx).
		Joins("JOIN warehouses ON warehouses.id = stock_records.warehouse_id").
		Where("warehouses.type = ? AND warehouses.is_active = true", warehouseType).
		Where("stock_records.is_active = true AND stock_records.stock_quantity <= ?", floor).
		Order("stock_records.stock_quantity ASC, stock_records.id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list low stock rows: %w", err)
	}
	return rows, nil
}

// lockRow SELECTs one stock row FOR UPDATE. Returns (nil, nil) when
// the row does not exist.
func lockRow(tx *gorm.DB, productID uint, variantID *uint, warehouseID uint) (*models.StockRecord, error) {
	var rec models.StockRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(variantScope(variantID)).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock stock record: %w", err)
	}
	return &rec, nil
}

// retryable reports whether the transfer should be retried: Postgres
// serialization failures, deadlocks, or a duplicate-key race on the
// destination row's first creation.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "23505":
			return true
		}
	}
	return false
}
