package rebalance

import (
	"context"
	"errors"
	"fmt"

	"stocktier-backend/internal/availability"
	"stocktier-backend/internal/cache"
	"stocktier-backend/internal/ledger"
	"stocktier-backend/internal/models"
)

var ErrNoParentWarehouse = errors.New("division warehouse has no configured zonal parent")

// defaultTransferQuantity applies when the division row carries no
// minimum threshold to top up to.
const defaultTransferQuantity = 10

// GeoSource is the hierarchy lookup the rebalancer needs.
type GeoSource interface {
	ParentZonal(divisionID uint) (*models.Warehouse, bool)
}

// Rebalancer moves stock downward from a zonal warehouse to one of its
// division children. It owns all ledger writes; the evaluator and the
// monitor only read.
type Rebalancer struct {
	geo   GeoSource
	store ledger.Store
	cache *cache.Cache
}

func NewRebalancer(geo GeoSource, store ledger.Store, c *cache.Cache) *Rebalancer {
	return &Rebalancer{geo: geo, store: store, cache: c}
}

// ManualTransfer: operator-triggered top-up of a division warehouse
// from its zonal parent. A nil quantity defaults to the division row's
// minimum threshold, or 10 when unset.
func (r *Rebalancer) ManualTransfer(ctx context.Context, productID uint, variantID *uint, divisionWarehouseID uint, quantity *int, actor string) (*ledger.TransferResult, error) {
	parent, ok := r.geo.ParentZonal(divisionWarehouseID)
	if !ok {
		return nil, fmt.Errorf("warehouse %d: %w", divisionWarehouseID, ErrNoParentWarehouse)
	}

	qty := 0
	if quantity != nil {
		qty = *quantity
		if qty <= 0 {
			return nil, ledger.ErrInvalidQuantity
		}
	} else {
		qty = r.defaultQuantity(ctx, productID, variantID, divisionWarehouseID)
	}

	if err := r.checkSource(ctx, productID, variantID, parent.ID, qty); err != nil {
		return nil, err
	}

	res, err := r.store.Transfer(ctx, ledger.TransferInput{
		ProductID:       productID,
		VariantID:       variantID,
		FromWarehouseID: parent.ID,
		ToWarehouseID:   divisionWarehouseID,
		Quantity:        qty,
		Reason:          fmt.Sprintf("manual rebalance from zonal warehouse %d", parent.ID),
		ReferenceType:   models.ReferenceManualTransfer,
		Actor:           actor,
	})
	if err != nil {
		return nil, err
	}
	r.cache.DeletePattern(ctx, availability.InvalidationPattern(productID))
	return res, nil
}

// SweepTransfer: monitor-triggered variant of ManualTransfer. A parent
// short on stock means skipped (second return true), not an error; low
// zonal stock is expected and only recorded.
func (r *Rebalancer) SweepTransfer(ctx context.Context, row models.StockRecord, actor string) (*ledger.TransferResult, bool, error) {
	parent, ok := r.geo.ParentZonal(row.WarehouseID)
	if !ok {
		return nil, false, fmt.Errorf("warehouse %d: %w", row.WarehouseID, ErrNoParentWarehouse)
	}

	qty := row.MinimumThreshold
	if qty <= 0 {
		qty = defaultTransferQuantity
	}

	if err := r.checkSource(ctx, row.ProductID, row.VariantID, parent.ID, qty); err != nil {
		if errors.Is(err, ledger.ErrInsufficientStock) {
			return nil, true, nil
		}
		return nil, false, err
	}

	res, err := r.store.Transfer(ctx, ledger.TransferInput{
		ProductID:       row.ProductID,
		VariantID:       row.VariantID,
		FromWarehouseID: parent.ID,
		ToWarehouseID:   row.WarehouseID,
		Quantity:        qty,
		Reason:          fmt.Sprintf("low stock sweep: division stock %d at or below threshold", row.StockQuantity),
		ReferenceType:   models.ReferenceSweepTransfer,
		Actor:           actor,
	})
	if errors.Is(err, ledger.ErrInsufficientStock) {
		// Lost a race for the zonal stock since the pre-check.
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	r.cache.DeletePattern(ctx, availability.InvalidationPattern(row.ProductID))
	return res, false, nil
}

// defaultQuantity: the division row's threshold when set, else 10. A
// division with no stock row yet still gets the default.
func (r *Rebalancer) defaultQuantity(ctx context.Context, productID uint, variantID *uint, divisionWarehouseID uint) int {
	view, err := r.store.GetAvailable(ctx, productID, variantID, divisionWarehouseID)
	if err == nil && view.Threshold > 0 {
		return view.Threshold
	}
	return defaultTransferQuantity
}

// checkSource fails fast when the zonal source cannot cover the
// transfer; the ledger re-validates under lock either way.
func (r *Rebalancer) checkSource(ctx context.Context, productID uint, variantID *uint, sourceWarehouseID uint, qty int) error {
	view, err := r.store.GetAvailable(ctx, productID, variantID, sourceWarehouseID)
	if errors.Is(err, ledger.ErrNotFound) {
		return fmt.Errorf("%w: no stock at zonal warehouse %d", ledger.ErrInsufficientStock, sourceWarehouseID)
	}
	if err != nil {
		return err
	}
	if view.Available < qty {
		return fmt.Errorf("%w: zonal warehouse %d has %d available, need %d", ledger.ErrInsufficientStock, sourceWarehouseID, view.Available, qty)
	}
	return nil
}
