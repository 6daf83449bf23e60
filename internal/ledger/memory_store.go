package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"stocktier-backend/internal/models"

	"github.com/google/uuid"
)

type rowKey struct {
	productID   uint
	variantID   uint
	hasVariant  bool
	warehouseID uint
}

func keyOf(productID uint, variantID *uint, warehouseID uint) rowKey {
	k := rowKey{productID: productID, warehouseID: warehouseID}
	if variantID != nil {
		k.variantID = *variantID
		k.hasVariant = true
	}
	return k
}

// MemoryStore implements Store with per-row mutexes acquired in
// warehouse-id order, the same locking discipline the Postgres store
// gets from FOR UPDATE. Backs tests and local development.
type MemoryStore struct {
	mu         sync.Mutex // guards maps, ids and the movement log
	rows       map[rowKey]*models.StockRecord
	locks      map[rowKey]*sync.Mutex
	warehouses map[uint]models.Warehouse
	movements  []models.StockMovement
	nextRecID  uint
	nextMovID  uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:       make(map[rowKey]*models.StockRecord),
		locks:      make(map[rowKey]*sync.Mutex),
		warehouses: make(map[uint]models.Warehouse),
	}
}

// SeedWarehouse registers warehouse metadata for ListBelowFloor.
func (s *MemoryStore) SeedWarehouse(w models.Warehouse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warehouses[w.ID] = w
}

// Seed inserts or replaces a stock row without writing a movement.
func (s *MemoryStore) Seed(rec models.StockRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == 0 {
		s.nextRecID++
		rec.ID = s.nextRecID
	}
	k := keyOf(rec.ProductID, rec.VariantID, rec.WarehouseID)
	s.rows[k] = &rec
	if _, ok := s.locks[k]; !ok {
		s.locks[k] = &sync.Mutex{}
	}
}

// Movements returns a copy of the append-only movement log.
func (s *MemoryStore) Movements() []models.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.StockMovement, len(s.movements))
	copy(out, s.movements)
	return out
}

func (s *MemoryStore) lockFor(k rowKey) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[k]
	if !ok {
		l = &sync.Mutex{}
		s.locks[k] = l
	}
	return l
}

func (s *MemoryStore) row(k rowKey) *models.StockRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[k]
}

func (s *MemoryStore) GetAvailable(ctx context.Context, productID uint, variantID *uint, warehouseID uint) (*StockView, error) {
	k := keyOf(productID, variantID, warehouseID)
	l := s.lockFor(k)
	l.Lock()
	defer l.Unlock()

	rec := s.row(k)
	if rec == nil || !rec.IsActive {
		return nil, ErrNotFound
	}
	v := viewOf(rec)
	return &v, nil
}

func (s *MemoryStore) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return nil, ErrSameWarehouse
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	srcKey := keyOf(in.ProductID, in.VariantID, in.FromWarehouseID)
	dstKey := keyOf(in.ProductID, in.VariantID, in.ToWarehouseID)

	keys := []rowKey{srcKey, dstKey}
	sort.Slice(keys, func(i, j int) bool { return keys[i].warehouseID < keys[j].warehouseID })
	for _, k := range keys {
		l := s.lockFor(k)
		l.Lock()
		defer l.Unlock()
	}

	src := s.row(srcKey)
	if src == nil || !src.IsActive {
		return nil, fmt.Errorf("source warehouse %d: %w", in.FromWarehouseID, ErrNotFound)
	}
	if src.Available() < in.Quantity {
		return nil, fmt.Errorf("%w: available %d, requested %d", ErrInsufficientStock, src.Available(), in.Quantity)
	}

	now := time.Now()
	dst := s.row(dstKey)
	if dst == nil {
		dst = &models.StockRecord{
			ProductID:   in.ProductID,
			VariantID:   in.VariantID,
			WarehouseID: in.ToWarehouseID,
			CostPerUnit: src.CostPerUnit,
			IsActive:    true,
		}
		s.mu.Lock()
		s.nextRecID++
		dst.ID = s.nextRecID
		s.rows[dstKey] = dst
		s.mu.Unlock()
	}

	srcPrev := src.StockQuantity
	dstPrev := dst.StockQuantity
	src.StockQuantity -= in.Quantity
	dst.StockQuantity += in.Quantity
	dst.LastRestockedAt = &now
	dst.IsActive = true

	refID := uuid.NewString()
	s.appendMovements(
		models.StockMovement{
			ProductID: in.ProductID, VariantID: in.VariantID, WarehouseID: in.FromWarehouseID,
			Direction: models.MovementOutbound, Quantity: in.Quantity,
			PreviousStock: srcPrev, NewStock: src.StockQuantity,
			UnitCost: src.CostPerUnit, ReferenceType: in.ReferenceType,
			ReferenceID: refID, Reason: in.Reason, CreatedBy: in.Actor, CreatedAt: now,
		},
		models.StockMovement{
			ProductID: in.ProductID, VariantID: in.VariantID, WarehouseID: in.ToWarehouseID,
			Direction: models.MovementInbound, Quantity: in.Quantity,
			PreviousStock: dstPrev, NewStock: dst.StockQuantity,
			UnitCost: src.CostPerUnit, ReferenceType: in.ReferenceType,
			ReferenceID: refID, Reason: in.Reason, CreatedBy: in.Actor, CreatedAt: now,
		},
	)

	return &TransferResult{
		ReferenceID: refID,
		Quantity:    in.Quantity,
		FromAfter:   viewOf(src),
		ToAfter:     viewOf(dst),
	}, nil
}

func (s *MemoryStore) Restock(ctx context.Context, in RestockInput) (*StockView, error) {
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	k := keyOf(in.ProductID, in.VariantID, in.WarehouseID)
	l := s.lockFor(k)
	l.Lock()
	defer l.Unlock()

	now := time.Now()
	rec := s.row(k)
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
		s.mu.Lock()
		s.nextRecID++
		rec.ID = s.nextRecID
		s.rows[k] = rec
		s.mu.Unlock()
	} else {
		prev = rec.StockQuantity
		rec.StockQuantity += in.Quantity
		rec.LastRestockedAt = &now
		rec.IsActive = true
		if in.UnitCost.IsPositive() {
			rec.CostPerUnit = in.UnitCost
		}
	}

	s.appendMovements(models.StockMovement{
		ProductID: in.ProductID, VariantID: in.VariantID, WarehouseID: in.WarehouseID,
		Direction: models.MovementInbound, Quantity: in.Quantity,
		PreviousStock: prev, NewStock: prev + in.Quantity,
		UnitCost: in.UnitCost, ReferenceType: models.ReferenceRestock,
		ReferenceID: uuid.NewString(), Reason: in.Reason, CreatedBy: in.Actor, CreatedAt: now,
	})

	v := viewOf(rec)
	return &v, nil
}

func (s *MemoryStore) ListBelowFloor(ctx context.Context, warehouseType models.WarehouseType, floor int) ([]models.StockRecord, error) {
	s.mu.Lock()
	keys := make([]rowKey, 0, len(s.rows))
	for k := range s.rows {
		keys = append(keys, k)
	}
	warehouses := make(map[uint]models.Warehouse, len(s.warehouses))
	for id, w := range s.warehouses {
		warehouses[id] = w
	}
	s.mu.Unlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].warehouseID != keys[j].warehouseID {
			return keys[i].warehouseID < keys[j].warehouseID
		}
		return keys[i].productID < keys[j].productID
	})

	var out []models.StockRecord
	for _, k := range keys {
		l := s.lockFor(k)
		l.Lock()
		rec := s.row(k)
		if rec != nil && rec.IsActive && rec.StockQuantity <= floor {
			w, ok := warehouses[k.warehouseID]
			if ok && w.Type == warehouseType && w.IsActive {
				out = append(out, *rec)
			}
		}
		l.Unlock()
	}
	return out, nil
}

func (s *MemoryStore) appendMovements(ms ...models.StockMovement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range ms {
		s.nextMovID++
		m.ID = s.nextMovID
		s.movements = append(s.movements, m)
	}
}
