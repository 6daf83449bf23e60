package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"stocktier-backend/internal/models"

	"github.com/shopspring/decimal"
)

func seededStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	s.SeedWarehouse(models.Warehouse{ID: 1, Code: "Z-NORTH", Type: models.WarehouseTypeZonal, IsActive: true})
	s.SeedWarehouse(models.Warehouse{ID: 2, Code: "D-LKO", Type: models.WarehouseTypeDivision, IsActive: true})
	s.SeedWarehouse(models.Warehouse{ID: 3, Code: "D-KNP", Type: models.WarehouseTypeDivision, IsActive: true})
	return s
}

func TestTransferMovesStockAndWritesMovementPair(t *testing.T) {
	s := seededStore(t)
	s.Seed(models.StockRecord{ProductID: 7, WarehouseID: 1, StockQuantity: 50, IsActive: true})
	s.Seed(models.StockRecord{ProductID: 7, WarehouseID: 2, StockQuantity: 0, MinimumThreshold: 5, IsActive: true})

	res, err := s.Transfer(context.Background(), TransferInput{
		ProductID:       7,
		FromWarehouseID: 1,
		ToWarehouseID:   2,
		Quantity:        5,
		ReferenceType:   models.ReferenceSweepTransfer,
		Actor:           "tester",
	})
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	if res.FromAfter.Stock != 45 {
		t.Errorf("source stock = %d, want 45", res.FromAfter.Stock)
	}
	if res.ToAfter.Stock != 5 {
		t.Errorf("destination stock = %d, want 5", res.ToAfter.Stock)
	}
	if res.ReferenceID == "" {
		t.Error("transfer should carry a reference id")
	}

	moves := s.Movements()
	if len(moves) != 2 {
		t.Fatalf("movement count = %d, want 2", len(moves))
	}
	out, in := moves[0], moves[1]
	if out.Direction != models.MovementOutbound || in.Direction != models.MovementInbound {
		t.Errorf("movement directions = %s/%s, want outbound/inbound", out.Direction, in.Direction)
	}
	if out.ReferenceID != in.ReferenceID || out.ReferenceID != res.ReferenceID {
		t.Error("both movement halves must share the transfer's reference id")
	}
	if out.PreviousStock != 50 || out.NewStock != 45 {
		t.Errorf("outbound before/after = %d/%d, want 50/45", out.PreviousStock, out.NewStock)
	}
	if in.PreviousStock != 0 || in.NewStock != 5 {
		t.Errorf("inbound before/after = %d/%d, want 0/5", in.PreviousStock, in.NewStock)
	}
}

func TestTransferValidation(t *testing.T) {
	s := seededStore(t)
	s.Seed(models.StockRecord{ProductID: 7, WarehouseID: 1, StockQuantity: 20, IsActive: true})

	tests := []struct {
		name    string
		in      TransferInput
		wantErr error
	}{
		{
			name:    "zero quantity",
			in:      TransferInput{ProductID: 7, FromWarehouseID: 1, ToWarehouseID: 2, Quantity: 0},
			wantErr: ErrInvalidQuantity,
		},
		{
			name:    "negative quantity",
			in:      TransferInput{ProductID: 7, FromWarehouseID: 1, ToWarehouseID: 2, Quantity: -3},
			wantErr: ErrInvalidQuantity,
		},
		{
			name:    "same warehouse",
			in:      TransferInput{ProductID: 7, FromWarehouseID: 1, ToWarehouseID: 1, Quantity: 5},
			wantErr: ErrSameWarehouse,
		},
		{
			name:    "missing source row",
			in:      TransferInput{ProductID: 99, FromWarehouseID: 1, ToWarehouseID: 2, Quantity: 5},
			wantErr: ErrNotFound,
		},
		{
			name:    "insufficient stock",
			in:      TransferInput{ProductID: 7, FromWarehouseID: 1, ToWarehouseID: 2, Quantity: 25},
			wantErr: ErrInsufficientStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Transfer(context.Background(), tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Transfer error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// A failed transfer must leave the ledger untouched.
	view, err := s.GetAvailable(context.Background(), 7, nil, 1)
	if err != nil {
		t.Fatalf("GetAvailable: %v", err)
	}
	if view.Stock != 20 {
		t.Errorf("source stock after failed transfers = %d, want 20", view.Stock)
	}
	if len(s.Movements()) != 0 {
		t.Errorf("failed transfers wrote %d movements, want 0", len(s.Movements()))
	}
}

func TestTransferRespectsReservedQuantity(t *testing.T) {
	s := seededStore(t)
	s.Seed(models.StockRecord{ProductID: 7, WarehouseID: 1, StockQuantity: 10, ReservedQuantity: 6, IsActive: true})

	_, err := s.Transfer(context.Background(), TransferInput{
		ProductID: 7, FromWarehouseID: 1, ToWarehouseID: 2, Quantity: 5,
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("Transfer error = %v, want ErrInsufficientStock", err)
	}

	res, err := s.Transfer(context.Background(), TransferInput{
		ProductID: 7, FromWarehouseID: 1, ToWarehouseID: 2, Quantity: 4,
	})
	if err != nil {
		t.Fatalf("Transfer within available: %v", err)
	}
	if res.FromAfter.Available != 0 {
		t.Errorf("source available = %d, want 0", res.FromAfter.Available)
	}
}

func TestTransferCreatesDestinationRowOnFirstAssignment(t *testing.T) {
	s := seededStore(t)
	cost := decimal.NewFromFloat(12.50)
	s.Seed(models.StockRecord{ProductID: 7, WarehouseID: 1, StockQuantity: 30, CostPerUnit: cost, IsActive: true})

	if _, err := s.GetAvailable(context.Background(), 7, nil, 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("destination row should not exist yet, got %v", err)
	}

	res, err := s.Transfer(context.Background(), TransferInput{
		ProductID: 7, FromWarehouseID: 1, ToWarehouseID: 3, Quantity: 10,
	})
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if res.ToAfter.Stock != 10 {
		t.Errorf("new destination stock = %d, want 10", res.ToAfter.Stock)
	}

	view, err := s.GetAvailable(context.Background(), 7, nil, 3)
	if err != nil {
		t.Fatalf("GetAvailable on created row: %v", err)
	}
	if view.Stock != 10 {
		t.Errorf("created row stock = %d, want 10", view.Stock)
	}
}

func TestConcurrentTransfersNeverOversell(t *testing.T) {
	s := seededStore(t)
	s.Seed(models.StockRecord{ProductID: 7, WarehouseID: 1, StockQuantity: 10, IsActive: true})
	s.Seed(models.StockRecord{ProductID: 7, WarehouseID: 2, StockQuantity: 0, IsActive: true})
	s.Seed(models.StockRecord{ProductID: 7, WarehouseID: 3, StockQuantity: 0, IsActive: true})

	// 20 transfers of 1 against 10 units of stock: exactly 10 must win.
	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			to := uint(2)
			if i%2 == 1 {
				to = 3
			}
			_, errs[i] = s.Transfer(context.Background(), TransferInput{
				ProductID: 7, FromWarehouseID: 1, ToWarehouseID: to, Quantity: 1,
			})
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrInsufficientStock):
		default:
			t.Fatalf("unexpected transfer error: %v", err)
		}
	}
	if won != 10 {
		t.Errorf("winning transfers = %d, want 10", won)
	}

	src, _ := s.GetAvailable(context.Background(), 7, nil, 1)
	d1, _ := s.GetAvailable(context.Background(), 7, nil, 2)
	d2, _ := s.GetAvailable(context.Background(), 7, nil, 3)
	if src.Stock != 0 {
		t.Errorf("source stock = %d, want 0", src.Stock)
	}
	if total := src.Stock + d1.Stock + d2.Stock; total != 10 {
		t.Errorf("total stock across warehouses = %d, want 10", total)
	}
	if len(s.Movements()) != 20 {
		t.Errorf("movement count = %d, want 20 (2 per winning transfer)", len(s.Movements()))
	}
}

func TestRestock(t *testing.T) {
	s := seededStore(t)

	threshold := 5
	view, err := s.Restock(context.Background(), RestockInput{
		ProductID:   7,
		WarehouseID: 2,
		Quantity:    12,
		UnitCost:    decimal.NewFromInt(8),
		Threshold:   &threshold,
		Actor:       "tester",
	})
	if err != nil {
		t.Fatalf("Restock on fresh row: %v", err)
	}
	if view.Stock != 12 || view.Threshold != 5 {
		t.Errorf("fresh row stock/threshold = %d/%d, want 12/5", view.Stock, view.Threshold)
	}

	view, err = s.Restock(context.Background(), RestockInput{
		ProductID: 7, WarehouseID: 2, Quantity: 3,
	})
	if err != nil {
		t.Fatalf("Restock on existing row: %v", err)
	}
	if view.Stock != 15 {
		t.Errorf("stock after second restock = %d, want 15", view.Stock)
	}

	if _, err := s.Restock(context.Background(), RestockInput{ProductID: 7, WarehouseID: 2, Quantity: 0}); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("zero quantity restock error = %v, want ErrInvalidQuantity", err)
	}

	moves := s.Movements()
	if len(moves) != 2 {
		t.Fatalf("movement count = %d, want 2", len(moves))
	}
	for _, m := range moves {
		if m.Direction != models.MovementInbound || m.ReferenceType != models.ReferenceRestock {
			t.Errorf("restock movement = %s/%s, want inbound/restock", m.Direction, m.ReferenceType)
		}
	}
}

func TestVariantRowsAreIndependent(t *testing.T) {
	s := seededStore(t)
	red := uint(1)
	blue := uint(2)
	s.Seed(models.StockRecord{ProductID: 7, VariantID: &red, WarehouseID: 1, StockQuantity: 10, IsActive: true})
	s.Seed(models.StockRecord{ProductID: 7, VariantID: &blue, WarehouseID: 1, StockQuantity: 4, IsActive: true})

	if _, err := s.Transfer(context.Background(), TransferInput{
		ProductID: 7, VariantID: &red, FromWarehouseID: 1, ToWarehouseID: 2, Quantity: 6,
	}); err != nil {
		t.Fatalf("variant transfer: %v", err)
	}

	redView, _ := s.GetAvailable(context.Background(), 7, &red, 1)
	blueView, _ := s.GetAvailable(context.Background(), 7, &blue, 1)
	if redView.Stock != 4 {
		t.Errorf("red variant stock = %d, want 4", redView.Stock)
	}
	if blueView.Stock != 4 {
		t.Errorf("blue variant stock moved, = %d, want 4", blueView.Stock)
	}
	if _, err := s.GetAvailable(context.Background(), 7, nil, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("variant-less lookup should miss, got %v", err)
	}
}

func TestListBelowFloor(t *testing.T) {
	s := seededStore(t)
	s.Seed(models.StockRecord{ProductID: 1, WarehouseID: 2, StockQuantity: 0, IsActive: true})
	s.Seed(models.StockRecord{ProductID: 2, WarehouseID: 2, StockQuantity: 2, IsActive: true})
	s.Seed(models.StockRecord{ProductID: 3, WarehouseID: 2, StockQuantity: 3, IsActive: true})
	s.Seed(models.StockRecord{ProductID: 4, WarehouseID: 1, StockQuantity: 0, IsActive: true}) // zonal, not a candidate
	s.Seed(models.StockRecord{ProductID: 5, WarehouseID: 3, StockQuantity: 1, IsActive: false})

	rows, err := s.ListBelowFloor(context.Background(), models.WarehouseTypeDivision, 2)
	if err != nil {
		t.Fatalf("ListBelowFloor: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("candidate count = %d, want 2", len(rows))
	}
	for _, row := range rows {
		if row.WarehouseID != 2 {
			t.Errorf("candidate at warehouse %d, want only division warehouse 2", row.WarehouseID)
		}
		if row.StockQuantity > 2 {
			t.Errorf("candidate stock %d above floor 2", row.StockQuantity)
		}
	}
}
