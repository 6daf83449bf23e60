package geo

import (
	"testing"

	"stocktier-backend/internal/models"
)

func uptr(v uint) *uint { return &v }

func testResolver() *Resolver {
	warehouses := []models.Warehouse{
		{ID: 1, Code: "Z-NORTH", Type: models.WarehouseTypeZonal, IsActive: true},
		{ID: 2, Code: "Z-EAST", Type: models.WarehouseTypeZonal, IsActive: true},
		{ID: 10, Code: "D-LKO", Type: models.WarehouseTypeDivision, ParentWarehouseID: uptr(1), IsActive: true},
		{ID: 11, Code: "D-KNP", Type: models.WarehouseTypeDivision, IsActive: true}, // no parent
		{ID: 12, Code: "D-OLD", Type: models.WarehouseTypeDivision, ParentWarehouseID: uptr(1), IsActive: false},
	}
	mappings := []models.PincodeMapping{
		{Pincode: "226001", DivisionWarehouseID: uptr(10), ZoneID: uptr(5)},
		{Pincode: "226002", ZoneID: uptr(5)},
		{Pincode: "208001", DivisionWarehouseID: uptr(11)},
		{Pincode: "999001", DivisionWarehouseID: uptr(12)}, // inactive warehouse
	}
	links := []models.ZoneWarehouse{
		{ID: 1, ZoneID: 5, WarehouseID: 2, Position: 2},
		{ID: 2, ZoneID: 5, WarehouseID: 1, Position: 1},
	}
	return NewStatic(warehouses, mappings, links)
}

func TestResolveDivision(t *testing.T) {
	r := testResolver()

	tests := []struct {
		name    string
		pincode string
		wantID  uint
		wantOK  bool
	}{
		{"mapped pincode", "226001", 10, true},
		{"zone-only pincode", "226002", 0, false},
		{"unknown pincode", "110001", 0, false},
		{"inactive division warehouse", "999001", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := r.ResolveDivision(tt.pincode)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && w.ID != tt.wantID {
				t.Errorf("warehouse id = %d, want %d", w.ID, tt.wantID)
			}
		})
	}
}

func TestResolveZonalCandidatesOrder(t *testing.T) {
	r := testResolver()

	// Position decides the order, not link insertion order.
	candidates := r.ResolveZonalCandidates("226002")
	if len(candidates) != 2 {
		t.Fatalf("candidate count = %d, want 2", len(candidates))
	}
	if candidates[0].ID != 1 || candidates[1].ID != 2 {
		t.Errorf("candidate order = [%d %d], want [1 2]", candidates[0].ID, candidates[1].ID)
	}

	if got := r.ResolveZonalCandidates("208001"); len(got) != 0 {
		t.Errorf("pincode without a zone returned %d candidates, want 0", len(got))
	}
	if got := r.ResolveZonalCandidates("110001"); len(got) != 0 {
		t.Errorf("unknown pincode returned %d candidates, want 0", len(got))
	}
}

func TestParentZonal(t *testing.T) {
	r := testResolver()

	parent, ok := r.ParentZonal(10)
	if !ok {
		t.Fatal("division 10 should have a zonal parent")
	}
	if parent.ID != 1 {
		t.Errorf("parent id = %d, want 1", parent.ID)
	}

	if _, ok := r.ParentZonal(11); ok {
		t.Error("division 11 has no parent configured, lookup must miss")
	}
	if _, ok := r.ParentZonal(12); ok {
		t.Error("inactive division must not resolve a parent")
	}
}
