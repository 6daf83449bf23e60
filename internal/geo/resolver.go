package geo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"stocktier-backend/internal/logger"
	"stocktier-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// snapshot is one immutable view of the warehouse hierarchy and the
// pincode tables. Lookups never touch the database.
type snapshot struct {
	divisionByPincode map[string]models.Warehouse
	zoneByPincode     map[string]uint
	zonalsByZone      map[uint][]models.Warehouse // configured order
	parentByDivision  map[uint]models.Warehouse
	loadedAt          time.Time
}

// Resolver answers pincode -> warehouse questions from an in-memory
// snapshot, refreshed on a bounded interval. Pure lookup, no mutation;
// "not found" is an empty result, never an error.
type Resolver struct {
	db *gorm.DB

	mu   sync.RWMutex
	snap *snapshot
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db, snap: &snapshot{
		divisionByPincode: map[string]models.Warehouse{},
		zoneByPincode:     map[string]uint{},
		zonalsByZone:      map[uint][]models.Warehouse{},
		parentByDivision:  map[uint]models.Warehouse{},
	}}
}

// NewStatic builds a resolver over fixed tables; used by tests and
// seed tooling. It never refreshes.
func NewStatic(warehouses []models.Warehouse, mappings []models.PincodeMapping, links []models.ZoneWarehouse) *Resolver {
	return &Resolver{snap: buildSnapshot(warehouses, mappings, links)}
}

// Load rebuilds the snapshot from the database.
func (r *Resolver) Load(ctx context.Context) error {
	var warehouses []models.Warehouse
	if err := r.db.WithContext(ctx).Where("is_active = true").Find(&warehouses).Error; err != nil {
		return fmt.Errorf("load warehouses: %w", err)
	}

	var mappings []models.PincodeMapping
	if err := r.db.WithContext(ctx).Find(&mappings).Error; err != nil {
		return fmt.Errorf("load pincode mappings: %w", err)
	}

	var links []models.ZoneWarehouse
	if err := r.db.WithContext(ctx).Find(&links).Error; err != nil {
		return fmt.Errorf("load zone links: %w", err)
	}

	next := buildSnapshot(warehouses, mappings, links)

	r.mu.Lock()
	r.snap = next
	r.mu.Unlock()
	return nil
}

func buildSnapshot(warehouses []models.Warehouse, mappings []models.PincodeMapping, links []models.ZoneWarehouse) *snapshot {
	byID := make(map[uint]models.Warehouse, len(warehouses))
	for _, w := range warehouses {
		if w.IsActive {
			byID[w.ID] = w
		}
	}

	next := &snapshot{
		divisionByPincode: make(map[string]models.Warehouse),
		zoneByPincode:     make(map[string]uint),
		zonalsByZone:      make(map[uint][]models.Warehouse),
		parentByDivision:  make(map[uint]models.Warehouse),
		loadedAt:          time.Now(),
	}

	for _, m := range mappings {
		if m.DivisionWarehouseID != nil {
			if w, ok := byID[*m.DivisionWarehouseID]; ok && w.IsDivision() {
				next.divisionByPincode[m.Pincode] = w
			}
		}
		if m.ZoneID != nil {
			next.zoneByPincode[m.Pincode] = *m.ZoneID
		}
	}

	sort.Slice(links, func(i, j int) bool {
		if links[i].ZoneID != links[j].ZoneID {
			return links[i].ZoneID < links[j].ZoneID
		}
		if links[i].Position != links[j].Position {
			return links[i].Position < links[j].Position
		}
		return links[i].ID < links[j].ID
	})
	for _, l := range links {
		if w, ok := byID[l.WarehouseID]; ok && w.IsZonal() {
			next.zonalsByZone[l.ZoneID] = append(next.zonalsByZone[l.ZoneID], w)
		}
	}

	for _, w := range warehouses {
		if w.IsActive && w.IsDivision() && w.ParentWarehouseID != nil {
			if p, ok := byID[*w.ParentWarehouseID]; ok && p.IsZonal() {
				next.parentByDivision[w.ID] = p
			}
		}
	}

	return next
}

// Run refreshes the snapshot on an interval until ctx is done. A
// failed refresh keeps the last good snapshot.
func (r *Resolver) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Load(ctx); err != nil {
				logger.L.Warn("geo snapshot refresh failed, keeping previous", zap.Error(err))
			}
		}
	}
}

func (r *Resolver) current() *snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// ResolveDivision returns the division warehouse directly serving the
// pincode, if one is mapped.
func (r *Resolver) ResolveDivision(pincode string) (*models.Warehouse, bool) {
	w, ok := r.current().divisionByPincode[pincode]
	if !ok {
		return nil, false
	}
	return &w, true
}

// ResolveZonalCandidates returns the zonal warehouses serving the
// pincode's zone, in configured order. Empty when the pincode has no
// zone mapping.
func (r *Resolver) ResolveZonalCandidates(pincode string) []models.Warehouse {
	snap := r.current()
	zoneID, ok := snap.zoneByPincode[pincode]
	if !ok {
		return nil
	}
	return snap.zonalsByZone[zoneID]
}

// ParentZonal returns the configured zonal parent of a division
// warehouse.
func (r *Resolver) ParentZonal(divisionID uint) (*models.Warehouse, bool) {
	p, ok := r.current().parentByDivision[divisionID]
	if !ok {
		return nil, false
	}
	return &p, true
}
