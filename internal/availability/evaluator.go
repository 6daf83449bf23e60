package availability

import (
	"context"
	"errors"
	"fmt"

	"stocktier-backend/internal/cache"
	"stocktier-backend/internal/ledger"
	"stocktier-backend/internal/models"
)

const (
	divisionDeliveryDays = 1
	zonalDeliveryDays    = 3

	msgDivision     = "Delivered in 1 day"
	msgZonal        = "Delivered in 3-4 working days"
	msgNotAvailable = "Not available for this pincode"
)

// GeoSource is the pincode resolution the evaluator needs.
type GeoSource interface {
	ResolveDivision(pincode string) (*models.Warehouse, bool)
	ResolveZonalCandidates(pincode string) []models.Warehouse
}

// ProductSource is the catalog lookup the evaluator needs.
type ProductSource interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
}

// Verdict: availability answer for one product at one pincode. Not
// persisted; unavailability is a normal verdict, never an error.
type Verdict struct {
	ProductID         uint                 `json:"product_id"`
	VariantID         *uint                `json:"variant_id,omitempty"`
	Pincode           string               `json:"pincode"`
	Available         bool                 `json:"available"`
	WarehouseID       *uint                `json:"warehouse_id,omitempty"`
	WarehouseType     models.WarehouseType `json:"warehouse_type,omitempty"`
	AvailableQuantity int                  `json:"available_quantity"`
	DeliveryDays      int                  `json:"delivery_days"`
	Message           string               `json:"message"`
}

type CartItem struct {
	ProductID uint  `json:"product_id"`
	VariantID *uint `json:"variant_id,omitempty"`
	Quantity  int   `json:"quantity"`
}

type CartItemVerdict struct {
	Verdict
	RequestedQuantity int `json:"requested_quantity"`
}

type CartVerdict struct {
	AllAvailable    bool              `json:"all_available"`
	Items           []CartItemVerdict `json:"items"`
	MaxDeliveryDays int               `json:"max_delivery_days"`
}

// Evaluator produces availability verdicts. Read-only: it never
// reserves or locks stock, so a verdict is a quote, not a commit.
type Evaluator struct {
	geo     GeoSource
	store   ledger.Store
	catalog ProductSource
	cache   *cache.Cache
}

func NewEvaluator(geo GeoSource, store ledger.Store, catalog ProductSource, c *cache.Cache) *Evaluator {
	return &Evaluator{geo: geo, store: store, catalog: catalog, cache: c}
}

// CheckSingle: division tier first (any stock wins, 1 day), then the
// zonal candidates in configured order (3-4 working days). Division is
// always preferred when both tiers could serve.
func (e *Evaluator) CheckSingle(ctx context.Context, productID uint, variantID *uint, pincode string) (*Verdict, error) {
	if _, err := e.catalog.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	key := verdictKey(productID, variantID, pincode)
	var cached Verdict
	if e.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	v, err := e.evaluate(ctx, productID, variantID, pincode, 1)
	if err != nil {
		return nil, err
	}
	e.cache.SetJSON(ctx, key, v)
	return v, nil
}

// CheckCart evaluates every item independently against its requested
// quantity. No cross-item reservation happens here.
func (e *Evaluator) CheckCart(ctx context.Context, items []CartItem, pincode string) (*CartVerdict, error) {
	out := &CartVerdict{AllAvailable: true, Items: make([]CartItemVerdict, 0, len(items))}

	for _, item := range items {
		if _, err := e.catalog.GetProduct(ctx, item.ProductID); err != nil {
			return nil, err
		}
		v, err := e.evaluate(ctx, item.ProductID, item.VariantID, pincode, item.Quantity)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, CartItemVerdict{Verdict: *v, RequestedQuantity: item.Quantity})
		if !v.Available {
			out.AllAvailable = false
			continue
		}
		if v.DeliveryDays > out.MaxDeliveryDays {
			out.MaxDeliveryDays = v.DeliveryDays
		}
	}
	return out, nil
}

func (e *Evaluator) evaluate(ctx context.Context, productID uint, variantID *uint, pincode string, required int) (*Verdict, error) {
	v := &Verdict{
		ProductID: productID,
		VariantID: variantID,
		Pincode:   pincode,
		Message:   msgNotAvailable,
	}

	if division, ok := e.geo.ResolveDivision(pincode); ok {
		avail, err := e.availableAt(ctx, productID, variantID, division.ID)
		if err != nil {
			return nil, err
		}
		if avail >= required {
			v.Available = true
			v.WarehouseID = &division.ID
			v.WarehouseType = models.WarehouseTypeDivision
			v.AvailableQuantity = avail
			v.DeliveryDays = divisionDeliveryDays
			v.Message = msgDivision
			return v, nil
		}
	}

	for _, zonal := range e.geo.ResolveZonalCandidates(pincode) {
		avail, err := e.availableAt(ctx, productID, variantID, zonal.ID)
		if err != nil {
			return nil, err
		}
		if avail >= required {
			id := zonal.ID
			v.Available = true
			v.WarehouseID = &id
			v.WarehouseType = models.WarehouseTypeZonal
			v.AvailableQuantity = avail
			v.DeliveryDays = zonalDeliveryDays
			v.Message = msgZonal
			return v, nil
		}
	}

	return v, nil
}

// availableAt treats a missing stock row as zero availability.
func (e *Evaluator) availableAt(ctx context.Context, productID uint, variantID *uint, warehouseID uint) (int, error) {
	view, err := e.store.GetAvailable(ctx, productID, variantID, warehouseID)
	if errors.Is(err, ledger.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return view.Available, nil
}

func verdictKey(productID uint, variantID *uint, pincode string) string {
	if variantID != nil {
		return fmt.Sprintf("availability:p%d:v%d:%s", productID, *variantID, pincode)
	}
	return fmt.Sprintf("availability:p%d:v0:%s", productID, pincode)
}

// InvalidationPattern matches every cached verdict for a product, used
// after a transfer changes its stock.
func InvalidationPattern(productID uint) string {
	return fmt.Sprintf("availability:p%d:*", productID)
}
