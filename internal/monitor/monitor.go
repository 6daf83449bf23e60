package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stocktier-backend/internal/ledger"
	"stocktier-backend/internal/logger"
	"stocktier-backend/internal/models"

	"go.uber.org/zap"
)

const sweepActor = "low-stock-monitor"

// TransferRunner is the slice of the rebalancer the sweep uses.
type TransferRunner interface {
	SweepTransfer(ctx context.Context, row models.StockRecord, actor string) (*ledger.TransferResult, bool, error)
}

type Options struct {
	Floor        int           // stock_quantity <= Floor marks a candidate
	Cooldown     time.Duration // minimum gap between transfers for one row
	MaxTransfers int           // per-run cap, 0 = unlimited
	RowTimeout   time.Duration // per-row transfer deadline, 0 = none
}

type TransferredRow struct {
	ProductID   uint   `json:"product_id"`
	VariantID   *uint  `json:"variant_id,omitempty"`
	WarehouseID uint   `json:"warehouse_id"`
	Quantity    int    `json:"quantity"`
	ReferenceID string `json:"reference_id"`
	NewStock    int    `json:"new_stock"`
}

type SkippedRow struct {
	ProductID   uint   `json:"product_id"`
	VariantID   *uint  `json:"variant_id,omitempty"`
	WarehouseID uint   `json:"warehouse_id"`
	Reason      string `json:"reason"`
}

type FailedRow struct {
	ProductID   uint   `json:"product_id"`
	VariantID   *uint  `json:"variant_id,omitempty"`
	WarehouseID uint   `json:"warehouse_id"`
	Error       string `json:"error"`
}

type SweepSummary struct {
	TotalCandidates int              `json:"total_candidates"`
	Transferred     []TransferredRow `json:"transfers_performed"`
	Skipped         []SkippedRow     `json:"skipped"`
	Errors          []FailedRow      `json:"errors"`
	StartedAt       time.Time        `json:"started_at"`
	Duration        string           `json:"duration"`
}

// Monitor periodically scans division stock rows at or below the
// low-stock floor and asks the rebalancer to top each one up from its
// zonal parent. One row's failure never aborts the rest of the batch.
type Monitor struct {
	store      ledger.Store
	rebalancer TransferRunner
	opts       Options

	mu           sync.Mutex
	lastTransfer map[string]time.Time
}

func New(store ledger.Store, rebalancer TransferRunner, opts Options) *Monitor {
	return &Monitor{
		store:        store,
		rebalancer:   rebalancer,
		opts:         opts,
		lastTransfer: make(map[string]time.Time),
	}
}

// RunSweep scans and rebalances once. The returned error covers only
// the candidate scan; per-row outcomes live in the summary.
func (m *Monitor) RunSweep(ctx context.Context) (*SweepSummary, error) {
	started := time.Now()
	summary := &SweepSummary{
		Transferred: make([]TransferredRow, 0),
		Skipped:     make([]SkippedRow, 0),
		Errors:      make([]FailedRow, 0),
		StartedAt:   started,
	}

	rows, err := m.store.ListBelowFloor(ctx, models.WarehouseTypeDivision, m.opts.Floor)
	if err != nil {
		return nil, fmt.Errorf("scan low stock rows: %w", err)
	}
	summary.TotalCandidates = len(rows)

	for _, row := range rows {
		if m.opts.MaxTransfers > 0 && len(summary.Transferred) >= m.opts.MaxTransfers {
			summary.Skipped = append(summary.Skipped, skip(row, "per-run transfer cap reached"))
			continue
		}
		if !m.cooldownElapsed(row) {
			summary.Skipped = append(summary.Skipped, skip(row, "cooldown window not elapsed"))
			continue
		}

		rowCtx := ctx
		cancel := func() {}
		if m.opts.RowTimeout > 0 {
			// A timeout on one row must not cancel the rest of the
			// batch, so each row gets its own deadline off the parent.
			rowCtx, cancel = context.WithTimeout(ctx, m.opts.RowTimeout)
		}
		res, skipped, err := m.rebalancer.SweepTransfer(rowCtx, row, sweepActor)
		cancel()

		switch {
		case err != nil:
			summary.Errors = append(summary.Errors, FailedRow{
				ProductID:   row.ProductID,
				VariantID:   row.VariantID,
				WarehouseID: row.WarehouseID,
				Error:       err.Error(),
			})
		case skipped:
			summary.Skipped = append(summary.Skipped, skip(row, "parent zonal warehouse has insufficient stock"))
		default:
			m.recordTransfer(row)
			summary.Transferred = append(summary.Transferred, TransferredRow{
				ProductID:   row.ProductID,
				VariantID:   row.VariantID,
				WarehouseID: row.WarehouseID,
				Quantity:    res.Quantity,
				ReferenceID: res.ReferenceID,
				NewStock:    res.ToAfter.Stock,
			})
		}
	}

	summary.Duration = time.Since(started).String()
	logger.L.Info("low stock sweep finished",
		zap.Int("candidates", summary.TotalCandidates),
		zap.Int("transferred", len(summary.Transferred)),
		zap.Int("skipped", len(summary.Skipped)),
		zap.Int("errors", len(summary.Errors)),
		zap.String("duration", summary.Duration),
	)
	return summary, nil
}

// Run sweeps on an interval until ctx is done.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.RunSweep(ctx); err != nil {
				logger.L.Error("low stock sweep failed", zap.Error(err))
			}
		}
	}
}

// cooldownElapsed guards against runaway repeated transfers for the
// same row across overlapping scheduler runs. In-memory on purpose:
// the sweep carries no persisted marker, and after a restart the
// zonal availability check still bounds an early re-transfer.
func (m *Monitor) cooldownElapsed(row models.StockRecord) bool {
	if m.opts.Cooldown <= 0 {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	last, ok := m.lastTransfer[cooldownKey(row)]
	return !ok || time.Since(last) >= m.opts.Cooldown
}

func (m *Monitor) recordTransfer(row models.StockRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTransfer[cooldownKey(row)] = time.Now()
}

func cooldownKey(row models.StockRecord) string {
	if row.VariantID != nil {
		return fmt.Sprintf("%d:%d:%d", row.ProductID, *row.VariantID, row.WarehouseID)
	}
	return fmt.Sprintf("%d:-:%d", row.ProductID, row.WarehouseID)
}

func skip(row models.StockRecord, reason string) SkippedRow {
	return SkippedRow{
		ProductID:   row.ProductID,
		VariantID:   row.VariantID,
		WarehouseID: row.WarehouseID,
		Reason:      reason,
	}
}
