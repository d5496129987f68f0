// Package ledger 库存流水对账
package ledger

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/minipos/internal/domain/inventory"
	"github.com/xiebiao/minipos/internal/domain/movement"
	"github.com/xiebiao/minipos/pkg/metrics"
)

// Report 一次全量对账的结果
type Report struct {
	CheckedAt  time.Time                 `json:"checked_at"`
	Items      int                       `json:"items"`
	Mismatches []movement.Reconciliation `json:"mismatches"`
}

// AuditUseCase 核对每个商品 stock == Σ quantity 且最后一条流水的after等于stock
type AuditUseCase struct {
	items     inventory.Repository
	movements movement.Repository
}

func NewAuditUseCase(items inventory.Repository, movements movement.Repository) *AuditUseCase {
	return &AuditUseCase{items: items, movements: movements}
}

// Run 执行对账，不一致的商品数写入ledger_mismatched_items
func (uc *AuditUseCase) Run(ctx context.Context) (*Report, error) {
	items, err := uc.items.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	summaries, err := uc.movements.SummarizeAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{CheckedAt: time.Now(), Items: len(items), Mismatches: []movement.Reconciliation{}}
	for _, item := range items {
		rec := movement.Reconcile(item.Stock, summaries[item.ID])
		rec.ItemID = item.ID
		if rec.Consistent {
			continue
		}
		report.Mismatches = append(report.Mismatches, rec)
		zap.L().Error("库存与流水不一致",
			zap.Uint("item_id", item.ID),
			zap.String("sku", item.SKU),
			zap.Int("stock", rec.Stock),
			zap.Int("ledger_sum", rec.LedgerSum),
		)
	}

	metrics.SetGauge(metrics.LedgerMismatchedItems, float64(len(report.Mismatches)))
	zap.L().Info("库存对账完成", zap.Int("items", report.Items), zap.Int("mismatches", len(report.Mismatches)))
	return report, nil
}
