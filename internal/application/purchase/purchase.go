// Package purchase 进货入库用例
package purchase

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xiebiao/minipos/internal/application"
	"github.com/xiebiao/minipos/internal/domain/inventory"
	"github.com/xiebiao/minipos/internal/domain/movement"
	"github.com/xiebiao/minipos/internal/domain/purchase"
	"github.com/xiebiao/minipos/internal/domain/supplier"
	"github.com/xiebiao/minipos/pkg/metrics"
	"github.com/xiebiao/minipos/pkg/tracing"
)

// UseCase 进货用例
type UseCase struct {
	tx        application.Transactor
	purchases purchase.Repository
	items     inventory.Repository
	suppliers supplier.Repository
	movements movement.Repository
}

func NewUseCase(
	tx application.Transactor,
	purchases purchase.Repository,
	items inventory.Repository,
	suppliers supplier.Repository,
	movements movement.Repository,
) *UseCase {
	return &UseCase{
		tx:        tx,
		purchases: purchases,
		items:     items,
		suppliers: suppliers,
		movements: movements,
	}
}

// Request 进货请求
type Request struct {
	SupplierID  uint
	InventoryID uint
	Quantity    int
	CostPrice   int64
	Notes       string
	ActorID     uint
}

// Create 锁定商品，写进货单，增加库存并追加purchase流水
func (uc *UseCase) Create(ctx context.Context, req Request) (p *purchase.Purchase, err error) {
	ctx, span := tracing.StartSpan(ctx, "purchase.Create",
		trace.WithAttributes(
			attribute.Int64("purchase.inventory_id", int64(req.InventoryID)),
			attribute.Int("purchase.quantity", req.Quantity),
		),
	)
	defer func() {
		tracing.EndSpan(span, err)
		metrics.PurchasesTotal.WithLabelValues(application.Outcome(err)).Inc()
	}()

	p, err = purchase.NewPurchase(req.SupplierID, req.InventoryID, req.Quantity, req.CostPrice, req.Notes, req.ActorID)
	if err != nil {
		return nil, err
	}

	err = uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		s, err := uc.suppliers.FindByID(txCtx, p.SupplierID)
		if err != nil {
			return err
		}
		item, err := uc.items.LockByID(txCtx, p.InventoryID)
		if err != nil {
			return err
		}

		if err := uc.purchases.Create(txCtx, p); err != nil {
			return err
		}
		if err := uc.items.AdjustStock(txCtx, item.ID, p.Quantity); err != nil {
			return err
		}
		if err := uc.movements.CreateBatch(txCtx, []*movement.Movement{
			movement.NewPurchase(item.ID, item.Stock, p.Quantity, p.ID, p.CreatedBy, p.Notes),
		}); err != nil {
			return err
		}

		p.SupplierName = s.Name
		p.InventoryName = item.Name
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("进货入库",
		zap.Uint("purchase_id", p.ID),
		zap.Uint("inventory_id", p.InventoryID),
		zap.Int("quantity", p.Quantity),
		zap.Int64("total_cost", p.TotalCost),
	)
	return p, nil
}

func (uc *UseCase) List(ctx context.Context, page, limit int) ([]*purchase.Purchase, int64, error) {
	return uc.purchases.List(ctx, page, limit)
}
