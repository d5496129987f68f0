// Package checkout 收银结账用例
package checkout

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xiebiao/minipos/internal/application"
	"github.com/xiebiao/minipos/internal/domain/inventory"
	"github.com/xiebiao/minipos/internal/domain/movement"
	"github.com/xiebiao/minipos/internal/domain/sale"
	apperrors "github.com/xiebiao/minipos/pkg/errors"
	"github.com/xiebiao/minipos/pkg/metrics"
	"github.com/xiebiao/minipos/pkg/tracing"
)

// EventPublisher 提交后的销售事件出口，实现方不得阻塞调用方
type EventPublisher interface {
	SaleCompleted(s *sale.Sale)
}

// Options 结账策略
type Options struct {
	InvoiceRetries    int           // 单号冲突后重试次数
	AllowUnderpayment bool          // 为true时实付不足照常成交，找零为负
	IdempotencyTTL    time.Duration // 幂等键保留时长
	PendingTTL        time.Duration // 处理中标记的保留时长，登记失败时到期自动释放
}

// DefaultOptions 冲突重试一次，拒绝少付
func DefaultOptions() Options {
	return Options{InvoiceRetries: 1, IdempotencyTTL: 24 * time.Hour, PendingTTL: 2 * time.Minute}
}

// UseCase 结账用例
//
// 一次结账在单个事务内完成：按ID升序锁定商品行，校验存在与库存，
// 写入销售单、明细和库存流水并扣减库存。任一步失败整体回滚。
type UseCase struct {
	tx        application.Transactor
	items     inventory.Repository
	sales     sale.Repository
	movements movement.Repository

	idempotency sale.IdempotencyStore // 可为nil
	events      EventPublisher        // 可为nil
	opts        Options

	invoiceNo func() string
}

// NewUseCase 创建结账用例
func NewUseCase(
	tx application.Transactor,
	items inventory.Repository,
	sales sale.Repository,
	movements movement.Repository,
	idempotency sale.IdempotencyStore,
	events EventPublisher,
	opts Options,
) *UseCase {
	if opts.InvoiceRetries < 0 {
		opts.InvoiceRetries = 0
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = DefaultOptions().IdempotencyTTL
	}
	if opts.PendingTTL <= 0 {
		opts.PendingTTL = DefaultOptions().PendingTTL
	}
	if opts.PendingTTL > opts.IdempotencyTTL {
		opts.PendingTTL = opts.IdempotencyTTL
	}
	return &UseCase{
		tx:          tx,
		items:       items,
		sales:       sales,
		movements:   movements,
		idempotency: idempotency,
		events:      events,
		opts:        opts,
		invoiceNo:   sale.GenerateInvoiceNo,
	}
}

// Request 结账请求
type Request struct {
	CashierID      uint
	Lines          []sale.Line
	Paid           int64
	IdempotencyKey string
}

// Result 结账结果
// Replayed为true表示按幂等键返回了先前已提交的销售单
type Result struct {
	Sale     *sale.Sale
	Replayed bool
}

// Execute 执行结账
func (uc *UseCase) Execute(ctx context.Context, req Request) (result *Result, err error) {
	ctx, span := tracing.StartSpan(ctx, "checkout.Execute",
		trace.WithAttributes(attribute.Int("checkout.lines", len(req.Lines))),
	)
	defer func() { tracing.EndSpan(span, err) }()

	start := time.Now()
	metrics.IncGauge(metrics.CheckoutsInProgress)
	defer metrics.DecGauge(metrics.CheckoutsInProgress)

	result, err = uc.execute(ctx, req)

	outcome := application.Outcome(err)
	itemsSold := 0
	switch {
	case err != nil:
	case result.Replayed:
		outcome = metrics.ResultReplayed
	default:
		itemsSold = result.Sale.ItemCount()
		span.SetAttributes(attribute.String("checkout.invoice_no", result.Sale.InvoiceNo))
	}
	metrics.RecordCheckout(outcome, time.Since(start).Seconds(), itemsSold)

	if err != nil {
		logCheckoutError(req, outcome, err)
	}
	return result, err
}

func (uc *UseCase) execute(ctx context.Context, req Request) (*Result, error) {
	lines, err := sale.MergeLines(req.Lines)
	if err != nil {
		return nil, err
	}
	if req.Paid < 0 {
		return nil, sale.ErrInvalidPaid
	}

	key := req.IdempotencyKey
	if key != "" && uc.idempotency != nil {
		replay, held, err := uc.reserve(ctx, key, sale.Fingerprint(req.CashierID, lines, req.Paid))
		if err != nil || replay != nil {
			return replay, err
		}
		if !held {
			key = ""
		}
	} else {
		key = ""
	}

	s, err := uc.commit(ctx, req.CashierID, lines, req.Paid)
	if err != nil {
		if key != "" {
			if relErr := uc.idempotency.Release(context.WithoutCancel(ctx), key); relErr != nil {
				zap.L().Warn("释放幂等键失败", zap.String("key", key), zap.Error(relErr))
			}
		}
		return nil, err
	}

	if key != "" {
		uc.complete(context.WithoutCancel(ctx), key, s.InvoiceNo)
	}

	zap.L().Info("结账成功",
		zap.String("invoice_no", s.InvoiceNo),
		zap.Uint("cashier_id", s.CashierID),
		zap.Int64("total", s.Total),
		zap.Int64("paid", s.Paid),
		zap.Int("lines", len(s.Items)),
	)

	if uc.events != nil {
		uc.events.SaleCompleted(s)
	}
	return &Result{Sale: s}, nil
}

// complete 登记已成交的单号，失败重试一次
// 仍失败时key保持处理中，PendingTTL到期后自动释放
func (uc *UseCase) complete(ctx context.Context, key, invoiceNo string) {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if err = uc.idempotency.Complete(ctx, key, invoiceNo, uc.opts.IdempotencyTTL); err == nil {
			return
		}
	}
	zap.L().Warn("登记幂等键失败",
		zap.String("key", key),
		zap.String("invoice_no", invoiceNo),
		zap.Duration("pending_ttl", uc.opts.PendingTTL),
		zap.Error(err),
	)
}

// reserve 占用幂等键
// 返回replay非nil表示直接返回先前的销售单；held为false表示未持有key（存储不可用时降级为不幂等）
func (uc *UseCase) reserve(ctx context.Context, key, fingerprint string) (replay *Result, held bool, err error) {
	r, err := uc.idempotency.Reserve(ctx, key, fingerprint, uc.opts.PendingTTL)
	if err != nil {
		zap.L().Warn("幂等键存储不可用，按普通结账处理", zap.String("key", key), zap.Error(err))
		return nil, false, nil
	}
	if r.Acquired {
		return nil, true, nil
	}
	if r.Fingerprint != fingerprint {
		return nil, false, sale.ErrIdempotencyMismatch
	}
	if r.InvoiceNo == "" {
		return nil, false, sale.ErrCheckoutInProgress
	}

	s, err := uc.sales.FindByInvoiceNo(ctx, r.InvoiceNo)
	if err != nil {
		return nil, false, err
	}
	return &Result{Sale: s, Replayed: true}, false, nil
}

// commit 锁行、校验并写入，返回已提交的销售单
func (uc *UseCase) commit(ctx context.Context, cashierID uint, lines []sale.MergedLine, paid int64) (*sale.Sale, error) {
	var committed *sale.Sale

	err := uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		locked, err := uc.items.LockByIDs(txCtx, sale.ItemIDs(lines))
		if err != nil {
			return err
		}
		byID := make(map[uint]*inventory.Item, len(locked))
		for _, it := range locked {
			byID[it.ID] = it
		}

		items := make([]sale.Item, 0, len(lines))
		for _, line := range lines {
			it, ok := byID[line.ItemID]
			if !ok {
				return inventory.ErrProductUnavailable.WithMessage("商品 %d 不存在或已下架", line.ItemID)
			}
			if !it.CanFulfill(line.Qty) {
				return inventory.NewInsufficientStockError(it.Name, it.Stock, line.Qty)
			}
			items = append(items, sale.NewItem(it.ID, it.Name, it.Price, line.Qty, it.Stock))
		}

		s := sale.NewSale("", cashierID, items, paid)
		if err := s.CheckAmounts(); err != nil {
			return err
		}
		if s.Underpaid() && !uc.opts.AllowUnderpayment {
			return sale.NewUnderpaidError(s.Total, s.Paid)
		}

		if err := uc.createSale(txCtx, s); err != nil {
			return err
		}

		movements := make([]*movement.Movement, 0, len(s.Items))
		for _, item := range s.Items {
			if err := uc.items.AdjustStock(txCtx, item.InventoryID, -item.Qty); err != nil {
				return err
			}
			movements = append(movements, movement.NewSale(item.InventoryID, item.StockBefore, item.Qty, s.ID, cashierID))
		}
		if err := uc.movements.CreateBatch(txCtx, movements); err != nil {
			return err
		}

		committed = s
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.ErrTransient.WithErr(err)
	}
	return committed, nil
}

// createSale 写入销售单，单号冲突时换后缀重试
// MySQL唯一键冲突只回滚当前语句，已持有的行锁保持不变
func (uc *UseCase) createSale(ctx context.Context, s *sale.Sale) error {
	var err error
	for attempt := 0; attempt <= uc.opts.InvoiceRetries; attempt++ {
		s.InvoiceNo = uc.invoiceNo()
		err = uc.sales.Create(ctx, s)
		if !errors.Is(err, sale.ErrInvoiceCollision) {
			return err
		}
		metrics.IncCounter(metrics.InvoiceCollisionsTotal)
		zap.L().Warn("销售单号冲突", zap.String("invoice_no", s.InvoiceNo), zap.Int("attempt", attempt+1))
	}
	return apperrors.ErrTransient.WithErr(err)
}

func logCheckoutError(req Request, outcome string, err error) {
	fields := []zap.Field{
		zap.Uint("cashier_id", req.CashierID),
		zap.Int("lines", len(req.Lines)),
		zap.String("result", outcome),
		zap.Error(err),
	}
	if outcome == metrics.ResultRejected {
		zap.L().Info("结账被拒绝", fields...)
		return
	}
	zap.L().Error("结账失败", fields...)
}
