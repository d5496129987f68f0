// Package inventory 商品维护用例
//
// 所有改变库存的操作都在事务内锁行，并写一条adjustment流水，
// 保证 stock == Σ movement.quantity 始终成立。
package inventory

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xiebiao/minipos/internal/application"
	"github.com/xiebiao/minipos/internal/domain/category"
	"github.com/xiebiao/minipos/internal/domain/inventory"
	"github.com/xiebiao/minipos/internal/domain/movement"
)

// 流水备注
const (
	NoteInitialStock = "Stok awal saat input barang baru"
	NoteManualAdjust = "Penyesuaian stok manual"
)

// UseCase 商品用例
type UseCase struct {
	tx         application.Transactor
	items      inventory.Repository
	categories category.Repository
	movements  movement.Repository
}

func NewUseCase(
	tx application.Transactor,
	items inventory.Repository,
	categories category.Repository,
	movements movement.Repository,
) *UseCase {
	return &UseCase{tx: tx, items: items, categories: categories, movements: movements}
}

// ItemInput 新建或修改商品的输入
type ItemInput struct {
	SKU        string
	Name       string
	Price      int64
	Stock      int
	CategoryID uint
	Image      string
}

func (uc *UseCase) List(ctx context.Context, params inventory.ListParams) ([]*inventory.Item, int64, inventory.ListParams, error) {
	params = params.Normalize()
	params.Keyword = strings.TrimSpace(params.Keyword)
	items, total, err := uc.items.List(ctx, params)
	return items, total, params, err
}

func (uc *UseCase) Get(ctx context.Context, id uint) (*inventory.Item, error) {
	return uc.items.FindByID(ctx, id)
}

// Create 新建商品，初始库存>0时写一条 0 → stock 的调整流水
func (uc *UseCase) Create(ctx context.Context, in ItemInput, actorID uint) (*inventory.Item, error) {
	item := inventory.NewItem(in.SKU, in.Name, in.Price, in.Stock, in.CategoryID, in.Image, actorID)
	if err := item.Validate(); err != nil {
		return nil, err
	}

	err := uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		if _, err := uc.categories.FindByID(txCtx, item.CategoryID); err != nil {
			return err
		}
		if err := uc.items.Create(txCtx, item); err != nil {
			return err
		}
		if item.Stock == 0 {
			return nil
		}
		return uc.movements.CreateBatch(txCtx, []*movement.Movement{
			movement.NewAdjustment(item.ID, 0, item.Stock, actorID, NoteInitialStock),
		})
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("商品已创建", zap.Uint("id", item.ID), zap.String("sku", item.SKU), zap.Int("stock", item.Stock))
	return uc.items.FindByID(ctx, item.ID)
}

// Update 锁行后更新；库存变化时记录差额
func (uc *UseCase) Update(ctx context.Context, id uint, in ItemInput, actorID uint) (*inventory.Item, error) {
	err := uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		current, err := uc.items.LockByID(txCtx, id)
		if err != nil {
			return err
		}

		updated := inventory.NewItem(in.SKU, in.Name, in.Price, in.Stock, in.CategoryID, in.Image, actorID)
		if err := updated.Validate(); err != nil {
			return err
		}
		if updated.CategoryID != current.CategoryID {
			if _, err := uc.categories.FindByID(txCtx, updated.CategoryID); err != nil {
				return err
			}
		}
		updated.ID = current.ID
		updated.CreatedBy = current.CreatedBy
		updated.CreatedAt = current.CreatedAt

		if err := uc.items.Update(txCtx, updated); err != nil {
			return err
		}
		if updated.Stock == current.Stock {
			return nil
		}
		return uc.movements.CreateBatch(txCtx, []*movement.Movement{
			movement.NewAdjustment(id, current.Stock, updated.Stock, actorID, NoteManualAdjust),
		})
	})
	if err != nil {
		return nil, err
	}
	return uc.items.FindByID(ctx, id)
}

// Delete 软删除，流水保留
func (uc *UseCase) Delete(ctx context.Context, id uint) error {
	if err := uc.items.Delete(ctx, id); err != nil {
		return err
	}
	zap.L().Info("商品已删除", zap.Uint("id", id))
	return nil
}

// Movements 商品流水，最新的在前
func (uc *UseCase) Movements(ctx context.Context, id uint, limit int) ([]*movement.Movement, error) {
	if _, err := uc.items.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return uc.movements.ListByItem(ctx, id, limit)
}

// Reconcile 核对单个商品的库存与流水
func (uc *UseCase) Reconcile(ctx context.Context, id uint) (movement.Reconciliation, error) {
	item, err := uc.items.FindByID(ctx, id)
	if err != nil {
		return movement.Reconciliation{}, err
	}
	sum, err := uc.movements.Summarize(ctx, id)
	if err != nil {
		return movement.Reconciliation{}, err
	}
	rec := movement.Reconcile(item.Stock, sum)
	rec.ItemID = id
	return rec, nil
}
