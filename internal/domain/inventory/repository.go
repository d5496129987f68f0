package inventory

import (
	"context"
)

// Repository 商品仓储接口
// 写操作与Lock*方法只有在事务上下文中调用才有意义（见TxManager）
type Repository interface {
	Create(ctx context.Context, item *Item) error

	// FindByID 查询未删除的商品，不存在返回ErrItemNotFound
	FindByID(ctx context.Context, id uint) (*Item, error)

	// Update 更新商品信息（包括库存的绝对值，仅用于人工调整）
	Update(ctx context.Context, item *Item) error

	// Delete 软删除
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, params ListParams) ([]*Item, int64, error)

	// ListAll 全部未删除商品（对账使用）
	ListAll(ctx context.Context) ([]*Item, error)

	// LockByID SELECT ... FOR UPDATE 锁定单行
	LockByID(ctx context.Context, id uint) (*Item, error)

	// LockByIDs 按ID升序锁定多行，不存在的ID不会出现在结果中
	// 固定加锁顺序，避免两个结账交叉锁行导致死锁
	LockByIDs(ctx context.Context, ids []uint) ([]*Item, error)

	// AdjustStock 原子增减库存，delta<0时库存不足返回ErrInsufficientStock
	AdjustStock(ctx context.Context, id uint, delta int) error
}

// 排序字段白名单
const (
	SortByID       = "id"
	SortBySKU      = "sku"
	SortByName     = "name"
	SortByPrice    = "price"
	SortByStock    = "stock"
	SortByCategory = "category"
)

// ListParams 列表查询参数
type ListParams struct {
	Page       int
	Limit      int
	Keyword    string // 匹配名称或SKU
	CategoryID uint
	SortBy     string
	Desc       bool
}

// Normalize 填充默认值并过滤非法排序字段
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	switch p.SortBy {
	case SortByID, SortBySKU, SortByName, SortByPrice, SortByStock, SortByCategory:
	default:
		p.SortBy = SortByID
	}
	return p
}

// Offset 分页偏移量
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}
