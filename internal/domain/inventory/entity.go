package inventory

import (
	"strings"
	"time"
)

// Item 库存商品（聚合根）
// 1. Price使用int64存储最小货币单位，避免浮点误差
// 2. Stock是唯一存在并发竞争的字段，只能在事务内锁行后修改
// 3. CategoryName是查询时关联出的冗余字段，不持久化
type Item struct {
	ID           uint
	SKU          string
	Name         string
	Price        int64
	Stock        int
	CategoryID   uint
	CategoryName string
	Image        string
	CreatedBy    uint
	UpdatedBy    uint
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewItem 创建商品（工厂方法），字段会被裁剪空白
func NewItem(sku, name string, price int64, stock int, categoryID uint, image string, actorID uint) *Item {
	now := time.Now()
	return &Item{
		SKU:        strings.TrimSpace(sku),
		Name:       strings.TrimSpace(name),
		Price:      price,
		Stock:      stock,
		CategoryID: categoryID,
		Image:      strings.TrimSpace(image),
		CreatedBy:  actorID,
		UpdatedBy:  actorID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// MaxPrice 单价上限，与sale中的数量上限相乘仍在int64范围内
const MaxPrice int64 = 1_000_000_000_000

// Validate 校验商品基本信息
func (i *Item) Validate() error {
	switch {
	case i.SKU == "":
		return ErrSKURequired
	case i.Name == "":
		return ErrNameRequired
	case i.Price <= 0 || i.Price > MaxPrice:
		return ErrInvalidPrice
	case i.Stock < 0:
		return ErrInvalidStock
	case i.CategoryID == 0:
		return ErrCategoryRequired
	}
	return nil
}

// CanFulfill 当前库存能否满足qty
func (i *Item) CanFulfill(qty int) bool {
	return qty > 0 && qty <= i.Stock
}

// Subtotal 按当前单价计算小计
func (i *Item) Subtotal(qty int) int64 {
	return i.Price * int64(qty)
}
