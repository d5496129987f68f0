package movement

import (
	"time"
)

// Type 库存变动类型
type Type string

const (
	TypeSale       Type = "sale"
	TypePurchase   Type = "purchase"
	TypeAdjustment Type = "adjustment"
)

// 关联单据类型
const (
	RefSale     = "sale"
	RefPurchase = "purchase"
)

// Movement 库存流水（只追加，不更新不删除）
// 不变量：StockAfter == StockBefore + Quantity
type Movement struct {
	ID            uint
	ItemID        uint
	Type          Type
	Quantity      int // 有符号，出库为负
	StockBefore   int
	StockAfter    int
	ReferenceID   uint // 0表示无关联单据
	ReferenceType string
	Notes         string
	CreatedBy     uint
	CreatedByName string // 查询时关联出的操作人姓名
	CreatedAt     time.Time
}

// NewSale 销售出库流水
func NewSale(itemID uint, before, qty int, saleID, actorID uint) *Movement {
	return &Movement{
		ItemID:        itemID,
		Type:          TypeSale,
		Quantity:      -qty,
		StockBefore:   before,
		StockAfter:    before - qty,
		ReferenceID:   saleID,
		ReferenceType: RefSale,
		CreatedBy:     actorID,
		CreatedAt:     time.Now(),
	}
}

// NewPurchase 进货入库流水
func NewPurchase(itemID uint, before, qty int, purchaseID, actorID uint, notes string) *Movement {
	return &Movement{
		ItemID:        itemID,
		Type:          TypePurchase,
		Quantity:      qty,
		StockBefore:   before,
		StockAfter:    before + qty,
		ReferenceID:   purchaseID,
		ReferenceType: RefPurchase,
		Notes:         notes,
		CreatedBy:     actorID,
		CreatedAt:     time.Now(),
	}
}

// NewAdjustment 人工调整流水（新建商品的初始库存也记为调整）
func NewAdjustment(itemID uint, before, after int, actorID uint, notes string) *Movement {
	return &Movement{
		ItemID:      itemID,
		Type:        TypeAdjustment,
		Quantity:    after - before,
		StockBefore: before,
		StockAfter:  after,
		Notes:       notes,
		CreatedBy:   actorID,
		CreatedAt:   time.Now(),
	}
}

// Balanced 单条流水自洽
func (m *Movement) Balanced() bool {
	return m.StockAfter == m.StockBefore+m.Quantity
}
