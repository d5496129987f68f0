package sale

import (
	"math"
	"time"
)

// Sale 销售单（聚合根），创建后不可修改
// 不变量：Total == Σ Items[i].Subtotal
type Sale struct {
	ID          uint
	InvoiceNo   string
	Total       int64
	Paid        int64
	Change      int64
	CashierID   uint
	CashierName string
	Items       []Item
	CreatedAt   time.Time
}

// Item 销售明细，名称和单价是成交时的快照
type Item struct {
	ID          uint
	SaleID      uint
	InventoryID uint
	Name        string
	Price       int64
	Qty         int
	Subtotal    int64
	StockBefore int // 成交前库存
}

// NewItem 按成交时的商品信息生成明细
func NewItem(inventoryID uint, name string, price int64, qty, stockBefore int) Item {
	return Item{
		InventoryID: inventoryID,
		Name:        name,
		Price:       price,
		Qty:         qty,
		Subtotal:    price * int64(qty),
		StockBefore: stockBefore,
	}
}

// NewSale 创建销售单，总额由明细计算，找零 = 实付 - 总额
func NewSale(invoiceNo string, cashierID uint, items []Item, paid int64) *Sale {
	s := &Sale{
		InvoiceNo: invoiceNo,
		Paid:      paid,
		CashierID: cashierID,
		Items:     items,
		CreatedAt: time.Now(),
	}
	s.Total = s.CalculateTotal()
	s.Change = s.Paid - s.Total
	return s
}

// CalculateTotal Σ subtotal
func (s *Sale) CalculateTotal() int64 {
	var total int64
	for _, item := range s.Items {
		total += item.Subtotal
	}
	return total
}

// CheckAmounts 按单价和数量重新核算，任一小计或总额溢出int64即拒绝
// 必须在使用Total、Change之前调用
func (s *Sale) CheckAmounts() error {
	var total int64
	for _, item := range s.Items {
		if item.Price < 0 || item.Qty < 0 {
			return ErrAmountOutOfRange.WithMessage("商品 %s 金额超出范围", item.Name)
		}
		if item.Qty > 0 && item.Price > math.MaxInt64/int64(item.Qty) {
			return ErrAmountOutOfRange.WithMessage("商品 %s 金额超出范围", item.Name)
		}
		subtotal := item.Price * int64(item.Qty)
		if total > math.MaxInt64-subtotal {
			return ErrAmountOutOfRange.WithMessage("销售单总额超出范围")
		}
		total += subtotal
	}
	return nil
}

// ItemCount 售出件数
func (s *Sale) ItemCount() int {
	n := 0
	for _, item := range s.Items {
		n += item.Qty
	}
	return n
}

// Underpaid 实付不足
func (s *Sale) Underpaid() bool {
	return s.Paid < s.Total
}
