package dto

import (
	"time"

	"github.com/xiebiao/minipos/internal/domain/sale"
)

// CheckoutRequest 收银结账请求
// 1. items的id、qty是否为正整数由领域层校验，返回 items[i].qty 这样的定位信息
// 2. change字段只为兼容前端，服务端总是自行计算找零
type CheckoutRequest struct {
	Items  []CheckoutLine `json:"items"`
	Paid   *int64         `json:"paid" binding:"required" example:"50000"`
	Change *int64         `json:"change,omitempty" swaggerignore:"true"`
}

type CheckoutLine struct {
	ID  int64 `json:"id" example:"1"`
	Qty int64 `json:"qty" example:"2"`
}

// Lines 转为领域层的结账行
func (r CheckoutRequest) Lines() []sale.Line {
	lines := make([]sale.Line, len(r.Items))
	for i, item := range r.Items {
		lines[i] = sale.Line{ItemID: item.ID, Qty: item.Qty}
	}
	return lines
}

// SaleResponse 销售单
// 字段名沿用收银前端使用的camelCase
type SaleResponse struct {
	ID          uint               `json:"id" example:"12"`
	InvoiceNo   string             `json:"invoiceNo" example:"TRX-20240315-143005-042"`
	Total       int64              `json:"total" example:"47000"`
	Paid        int64              `json:"paid" example:"50000"`
	Change      int64              `json:"change" example:"3000"`
	CashierID   uint               `json:"cashierId"`
	CashierName string             `json:"cashierName,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	Items       []SaleItemResponse `json:"items"`
}

// SaleItemResponse stock为成交前库存
type SaleItemResponse struct {
	ID       uint   `json:"id" example:"1"`
	Name     string `json:"name" example:"Indomie Goreng"`
	Price    int64  `json:"price" example:"3500"`
	Stock    int    `json:"stock" example:"50"`
	Qty      int    `json:"qty" example:"10"`
	Subtotal int64  `json:"subtotal" example:"35000"`
}

func NewSaleResponse(s *sale.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(s.Items))
	for i, it := range s.Items {
		items[i] = SaleItemResponse{
			ID:       it.InventoryID,
			Name:     it.Name,
			Price:    it.Price,
			Stock:    it.StockBefore,
			Qty:      it.Qty,
			Subtotal: it.Subtotal,
		}
	}
	return SaleResponse{
		ID:          s.ID,
		InvoiceNo:   s.InvoiceNo,
		Total:       s.Total,
		Paid:        s.Paid,
		Change:      s.Change,
		CashierID:   s.CashierID,
		CashierName: s.CashierName,
		CreatedAt:   s.CreatedAt,
		Items:       items,
	}
}

func NewSaleList(ss []*sale.Sale) []SaleResponse {
	out := make([]SaleResponse, len(ss))
	for i, s := range ss {
		out[i] = NewSaleResponse(s)
	}
	return out
}

// ListSalesRequest 销售单列表
type ListSalesRequest struct {
	Page      int  `form:"page" binding:"omitempty,min=1"`
	Limit     int  `form:"limit" binding:"omitempty,min=1,max=100"`
	CashierID uint `form:"cashier_id"`
}
