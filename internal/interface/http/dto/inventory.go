package dto

import (
	"time"

	"github.com/xiebiao/minipos/internal/domain/inventory"
	"github.com/xiebiao/minipos/internal/domain/movement"
)

// ListInventoryRequest 商品列表查询参数
// order只接受asc/desc，非法的sort_by按id排序
type ListInventoryRequest struct {
	Q          string `form:"q" binding:"max=100" example:"indomie"`
	Page       int    `form:"page" binding:"omitempty,min=1" example:"1"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=100" example:"10"`
	CategoryID uint   `form:"category_id" example:"1"`
	SortBy     string `form:"sort_by" example:"name"`
	Order      string `form:"order" binding:"omitempty,oneof=asc desc ASC DESC" example:"asc"`
}

// ToParams 转为仓储查询参数
func (r ListInventoryRequest) ToParams() inventory.ListParams {
	return inventory.ListParams{
		Page:       r.Page,
		Limit:      r.Limit,
		Keyword:    r.Q,
		CategoryID: r.CategoryID,
		SortBy:     r.SortBy,
		Desc:       r.Order == "desc" || r.Order == "DESC",
	}
}

// InventoryRequest 新建/修改商品
// 价格、库存、分类的业务校验在应用层完成，这里只做格式约束
type InventoryRequest struct {
	SKU        string `json:"sku" binding:"required,max=50" example:"SKU-0005"`
	Name       string `json:"name" binding:"required,max=200" example:"Mie Instan Goreng"`
	Price      int64  `json:"price" example:"3600"`
	Stock      int    `json:"stock" example:"90"`
	CategoryID uint   `json:"category_id" example:"1"`
	Image      string `json:"image" binding:"max=500"`
}

// InventoryResponse 商品
type InventoryResponse struct {
	ID           uint      `json:"id"`
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	Price        int64     `json:"price"`
	Stock        int       `json:"stock"`
	CategoryID   uint      `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Image        string    `json:"image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewInventoryResponse(i *inventory.Item) InventoryResponse {
	return InventoryResponse{
		ID:           i.ID,
		SKU:          i.SKU,
		Name:         i.Name,
		Price:        i.Price,
		Stock:        i.Stock,
		CategoryID:   i.CategoryID,
		CategoryName: i.CategoryName,
		Image:        i.Image,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

func NewInventoryList(items []*inventory.Item) []InventoryResponse {
	out := make([]InventoryResponse, len(items))
	for i, item := range items {
		out[i] = NewInventoryResponse(item)
	}
	return out
}

// MovementResponse 库存流水
type MovementResponse struct {
	ID            uint      `json:"id"`
	InventoryID   uint      `json:"inventory_id"`
	MovementType  string    `json:"movement_type" example:"sale"`
	Quantity      int       `json:"quantity" example:"-2"`
	StockBefore   int       `json:"stock_before"`
	StockAfter    int       `json:"stock_after"`
	ReferenceID   *uint     `json:"reference_id"`
	ReferenceType string    `json:"reference_type,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedBy     uint      `json:"created_by"`
	CreatedByName string    `json:"created_by_name"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewMovementList(ms []*movement.Movement) []MovementResponse {
	out := make([]MovementResponse, len(ms))
	for i, m := range ms {
		out[i] = MovementResponse{
			ID:            m.ID,
			InventoryID:   m.ItemID,
			MovementType:  string(m.Type),
			Quantity:      m.Quantity,
			StockBefore:   m.StockBefore,
			StockAfter:    m.StockAfter,
			ReferenceType: m.ReferenceType,
			Notes:         m.Notes,
			CreatedBy:     m.CreatedBy,
			CreatedByName: m.CreatedByName,
			CreatedAt:     m.CreatedAt,
		}
		if m.ReferenceID != 0 {
			ref := m.ReferenceID
			out[i].ReferenceID = &ref
		}
	}
	return out
}
