package dto

import (
	"time"

	"github.com/xiebiao/minipos/internal/domain/category"
	"github.com/xiebiao/minipos/internal/domain/purchase"
	"github.com/xiebiao/minipos/internal/domain/supplier"
)

// =========================================
// 分类
// =========================================

type CategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100" example:"Makanan"`
	Description string `json:"description" binding:"max=255"`
}

type CategoryResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewCategoryList(cs []*category.Category) []CategoryResponse {
	out := make([]CategoryResponse, len(cs))
	for i, c := range cs {
		out[i] = NewCategoryResponse(c)
	}
	return out
}

func NewCategoryResponse(c *category.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, Description: c.Description, CreatedAt: c.CreatedAt}
}

// =========================================
// 供应商
// =========================================

// ListSuppliersRequest sort_by ∈ {name, contact_person, phone, address}
type ListSuppliersRequest struct {
	SortBy string `form:"sort_by" example:"name"`
	Order  string `form:"order" binding:"omitempty,oneof=asc desc ASC DESC"`
}

func (r ListSuppliersRequest) ToParams() supplier.ListParams {
	return supplier.ListParams{SortBy: r.SortBy, Desc: r.Order == "desc" || r.Order == "DESC"}
}

type SupplierRequest struct {
	Name          string `json:"name" binding:"required,max=150" example:"CV Segar Abadi"`
	ContactPerson string `json:"contact_person" binding:"max=100"`
	Phone         string `json:"phone" binding:"max=50"`
	Address       string `json:"address" binding:"max=500"`
}

func (r SupplierRequest) ToEntity() *supplier.Supplier {
	return &supplier.Supplier{
		Name:          r.Name,
		ContactPerson: r.ContactPerson,
		Phone:         r.Phone,
		Address:       r.Address,
	}
}

type SupplierResponse struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewSupplierResponse(s *supplier.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:            s.ID,
		Name:          s.Name,
		ContactPerson: s.ContactPerson,
		Phone:         s.Phone,
		Address:       s.Address,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func NewSupplierList(ss []*supplier.Supplier) []SupplierResponse {
	out := make([]SupplierResponse, len(ss))
	for i, s := range ss {
		out[i] = NewSupplierResponse(s)
	}
	return out
}

// =========================================
// 进货
// =========================================

type PurchaseRequest struct {
	SupplierID  uint   `json:"supplier_id" binding:"required" example:"1"`
	InventoryID uint   `json:"inventory_id" binding:"required" example:"3"`
	Quantity    int    `json:"quantity" example:"24"`
	CostPrice   int64  `json:"cost_price" example:"2500"`
	Notes       string `json:"notes" binding:"max=500"`
}

type ListPurchasesRequest struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

type PurchaseResponse struct {
	ID            uint      `json:"id"`
	SupplierID    uint      `json:"supplier_id"`
	SupplierName  string    `json:"supplier_name"`
	InventoryID   uint      `json:"inventory_id"`
	InventoryName string    `json:"inventory_name"`
	Quantity      int       `json:"quantity"`
	CostPrice     int64     `json:"cost_price"`
	TotalCost     int64     `json:"total_cost"`
	Notes         string    `json:"notes"`
	CreatedBy     uint      `json:"created_by"`
	CreatedByName string    `json:"created_by_name"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewPurchaseResponse(p *purchase.Purchase) PurchaseResponse {
	return PurchaseResponse{
		ID:            p.ID,
		SupplierID:    p.SupplierID,
		SupplierName:  p.SupplierName,
		InventoryID:   p.InventoryID,
		InventoryName: p.InventoryName,
		Quantity:      p.Quantity,
		CostPrice:     p.CostPrice,
		TotalCost:     p.TotalCost,
		Notes:         p.Notes,
		CreatedBy:     p.CreatedBy,
		CreatedByName: p.CreatedByName,
		CreatedAt:     p.CreatedAt,
	}
}

func NewPurchaseList(ps []*purchase.Purchase) []PurchaseResponse {
	out := make([]PurchaseResponse, len(ps))
	for i, p := range ps {
		out[i] = NewPurchaseResponse(p)
	}
	return out
}
