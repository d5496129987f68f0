package purchase

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/xiebiao/minipos/pkg/errors"
)

// DefaultNotes 未填写备注时使用
const DefaultNotes = "Pembelian barang"

// Purchase 进货单
// TotalCost == Quantity × CostPrice
type Purchase struct {
	ID            uint
	SupplierID    uint
	SupplierName  string
	InventoryID   uint
	InventoryName string
	Quantity      int
	CostPrice     int64
	TotalCost     int64
	Notes         string
	CreatedBy     uint
	CreatedByName string
	CreatedAt     time.Time
}

var (
	ErrPurchaseNotFound = apperrors.New(apperrors.ErrCodeNotFound, "进货单不存在")
	ErrInvalidQuantity  = apperrors.New(apperrors.ErrCodeInvalidParams, "进货数量必须在1到1000000之间")
	ErrInvalidCostPrice = apperrors.New(apperrors.ErrCodeInvalidParams, "进货单价必须在1到1000000000000之间")
	ErrSupplierRequired = apperrors.New(apperrors.ErrCodeInvalidParams, "供应商不能为空")
	ErrItemRequired     = apperrors.New(apperrors.ErrCodeInvalidParams, "商品不能为空")
)

// 单笔进货上限，保证 数量 × 单价 不溢出int64
const (
	MaxQuantity  = 1_000_000
	MaxCostPrice = int64(1_000_000_000_000)
)

// NewPurchase 创建进货单并计算总成本
func NewPurchase(supplierID, inventoryID uint, qty int, costPrice int64, notes string, actorID uint) (*Purchase, error) {
	switch {
	case supplierID == 0:
		return nil, ErrSupplierRequired
	case inventoryID == 0:
		return nil, ErrItemRequired
	case qty <= 0 || qty > MaxQuantity:
		return nil, ErrInvalidQuantity
	case costPrice <= 0 || costPrice > MaxCostPrice:
		return nil, ErrInvalidCostPrice
	}

	notes = strings.TrimSpace(notes)
	if notes == "" {
		notes = DefaultNotes
	}
	return &Purchase{
		SupplierID:  supplierID,
		InventoryID: inventoryID,
		Quantity:    qty,
		CostPrice:   costPrice,
		TotalCost:   costPrice * int64(qty),
		Notes:       notes,
		CreatedBy:   actorID,
		CreatedAt:   time.Now(),
	}, nil
}

// Repository 进货单仓储
type Repository interface {
	Create(ctx context.Context, p *Purchase) error
	// List 按时间倒序，带供应商、商品和操作人名称
	List(ctx context.Context, page, limit int) ([]*Purchase, int64, error)
}
