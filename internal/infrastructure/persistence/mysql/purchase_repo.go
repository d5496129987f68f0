package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/minipos/internal/domain/purchase"
	apperrors "github.com/xiebiao/minipos/pkg/errors"
)

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) purchase.Repository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, p *purchase.Purchase) error {
	model := &PurchaseModel{
		SupplierID:  p.SupplierID,
		InventoryID: p.InventoryID,
		Quantity:    p.Quantity,
		CostPrice:   p.CostPrice,
		TotalCost:   p.TotalCost,
		Notes:       p.Notes,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
	}
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建进货单失败")
	}
	p.ID = model.ID
	p.CreatedAt = model.CreatedAt
	return nil
}

type purchaseRow struct {
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

// List 关联出供应商、商品、操作人名称（包括已软删除的记录）
func (r *purchaseRepository) List(ctx context.Context, page, limit int) ([]*purchase.Purchase, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	db := getDB(ctx, r.db)

	var total int64
	if err := db.Model(&PurchaseModel{}).Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询进货单总数失败")
	}

	var rows []purchaseRow
	err := db.Model(&PurchaseModel{}).
		Select("purchases.*, " +
			"COALESCE(suppliers.name, '') AS supplier_name, " +
			"COALESCE(inventory.name, '') AS inventory_name, " +
			"COALESCE(users.full_name, '') AS created_by_name").
		Joins("LEFT JOIN suppliers ON suppliers.id = purchases.supplier_id").
		Joins("LEFT JOIN inventory ON inventory.id = purchases.inventory_id").
		Joins("LEFT JOIN users ON users.id = purchases.created_by").
		Order("purchases.id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询进货单列表失败")
	}

	out := make([]*purchase.Purchase, len(rows))
	for i, row := range rows {
		out[i] = &purchase.Purchase{
			ID:            row.ID,
			SupplierID:    row.SupplierID,
			SupplierName:  row.SupplierName,
			InventoryID:   row.InventoryID,
			InventoryName: row.InventoryName,
			Quantity:      row.Quantity,
			CostPrice:     row.CostPrice,
			TotalCost:     row.TotalCost,
			Notes:         row.Notes,
			CreatedBy:     row.CreatedBy,
			CreatedByName: row.CreatedByName,
			CreatedAt:     row.CreatedAt,
		}
	}
	return out, total, nil
}
