package mysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/minipos/internal/domain/movement"
	apperrors "github.com/xiebiao/minipos/pkg/errors"
)

// movementRepository 库存流水仓储（只追加）
type movementRepository struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) movement.Repository {
	return &movementRepository{db: db}
}

func (r *movementRepository) CreateBatch(ctx context.Context, movements []*movement.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	models := make([]StockMovementModel, len(movements))
	for i, m := range movements {
		models[i] = StockMovementModel{
			InventoryID:   m.ItemID,
			MovementType:  string(m.Type),
			Quantity:      m.Quantity,
			StockBefore:   m.StockBefore,
			StockAfter:    m.StockAfter,
			ReferenceType: m.ReferenceType,
			Notes:         m.Notes,
			CreatedBy:     m.CreatedBy,
			CreatedAt:     m.CreatedAt,
		}
		if m.ReferenceID > 0 {
			ref := m.ReferenceID
			models[i].ReferenceID = &ref
		}
	}

	if err := getDB(ctx, r.db).Create(&models).Error; err != nil {
		return apperrors.Wrap(err, "写入库存流水失败")
	}
	for i := range models {
		movements[i].ID = models[i].ID
	}
	return nil
}

type movementRow struct {
	ID            uint
	InventoryID   uint
	MovementType  string
	Quantity      int
	StockBefore   int
	StockAfter    int
	ReferenceID   *uint
	ReferenceType string
	Notes         string
	CreatedBy     uint
	CreatedByName string
	CreatedAt     time.Time
}

// ListByItem 最新的在前，带操作人姓名
func (r *movementRepository) ListByItem(ctx context.Context, itemID uint, limit int) ([]*movement.Movement, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []movementRow
	err := getDB(ctx, r.db).Model(&StockMovementModel{}).
		Select("stock_movements.*, COALESCE(users.full_name, '') AS created_by_name").
		Joins("LEFT JOIN users ON users.id = stock_movements.created_by").
		Where("stock_movements.inventory_id = ?", itemID).
		Order("stock_movements.id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询库存流水失败")
	}

	out := make([]*movement.Movement, len(rows))
	for i, row := range rows {
		m := &movement.Movement{
			ID:            row.ID,
			ItemID:        row.InventoryID,
			Type:          movement.Type(row.MovementType),
			Quantity:      row.Quantity,
			StockBefore:   row.StockBefore,
			StockAfter:    row.StockAfter,
			ReferenceType: row.ReferenceType,
			Notes:         row.Notes,
			CreatedBy:     row.CreatedBy,
			CreatedByName: row.CreatedByName,
			CreatedAt:     row.CreatedAt,
		}
		if row.ReferenceID != nil {
			m.ReferenceID = *row.ReferenceID
		}
		out[i] = m
	}
	return out, nil
}

type summaryRow struct {
	InventoryID uint
	Cnt         int
	Total       int
	LastAfter   int
}

// summarySQL 每个商品的流水条数、合计，以及id最大那条的stock_after
const summarySQL = `
SELECT agg.inventory_id, agg.cnt, agg.total, last.stock_after AS last_after
FROM (
	SELECT inventory_id, COUNT(*) AS cnt, COALESCE(SUM(quantity), 0) AS total, MAX(id) AS last_id
	FROM stock_movements
	%s
	GROUP BY inventory_id
) agg
JOIN stock_movements last ON last.id = agg.last_id`

func (r *movementRepository) Summarize(ctx context.Context, itemID uint) (movement.Summary, error) {
	var rows []summaryRow
	err := getDB(ctx, r.db).Raw(fmt.Sprintf(summarySQL, "WHERE inventory_id = ?"), itemID).Scan(&rows).Error
	if err != nil {
		return movement.Summary{}, apperrors.Wrap(err, "汇总库存流水失败")
	}
	if len(rows) == 0 {
		return movement.Summary{ItemID: itemID}, nil
	}
	return rows[0].toSummary(), nil
}

func (r *movementRepository) SummarizeAll(ctx context.Context) (map[uint]movement.Summary, error) {
	var rows []summaryRow
	if err := getDB(ctx, r.db).Raw(fmt.Sprintf(summarySQL, "")).Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(err, "汇总库存流水失败")
	}

	out := make(map[uint]movement.Summary, len(rows))
	for _, row := range rows {
		out[row.InventoryID] = row.toSummary()
	}
	return out, nil
}

func (row summaryRow) toSummary() movement.Summary {
	return movement.Summary{
		ItemID:    row.InventoryID,
		Count:     row.Cnt,
		Sum:       row.Total,
		LastAfter: row.LastAfter,
	}
}
