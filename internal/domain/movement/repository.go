package movement

import (
	"context"
)

// Repository 库存流水仓储，只提供追加和查询
type Repository interface {
	// CreateBatch 批量追加，必须与库存变更处于同一事务
	CreateBatch(ctx context.Context, movements []*Movement) error

	// ListByItem 按时间倒序返回商品流水，带操作人姓名
	ListByItem(ctx context.Context, itemID uint, limit int) ([]*Movement, error)

	// Summarize 单个商品的流水汇总
	Summarize(ctx context.Context, itemID uint) (Summary, error)

	// SummarizeAll 所有有流水的商品汇总，key为ItemID
	SummarizeAll(ctx context.Context) (map[uint]Summary, error)
}
