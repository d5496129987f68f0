package sale

import (
	"context"
)

// Repository 销售单仓储
type Repository interface {
	// Create 写入销售单及明细，回填ID
	// 单号唯一索引冲突时返回ErrInvoiceCollision
	Create(ctx context.Context, sale *Sale) error

	FindByID(ctx context.Context, id uint) (*Sale, error)

	// FindByInvoiceNo 结账响应丢失时按单号补查
	FindByInvoiceNo(ctx context.Context, invoiceNo string) (*Sale, error)

	// List 按时间倒序分页，CashierID为0时不过滤
	List(ctx context.Context, params ListParams) ([]*Sale, int64, error)
}

// ListParams 销售单列表查询参数
type ListParams struct {
	Page      int
	Limit     int
	CashierID uint
}

// Normalize 填充分页默认值
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return p
}
