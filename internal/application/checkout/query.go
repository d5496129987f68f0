package checkout

import (
	"context"
	"strings"

	"github.com/xiebiao/minipos/internal/domain/sale"
)

// QueryUseCase 销售单查询
// 客户端丢失结账响应时按单号补查
type QueryUseCase struct {
	sales sale.Repository
}

func NewQueryUseCase(sales sale.Repository) *QueryUseCase {
	return &QueryUseCase{sales: sales}
}

// GetByInvoiceNo 格式不合法的单号直接返回不存在
func (uc *QueryUseCase) GetByInvoiceNo(ctx context.Context, invoiceNo string) (*sale.Sale, error) {
	invoiceNo = strings.ToUpper(strings.TrimSpace(invoiceNo))
	if !sale.IsValidInvoiceNo(invoiceNo) {
		return nil, sale.ErrSaleNotFound
	}
	return uc.sales.FindByInvoiceNo(ctx, invoiceNo)
}

func (uc *QueryUseCase) GetByID(ctx context.Context, id uint) (*sale.Sale, error) {
	return uc.sales.FindByID(ctx, id)
}

// List 按时间倒序分页
func (uc *QueryUseCase) List(ctx context.Context, params sale.ListParams) ([]*sale.Sale, int64, sale.ListParams, error) {
	params = params.Normalize()
	sales, total, err := uc.sales.List(ctx, params)
	return sales, total, params, err
}
