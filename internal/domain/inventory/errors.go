package inventory

import (
	apperrors "github.com/xiebiao/minipos/pkg/errors"
)

var (
	ErrItemNotFound = apperrors.New(apperrors.ErrCodeProductNotFound, "商品不存在")

	// ErrProductUnavailable 结账时部分商品已被删除
	ErrProductUnavailable = apperrors.New(apperrors.ErrCodeProductUnavailable, "部分商品已不可售")

	ErrSKUDuplicate = apperrors.New(apperrors.ErrCodeSKUDuplicate, "SKU已存在")

	ErrSKURequired      = apperrors.New(apperrors.ErrCodeInvalidParams, "SKU不能为空")
	ErrNameRequired     = apperrors.New(apperrors.ErrCodeInvalidParams, "商品名称不能为空")
	ErrInvalidPrice     = apperrors.New(apperrors.ErrCodeInvalidParams, "价格必须大于0且不超过1000000000000")
	ErrInvalidStock     = apperrors.New(apperrors.ErrCodeInvalidParams, "库存不能为负数")
	ErrCategoryRequired = apperrors.New(apperrors.ErrCodeInvalidParams, "分类不能为空")

	// ErrInsufficientStock 库存不足，使用NewInsufficientStockError带上商品名
	ErrInsufficientStock = apperrors.New(apperrors.ErrCodeInsufficientStock, "库存不足")
)

// NewInsufficientStockError 指明哪个商品库存不足
func NewInsufficientStockError(name string, available, requested int) *apperrors.AppError {
	return ErrInsufficientStock.WithMessage("商品 %s 库存不足（库存 %d，需要 %d）", name, available, requested)
}
