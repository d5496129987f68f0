package sale

import (
	apperrors "github.com/xiebiao/minipos/pkg/errors"
)

var (
	ErrSaleNotFound = apperrors.New(apperrors.ErrCodeSaleNotFound, "销售单不存在")

	ErrEmptyCart = apperrors.New(apperrors.ErrCodeInvalidParams, "items不能为空")

	// ErrInvalidLine 使用NewLineError指明第几行
	ErrInvalidLine = apperrors.New(apperrors.ErrCodeInvalidParams, "商品行不合法")

	ErrInvalidPaid = apperrors.New(apperrors.ErrCodeInvalidParams, "实付金额不能为负数")

	ErrUnderpaid = apperrors.New(apperrors.ErrCodeUnderpaid, "实付金额不足")

	// ErrAmountOutOfRange 小计或总额超出int64
	ErrAmountOutOfRange = apperrors.New(apperrors.ErrCodeInvalidParams, "金额超出范围")

	// ErrInvoiceCollision 单号唯一索引冲突，仓储层返回，用例层重试
	ErrInvoiceCollision = apperrors.New(apperrors.ErrCodeInvoiceNoCollision, "销售单号冲突")

	ErrCheckoutInProgress  = apperrors.New(apperrors.ErrCodeCheckoutInProgress, "相同的结账请求正在处理，请稍后按单号查询")
	ErrIdempotencyMismatch = apperrors.New(apperrors.ErrCodeIdempotencyMismatch, "Idempotency-Key已用于其他结账内容")
)

// NewLineError items[i].<field> 必须为正整数
func NewLineError(index int, field string) *apperrors.AppError {
	return ErrInvalidLine.WithMessage("items[%d].%s 必须为正整数", index, field)
}

// NewUnderpaidError 实付少于应付
func NewUnderpaidError(total, paid int64) *apperrors.AppError {
	return ErrUnderpaid.WithMessage("实付金额不足（应付 %d，实付 %d）", total, paid)
}
