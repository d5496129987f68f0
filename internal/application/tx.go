// Package application 用例层公共定义
package application

import (
	"context"

	apperrors "github.com/xiebiao/minipos/pkg/errors"
	"github.com/xiebiao/minipos/pkg/metrics"
)

// Transactor 事务边界
// fn内所有仓储调用必须使用传入的ctx，fn返回error时全部回滚
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Outcome 按错误类型给出指标结果标签
// 业务码（< 50000）视为rejected，其余错误视为failed
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case apperrors.IsAppError(err) && apperrors.GetAppError(err).Code < apperrors.ErrCodeInternal:
		return metrics.ResultRejected
	default:
		return metrics.ResultFailed
	}
}
