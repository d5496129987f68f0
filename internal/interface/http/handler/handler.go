// Package handler HTTP处理器
//
// Handler只负责HTTP相关的事情：绑定参数、调用应用层用例、转换响应。
// 业务错误统一交给response.Error，HTTP状态码固定为200，code字段区分结果。
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/minipos/pkg/errors"
)

// parseID 解析路径参数中的正整数ID
func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.ErrInvalidParams.WithMessage("%s 必须为正整数", name)
	}
	return uint(id), nil
}
