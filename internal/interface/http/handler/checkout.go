package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/minipos/internal/application/checkout"
	"github.com/xiebiao/minipos/internal/domain/sale"
	"github.com/xiebiao/minipos/internal/interface/http/dto"
	"github.com/xiebiao/minipos/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/minipos/pkg/errors"
	"github.com/xiebiao/minipos/pkg/response"
)

const (
	// IdempotencyKeyHeader 同一个key重复提交时返回第一次的销售单
	IdempotencyKeyHeader = "Idempotency-Key"
	// ReplayedHeader 响应来自幂等重放时为true
	ReplayedHeader = "Idempotent-Replayed"

	maxIdempotencyKeyLen = 128
)

// CheckoutHandler 收银结账与销售单查询
type CheckoutHandler struct {
	checkout *checkout.UseCase
	query    *checkout.QueryUseCase
}

func NewCheckoutHandler(checkoutUseCase *checkout.UseCase, queryUseCase *checkout.QueryUseCase) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkoutUseCase, query: queryUseCase}
}

// Checkout 收银结账
// @Summary      收银结账
// @Description  单个事务内锁定商品、校验库存、写销售单和库存流水。重复的商品行会合并。
// @Tags         收银
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key header string              false "幂等键"
// @Param        request         body   dto.CheckoutRequest true  "购物车"
// @Success      200 {object} response.Response{data=dto.SaleResponse}
// @Failure      200 {object} response.Response "40001 库存不足 / 40006 商品已下架 / 50003 请重试"
// @Router       /api/v1/cashier/checkout [post]
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLen {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "Idempotency-Key过长")
		return
	}

	result, err := h.checkout.Execute(c.Request.Context(), checkout.Request{
		CashierID:      middleware.MustGetUserID(c),
		Lines:          req.Lines(),
		Paid:           *req.Paid,
		IdempotencyKey: key,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Replayed {
		c.Header(ReplayedHeader, "true")
	}
	response.Success(c, dto.NewSaleResponse(result.Sale))
}

// GetByInvoiceNo 按单号查询销售单（结账响应丢失时补查）
// @Summary      按单号查询销售单
// @Tags         销售单
// @Produce      json
// @Security     BearerAuth
// @Param        invoiceNo path string true "销售单号" example(TRX-20240315-143005-042)
// @Success      200 {object} response.Response{data=dto.SaleResponse}
// @Failure      200 {object} response.Response "40403 销售单不存在"
// @Router       /api/v1/sales/{invoiceNo} [get]
func (h *CheckoutHandler) GetByInvoiceNo(c *gin.Context) {
	s, err := h.query.GetByInvoiceNo(c.Request.Context(), c.Param("invoiceNo"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewSaleResponse(s))
}

// List 销售单列表，按时间倒序
// @Summary      销售单列表
// @Tags         销售单
// @Produce      json
// @Security     BearerAuth
// @Param        page       query int false "页码" default(1)
// @Param        limit      query int false "每页数量" default(10)
// @Param        cashier_id query int false "收银员ID"
// @Success      200 {object} response.Response{data=response.PageData{items=[]dto.SaleResponse}}
// @Router       /api/v1/sales [get]
func (h *CheckoutHandler) List(c *gin.Context) {
	var req dto.ListSalesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	sales, total, params, err := h.query.List(c.Request.Context(), sale.ListParams{
		Page:      req.Page,
		Limit:     req.Limit,
		CashierID: req.CashierID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, dto.NewSaleList(sales), total, params.Page, params.Limit)
}
