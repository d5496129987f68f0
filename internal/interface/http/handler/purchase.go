package handler

import (
	"github.com/gin-gonic/gin"

	apppurchase "github.com/xiebiao/minipos/internal/application/purchase"
	"github.com/xiebiao/minipos/internal/interface/http/dto"
	"github.com/xiebiao/minipos/internal/interface/http/middleware"
	"github.com/xiebiao/minipos/pkg/response"
)

const defaultPurchaseLimit = 20

// PurchaseHandler 进货入库
type PurchaseHandler struct {
	uc *apppurchase.UseCase
}

func NewPurchaseHandler(uc *apppurchase.UseCase) *PurchaseHandler {
	return &PurchaseHandler{uc: uc}
}

// Create 进货入库：锁定商品、写进货单、加库存、记流水
// @Summary      进货入库
// @Tags         进货
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.PurchaseRequest true "进货信息"
// @Success      200 {object} response.Response{data=dto.PurchaseResponse}
// @Router       /api/v1/purchases [post]
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req dto.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	p, err := h.uc.Create(c.Request.Context(), apppurchase.Request{
		SupplierID:  req.SupplierID,
		InventoryID: req.InventoryID,
		Quantity:    req.Quantity,
		CostPrice:   req.CostPrice,
		Notes:       req.Notes,
		ActorID:     middleware.MustGetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewPurchaseResponse(p))
}

// List 进货记录，按时间倒序
// @Summary      进货记录
// @Tags         进货
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int false "页码" default(1)
// @Param        limit query int false "每页数量" default(20)
// @Success      200 {object} response.Response{data=response.PageData{items=[]dto.PurchaseResponse}}
// @Router       /api/v1/purchases [get]
func (h *PurchaseHandler) List(c *gin.Context) {
	var req dto.ListPurchasesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = defaultPurchaseLimit
	}

	ps, total, err := h.uc.List(c.Request.Context(), req.Page, req.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, dto.NewPurchaseList(ps), total, req.Page, req.Limit)
}
