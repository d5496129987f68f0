package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appinventory "github.com/xiebiao/minipos/internal/application/inventory"
	"github.com/xiebiao/minipos/internal/interface/http/dto"
	"github.com/xiebiao/minipos/internal/interface/http/middleware"
	"github.com/xiebiao/minipos/pkg/response"
)

// InventoryHandler 商品HTTP处理器
type InventoryHandler struct {
	uc *appinventory.UseCase
}

func NewInventoryHandler(uc *appinventory.UseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// List 商品列表
// @Summary      商品列表
// @Description  支持按名称/SKU搜索、按分类过滤、排序和分页
// @Tags         商品
// @Produce      json
// @Security     BearerAuth
// @Param        q           query string false "名称或SKU关键字"
// @Param        category_id query int    false "分类ID"
// @Param        sort_by     query string false "排序字段" Enums(id, sku, name, price, stock, category)
// @Param        order       query string false "排序方向" Enums(asc, desc)
// @Param        page        query int    false "页码" default(1)
// @Param        limit       query int    false "每页数量" default(10)
// @Success      200 {object} response.Response{data=response.PageData{items=[]dto.InventoryResponse}}
// @Router       /api/v1/inventory [get]
func (h *InventoryHandler) List(c *gin.Context) {
	var req dto.ListInventoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	items, total, params, err := h.uc.List(c.Request.Context(), req.ToParams())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, dto.NewInventoryList(items), total, params.Page, params.Limit)
}

// Get 商品详情
// @Summary      商品详情
// @Tags         商品
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "商品ID"
// @Success      200 {object} response.Response{data=dto.InventoryResponse}
// @Router       /api/v1/inventory/{id} [get]
func (h *InventoryHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.uc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewInventoryResponse(item))
}

// Create 新建商品，初始库存记一条调整流水
// @Summary      新建商品
// @Tags         商品
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.InventoryRequest true "商品信息"
// @Success      200 {object} response.Response{data=dto.InventoryResponse}
// @Failure      200 {object} response.Response "40004 SKU已存在"
// @Router       /api/v1/inventory [post]
func (h *InventoryHandler) Create(c *gin.Context) {
	var req dto.InventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	item, err := h.uc.Create(c.Request.Context(), toItemInput(req), middleware.MustGetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewInventoryResponse(item))
}

// Update 修改商品，库存变化记一条调整流水
// @Summary      修改商品
// @Tags         商品
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                  true "商品ID"
// @Param        request body dto.InventoryRequest true "商品信息"
// @Success      200 {object} response.Response{data=dto.InventoryResponse}
// @Router       /api/v1/inventory/{id} [put]
func (h *InventoryHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.InventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	item, err := h.uc.Update(c.Request.Context(), id, toItemInput(req), middleware.MustGetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewInventoryResponse(item))
}

// Delete 软删除商品，流水保留
// @Summary      删除商品
// @Tags         商品
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "商品ID"
// @Success      200 {object} response.Response
// @Router       /api/v1/inventory/{id} [delete]
func (h *InventoryHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.uc.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Movements 商品库存流水，按时间倒序
// @Summary      库存流水
// @Tags         商品
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int true  "商品ID"
// @Param        limit query int false "条数" default(100)
// @Success      200 {object} response.Response{data=[]dto.MovementResponse}
// @Router       /api/v1/inventory/{id}/movements [get]
func (h *InventoryHandler) Movements(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	ms, err := h.uc.Movements(c.Request.Context(), id, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewMovementList(ms))
}

// Reconcile 单个商品账实核对
// @Summary      库存对账
// @Tags         商品
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "商品ID"
// @Success      200 {object} response.Response{data=movement.Reconciliation}
// @Router       /api/v1/inventory/{id}/reconcile [get]
func (h *InventoryHandler) Reconcile(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	r, err := h.uc.Reconcile(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, r)
}

func toItemInput(req dto.InventoryRequest) appinventory.ItemInput {
	return appinventory.ItemInput{
		SKU:        req.SKU,
		Name:       req.Name,
		Price:      req.Price,
		Stock:      req.Stock,
		CategoryID: req.CategoryID,
		Image:      req.Image,
	}
}
