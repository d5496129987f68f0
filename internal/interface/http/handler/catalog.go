package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/minipos/internal/application/catalog"
	"github.com/xiebiao/minipos/internal/interface/http/dto"
	"github.com/xiebiao/minipos/pkg/response"
)

// CatalogHandler 分类与供应商
type CatalogHandler struct {
	categories *catalog.CategoryUseCase
	suppliers  *catalog.SupplierUseCase
}

func NewCatalogHandler(categories *catalog.CategoryUseCase, suppliers *catalog.SupplierUseCase) *CatalogHandler {
	return &CatalogHandler{categories: categories, suppliers: suppliers}
}

// ListCategories 分类列表
// @Summary      分类列表
// @Tags         分类
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=[]dto.CategoryResponse}
// @Router       /api/v1/categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	cs, err := h.categories.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewCategoryList(cs))
}

// CreateCategory 新建分类
// @Summary      新建分类
// @Tags         分类
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CategoryRequest true "分类"
// @Success      200 {object} response.Response{data=dto.CategoryResponse}
// @Router       /api/v1/categories [post]
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	cat, err := h.categories.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewCategoryResponse(cat))
}

// ListSuppliers 供应商列表
// @Summary      供应商列表
// @Tags         供应商
// @Produce      json
// @Security     BearerAuth
// @Param        sort_by query string false "排序字段" Enums(name, contact_person, phone, address)
// @Param        order   query string false "排序方向" Enums(asc, desc)
// @Success      200 {object} response.Response{data=[]dto.SupplierResponse}
// @Router       /api/v1/suppliers [get]
func (h *CatalogHandler) ListSuppliers(c *gin.Context) {
	var req dto.ListSuppliersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}
	ss, err := h.suppliers.List(c.Request.Context(), req.ToParams())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewSupplierList(ss))
}

// CreateSupplier 新建供应商
// @Summary      新建供应商
// @Tags         供应商
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.SupplierRequest true "供应商"
// @Success      200 {object} response.Response{data=dto.SupplierResponse}
// @Router       /api/v1/suppliers [post]
func (h *CatalogHandler) CreateSupplier(c *gin.Context) {
	var req dto.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	s, err := h.suppliers.Create(c.Request.Context(), req.ToEntity())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewSupplierResponse(s))
}

// UpdateSupplier 修改供应商
// @Summary      修改供应商
// @Tags         供应商
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                 true "供应商ID"
// @Param        request body dto.SupplierRequest true "供应商"
// @Success      200 {object} response.Response{data=dto.SupplierResponse}
// @Router       /api/v1/suppliers/{id} [put]
func (h *CatalogHandler) UpdateSupplier(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	s, err := h.suppliers.Update(c.Request.Context(), id, req.ToEntity())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewSupplierResponse(s))
}

// DeleteSupplier 删除供应商（软删除，历史进货单保留）
// @Summary      删除供应商
// @Tags         供应商
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "供应商ID"
// @Success      200 {object} response.Response
// @Router       /api/v1/suppliers/{id} [delete]
func (h *CatalogHandler) DeleteSupplier(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.suppliers.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
