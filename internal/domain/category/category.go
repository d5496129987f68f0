package category

import (
	"context"
	"time"

	apperrors "github.com/xiebiao/minipos/pkg/errors"
)

// Category 商品分类
type Category struct {
	ID          uint
	Name        string
	Description string
	CreatedAt   time.Time
}

var (
	ErrCategoryNotFound  = apperrors.New(apperrors.ErrCodeCategoryNotFound, "分类不存在")
	ErrCategoryDuplicate = apperrors.New(apperrors.ErrCodeCategoryDuplicate, "分类名称已存在")
	ErrNameRequired      = apperrors.New(apperrors.ErrCodeInvalidParams, "分类名称不能为空")
)

// Repository 分类仓储
type Repository interface {
	// List 按名称升序
	List(ctx context.Context) ([]*Category, error)
	FindByID(ctx context.Context, id uint) (*Category, error)
	FindByName(ctx context.Context, name string) (*Category, error)
	// Create 名称重复返回ErrCategoryDuplicate
	Create(ctx context.Context, c *Category) error
}

// DefaultCategories 初始化数据
var DefaultCategories = []Category{
	{Name: "Makanan", Description: "Produk makanan dan camilan"},
	{Name: "Minuman", Description: "Minuman ringan dan berat"},
	{Name: "Sembako", Description: "Kebutuhan pokok sehari-hari"},
	{Name: "Alat Tulis", Description: "Peralatan tulis dan kantor"},
	{Name: "Kesehatan", Description: "Produk kesehatan dan obat-obatan"},
	{Name: "Lainnya", Description: "Kategori lainnya"},
}
