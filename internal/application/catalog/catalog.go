// Package catalog 分类与供应商维护
package catalog

import (
	"context"
	"strings"

	"github.com/xiebiao/minipos/internal/domain/category"
	"github.com/xiebiao/minipos/internal/domain/supplier"
)

// CategoryUseCase 分类用例
type CategoryUseCase struct {
	categories category.Repository
}

func NewCategoryUseCase(categories category.Repository) *CategoryUseCase {
	return &CategoryUseCase{categories: categories}
}

func (uc *CategoryUseCase) List(ctx context.Context) ([]*category.Category, error) {
	return uc.categories.List(ctx)
}

func (uc *CategoryUseCase) Create(ctx context.Context, name, description string) (*category.Category, error) {
	c := &category.Category{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
	}
	if c.Name == "" {
		return nil, category.ErrNameRequired
	}
	if err := uc.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// SupplierUseCase 供应商用例
type SupplierUseCase struct {
	suppliers supplier.Repository
}

func NewSupplierUseCase(suppliers supplier.Repository) *SupplierUseCase {
	return &SupplierUseCase{suppliers: suppliers}
}

func (uc *SupplierUseCase) List(ctx context.Context, params supplier.ListParams) ([]*supplier.Supplier, error) {
	return uc.suppliers.List(ctx, params.Normalize())
}

func (uc *SupplierUseCase) Create(ctx context.Context, s *supplier.Supplier) (*supplier.Supplier, error) {
	if err := s.Normalize(); err != nil {
		return nil, err
	}
	if err := uc.suppliers.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (uc *SupplierUseCase) Update(ctx context.Context, id uint, s *supplier.Supplier) (*supplier.Supplier, error) {
	if err := s.Normalize(); err != nil {
		return nil, err
	}
	s.ID = id
	if err := uc.suppliers.Update(ctx, s); err != nil {
		return nil, err
	}
	return uc.suppliers.FindByID(ctx, id)
}

func (uc *SupplierUseCase) Delete(ctx context.Context, id uint) error {
	return uc.suppliers.Delete(ctx, id)
}
