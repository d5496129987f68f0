package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/minipos/internal/domain/category"
	"github.com/xiebiao/minipos/internal/domain/supplier"
	"github.com/xiebiao/minipos/internal/infrastructure/persistence/memory"
)

func TestCategoryUseCase(t *testing.T) {
	store := memory.NewStore()
	uc := NewCategoryUseCase(store.Categories())
	ctx := context.Background()

	_, err := uc.Create(ctx, "  ", "")
	assert.ErrorIs(t, err, category.ErrNameRequired)

	_, err = uc.Create(ctx, "Minuman", "Minuman ringan")
	require.NoError(t, err)
	_, err = uc.Create(ctx, " Makanan ", "")
	require.NoError(t, err)
	_, err = uc.Create(ctx, "Makanan", "")
	assert.ErrorIs(t, err, category.ErrCategoryDuplicate)

	list, err := uc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Makanan", list[0].Name, "按名称排序")
}

func TestSupplierUseCase(t *testing.T) {
	store := memory.NewStore()
	uc := NewSupplierUseCase(store.Suppliers())
	ctx := context.Background()

	_, err := uc.Create(ctx, &supplier.Supplier{Name: " "})
	assert.ErrorIs(t, err, supplier.ErrNameRequired)

	s, err := uc.Create(ctx, &supplier.Supplier{Name: " PT Sumber Rejeki ", Phone: "0812"})
	require.NoError(t, err)
	assert.Equal(t, "PT Sumber Rejeki", s.Name)

	updated, err := uc.Update(ctx, s.ID, &supplier.Supplier{Name: "PT Sumber Rejeki", Phone: "0813", Address: "Jl. Merdeka 1"})
	require.NoError(t, err)
	assert.Equal(t, "0813", updated.Phone)
	assert.False(t, updated.CreatedAt.IsZero())

	_, err = uc.Update(ctx, 99, &supplier.Supplier{Name: "x"})
	assert.ErrorIs(t, err, supplier.ErrSupplierNotFound)

	require.NoError(t, uc.Delete(ctx, s.ID))
	list, err := uc.List(ctx, supplier.ListParams{SortBy: "drop table"})
	require.NoError(t, err)
	assert.Empty(t, list)
}
