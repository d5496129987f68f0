package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/minipos/internal/domain/category"
	"github.com/xiebiao/minipos/internal/domain/inventory"
	"github.com/xiebiao/minipos/internal/domain/movement"
	"github.com/xiebiao/minipos/internal/infrastructure/persistence/memory"
)

func setup(t *testing.T) (*UseCase, *memory.Store, uint) {
	t.Helper()
	store := memory.NewStore()
	c := &category.Category{Name: "Makanan"}
	require.NoError(t, store.Categories().Create(context.Background(), c))
	return NewUseCase(store, store.Inventory(), store.Categories(), store.Movements()), store, c.ID
}

func TestCreate_WritesInitialAdjustment(t *testing.T) {
	uc, _, catID := setup(t)
	ctx := context.Background()

	item, err := uc.Create(ctx, ItemInput{SKU: " IDM-01 ", Name: "Indomie", Price: 3500, Stock: 10, CategoryID: catID}, 1)
	require.NoError(t, err)
	assert.Equal(t, "IDM-01", item.SKU)
	assert.Equal(t, "Makanan", item.CategoryName)

	ms, err := uc.Movements(ctx, item.ID, 10)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, movement.TypeAdjustment, ms[0].Type)
	assert.Equal(t, 0, ms[0].StockBefore)
	assert.Equal(t, 10, ms[0].StockAfter)
	assert.Equal(t, NoteInitialStock, ms[0].Notes)

	rec, err := uc.Reconcile(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
	assert.Equal(t, item.ID, rec.ItemID)
}

func TestCreate_ZeroStockHasNoMovement(t *testing.T) {
	uc, _, catID := setup(t)
	ctx := context.Background()

	item, err := uc.Create(ctx, ItemInput{SKU: "IDM-02", Name: "Kopi", Price: 2000, CategoryID: catID}, 1)
	require.NoError(t, err)

	ms, err := uc.Movements(ctx, item.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, ms)

	rec, err := uc.Reconcile(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
	assert.Nil(t, rec.LastAfter)
}

func TestCreate_Validation(t *testing.T) {
	uc, store, catID := setup(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   ItemInput
		want error
	}{
		{"缺少SKU", ItemInput{Name: "x", Price: 1, CategoryID: catID}, inventory.ErrSKURequired},
		{"价格为0", ItemInput{SKU: "a", Name: "x", CategoryID: catID}, inventory.ErrInvalidPrice},
		{"价格超过上限", ItemInput{SKU: "a", Name: "x", Price: inventory.MaxPrice + 1, CategoryID: catID}, inventory.ErrInvalidPrice},
		{"库存为负", ItemInput{SKU: "a", Name: "x", Price: 1, Stock: -1, CategoryID: catID}, inventory.ErrInvalidStock},
		{"分类不存在", ItemInput{SKU: "a", Name: "x", Price: 1, CategoryID: 99}, category.ErrCategoryNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Create(ctx, tt.in, 1)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	all, err := store.Inventory().ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdate_StockChangeWritesDelta(t *testing.T) {
	uc, _, catID := setup(t)
	ctx := context.Background()
	item, err := uc.Create(ctx, ItemInput{SKU: "IDM-01", Name: "Indomie", Price: 3500, Stock: 10, CategoryID: catID}, 1)
	require.NoError(t, err)

	updated, err := uc.Update(ctx, item.ID, ItemInput{SKU: "IDM-01", Name: "Indomie Goreng", Price: 3600, Stock: 7, CategoryID: catID}, 2)
	require.NoError(t, err)
	assert.Equal(t, "Indomie Goreng", updated.Name)
	assert.Equal(t, 7, updated.Stock)

	ms, err := uc.Movements(ctx, item.ID, 10)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, -3, ms[0].Quantity)
	assert.Equal(t, NoteManualAdjust, ms[0].Notes)

	// 库存未变时不写流水
	_, err = uc.Update(ctx, item.ID, ItemInput{SKU: "IDM-01", Name: "Indomie Goreng", Price: 3700, Stock: 7, CategoryID: catID}, 2)
	require.NoError(t, err)
	ms, _ = uc.Movements(ctx, item.ID, 10)
	assert.Len(t, ms, 2)

	rec, err := uc.Reconcile(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
}

func TestUpdate_NotFoundAndDelete(t *testing.T) {
	uc, _, catID := setup(t)
	ctx := context.Background()

	_, err := uc.Update(ctx, 42, ItemInput{SKU: "a", Name: "a", Price: 1, CategoryID: catID}, 1)
	assert.ErrorIs(t, err, inventory.ErrItemNotFound)

	item, err := uc.Create(ctx, ItemInput{SKU: "IDM-01", Name: "Indomie", Price: 3500, Stock: 1, CategoryID: catID}, 1)
	require.NoError(t, err)
	require.NoError(t, uc.Delete(ctx, item.ID))

	_, err = uc.Get(ctx, item.ID)
	assert.ErrorIs(t, err, inventory.ErrItemNotFound)
	assert.ErrorIs(t, uc.Delete(ctx, item.ID), inventory.ErrItemNotFound)
}

func TestList_NormalizesParams(t *testing.T) {
	uc, _, catID := setup(t)
	ctx := context.Background()
	for _, sku := range []string{"A", "B", "C"} {
		_, err := uc.Create(ctx, ItemInput{SKU: sku, Name: "Item " + sku, Price: 1000, CategoryID: catID}, 1)
		require.NoError(t, err)
	}

	items, total, params, err := uc.List(ctx, inventory.ListParams{Keyword: "  item ", SortBy: "bogus", Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 3)
	assert.Equal(t, inventory.SortByID, params.SortBy)
	assert.Equal(t, 100, params.Limit)
	assert.Equal(t, "item", params.Keyword)
}
