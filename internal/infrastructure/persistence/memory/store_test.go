package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/minipos/internal/domain/category"
	"github.com/xiebiao/minipos/internal/domain/inventory"
	"github.com/xiebiao/minipos/internal/domain/movement"
	"github.com/xiebiao/minipos/internal/domain/sale"
	"github.com/xiebiao/minipos/internal/domain/supplier"
)

var errBoom = errors.New("boom")

func seedItem(t *testing.T, s *Store, sku string, stock int) *inventory.Item {
	t.Helper()
	ctx := context.Background()
	c := &category.Category{Name: "Makanan-" + sku}
	require.NoError(t, s.Categories().Create(ctx, c))
	item := inventory.NewItem(sku, "Item "+sku, 3500, stock, c.ID, "", 1)
	require.NoError(t, s.Inventory().Create(ctx, item))
	return item
}

func TestTransaction_RollbackOnError(t *testing.T) {
	s := NewStore()
	item := seedItem(t, s, "IDM-01", 10)
	ctx := context.Background()

	err := s.Transaction(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Inventory().AdjustStock(ctx, item.ID, -4))
		require.NoError(t, s.Movements().CreateBatch(ctx, []*movement.Movement{
			movement.NewSale(item.ID, 10, 4, 1, 1),
		}))
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	got, err := s.Inventory().FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock, "回滚后库存不变")

	ms, err := s.Movements().ListByItem(ctx, item.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, ms)
}

func TestTransaction_RollbackOnPanic(t *testing.T) {
	s := NewStore()
	item := seedItem(t, s, "IDM-01", 10)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = s.Transaction(ctx, func(ctx context.Context) error {
			_ = s.Inventory().AdjustStock(ctx, item.ID, -4)
			panic("unexpected")
		})
	})

	got, _ := s.Inventory().FindByID(ctx, item.ID)
	assert.Equal(t, 10, got.Stock)

	// 互斥锁已释放，后续事务可以继续
	require.NoError(t, s.Transaction(ctx, func(ctx context.Context) error {
		return s.Inventory().AdjustStock(ctx, item.ID, -1)
	}))
}

func TestTransaction_NestedRollback(t *testing.T) {
	s := NewStore()
	item := seedItem(t, s, "IDM-01", 10)
	ctx := context.Background()

	err := s.Transaction(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Inventory().AdjustStock(ctx, item.ID, -1))
		inner := s.Transaction(ctx, func(ctx context.Context) error {
			_ = s.Inventory().AdjustStock(ctx, item.ID, -5)
			return errBoom
		})
		assert.ErrorIs(t, inner, errBoom)
		return nil
	})
	require.NoError(t, err)

	got, _ := s.Inventory().FindByID(ctx, item.ID)
	assert.Equal(t, 9, got.Stock, "只回滚内层写入")
}

func TestTransaction_UncommittedWritesInvisible(t *testing.T) {
	s := NewStore()
	item := seedItem(t, s, "IDM-01", 10)
	ctx := context.Background()

	for _, tt := range []struct {
		name      string
		result    error
		wantStock int
		wantSales int64
	}{
		{"失败后回滚", errBoom, 10, 0},
		{"成功后可见", nil, 6, 1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			before, err := s.Inventory().FindByID(ctx, item.ID)
			require.NoError(t, err)
			_, salesBefore, err := s.Sales().List(ctx, sale.ListParams{})
			require.NoError(t, err)

			inside := make(chan int, 1)
			release := make(chan struct{})
			done := make(chan error, 1)
			go func() {
				done <- s.Transaction(ctx, func(txCtx context.Context) error {
					if err := s.Inventory().AdjustStock(txCtx, item.ID, -4); err != nil {
						return err
					}
					sold := sale.NewSale("", 1, []sale.Item{sale.NewItem(item.ID, item.Name, item.Price, 4, before.Stock)}, 20000)
					sold.InvoiceNo = sale.FormatInvoiceNo(time.Now(), int(salesBefore))
					if err := s.Sales().Create(txCtx, sold); err != nil {
						return err
					}
					own, err := s.Inventory().FindByID(txCtx, item.ID)
					if err != nil {
						return err
					}
					inside <- own.Stock
					<-release
					return tt.result
				})
			}()

			select {
			case own := <-inside:
				assert.Equal(t, before.Stock-4, own, "事务内能读到自己的写入")
			case err := <-done:
				t.Fatalf("事务提前结束: %v", err)
			}

			got, err := s.Inventory().FindByID(ctx, item.ID)
			require.NoError(t, err)
			assert.Equal(t, before.Stock, got.Stock, "未提交的扣减不可见")
			_, total, err := s.Sales().List(ctx, sale.ListParams{})
			require.NoError(t, err)
			assert.Equal(t, salesBefore, total, "未提交的销售单不可见")

			close(release)
			assert.ErrorIs(t, <-done, tt.result)

			got, err = s.Inventory().FindByID(ctx, item.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStock, got.Stock)
			_, total, err = s.Sales().List(ctx, sale.ListParams{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantSales, total)
		})
	}
}

func TestTransaction_CanceledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.Transaction(ctx, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestInventory_AdjustStockGuard(t *testing.T) {
	s := NewStore()
	item := seedItem(t, s, "IDM-01", 3)
	ctx := context.Background()

	err := s.Inventory().AdjustStock(ctx, item.ID, -4)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	got, _ := s.Inventory().FindByID(ctx, item.ID)
	assert.Equal(t, 3, got.Stock)

	assert.ErrorIs(t, s.Inventory().AdjustStock(ctx, 999, 1), inventory.ErrItemNotFound)
}

func TestInventory_SoftDeleteKeepsSKU(t *testing.T) {
	s := NewStore()
	item := seedItem(t, s, "IDM-01", 3)
	ctx := context.Background()

	require.NoError(t, s.Inventory().Delete(ctx, item.ID))
	_, err := s.Inventory().FindByID(ctx, item.ID)
	assert.ErrorIs(t, err, inventory.ErrItemNotFound)

	locked, err := s.Inventory().LockByIDs(ctx, []uint{item.ID})
	require.NoError(t, err)
	assert.Empty(t, locked, "已删除商品不可结账")

	dup := inventory.NewItem("IDM-01", "Other", 1000, 1, item.CategoryID, "", 1)
	assert.ErrorIs(t, s.Inventory().Create(ctx, dup), inventory.ErrSKUDuplicate)
}

func TestInventory_ListSortAndFilter(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := seedItem(t, s, "B-02", 5)
	b := seedItem(t, s, "A-01", 9)
	_ = seedItem(t, s, "C-03", 1)

	items, total, err := s.Inventory().List(ctx, inventory.ListParams{SortBy: inventory.SortByStock, Desc: true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []int{9, 5, 1}, []int{items[0].Stock, items[1].Stock, items[2].Stock})
	assert.Equal(t, "Makanan-A-01", items[0].CategoryName)

	items, total, err = s.Inventory().List(ctx, inventory.ListParams{Keyword: "a-01"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, b.ID, items[0].ID)

	items, _, err = s.Inventory().List(ctx, inventory.ListParams{CategoryID: a.CategoryID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, a.ID, items[0].ID)

	items, total, err = s.Inventory().List(ctx, inventory.ListParams{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 1)
}

func TestInventory_LockByIDsOrder(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := seedItem(t, s, "A", 1)
	b := seedItem(t, s, "B", 1)

	items, err := s.Inventory().LockByIDs(ctx, []uint{b.ID, 42, a.ID})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, a.ID, items[0].ID)
	assert.Equal(t, b.ID, items[1].ID)
}

func TestSale_InvoiceCollision(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	items := []sale.Item{sale.NewItem(1, "Indomie", 3500, 2, 10)}

	first := sale.NewSale("TRX-20240315-143005-042", 1, items, 10000)
	require.NoError(t, s.Sales().Create(ctx, first))
	assert.NotZero(t, first.ID)
	assert.Equal(t, first.ID, first.Items[0].SaleID)

	second := sale.NewSale("TRX-20240315-143005-042", 1, items, 10000)
	assert.ErrorIs(t, s.Sales().Create(ctx, second), sale.ErrInvoiceCollision)

	got, err := s.Sales().FindByInvoiceNo(ctx, first.InvoiceNo)
	require.NoError(t, err)
	assert.Equal(t, int64(7000), got.Total)

	list, total, err := s.Sales().List(ctx, sale.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)
}

func TestMovement_Summaries(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Movements().CreateBatch(ctx, []*movement.Movement{
		movement.NewAdjustment(1, 0, 10, 1, "初始库存"),
		movement.NewSale(1, 10, 3, 1, 1),
		movement.NewPurchase(2, 0, 5, 1, 1, ""),
	}))

	sum, err := s.Movements().Summarize(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Count)
	assert.Equal(t, 7, sum.Sum)
	assert.Equal(t, 7, sum.LastAfter)

	empty, err := s.Movements().Summarize(ctx, 99)
	require.NoError(t, err)
	assert.Zero(t, empty.Count)

	ms, err := s.Movements().ListByItem(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, movement.TypeSale, ms[0].Type, "最新的在前")

	assert.Len(t, s.Movements().(movementRepo).byItem()[2], 1)
}

func TestSupplier_ListAndDuplicate(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repo := s.Suppliers()

	require.NoError(t, repo.Create(ctx, &supplier.Supplier{Name: "PT Sumber", Phone: "0812"}))
	require.NoError(t, repo.Create(ctx, &supplier.Supplier{Name: "CV Abadi", Phone: "0899"}))
	assert.ErrorIs(t, repo.Create(ctx, &supplier.Supplier{Name: "CV Abadi"}), supplier.ErrSupplierDuplicate)

	list, err := repo.List(ctx, supplier.ListParams{SortBy: "phone", Desc: true})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "CV Abadi", list[0].Name)

	require.NoError(t, repo.Delete(ctx, list[0].ID))
	_, err = repo.FindByID(ctx, list[0].ID)
	assert.ErrorIs(t, err, supplier.ErrSupplierNotFound)
}

func TestKV_Expiry(t *testing.T) {
	kv := NewKV()
	now := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	kv.now = func() time.Time { return now }
	ctx := context.Background()

	store := kv.Idempotency()
	r, err := store.Reserve(ctx, "k1", "fp", time.Minute)
	require.NoError(t, err)
	assert.True(t, r.Acquired)

	r, err = store.Reserve(ctx, "k1", "other", time.Minute)
	require.NoError(t, err)
	assert.False(t, r.Acquired)
	assert.Equal(t, "fp", r.Fingerprint)
	assert.Empty(t, r.InvoiceNo)

	require.NoError(t, store.Complete(ctx, "k1", "TRX-20240315-143000-001", time.Minute))
	r, _ = store.Reserve(ctx, "k1", "fp", time.Minute)
	assert.Equal(t, "TRX-20240315-143000-001", r.InvoiceNo)

	now = now.Add(2 * time.Minute)
	r, _ = store.Reserve(ctx, "k1", "fp2", time.Minute)
	assert.True(t, r.Acquired, "过期后可重新占用")

	sessions := kv.Sessions()
	ok, _ := sessions.IsInBlacklist(ctx, "tok")
	assert.False(t, ok)
	require.NoError(t, sessions.AddToBlacklist(ctx, "tok", time.Second))
	ok, _ = sessions.IsInBlacklist(ctx, "tok")
	assert.True(t, ok)
	now = now.Add(time.Second)
	ok, _ = sessions.IsInBlacklist(ctx, "tok")
	assert.False(t, ok)
}
