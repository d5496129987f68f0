package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/minipos/internal/domain/category"
	"github.com/xiebiao/minipos/internal/domain/inventory"
	"github.com/xiebiao/minipos/internal/domain/movement"
	"github.com/xiebiao/minipos/internal/domain/sale"
	"github.com/xiebiao/minipos/internal/domain/user"
	"github.com/xiebiao/minipos/internal/infrastructure/persistence/memory"
	apperrors "github.com/xiebiao/minipos/pkg/errors"
)

type fixture struct {
	store   *memory.Store
	kv      *memory.KV
	uc      *UseCase
	cashier *user.User
	events  *recordingPublisher
}

type recordingPublisher struct {
	mu    sync.Mutex
	sales []*sale.Sale
}

func (p *recordingPublisher) SaleCompleted(s *sale.Sale) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sales = append(p.sales, s)
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	store := memory.NewStore()
	kv := memory.NewKV()

	cashier := user.NewUser("kasir", "hash", "Kasir Satu", user.RoleCashier)
	require.NoError(t, store.Users().Create(context.Background(), cashier))

	events := &recordingPublisher{}
	uc := NewUseCase(store, store.Inventory(), store.Sales(), store.Movements(), kv.Idempotency(), events, opts)
	return &fixture{store: store, kv: kv, uc: uc, cashier: cashier, events: events}
}

// addItem 新建商品并写入初始库存流水，使账实一致
func (f *fixture) addItem(t *testing.T, name string, price int64, stock int) *inventory.Item {
	t.Helper()
	ctx := context.Background()
	c := &category.Category{Name: "cat-" + name}
	require.NoError(t, f.store.Categories().Create(ctx, c))

	item := inventory.NewItem("SKU-"+name, name, price, stock, c.ID, "", f.cashier.ID)
	require.NoError(t, f.store.Inventory().Create(ctx, item))
	require.NoError(t, f.store.Movements().CreateBatch(ctx, []*movement.Movement{
		movement.NewAdjustment(item.ID, 0, stock, f.cashier.ID, "initial stock"),
	}))
	return item
}

func (f *fixture) stock(t *testing.T, id uint) int {
	t.Helper()
	item, err := f.store.Inventory().FindByID(context.Background(), id)
	require.NoError(t, err)
	return item.Stock
}

func (f *fixture) saleCount(t *testing.T) int64 {
	t.Helper()
	_, total, err := f.store.Sales().List(context.Background(), sale.ListParams{})
	require.NoError(t, err)
	return total
}

func (f *fixture) request(paid int64, lines ...sale.Line) Request {
	return Request{CashierID: f.cashier.ID, Lines: lines, Paid: paid}
}

func line(id uint, qty int64) sale.Line {
	return sale.Line{ItemID: int64(id), Qty: qty}
}

func TestCheckout_ScenarioA_DecrementsStockAndWritesMovement(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	p := f.addItem(t, "Indomie", 3500, 10)

	res, err := f.uc.Execute(context.Background(), f.request(20000, line(p.ID, 4)))
	require.NoError(t, err)

	s := res.Sale
	assert.False(t, res.Replayed)
	assert.True(t, sale.IsValidInvoiceNo(s.InvoiceNo), s.InvoiceNo)
	assert.Equal(t, int64(14000), s.Total)
	assert.Equal(t, int64(6000), s.Change)
	require.Len(t, s.Items, 1)
	assert.Equal(t, 10, s.Items[0].StockBefore)
	assert.Equal(t, 6, f.stock(t, p.ID))

	ms, err := f.store.Movements().ListByItem(context.Background(), p.ID, 10)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	m := ms[0]
	assert.Equal(t, movement.TypeSale, m.Type)
	assert.Equal(t, -4, m.Quantity)
	assert.Equal(t, 10, m.StockBefore)
	assert.Equal(t, 6, m.StockAfter)
	assert.Equal(t, s.ID, m.ReferenceID)
	assert.Equal(t, movement.RefSale, m.ReferenceType)

	require.Len(t, f.events.sales, 1)
	assert.Equal(t, s.InvoiceNo, f.events.sales[0].InvoiceNo)
}

func TestCheckout_ScenarioB_InsufficientStock(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	p := f.addItem(t, "Teh Botol", 4000, 3)

	_, err := f.uc.Execute(context.Background(), f.request(50000, line(p.ID, 5)))
	require.Error(t, err)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.Contains(t, apperrors.GetAppError(err).Message, "Teh Botol")

	assert.Equal(t, 3, f.stock(t, p.ID))
	assert.Zero(t, f.saleCount(t))
	assert.Empty(t, f.events.sales)
}

func TestCheckout_ScenarioC_ConcurrentCheckoutsDoNotOversell(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	p := f.addItem(t, "Beras", 12000, 10)

	var (
		wg       sync.WaitGroup
		start    = make(chan struct{})
		errs     = make([]error, 2)
		requests = []Request{f.request(100000, line(p.ID, 6)), f.request(100000, line(p.ID, 6))}
	)
	for i := range requests {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.uc.Execute(context.Background(), requests[i])
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded, rejected := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, inventory.ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 4, f.stock(t, p.ID))
}

func TestCheckout_ScenarioD_Change(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	a := f.addItem(t, "Indomie", 3500, 50)
	b := f.addItem(t, "Teh Botol", 4000, 20)

	res, err := f.uc.Execute(context.Background(), f.request(50000, line(a.ID, 10), line(b.ID, 3)))
	require.NoError(t, err)
	assert.Equal(t, int64(47000), res.Sale.Total)
	assert.Equal(t, int64(50000), res.Sale.Paid)
	assert.Equal(t, int64(3000), res.Sale.Change)
}

func TestCheckout_NoOversellUnderContention(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	p := f.addItem(t, "Gula", 15000, 20)

	const workers = 40
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sold int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(qty int) {
			defer wg.Done()
			res, err := f.uc.Execute(context.Background(), f.request(1_000_000, line(p.ID, int64(qty))))
			if err != nil {
				assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
				return
			}
			mu.Lock()
			sold += res.Sale.ItemCount()
			mu.Unlock()
		}(i%3 + 1)
	}
	wg.Wait()

	assert.LessOrEqual(t, sold, 20)
	assert.Equal(t, 20-sold, f.stock(t, p.ID))

	sum, err := f.store.Movements().Summarize(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, movement.Reconcile(f.stock(t, p.ID), sum).Consistent)
}

func TestCheckout_LedgerReconciles(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	a := f.addItem(t, "Indomie", 3500, 30)
	b := f.addItem(t, "Kopi", 2000, 15)
	ctx := context.Background()

	for _, req := range []Request{
		f.request(100000, line(a.ID, 2), line(b.ID, 1)),
		f.request(100000, line(a.ID, 5)),
		f.request(100000, line(b.ID, 20)), // 库存不足
		f.request(100000, line(b.ID, 4), line(a.ID, 1)),
	} {
		_, _ = f.uc.Execute(ctx, req)
	}

	all, err := f.store.Movements().SummarizeAll(ctx)
	require.NoError(t, err)
	for _, item := range []*inventory.Item{a, b} {
		stock := f.stock(t, item.ID)
		rec := movement.Reconcile(stock, all[item.ID])
		assert.True(t, rec.Consistent, "item %d: %+v", item.ID, rec)
	}
	assert.Equal(t, 22, f.stock(t, a.ID))
	assert.Equal(t, 10, f.stock(t, b.ID))
}

func TestCheckout_TotalIsSumOfSubtotals(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	a := f.addItem(t, "Indomie", 3500, 50)
	b := f.addItem(t, "Sabun", 7250, 50)

	res, err := f.uc.Execute(context.Background(), f.request(100000, line(a.ID, 3), line(b.ID, 7)))
	require.NoError(t, err)

	var sum int64
	for _, it := range res.Sale.Items {
		assert.Equal(t, it.Price*int64(it.Qty), it.Subtotal)
		sum += it.Subtotal
	}
	assert.Equal(t, sum, res.Sale.Total)

	stored, err := f.store.Sales().FindByInvoiceNo(context.Background(), res.Sale.InvoiceNo)
	require.NoError(t, err)
	assert.Equal(t, res.Sale.Total, stored.Total)
	assert.Equal(t, "Kasir Satu", stored.CashierName)
}

func TestCheckout_DuplicateLinesMerge(t *testing.T) {
	split := newFixture(t, DefaultOptions())
	p1 := split.addItem(t, "Indomie", 3500, 10)
	merged := newFixture(t, DefaultOptions())
	p2 := merged.addItem(t, "Indomie", 3500, 10)

	r1, err := split.uc.Execute(context.Background(), split.request(20000, line(p1.ID, 2), line(p1.ID, 3)))
	require.NoError(t, err)
	r2, err := merged.uc.Execute(context.Background(), merged.request(20000, line(p2.ID, 5)))
	require.NoError(t, err)

	require.Len(t, r1.Sale.Items, 1)
	assert.Equal(t, 5, r1.Sale.Items[0].Qty)
	assert.Equal(t, r2.Sale.Total, r1.Sale.Total)
	assert.Equal(t, r2.Sale.Change, r1.Sale.Change)
	assert.Equal(t, split.stock(t, p1.ID), merged.stock(t, p2.ID))

	// 合并后才校验库存：2+3超过库存时整体拒绝
	_, err = split.uc.Execute(context.Background(), split.request(20000, line(p1.ID, 3), line(p1.ID, 3)))
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
}

func TestCheckout_ProductUnavailable(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	a := f.addItem(t, "Indomie", 3500, 10)
	gone := f.addItem(t, "Discontinued", 1000, 10)
	require.NoError(t, f.store.Inventory().Delete(context.Background(), gone.ID))

	for _, id := range []uint{gone.ID, 999} {
		_, err := f.uc.Execute(context.Background(), f.request(100000, line(a.ID, 1), line(id, 1)))
		assert.ErrorIs(t, err, inventory.ErrProductUnavailable)
	}
	assert.Equal(t, 10, f.stock(t, a.ID))
	assert.Zero(t, f.saleCount(t))
}

func TestCheckout_Validation(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	p := f.addItem(t, "Indomie", 3500, 10)

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"空购物车", f.request(1000), sale.ErrEmptyCart},
		{"数量为0", f.request(1000, line(p.ID, 0)), sale.ErrInvalidLine},
		{"ID非法", f.request(1000, sale.Line{ItemID: -1, Qty: 1}), sale.ErrInvalidLine},
		{"实付为负", f.request(-1, line(p.ID, 1)), sale.ErrInvalidPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 10, f.stock(t, p.ID))
}

func TestCheckout_Underpayment(t *testing.T) {
	t.Run("默认拒绝", func(t *testing.T) {
		f := newFixture(t, DefaultOptions())
		p := f.addItem(t, "Indomie", 3500, 10)

		_, err := f.uc.Execute(context.Background(), f.request(5000, line(p.ID, 2)))
		assert.ErrorIs(t, err, sale.ErrUnderpaid)
		assert.Equal(t, 10, f.stock(t, p.ID))
		assert.Zero(t, f.saleCount(t))
	})

	t.Run("允许时找零为负", func(t *testing.T) {
		opts := DefaultOptions()
		opts.AllowUnderpayment = true
		f := newFixture(t, opts)
		p := f.addItem(t, "Indomie", 3500, 10)

		res, err := f.uc.Execute(context.Background(), f.request(5000, line(p.ID, 2)))
		require.NoError(t, err)
		assert.Equal(t, int64(-2000), res.Sale.Change)
	})
}

// 存量数据中的单价不受新建校验约束，结账时仍需核算溢出
func TestCheckout_RejectsAmountOverflow(t *testing.T) {
	opts := DefaultOptions()
	opts.AllowUnderpayment = true
	f := newFixture(t, opts)
	p := f.addItem(t, "Emas", 9_300_000_000_000, 1_000_000)

	_, err := f.uc.Execute(context.Background(), f.request(1, line(p.ID, 1_000_000)))
	require.Error(t, err)
	assert.ErrorIs(t, err, sale.ErrAmountOutOfRange)
	assert.Equal(t, apperrors.ErrCodeInvalidParams, apperrors.GetAppError(err).Code)
	assert.Equal(t, 1_000_000, f.stock(t, p.ID))
	assert.Zero(t, f.saleCount(t))
	assert.Empty(t, f.events.sales)
}

func TestCheckout_InvoiceCollisionRetry(t *testing.T) {
	const taken = "TRX-20240315-143005-042"

	seedTaken := func(t *testing.T, f *fixture) {
		t.Helper()
		existing := sale.NewSale(taken, f.cashier.ID, []sale.Item{sale.NewItem(1, "x", 1, 1, 1)}, 1)
		require.NoError(t, f.store.Sales().Create(context.Background(), existing))
	}

	t.Run("重试一次后成功", func(t *testing.T) {
		f := newFixture(t, DefaultOptions())
		p := f.addItem(t, "Indomie", 3500, 10)
		seedTaken(t, f)

		numbers := []string{taken, "TRX-20240315-143005-043"}
		f.uc.invoiceNo = func() string {
			n := numbers[0]
			numbers = numbers[1:]
			return n
		}

		res, err := f.uc.Execute(context.Background(), f.request(10000, line(p.ID, 1)))
		require.NoError(t, err)
		assert.Equal(t, "TRX-20240315-143005-043", res.Sale.InvoiceNo)
		assert.Equal(t, 9, f.stock(t, p.ID))
	})

	t.Run("再次冲突返回临时错误", func(t *testing.T) {
		f := newFixture(t, DefaultOptions())
		p := f.addItem(t, "Indomie", 3500, 10)
		seedTaken(t, f)

		calls := 0
		f.uc.invoiceNo = func() string {
			calls++
			return taken
		}

		_, err := f.uc.Execute(context.Background(), f.request(10000, line(p.ID, 1)))
		assert.ErrorIs(t, err, apperrors.ErrTransient)
		assert.Equal(t, 2, calls)
		assert.Equal(t, 10, f.stock(t, p.ID))
		assert.Equal(t, int64(1), f.saleCount(t))
	})
}

// failingMovements 追加流水时失败，用来验证前面的写入全部回滚
type failingMovements struct {
	movement.Repository
}

var errLedgerDown = errors.New("stock_movements: disk full")

func (failingMovements) CreateBatch(context.Context, []*movement.Movement) error {
	return errLedgerDown
}

func TestCheckout_StorageFailureRollsBack(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	p := f.addItem(t, "Indomie", 3500, 10)
	uc := NewUseCase(f.store, f.store.Inventory(), f.store.Sales(), failingMovements{f.store.Movements()}, nil, nil, DefaultOptions())

	_, err := uc.Execute(context.Background(), f.request(10000, line(p.ID, 2)))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTransient)
	assert.ErrorIs(t, err, errLedgerDown)

	assert.Equal(t, 10, f.stock(t, p.ID))
	assert.Zero(t, f.saleCount(t))
	ms, _ := f.store.Movements().ListByItem(context.Background(), p.ID, 10)
	assert.Len(t, ms, 1, "只剩初始库存流水")
}

func TestCheckout_Idempotency(t *testing.T) {
	ctx := context.Background()

	t.Run("重放返回同一销售单", func(t *testing.T) {
		f := newFixture(t, DefaultOptions())
		p := f.addItem(t, "Indomie", 3500, 10)
		req := f.request(10000, line(p.ID, 2))
		req.IdempotencyKey = "key-1"

		first, err := f.uc.Execute(ctx, req)
		require.NoError(t, err)
		second, err := f.uc.Execute(ctx, req)
		require.NoError(t, err)

		assert.True(t, second.Replayed)
		assert.Equal(t, first.Sale.InvoiceNo, second.Sale.InvoiceNo)
		assert.Equal(t, 8, f.stock(t, p.ID))
		assert.Equal(t, int64(1), f.saleCount(t))
		assert.Len(t, f.events.sales, 1)
	})

	t.Run("同一key不同内容", func(t *testing.T) {
		f := newFixture(t, DefaultOptions())
		p := f.addItem(t, "Indomie", 3500, 10)
		req := f.request(10000, line(p.ID, 2))
		req.IdempotencyKey = "key-2"
		_, err := f.uc.Execute(ctx, req)
		require.NoError(t, err)

		req.Lines = []sale.Line{line(p.ID, 3)}
		_, err = f.uc.Execute(ctx, req)
		assert.ErrorIs(t, err, sale.ErrIdempotencyMismatch)
		assert.Equal(t, 8, f.stock(t, p.ID))
	})

	t.Run("处理中", func(t *testing.T) {
		f := newFixture(t, DefaultOptions())
		p := f.addItem(t, "Indomie", 3500, 10)
		req := f.request(10000, line(p.ID, 2))
		req.IdempotencyKey = "key-3"

		lines, err := sale.MergeLines(req.Lines)
		require.NoError(t, err)
		_, err = f.kv.Idempotency().Reserve(ctx, "key-3", sale.Fingerprint(req.CashierID, lines, req.Paid), DefaultOptions().IdempotencyTTL)
		require.NoError(t, err)

		_, err = f.uc.Execute(ctx, req)
		assert.ErrorIs(t, err, sale.ErrCheckoutInProgress)
		assert.Equal(t, 10, f.stock(t, p.ID))
	})

	t.Run("失败后释放key", func(t *testing.T) {
		f := newFixture(t, DefaultOptions())
		p := f.addItem(t, "Indomie", 3500, 1)
		req := f.request(10000, line(p.ID, 2))
		req.IdempotencyKey = "key-4"

		_, err := f.uc.Execute(ctx, req)
		require.ErrorIs(t, err, inventory.ErrInsufficientStock)

		require.NoError(t, f.store.Inventory().AdjustStock(ctx, p.ID, 5))
		res, err := f.uc.Execute(ctx, req)
		require.NoError(t, err)
		assert.False(t, res.Replayed)
	})
}

// flakyIdempotency 记录占用时的TTL，并让前failComplete次登记失败
type flakyIdempotency struct {
	sale.IdempotencyStore
	failComplete  int
	completeCalls int
	reserveTTL    time.Duration
}

var errKVDown = errors.New("redis: connection reset")

func (s *flakyIdempotency) Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (sale.Reservation, error) {
	s.reserveTTL = ttl
	return s.IdempotencyStore.Reserve(ctx, key, fingerprint, ttl)
}

func (s *flakyIdempotency) Complete(ctx context.Context, key, invoiceNo string, ttl time.Duration) error {
	s.completeCalls++
	if s.completeCalls <= s.failComplete {
		return errKVDown
	}
	return s.IdempotencyStore.Complete(ctx, key, invoiceNo, ttl)
}

func TestCheckout_IdempotencyCompleteFailure(t *testing.T) {
	ctx := context.Background()
	opts := DefaultOptions()

	t.Run("登记失败重试一次", func(t *testing.T) {
		f := newFixture(t, opts)
		p := f.addItem(t, "Indomie", 3500, 10)
		store := &flakyIdempotency{IdempotencyStore: f.kv.Idempotency(), failComplete: 1}
		uc := NewUseCase(f.store, f.store.Inventory(), f.store.Sales(), f.store.Movements(), store, nil, opts)

		req := f.request(10000, line(p.ID, 2))
		req.IdempotencyKey = "key-5"
		first, err := uc.Execute(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 2, store.completeCalls)
		assert.Equal(t, opts.PendingTTL, store.reserveTTL)

		second, err := uc.Execute(ctx, req)
		require.NoError(t, err)
		assert.True(t, second.Replayed)
		assert.Equal(t, first.Sale.InvoiceNo, second.Sale.InvoiceNo)
		assert.Equal(t, 8, f.stock(t, p.ID))
	})

	t.Run("一直失败时仅短期占用", func(t *testing.T) {
		f := newFixture(t, opts)
		p := f.addItem(t, "Indomie", 3500, 10)
		store := &flakyIdempotency{IdempotencyStore: f.kv.Idempotency(), failComplete: 10}
		uc := NewUseCase(f.store, f.store.Inventory(), f.store.Sales(), f.store.Movements(), store, nil, opts)

		req := f.request(10000, line(p.ID, 2))
		req.IdempotencyKey = "key-6"
		_, err := uc.Execute(ctx, req)
		require.NoError(t, err, "已提交的销售不因登记失败而报错")
		assert.Equal(t, 2, store.completeCalls)
		assert.Equal(t, opts.PendingTTL, store.reserveTTL)
		assert.Less(t, store.reserveTTL, opts.IdempotencyTTL)

		_, err = uc.Execute(ctx, req)
		assert.ErrorIs(t, err, sale.ErrCheckoutInProgress)
		assert.Equal(t, 8, f.stock(t, p.ID))
	})

	t.Run("PendingTTL不超过IdempotencyTTL", func(t *testing.T) {
		uc := NewUseCase(nil, nil, nil, nil, nil, nil, Options{IdempotencyTTL: time.Minute, PendingTTL: time.Hour})
		assert.Equal(t, time.Minute, uc.opts.PendingTTL)

		uc = NewUseCase(nil, nil, nil, nil, nil, nil, Options{})
		assert.Equal(t, DefaultOptions().PendingTTL, uc.opts.PendingTTL)
	})
}

func TestQueryUseCase(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	p := f.addItem(t, "Indomie", 3500, 10)
	ctx := context.Background()

	res, err := f.uc.Execute(ctx, f.request(10000, line(p.ID, 1)))
	require.NoError(t, err)

	q := NewQueryUseCase(f.store.Sales())
	got, err := q.GetByInvoiceNo(ctx, " "+res.Sale.InvoiceNo+" ")
	require.NoError(t, err)
	assert.Equal(t, res.Sale.ID, got.ID)

	_, err = q.GetByInvoiceNo(ctx, "not-an-invoice")
	assert.ErrorIs(t, err, sale.ErrSaleNotFound)

	list, total, params, err := q.List(ctx, sale.ListParams{CashierID: f.cashier.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)
	assert.Equal(t, 10, params.Limit)
}
