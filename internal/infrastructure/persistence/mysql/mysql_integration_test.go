package mysql

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/minipos/internal/application/checkout"
	"github.com/xiebiao/minipos/internal/domain/category"
	"github.com/xiebiao/minipos/internal/domain/inventory"
	"github.com/xiebiao/minipos/internal/domain/movement"
	"github.com/xiebiao/minipos/internal/domain/sale"
	"github.com/xiebiao/minipos/internal/domain/user"
)

// openTestDB 需要可写的MySQL，例如
// MINIPOS_TEST_MYSQL_DSN="root:root@tcp(127.0.0.1:3306)/minipos_test?charset=utf8mb4&parseTime=true&loc=Local"
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("MINIPOS_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("MINIPOS_TEST_MYSQL_DSN 未设置，跳过MySQL集成测试")
	}
	db, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type mysqlFixture struct {
	categories category.Repository
	items      inventory.Repository
	movements  movement.Repository
	sales      sale.Repository
	uc         *checkout.UseCase
	cashier    *user.User
	suffix     string
}

func newMySQLFixture(t *testing.T) *mysqlFixture {
	t.Helper()
	db := openTestDB(t)
	ctx := context.Background()
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())

	users := NewUserRepository(db)
	cashier := user.NewUser("kasir_"+suffix, "hash", "Kasir Integrasi", user.RoleCashier)
	require.NoError(t, users.Create(ctx, cashier))

	f := &mysqlFixture{
		categories: NewCategoryRepository(db),
		items:      NewInventoryRepository(db),
		movements:  NewMovementRepository(db),
		sales:      NewSaleRepository(db),
		cashier:    cashier,
		suffix:     suffix,
	}
	f.uc = checkout.NewUseCase(NewTxManager(db), f.items, f.sales, f.movements, nil, nil, checkout.DefaultOptions())
	return f
}

func (f *mysqlFixture) addItem(t *testing.T, name string, price int64, stock int) *inventory.Item {
	t.Helper()
	ctx := context.Background()
	c := &category.Category{Name: "cat-" + name + "-" + f.suffix}
	require.NoError(t, f.categories.Create(ctx, c))

	item := inventory.NewItem("SKU-"+name+"-"+f.suffix, name, price, stock, c.ID, "", f.cashier.ID)
	require.NoError(t, f.items.Create(ctx, item))
	require.NoError(t, f.movements.CreateBatch(ctx, []*movement.Movement{
		movement.NewAdjustment(item.ID, 0, stock, f.cashier.ID, "initial stock"),
	}))
	return item
}

func TestMySQL_CheckoutPersistsSale(t *testing.T) {
	f := newMySQLFixture(t)
	ctx := context.Background()
	a := f.addItem(t, "Indomie", 3500, 50)
	b := f.addItem(t, "Teh Botol", 4000, 20)

	res, err := f.uc.Execute(ctx, checkout.Request{
		CashierID: f.cashier.ID,
		Paid:      50000,
		Lines: []sale.Line{
			{ItemID: int64(a.ID), Qty: 6},
			{ItemID: int64(b.ID), Qty: 3},
			{ItemID: int64(a.ID), Qty: 4},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(47000), res.Sale.Total)
	assert.Equal(t, int64(3000), res.Sale.Change)

	stored, err := f.sales.FindByInvoiceNo(ctx, res.Sale.InvoiceNo)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2, "重复商品应合并为一行")
	assert.Equal(t, "Kasir Integrasi", stored.CashierName)

	for _, want := range []struct {
		id    uint
		stock int
	}{{a.ID, 40}, {b.ID, 17}} {
		item, err := f.items.FindByID(ctx, want.id)
		require.NoError(t, err)
		assert.Equal(t, want.stock, item.Stock)

		summary, err := f.movements.Summarize(ctx, want.id)
		require.NoError(t, err)
		assert.True(t, movement.Reconcile(item.Stock, summary).Consistent)
	}
}

func TestMySQL_ConcurrentCheckoutsDoNotOversell(t *testing.T) {
	f := newMySQLFixture(t)
	ctx := context.Background()
	p := f.addItem(t, "Beras", 12000, 10)

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sold int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Execute(ctx, checkout.Request{
				CashierID: f.cashier.ID,
				Paid:      100000,
				Lines:     []sale.Line{{ItemID: int64(p.ID), Qty: 3}},
			})
			if err == nil {
				mu.Lock()
				sold += 3
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	item, err := f.items.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), sold, "库存10每单3件，只能成交3单")
	assert.Equal(t, 1, item.Stock)
}
