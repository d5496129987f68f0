// Package memory 进程内存储
//
// 用于单机演示（database.driver=memory）和用例测试。
// 事务通过store级互斥串行执行：fn在数据副本上工作，成功后整体替换，
// 出错时直接丢弃副本，因此结账的"锁行-校验-扣减"在这里天然是原子的。
// 多实例部署必须使用MySQL。
package memory

import (
	"context"
	"sync"

	"github.com/xiebiao/minipos/internal/domain/category"
	"github.com/xiebiao/minipos/internal/domain/inventory"
	"github.com/xiebiao/minipos/internal/domain/movement"
	"github.com/xiebiao/minipos/internal/domain/purchase"
	"github.com/xiebiao/minipos/internal/domain/sale"
	"github.com/xiebiao/minipos/internal/domain/supplier"
	"github.com/xiebiao/minipos/internal/domain/user"
)

type txKey struct{}

// Store 内存存储，同时实现Transactor和各仓储接口
type Store struct {
	txMu sync.Mutex   // 串行化事务以及事务外的写操作
	mu   sync.RWMutex // 保护data
	data *state
}

type itemRecord struct {
	item    inventory.Item
	deleted bool
}

type supplierRecord struct {
	supplier supplier.Supplier
	deleted  bool
}

type state struct {
	seq        map[string]uint
	users      map[uint]user.User
	categories map[uint]category.Category
	items      map[uint]itemRecord
	suppliers  map[uint]supplierRecord
	purchases  []purchase.Purchase
	sales      map[uint]sale.Sale
	invoices   map[string]uint
	movements  []movement.Movement
}

// NewStore 创建空存储
func NewStore() *Store {
	return &Store{data: newState()}
}

func newState() *state {
	return &state{
		seq:        map[string]uint{},
		users:      map[uint]user.User{},
		categories: map[uint]category.Category{},
		items:      map[uint]itemRecord{},
		suppliers:  map[uint]supplierRecord{},
		sales:      map[uint]sale.Sale{},
		invoices:   map[string]uint{},
	}
}

func (st *state) nextID(table string) uint {
	st.seq[table]++
	return st.seq[table]
}

// clone 深拷贝，销售明细切片需要单独复制
func (st *state) clone() *state {
	c := newState()
	for k, v := range st.seq {
		c.seq[k] = v
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.categories {
		c.categories[k] = v
	}
	for k, v := range st.items {
		c.items[k] = v
	}
	for k, v := range st.suppliers {
		c.suppliers[k] = v
	}
	c.purchases = append([]purchase.Purchase(nil), st.purchases...)
	for k, v := range st.sales {
		v.Items = append([]sale.Item(nil), v.Items...)
		c.sales[k] = v
	}
	for k, v := range st.invoices {
		c.invoices[k] = v
	}
	c.movements = append([]movement.Movement(nil), st.movements...)
	return c
}

// Transaction 串行执行fn
// fn在数据副本上读写，成功返回后才替换为当前数据，事务外的读取看不到未提交的写入。
// 嵌套调用相当于SAVEPOINT，只回滚内层的写入
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if tx := s.txOf(ctx); tx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		savepoint := tx.data.clone()
		defer func() {
			if p := recover(); p != nil {
				tx.data = savepoint
				panic(p)
			}
			if err != nil {
				tx.data = savepoint
			}
		}()
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	tx := &txState{owner: s, data: s.data.clone()}
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = tx.data
	s.mu.Unlock()
	return nil
}

// Ping 内存存储始终可用
func (s *Store) Ping(context.Context) error {
	return nil
}

// txState 进行中事务的工作副本，只由持有txMu的goroutine访问
type txState struct {
	owner *Store
	data  *state
}

func (s *Store) txOf(ctx context.Context) *txState {
	tx, _ := ctx.Value(txKey{}).(*txState)
	if tx == nil || tx.owner != s {
		return nil
	}
	return tx
}

// write 写操作；事务外调用时也要排在进行中的事务之后，避免被其提交覆盖
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if tx := s.txOf(ctx); tx != nil {
		return fn(tx.data)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// read 事务内读工作副本，事务外读已提交的数据
func (s *Store) read(ctx context.Context, fn func(st *state)) {
	if tx := s.txOf(ctx); tx != nil {
		fn(tx.data)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

// Repositories 按接口取出各仓储
func (s *Store) Users() user.Repository          { return userRepo{s} }
func (s *Store) Categories() category.Repository { return categoryRepo{s} }
func (s *Store) Inventory() inventory.Repository { return inventoryRepo{s} }
func (s *Store) Suppliers() supplier.Repository  { return supplierRepo{s} }
func (s *Store) Purchases() purchase.Repository  { return purchaseRepo{s} }
func (s *Store) Sales() sale.Repository          { return saleRepo{s} }
func (s *Store) Movements() movement.Repository  { return movementRepo{s} }
