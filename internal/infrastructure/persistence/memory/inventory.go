package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/xiebiao/minipos/internal/domain/inventory"
)

type inventoryRepo struct{ s *Store }

func (r inventoryRepo) Create(ctx context.Context, item *inventory.Item) error {
	return r.s.write(ctx, func(st *state) error {
		for _, rec := range st.items {
			if rec.item.SKU == item.SKU {
				return inventory.ErrSKUDuplicate
			}
		}
		item.ID = st.nextID("inventory")
		now := time.Now()
		item.CreatedAt, item.UpdatedAt = now, now
		stored := *item
		stored.CategoryName = ""
		st.items[item.ID] = itemRecord{item: stored}
		return nil
	})
}

func (r inventoryRepo) FindByID(ctx context.Context, id uint) (*inventory.Item, error) {
	var (
		out *inventory.Item
		err error
	)
	r.s.read(ctx, func(st *state) {
		rec, ok := st.items[id]
		if !ok || rec.deleted {
			err = inventory.ErrItemNotFound
			return
		}
		out = withCategoryName(st, rec.item)
	})
	return out, err
}

func (r inventoryRepo) Update(ctx context.Context, item *inventory.Item) error {
	return r.s.write(ctx, func(st *state) error {
		rec, ok := st.items[item.ID]
		if !ok || rec.deleted {
			return inventory.ErrItemNotFound
		}
		for id, other := range st.items {
			if id != item.ID && other.item.SKU == item.SKU {
				return inventory.ErrSKUDuplicate
			}
		}
		item.UpdatedAt = time.Now()
		stored := *item
		stored.CreatedAt = rec.item.CreatedAt
		stored.CreatedBy = rec.item.CreatedBy
		stored.CategoryName = ""
		st.items[item.ID] = itemRecord{item: stored}
		return nil
	})
}

func (r inventoryRepo) Delete(ctx context.Context, id uint) error {
	return r.s.write(ctx, func(st *state) error {
		rec, ok := st.items[id]
		if !ok || rec.deleted {
			return inventory.ErrItemNotFound
		}
		rec.deleted = true
		st.items[id] = rec
		return nil
	})
}

func (r inventoryRepo) List(ctx context.Context, params inventory.ListParams) ([]*inventory.Item, int64, error) {
	params = params.Normalize()
	kw := strings.ToLower(params.Keyword)

	var matched []*inventory.Item
	r.s.read(ctx, func(st *state) {
		for _, rec := range st.items {
			if rec.deleted {
				continue
			}
			it := rec.item
			if kw != "" && !strings.Contains(strings.ToLower(it.Name), kw) && !strings.Contains(strings.ToLower(it.SKU), kw) {
				continue
			}
			if params.CategoryID > 0 && it.CategoryID != params.CategoryID {
				continue
			}
			matched = append(matched, withCategoryName(st, it))
		}
	})

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var less, equal bool
		switch params.SortBy {
		case inventory.SortBySKU:
			less, equal = a.SKU < b.SKU, a.SKU == b.SKU
		case inventory.SortByName:
			less, equal = a.Name < b.Name, a.Name == b.Name
		case inventory.SortByPrice:
			less, equal = a.Price < b.Price, a.Price == b.Price
		case inventory.SortByStock:
			less, equal = a.Stock < b.Stock, a.Stock == b.Stock
		case inventory.SortByCategory:
			less, equal = a.CategoryName < b.CategoryName, a.CategoryName == b.CategoryName
		default:
			less, equal = a.ID < b.ID, a.ID == b.ID
		}
		if equal {
			return a.ID > b.ID
		}
		if params.Desc {
			return !less
		}
		return less
	})

	total := int64(len(matched))
	start := params.Offset()
	if start >= len(matched) {
		return []*inventory.Item{}, total, nil
	}
	end := start + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r inventoryRepo) ListAll(ctx context.Context) ([]*inventory.Item, error) {
	var out []*inventory.Item
	r.s.read(ctx, func(st *state) {
		for _, rec := range st.items {
			if !rec.deleted {
				it := rec.item
				out = append(out, &it)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LockByID 事务已串行化，这里只是读取当前值
func (r inventoryRepo) LockByID(ctx context.Context, id uint) (*inventory.Item, error) {
	items, err := r.LockByIDs(ctx, []uint{id})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, inventory.ErrItemNotFound
	}
	return items[0], nil
}

func (r inventoryRepo) LockByIDs(ctx context.Context, ids []uint) ([]*inventory.Item, error) {
	out := make([]*inventory.Item, 0, len(ids))
	r.s.read(ctx, func(st *state) {
		for _, id := range ids {
			if rec, ok := st.items[id]; ok && !rec.deleted {
				it := rec.item
				out = append(out, &it)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r inventoryRepo) AdjustStock(ctx context.Context, id uint, delta int) error {
	return r.s.write(ctx, func(st *state) error {
		rec, ok := st.items[id]
		if !ok || rec.deleted {
			return inventory.ErrItemNotFound
		}
		if rec.item.Stock+delta < 0 {
			return inventory.NewInsufficientStockError(rec.item.Name, rec.item.Stock, -delta)
		}
		rec.item.Stock += delta
		rec.item.UpdatedAt = time.Now()
		st.items[id] = rec
		return nil
	})
}

func withCategoryName(st *state, it inventory.Item) *inventory.Item {
	if c, ok := st.categories[it.CategoryID]; ok {
		it.CategoryName = c.Name
	}
	return &it
}
