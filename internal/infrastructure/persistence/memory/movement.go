package memory

import (
	"context"
	"sort"

	"github.com/xiebiao/minipos/internal/domain/movement"
)

type movementRepo struct{ s *Store }

func (r movementRepo) CreateBatch(ctx context.Context, movements []*movement.Movement) error {
	return r.s.write(ctx, func(st *state) error {
		for _, m := range movements {
			m.ID = st.nextID("stock_movements")
			stored := *m
			stored.CreatedByName = ""
			st.movements = append(st.movements, stored)
		}
		return nil
	})
}

func (r movementRepo) ListByItem(ctx context.Context, itemID uint, limit int) ([]*movement.Movement, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*movement.Movement
	r.s.read(ctx, func(st *state) {
		for i := len(st.movements) - 1; i >= 0 && len(out) < limit; i-- {
			m := st.movements[i]
			if m.ItemID != itemID {
				continue
			}
			if u, ok := st.users[m.CreatedBy]; ok {
				m.CreatedByName = u.FullName
			}
			out = append(out, &m)
		}
	})
	return out, nil
}

func (r movementRepo) Summarize(ctx context.Context, itemID uint) (movement.Summary, error) {
	all, err := r.SummarizeAll(ctx)
	if err != nil {
		return movement.Summary{}, err
	}
	if s, ok := all[itemID]; ok {
		return s, nil
	}
	return movement.Summary{ItemID: itemID}, nil
}

// SummarizeAll movements按追加顺序存放，后出现的即最新
func (r movementRepo) SummarizeAll(ctx context.Context) (map[uint]movement.Summary, error) {
	out := map[uint]movement.Summary{}
	r.s.read(ctx, func(st *state) {
		for _, m := range st.movements {
			s := out[m.ItemID]
			s.ItemID = m.ItemID
			s.Count++
			s.Sum += m.Quantity
			s.LastAfter = m.StockAfter
			out[m.ItemID] = s
		}
	})
	return out, nil
}

// byItem 测试辅助：按商品分组的流水
func (r movementRepo) byItem() map[uint][]movement.Movement {
	out := map[uint][]movement.Movement{}
	r.s.read(context.Background(), func(st *state) {
		for _, m := range st.movements {
			out[m.ItemID] = append(out[m.ItemID], m)
		}
	})
	for _, ms := range out {
		sort.Slice(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })
	}
	return out
}
