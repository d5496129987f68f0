package memory

import (
	"context"
	"sort"

	"github.com/xiebiao/minipos/internal/domain/sale"
)

type saleRepo struct{ s *Store }

// Create 单号重复时返回ErrInvoiceCollision，不写入任何数据
func (r saleRepo) Create(ctx context.Context, s *sale.Sale) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.invoices[s.InvoiceNo]; ok {
			return sale.ErrInvoiceCollision
		}
		s.ID = st.nextID("sales")
		for i := range s.Items {
			s.Items[i].ID = st.nextID("sale_items")
			s.Items[i].SaleID = s.ID
		}
		stored := *s
		stored.CashierName = ""
		stored.Items = append([]sale.Item(nil), s.Items...)
		st.sales[s.ID] = stored
		st.invoices[s.InvoiceNo] = s.ID
		return nil
	})
}

func (r saleRepo) FindByID(ctx context.Context, id uint) (*sale.Sale, error) {
	var out *sale.Sale
	r.s.read(ctx, func(st *state) {
		if s, ok := st.sales[id]; ok {
			out = copySale(st, s)
		}
	})
	if out == nil {
		return nil, sale.ErrSaleNotFound
	}
	return out, nil
}

func (r saleRepo) FindByInvoiceNo(ctx context.Context, invoiceNo string) (*sale.Sale, error) {
	var (
		id uint
		ok bool
	)
	r.s.read(ctx, func(st *state) {
		id, ok = st.invoices[invoiceNo]
	})
	if !ok {
		return nil, sale.ErrSaleNotFound
	}
	return r.FindByID(ctx, id)
}

func (r saleRepo) List(ctx context.Context, params sale.ListParams) ([]*sale.Sale, int64, error) {
	params = params.Normalize()

	var all []*sale.Sale
	r.s.read(ctx, func(st *state) {
		for _, s := range st.sales {
			if params.CashierID > 0 && s.CashierID != params.CashierID {
				continue
			}
			all = append(all, copySale(st, s))
		}
	})
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := int64(len(all))
	start := (params.Page - 1) * params.Limit
	if start >= len(all) {
		return []*sale.Sale{}, total, nil
	}
	end := start + params.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func copySale(st *state, s sale.Sale) *sale.Sale {
	s.Items = append([]sale.Item(nil), s.Items...)
	if u, ok := st.users[s.CashierID]; ok {
		s.CashierName = u.FullName
	}
	return &s
}
