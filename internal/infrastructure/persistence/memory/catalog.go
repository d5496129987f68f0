package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/xiebiao/minipos/internal/domain/category"
	"github.com/xiebiao/minipos/internal/domain/purchase"
	"github.com/xiebiao/minipos/internal/domain/supplier"
	"github.com/xiebiao/minipos/internal/domain/user"
	apperrors "github.com/xiebiao/minipos/pkg/errors"
)

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, u *user.User) error {
	return r.s.write(ctx, func(st *state) error {
		for _, other := range st.users {
			if other.Username == u.Username {
				return apperrors.ErrUsernameDuplicate
			}
		}
		u.ID = st.nextID("users")
		st.users[u.ID] = *u
		return nil
	})
}

func (r userRepo) FindByID(ctx context.Context, id uint) (*user.User, error) {
	var out *user.User
	r.s.read(ctx, func(st *state) {
		if u, ok := st.users[id]; ok {
			out = &u
		}
	})
	if out == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return out, nil
}

func (r userRepo) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	var out *user.User
	r.s.read(ctx, func(st *state) {
		for _, u := range st.users {
			if u.Username == username {
				u := u
				out = &u
				return
			}
		}
	})
	if out == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return out, nil
}

type categoryRepo struct{ s *Store }

func (r categoryRepo) List(ctx context.Context) ([]*category.Category, error) {
	var out []*category.Category
	r.s.read(ctx, func(st *state) {
		for _, c := range st.categories {
			c := c
			out = append(out, &c)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r categoryRepo) FindByID(ctx context.Context, id uint) (*category.Category, error) {
	var out *category.Category
	r.s.read(ctx, func(st *state) {
		if c, ok := st.categories[id]; ok {
			out = &c
		}
	})
	if out == nil {
		return nil, category.ErrCategoryNotFound
	}
	return out, nil
}

func (r categoryRepo) FindByName(ctx context.Context, name string) (*category.Category, error) {
	var out *category.Category
	r.s.read(ctx, func(st *state) {
		for _, c := range st.categories {
			if c.Name == name {
				c := c
				out = &c
				return
			}
		}
	})
	if out == nil {
		return nil, category.ErrCategoryNotFound
	}
	return out, nil
}

func (r categoryRepo) Create(ctx context.Context, c *category.Category) error {
	return r.s.write(ctx, func(st *state) error {
		for _, other := range st.categories {
			if other.Name == c.Name {
				return category.ErrCategoryDuplicate
			}
		}
		c.ID = st.nextID("categories")
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now()
		}
		st.categories[c.ID] = *c
		return nil
	})
}

type supplierRepo struct{ s *Store }

func (r supplierRepo) List(ctx context.Context, params supplier.ListParams) ([]*supplier.Supplier, error) {
	params = params.Normalize()
	var out []*supplier.Supplier
	r.s.read(ctx, func(st *state) {
		for _, rec := range st.suppliers {
			if !rec.deleted {
				s := rec.supplier
				out = append(out, &s)
			}
		}
	})
	field := func(s *supplier.Supplier) string {
		switch params.SortBy {
		case "contact_person":
			return s.ContactPerson
		case "phone":
			return s.Phone
		case "address":
			return s.Address
		}
		return s.Name
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(field(out[i])), strings.ToLower(field(out[j]))
		if a == b {
			return out[i].ID < out[j].ID
		}
		if params.Desc {
			return a > b
		}
		return a < b
	})
	return out, nil
}

func (r supplierRepo) FindByID(ctx context.Context, id uint) (*supplier.Supplier, error) {
	var out *supplier.Supplier
	r.s.read(ctx, func(st *state) {
		if rec, ok := st.suppliers[id]; ok && !rec.deleted {
			s := rec.supplier
			out = &s
		}
	})
	if out == nil {
		return nil, supplier.ErrSupplierNotFound
	}
	return out, nil
}

func (r supplierRepo) Create(ctx context.Context, s *supplier.Supplier) error {
	return r.s.write(ctx, func(st *state) error {
		if nameTaken(st, s.Name, 0) {
			return supplier.ErrSupplierDuplicate
		}
		s.ID = st.nextID("suppliers")
		now := time.Now()
		s.CreatedAt, s.UpdatedAt = now, now
		st.suppliers[s.ID] = supplierRecord{supplier: *s}
		return nil
	})
}

func (r supplierRepo) Update(ctx context.Context, s *supplier.Supplier) error {
	return r.s.write(ctx, func(st *state) error {
		rec, ok := st.suppliers[s.ID]
		if !ok || rec.deleted {
			return supplier.ErrSupplierNotFound
		}
		if nameTaken(st, s.Name, s.ID) {
			return supplier.ErrSupplierDuplicate
		}
		s.CreatedAt = rec.supplier.CreatedAt
		s.UpdatedAt = time.Now()
		st.suppliers[s.ID] = supplierRecord{supplier: *s}
		return nil
	})
}

func (r supplierRepo) Delete(ctx context.Context, id uint) error {
	return r.s.write(ctx, func(st *state) error {
		rec, ok := st.suppliers[id]
		if !ok || rec.deleted {
			return supplier.ErrSupplierNotFound
		}
		rec.deleted = true
		st.suppliers[id] = rec
		return nil
	})
}

// nameTaken 已软删除的记录同样占用名称，与MySQL唯一索引一致
func nameTaken(st *state, name string, except uint) bool {
	for id, rec := range st.suppliers {
		if id != except && rec.supplier.Name == name {
			return true
		}
	}
	return false
}

type purchaseRepo struct{ s *Store }

func (r purchaseRepo) Create(ctx context.Context, p *purchase.Purchase) error {
	return r.s.write(ctx, func(st *state) error {
		p.ID = st.nextID("purchases")
		st.purchases = append(st.purchases, *p)
		return nil
	})
}

func (r purchaseRepo) List(ctx context.Context, page, limit int) ([]*purchase.Purchase, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var (
		out   []*purchase.Purchase
		total int64
	)
	r.s.read(ctx, func(st *state) {
		total = int64(len(st.purchases))
		skip := (page - 1) * limit
		for i := len(st.purchases) - 1; i >= 0 && len(out) < limit; i-- {
			if skip > 0 {
				skip--
				continue
			}
			p := st.purchases[i]
			if rec, ok := st.suppliers[p.SupplierID]; ok {
				p.SupplierName = rec.supplier.Name
			}
			if rec, ok := st.items[p.InventoryID]; ok {
				p.InventoryName = rec.item.Name
			}
			if u, ok := st.users[p.CreatedBy]; ok {
				p.CreatedByName = u.FullName
			}
			out = append(out, &p)
		}
	})
	return out, total, nil
}
