package supplier

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/xiebiao/minipos/pkg/errors"
)

// Supplier 供应商
type Supplier struct {
	ID            uint
	Name          string
	ContactPerson string
	Phone         string
	Address       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

var (
	ErrSupplierNotFound  = apperrors.New(apperrors.ErrCodeSupplierNotFound, "供应商不存在")
	ErrSupplierDuplicate = apperrors.New(apperrors.ErrCodeSupplierDuplicate, "供应商名称已存在")
	ErrNameRequired      = apperrors.New(apperrors.ErrCodeInvalidParams, "供应商名称不能为空")
)

// Normalize 裁剪空白并校验
func (s *Supplier) Normalize() error {
	s.Name = strings.TrimSpace(s.Name)
	s.ContactPerson = strings.TrimSpace(s.ContactPerson)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Address = strings.TrimSpace(s.Address)
	if s.Name == "" {
		return ErrNameRequired
	}
	return nil
}

// Repository 供应商仓储
type Repository interface {
	List(ctx context.Context, params ListParams) ([]*Supplier, error)
	FindByID(ctx context.Context, id uint) (*Supplier, error)
	Create(ctx context.Context, s *Supplier) error
	Update(ctx context.Context, s *Supplier) error
	Delete(ctx context.Context, id uint) error
}

// ListParams 排序参数
type ListParams struct {
	SortBy string
	Desc   bool
}

// Normalize 非白名单字段按名称排序
func (p ListParams) Normalize() ListParams {
	switch p.SortBy {
	case "name", "contact_person", "phone", "address":
	default:
		p.SortBy = "name"
	}
	return p
}
