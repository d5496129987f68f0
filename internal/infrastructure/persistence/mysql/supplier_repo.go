package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/minipos/internal/domain/supplier"
	apperrors "github.com/xiebiao/minipos/pkg/errors"
)

type supplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) supplier.Repository {
	return &supplierRepository{db: db}
}

// List 排序字段已由ListParams.Normalize过滤为白名单
func (r *supplierRepository) List(ctx context.Context, params supplier.ListParams) ([]*supplier.Supplier, error) {
	params = params.Normalize()

	var models []SupplierModel
	err := getDB(ctx, r.db).
		Order(params.SortBy + " " + orderDirection(params.Desc)).
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询供应商失败")
	}

	out := make([]*supplier.Supplier, len(models))
	for i := range models {
		out[i] = toSupplierEntity(&models[i])
	}
	return out, nil
}

func (r *supplierRepository) FindByID(ctx context.Context, id uint) (*supplier.Supplier, error) {
	var model SupplierModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, supplier.ErrSupplierNotFound
		}
		return nil, apperrors.Wrap(err, "查询供应商失败")
	}
	return toSupplierEntity(&model), nil
}

func (r *supplierRepository) Create(ctx context.Context, s *supplier.Supplier) error {
	model := toSupplierModel(s)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return supplier.ErrSupplierDuplicate
		}
		return apperrors.Wrap(err, "创建供应商失败")
	}
	s.ID = model.ID
	s.CreatedAt = model.CreatedAt
	s.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *supplierRepository) Update(ctx context.Context, s *supplier.Supplier) error {
	result := getDB(ctx, r.db).Model(&SupplierModel{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
		"name":           s.Name,
		"contact_person": s.ContactPerson,
		"phone":          s.Phone,
		"address":        s.Address,
	})
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return supplier.ErrSupplierDuplicate
		}
		return apperrors.Wrap(result.Error, "更新供应商失败")
	}
	if result.RowsAffected == 0 {
		// 值未变化时RowsAffected也为0，需要确认记录是否存在
		if _, err := r.FindByID(ctx, s.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *supplierRepository) Delete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Delete(&SupplierModel{}, id)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "删除供应商失败")
	}
	if result.RowsAffected == 0 {
		return supplier.ErrSupplierNotFound
	}
	return nil
}

func toSupplierModel(s *supplier.Supplier) *SupplierModel {
	return &SupplierModel{
		ID:            s.ID,
		Name:          s.Name,
		ContactPerson: s.ContactPerson,
		Phone:         s.Phone,
		Address:       s.Address,
	}
}

func toSupplierEntity(m *SupplierModel) *supplier.Supplier {
	return &supplier.Supplier{
		ID:            m.ID,
		Name:          m.Name,
		ContactPerson: m.ContactPerson,
		Phone:         m.Phone,
		Address:       m.Address,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
