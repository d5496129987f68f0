package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/minipos/internal/domain/sale"
	apperrors "github.com/xiebiao/minipos/pkg/errors"
)

// saleRepository 销售单仓储实现（MySQL）
type saleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) sale.Repository {
	return &saleRepository{db: db}
}

// Create 销售单与明细一起写入（GORM自动处理has-many关联）
// invoice_no唯一索引冲突返回ErrInvoiceCollision，InnoDB只回滚该语句，外层事务和行锁仍然有效
func (r *saleRepository) Create(ctx context.Context, s *sale.Sale) error {
	model := &SaleModel{
		InvoiceNo: s.InvoiceNo,
		Total:     s.Total,
		Paid:      s.Paid,
		Change:    s.Change,
		CashierID: s.CashierID,
		CreatedAt: s.CreatedAt,
		Items:     make([]SaleItemModel, len(s.Items)),
	}
	for i, item := range s.Items {
		model.Items[i] = SaleItemModel{
			InventoryID: item.InventoryID,
			Name:        item.Name,
			Price:       item.Price,
			Qty:         item.Qty,
			Subtotal:    item.Subtotal,
			StockBefore: item.StockBefore,
		}
	}

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return sale.ErrInvoiceCollision.WithErr(err)
		}
		return apperrors.Wrap(err, "创建销售单失败")
	}

	s.ID = model.ID
	s.CreatedAt = model.CreatedAt
	for i := range model.Items {
		s.Items[i].ID = model.Items[i].ID
		s.Items[i].SaleID = model.ID
	}
	return nil
}

func (r *saleRepository) FindByID(ctx context.Context, id uint) (*sale.Sale, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *saleRepository) FindByInvoiceNo(ctx context.Context, invoiceNo string) (*sale.Sale, error) {
	return r.findOne(ctx, "invoice_no = ?", invoiceNo)
}

func (r *saleRepository) findOne(ctx context.Context, cond string, arg interface{}) (*sale.Sale, error) {
	var model SaleModel
	err := getDB(ctx, r.db).Preload("Items").Where(cond, arg).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sale.ErrSaleNotFound
		}
		return nil, apperrors.Wrap(err, "查询销售单失败")
	}

	names, err := r.cashierNames(ctx, []uint{model.CashierID})
	if err != nil {
		return nil, err
	}
	return toSaleEntity(&model, names), nil
}

// List 最新的在前
func (r *saleRepository) List(ctx context.Context, params sale.ListParams) ([]*sale.Sale, int64, error) {
	params = params.Normalize()

	query := getDB(ctx, r.db).Model(&SaleModel{})
	if params.CashierID > 0 {
		query = query.Where("cashier_id = ?", params.CashierID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询销售单总数失败")
	}

	var models []SaleModel
	err := query.Preload("Items").
		Order("id DESC").
		Limit(params.Limit).
		Offset((params.Page - 1) * params.Limit).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询销售单列表失败")
	}

	ids := make([]uint, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.CashierID)
	}
	names, err := r.cashierNames(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*sale.Sale, len(models))
	for i := range models {
		out[i] = toSaleEntity(&models[i], names)
	}
	return out, total, nil
}

// cashierNames 批量查询收银员姓名（包括已删除的用户）
func (r *saleRepository) cashierNames(ctx context.Context, ids []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var users []UserModel
	err := getDB(ctx, r.db).Unscoped().Select("id", "full_name").Where("id IN ?", ids).Find(&users).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询收银员失败")
	}
	for _, u := range users {
		names[u.ID] = u.FullName
	}
	return names, nil
}

func toSaleEntity(m *SaleModel, names map[uint]string) *sale.Sale {
	s := &sale.Sale{
		ID:          m.ID,
		InvoiceNo:   m.InvoiceNo,
		Total:       m.Total,
		Paid:        m.Paid,
		Change:      m.Change,
		CashierID:   m.CashierID,
		CashierName: names[m.CashierID],
		CreatedAt:   m.CreatedAt,
		Items:       make([]sale.Item, len(m.Items)),
	}
	for i, item := range m.Items {
		s.Items[i] = sale.Item{
			ID:          item.ID,
			SaleID:      item.SaleID,
			InventoryID: item.InventoryID,
			Name:        item.Name,
			Price:       item.Price,
			Qty:         item.Qty,
			Subtotal:    item.Subtotal,
			StockBefore: item.StockBefore,
		}
	}
	return s
}
