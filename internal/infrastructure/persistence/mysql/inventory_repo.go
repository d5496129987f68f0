package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/minipos/internal/domain/inventory"
	apperrors "github.com/xiebiao/minipos/pkg/errors"
)

// inventoryRepository 商品仓储实现（MySQL）
type inventoryRepository struct {
	db *gorm.DB
}

// NewInventoryRepository 创建商品仓储
func NewInventoryRepository(db *gorm.DB) inventory.Repository {
	return &inventoryRepository{db: db}
}

// inventoryRow 关联分类名的查询结果
type inventoryRow struct {
	ID           uint
	SKU          string `gorm:"column:sku"`
	Name         string
	Price        int64
	Stock        int
	CategoryID   uint
	CategoryName string
	Image        string
	CreatedBy    uint
	UpdatedBy    uint
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const inventorySelect = "inventory.id, inventory.sku, inventory.name, inventory.price, inventory.stock, " +
	"inventory.category_id, COALESCE(categories.name, '') AS category_name, inventory.image, " +
	"inventory.created_by, inventory.updated_by, inventory.created_at, inventory.updated_at"

func (r *inventoryRepository) withCategory(ctx context.Context) *gorm.DB {
	return getDB(ctx, r.db).Model(&InventoryModel{}).
		Select(inventorySelect).
		Joins("LEFT JOIN categories ON categories.id = inventory.category_id")
}

func (r *inventoryRepository) Create(ctx context.Context, item *inventory.Item) error {
	model := toInventoryModel(item)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return inventory.ErrSKUDuplicate
		}
		return apperrors.Wrap(err, "创建商品失败")
	}

	item.ID = model.ID
	item.CreatedAt = model.CreatedAt
	item.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *inventoryRepository) FindByID(ctx context.Context, id uint) (*inventory.Item, error) {
	var rows []inventoryRow
	if err := r.withCategory(ctx).Where("inventory.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询商品失败")
	}
	if len(rows) == 0 {
		return nil, inventory.ErrItemNotFound
	}
	return rows[0].toEntity(), nil
}

// Update 库存字段一并写入，调用方需先LockByID
func (r *inventoryRepository) Update(ctx context.Context, item *inventory.Item) error {
	result := getDB(ctx, r.db).Model(&InventoryModel{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
		"sku":         item.SKU,
		"name":        item.Name,
		"price":       item.Price,
		"stock":       item.Stock,
		"category_id": item.CategoryID,
		"image":       item.Image,
		"updated_by":  item.UpdatedBy,
	})
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return inventory.ErrSKUDuplicate
		}
		return apperrors.Wrap(result.Error, "更新商品失败")
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, item.ID); err != nil {
			return err
		}
	}
	item.UpdatedAt = time.Now()
	return nil
}

func (r *inventoryRepository) Delete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Delete(&InventoryModel{}, id)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "删除商品失败")
	}
	if result.RowsAffected == 0 {
		return inventory.ErrItemNotFound
	}
	return nil
}

// List 分页查询，关键词匹配名称或SKU
func (r *inventoryRepository) List(ctx context.Context, params inventory.ListParams) ([]*inventory.Item, int64, error) {
	params = params.Normalize()

	query := getDB(ctx, r.db).Model(&InventoryModel{})
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("inventory.sku LIKE ? OR inventory.name LIKE ?", kw, kw)
	}
	if params.CategoryID > 0 {
		query = query.Where("inventory.category_id = ?", params.CategoryID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询商品总数失败")
	}

	orderCol := "inventory." + params.SortBy
	if params.SortBy == inventory.SortByCategory {
		orderCol = "categories.name"
	}

	var rows []inventoryRow
	err := query.
		Select(inventorySelect).
		Joins("LEFT JOIN categories ON categories.id = inventory.category_id").
		Order(orderCol + " " + orderDirection(params.Desc)).
		Order("inventory.id DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询商品列表失败")
	}

	items := make([]*inventory.Item, len(rows))
	for i := range rows {
		items[i] = rows[i].toEntity()
	}
	return items, total, nil
}

func (r *inventoryRepository) ListAll(ctx context.Context) ([]*inventory.Item, error) {
	var models []InventoryModel
	if err := getDB(ctx, r.db).Order("id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询商品失败")
	}
	items := make([]*inventory.Item, len(models))
	for i := range models {
		items[i] = toInventoryEntity(&models[i])
	}
	return items, nil
}

// LockByID 悲观锁查询（SELECT ... FOR UPDATE）
func (r *inventoryRepository) LockByID(ctx context.Context, id uint) (*inventory.Item, error) {
	var model InventoryModel
	err := getDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrItemNotFound
		}
		return nil, apperrors.Wrap(err, "锁定商品失败")
	}
	return toInventoryEntity(&model), nil
}

// LockByIDs 一条语句按主键升序锁定多行
// InnoDB按索引顺序加锁，多个结账始终以相同顺序获取锁
func (r *inventoryRepository) LockByIDs(ctx context.Context, ids []uint) ([]*inventory.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var models []InventoryModel
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "锁定商品失败")
	}

	items := make([]*inventory.Item, len(models))
	for i := range models {
		items[i] = toInventoryEntity(&models[i])
	}
	return items, nil
}

// AdjustStock 原子增减库存
// WHERE stock + delta >= 0 兜底，即使调用方漏了校验也不会出现负库存
func (r *inventoryRepository) AdjustStock(ctx context.Context, id uint, delta int) error {
	db := getDB(ctx, r.db)
	result := db.Model(&InventoryModel{}).
		Where("id = ?", id).
		Where("stock + ? >= 0", delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新库存失败")
	}

	if result.RowsAffected == 0 {
		var model InventoryModel
		if err := db.First(&model, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return inventory.ErrItemNotFound
			}
			return apperrors.Wrap(err, "查询商品失败")
		}
		return inventory.NewInsufficientStockError(model.Name, model.Stock, -delta)
	}
	return nil
}

func toInventoryModel(item *inventory.Item) *InventoryModel {
	return &InventoryModel{
		ID:         item.ID,
		SKU:        item.SKU,
		Name:       item.Name,
		Price:      item.Price,
		Stock:      item.Stock,
		CategoryID: item.CategoryID,
		Image:      item.Image,
		CreatedBy:  item.CreatedBy,
		UpdatedBy:  item.UpdatedBy,
	}
}

func toInventoryEntity(m *InventoryModel) *inventory.Item {
	return &inventory.Item{
		ID:         m.ID,
		SKU:        m.SKU,
		Name:       m.Name,
		Price:      m.Price,
		Stock:      m.Stock,
		CategoryID: m.CategoryID,
		Image:      m.Image,
		CreatedBy:  m.CreatedBy,
		UpdatedBy:  m.UpdatedBy,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func (row *inventoryRow) toEntity() *inventory.Item {
	return &inventory.Item{
		ID:           row.ID,
		SKU:          row.SKU,
		Name:         row.Name,
		Price:        row.Price,
		Stock:        row.Stock,
		CategoryID:   row.CategoryID,
		CategoryName: row.CategoryName,
		Image:        row.Image,
		CreatedBy:    row.CreatedBy,
		UpdatedBy:    row.UpdatedBy,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
