package mysql

import (
	"time"

	"gorm.io/gorm"
)

// 以下为infrastructure层的数据模型，领域实体不带GORM tag，由Repository负责转换
// 金额字段均为最小货币单位的整数

type UserModel struct {
	ID           uint           `gorm:"primaryKey"`
	Username     string         `gorm:"uniqueIndex;size:50;not null;comment:用户名"`
	PasswordHash string         `gorm:"size:255;not null;comment:密码（bcrypt）"`
	FullName     string         `gorm:"size:100;not null;comment:姓名"`
	Role         string         `gorm:"size:20;not null;default:staff;comment:角色"`
	IsActive     bool           `gorm:"not null;default:true;comment:是否启用"`
	CreatedAt    time.Time      `gorm:"comment:创建时间"`
	UpdatedAt    time.Time      `gorm:"comment:更新时间"`
	DeletedAt    gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

func (UserModel) TableName() string {
	return "users"
}

type CategoryModel struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"uniqueIndex;size:100;not null;comment:分类名称"`
	Description string    `gorm:"size:255;comment:描述"`
	CreatedAt   time.Time `gorm:"comment:创建时间"`
}

func (CategoryModel) TableName() string {
	return "categories"
}

// InventoryModel 库存商品
// stock 只在事务内 SELECT ... FOR UPDATE 之后修改
type InventoryModel struct {
	ID         uint           `gorm:"primaryKey"`
	SKU        string         `gorm:"column:sku;uniqueIndex;size:64;not null;comment:SKU"`
	Name       string         `gorm:"index;size:200;not null;comment:商品名称"`
	Price      int64          `gorm:"not null;comment:售价"`
	Stock      int            `gorm:"not null;default:0;comment:库存"`
	CategoryID uint           `gorm:"index;comment:分类ID"`
	Image      string         `gorm:"size:500;comment:图片URL"`
	CreatedBy  uint           `gorm:"comment:创建人"`
	UpdatedBy  uint           `gorm:"comment:最后修改人"`
	CreatedAt  time.Time      `gorm:"comment:创建时间"`
	UpdatedAt  time.Time      `gorm:"comment:更新时间"`
	DeletedAt  gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

func (InventoryModel) TableName() string {
	return "inventory"
}

type SupplierModel struct {
	ID            uint           `gorm:"primaryKey"`
	Name          string         `gorm:"uniqueIndex;size:100;not null;comment:供应商名称"`
	ContactPerson string         `gorm:"size:100;comment:联系人"`
	Phone         string         `gorm:"size:30;comment:电话"`
	Address       string         `gorm:"size:255;comment:地址"`
	CreatedAt     time.Time      `gorm:"comment:创建时间"`
	UpdatedAt     time.Time      `gorm:"comment:更新时间"`
	DeletedAt     gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

func (SupplierModel) TableName() string {
	return "suppliers"
}

type PurchaseModel struct {
	ID          uint      `gorm:"primaryKey"`
	SupplierID  uint      `gorm:"index;not null;comment:供应商ID"`
	InventoryID uint      `gorm:"index;not null;comment:商品ID"`
	Quantity    int       `gorm:"not null;comment:数量"`
	CostPrice   int64     `gorm:"not null;comment:进货单价"`
	TotalCost   int64     `gorm:"not null;comment:总成本"`
	Notes       string    `gorm:"size:255;comment:备注"`
	CreatedBy   uint      `gorm:"index;comment:操作人"`
	CreatedAt   time.Time `gorm:"index;comment:创建时间"`
}

func (PurchaseModel) TableName() string {
	return "purchases"
}

// SaleModel 销售单，invoice_no唯一索引用于发现单号冲突
// change是MySQL保留字，列名使用change_amount
type SaleModel struct {
	ID        uint            `gorm:"primaryKey"`
	InvoiceNo string          `gorm:"uniqueIndex;size:32;not null;comment:销售单号"`
	Total     int64           `gorm:"not null;comment:应付"`
	Paid      int64           `gorm:"not null;comment:实付"`
	Change    int64           `gorm:"column:change_amount;not null;comment:找零"`
	CashierID uint            `gorm:"index;comment:收银员"`
	Items     []SaleItemModel `gorm:"foreignKey:SaleID"`
	CreatedAt time.Time       `gorm:"index;comment:创建时间"`
}

func (SaleModel) TableName() string {
	return "sales"
}

// SaleItemModel 销售明细，名称和单价为成交快照
type SaleItemModel struct {
	ID          uint   `gorm:"primaryKey"`
	SaleID      uint   `gorm:"index;not null;comment:销售单ID"`
	InventoryID uint   `gorm:"index;not null;comment:商品ID"`
	Name        string `gorm:"size:200;not null;comment:成交时商品名称"`
	Price       int64  `gorm:"not null;comment:成交单价"`
	Qty         int    `gorm:"not null;comment:数量"`
	Subtotal    int64  `gorm:"not null;comment:小计"`
	StockBefore int    `gorm:"not null;comment:成交前库存"`
}

func (SaleItemModel) TableName() string {
	return "sale_items"
}

// StockMovementModel 库存流水，只追加
type StockMovementModel struct {
	ID            uint      `gorm:"primaryKey"`
	InventoryID   uint      `gorm:"index:idx_movement_item,priority:1;not null;comment:商品ID"`
	MovementType  string    `gorm:"size:20;not null;comment:sale/purchase/adjustment"`
	Quantity      int       `gorm:"not null;comment:变动数量（有符号）"`
	StockBefore   int       `gorm:"not null;comment:变动前库存"`
	StockAfter    int       `gorm:"not null;comment:变动后库存"`
	ReferenceID   *uint     `gorm:"comment:关联单据ID"`
	ReferenceType string    `gorm:"size:20;comment:关联单据类型"`
	Notes         string    `gorm:"size:255;comment:备注"`
	CreatedBy     uint      `gorm:"comment:操作人"`
	CreatedAt     time.Time `gorm:"index:idx_movement_item,priority:2;comment:创建时间"`
}

func (StockMovementModel) TableName() string {
	return "stock_movements"
}
