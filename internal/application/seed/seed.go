// Package seed 初始化数据
//
// 幂等：已存在的分类、用户和供应商跳过；商品表为空时才写入示例商品。
package seed

import (
	"context"
	"errors"

	"go.uber.org/zap"

	appinventory "github.com/xiebiao/minipos/internal/application/inventory"
	"github.com/xiebiao/minipos/internal/domain/category"
	"github.com/xiebiao/minipos/internal/domain/inventory"
	"github.com/xiebiao/minipos/internal/domain/supplier"
	"github.com/xiebiao/minipos/internal/domain/user"
	apperrors "github.com/xiebiao/minipos/pkg/errors"
)

type seedUser struct {
	Username, Password, FullName string
	Role                         user.Role
}

var users = []seedUser{
	{"admin", "admin123", "Administrator", user.RoleAdmin},
	{"kasir", "kasir123", "Kasir Utama", user.RoleCashier},
	{"manager", "manager123", "Manager Operasional", user.RoleManager},
}

var suppliers = []supplier.Supplier{
	{Name: "PT Sumber Pangan Nusantara", ContactPerson: "Ardi Saputra", Phone: "08120000111", Address: "Jakarta Selatan"},
	{Name: "CV Segar Abadi", ContactPerson: "Nanda Wijaya", Phone: "08120000112", Address: "Bandung"},
	{Name: "UD Berkah Sembako", ContactPerson: "Rudi Hartono", Phone: "08120000113", Address: "Semarang"},
	{Name: "PT Tirta Minuman Prima", ContactPerson: "Maya Lestari", Phone: "08120000114", Address: "Surabaya"},
}

type seedProduct struct {
	SKU, Name string
	Price     int64
	Stock     int
	Category  string
}

var products = []seedProduct{
	{"SKU-0001", "Beras Premium 5kg", 76000, 28, "Sembako"},
	{"SKU-0002", "Minyak Goreng 1L", 18500, 32, "Sembako"},
	{"SKU-0003", "Gula Pasir 1kg", 17200, 35, "Sembako"},
	{"SKU-0005", "Mie Instan Goreng", 3600, 90, "Makanan"},
	{"SKU-0006", "Sarden Kaleng 155g", 9800, 48, "Makanan"},
	{"SKU-0009", "Kopi Bubuk 200g", 23800, 33, "Minuman"},
	{"SKU-0012", "Air Mineral 600ml", 4200, 120, "Minuman"},
	{"SKU-0013", "Sabun Mandi 90g", 5200, 62, "Kesehatan"},
	{"SKU-0019", "Buku Tulis 38 Lembar", 4200, 80, "Alat Tulis"},
	{"SKU-0020", "Pulpen Gel Hitam", 3500, 90, "Alat Tulis"},
	{"SKU-0024", "Detergen Bubuk 800g", 18600, 36, "Lainnya"},
}

// Seeder 初始化数据写入器
type Seeder struct {
	categories  category.Repository
	users       user.Repository
	userService user.Service
	suppliers   supplier.Repository
	items       inventory.Repository
	inventory   *appinventory.UseCase
}

func NewSeeder(
	categories category.Repository,
	users user.Repository,
	userService user.Service,
	suppliers supplier.Repository,
	items inventory.Repository,
	inventoryUC *appinventory.UseCase,
) *Seeder {
	return &Seeder{
		categories:  categories,
		users:       users,
		userService: userService,
		suppliers:   suppliers,
		items:       items,
		inventory:   inventoryUC,
	}
}

// Run 依次写入分类、用户、供应商和示例商品
func (s *Seeder) Run(ctx context.Context) error {
	catIDs, err := s.seedCategories(ctx)
	if err != nil {
		return err
	}
	adminID, err := s.seedUsers(ctx)
	if err != nil {
		return err
	}
	if err := s.seedSuppliers(ctx); err != nil {
		return err
	}
	return s.seedProducts(ctx, catIDs, adminID)
}

func (s *Seeder) seedCategories(ctx context.Context) (map[string]uint, error) {
	ids := make(map[string]uint, len(category.DefaultCategories))
	for _, def := range category.DefaultCategories {
		existing, err := s.categories.FindByName(ctx, def.Name)
		if err == nil {
			ids[def.Name] = existing.ID
			continue
		}
		if !errors.Is(err, category.ErrCategoryNotFound) {
			return nil, err
		}
		c := def
		if err := s.categories.Create(ctx, &c); err != nil {
			return nil, err
		}
		ids[c.Name] = c.ID
	}
	return ids, nil
}

func (s *Seeder) seedUsers(ctx context.Context) (uint, error) {
	var adminID uint
	for _, su := range users {
		existing, err := s.users.FindByUsername(ctx, su.Username)
		if err == nil {
			if su.Role == user.RoleAdmin {
				adminID = existing.ID
			}
			continue
		}
		if !apperrors.HasCode(err, apperrors.ErrCodeUserNotFound) {
			return 0, err
		}

		u, err := s.userService.Register(ctx, su.Username, su.Password, su.FullName, string(su.Role))
		if err != nil {
			return 0, err
		}
		if su.Role == user.RoleAdmin {
			adminID = u.ID
		}
		zap.L().Info("已创建初始用户", zap.String("username", su.Username), zap.String("role", string(su.Role)))
	}
	return adminID, nil
}

func (s *Seeder) seedSuppliers(ctx context.Context) error {
	for _, def := range suppliers {
		sp := def
		err := s.suppliers.Create(ctx, &sp)
		if err != nil && !errors.Is(err, supplier.ErrSupplierDuplicate) {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedProducts(ctx context.Context, catIDs map[string]uint, adminID uint) error {
	existing, err := s.items.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, p := range products {
		_, err := s.inventory.Create(ctx, appinventory.ItemInput{
			SKU:        p.SKU,
			Name:       p.Name,
			Price:      p.Price,
			Stock:      p.Stock,
			CategoryID: catIDs[p.Category],
		}, adminID)
		if err != nil && !errors.Is(err, inventory.ErrSKUDuplicate) {
			return err
		}
	}
	zap.L().Info("已写入示例商品", zap.Int("count", len(products)))
	return nil
}
