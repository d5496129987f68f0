//go:build wireinject
// +build wireinject

// Wire依赖注入配置
//
// 修改Provider后运行 `wire gen ./cmd/api` 重新生成 wire_gen.go。
// main.go中的buildApp是同一依赖图的手写版本，两者需保持一致。

package main

import (
	"github.com/google/wire"

	"github.com/xiebiao/minipos/internal/application/catalog"
	"github.com/xiebiao/minipos/internal/application/checkout"
	appinventory "github.com/xiebiao/minipos/internal/application/inventory"
	"github.com/xiebiao/minipos/internal/application/ledger"
	apppurchase "github.com/xiebiao/minipos/internal/application/purchase"
	"github.com/xiebiao/minipos/internal/application/seed"
	appuser "github.com/xiebiao/minipos/internal/application/user"
	"github.com/xiebiao/minipos/internal/infrastructure/config"
	grpchandler "github.com/xiebiao/minipos/internal/interface/grpc/handler"
	"github.com/xiebiao/minipos/internal/interface/http/handler"
	"github.com/xiebiao/minipos/internal/interface/http/middleware"
	"github.com/xiebiao/minipos/internal/interface/http/router"
)

// infrastructureSet 存储、缓存与消息
var infrastructureSet = wire.NewSet(
	provideRepositories,
	wire.FieldsOf(new(*Repositories),
		"Tx", "Users", "Categories", "Inventory", "Suppliers", "Purchases", "Sales", "Movements"),
	provideKVStores,
	wire.FieldsOf(new(*KVStores), "Sessions", "Idempotency"),
	provideEventPublisher,
	provideJWTManager,
)

var domainSet = wire.NewSet(
	provideUserService,
)

var applicationSet = wire.NewSet(
	appuser.NewRegisterUseCase,
	provideLoginUseCase,
	appuser.NewLogoutUseCase,
	appuser.NewMeUseCase,
	appuser.NewRefreshUseCase,
	appinventory.NewUseCase,
	catalog.NewCategoryUseCase,
	catalog.NewSupplierUseCase,
	apppurchase.NewUseCase,
	provideCheckoutOptions,
	checkout.NewUseCase,
	checkout.NewQueryUseCase,
	ledger.NewAuditUseCase,
	seed.NewSeeder,
)

var interfaceSet = wire.NewSet(
	handler.NewAuthHandler,
	handler.NewInventoryHandler,
	handler.NewCatalogHandler,
	handler.NewPurchaseHandler,
	handler.NewCheckoutHandler,
	provideHealthChecks,
	handler.NewHealthHandler,
	wire.Struct(new(router.Handlers), "*"),
	middleware.NewAuthMiddleware,
	provideRouterOptions,
	provideEngine,
	grpchandler.NewCheckoutServer,
	provideGRPCServer,
)

// InitializeApp 组装整个应用
// cleanup按构造逆序释放：事件发布者、Redis、数据库
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		domainSet,
		applicationSet,
		interfaceSet,
		provideScheduler,
		newApp,
	)
	return nil, nil, nil
}
