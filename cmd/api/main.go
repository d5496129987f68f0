package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

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
	"github.com/xiebiao/minipos/pkg/logger"
	"github.com/xiebiao/minipos/pkg/tracing"
)

// @title           minipos API
// @version         1.0
// @description     收银台结账、库存与进货管理接口
// @BasePath        /
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	_, syncLogger, err := logger.New(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
		MaxSizeMB:    cfg.Log.MaxSizeMB,
		MaxBackups:   cfg.Log.MaxBackups,
		MaxAgeDays:   cfg.Log.MaxAgeDays,
	})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer syncLogger()

	shutdownTracer, err := tracing.InitTracer(tracing.Options{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		zap.L().Fatal("初始化链路追踪失败", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(ctx)
	}()

	zap.L().Info("配置加载成功",
		zap.Int("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("driver", cfg.Database.Driver),
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.Bool("mq", cfg.MQ.Enabled),
		zap.Bool("grpc", cfg.GRPC.Enabled),
	)

	app, cleanup, err := buildApp(cfg)
	if err != nil {
		zap.L().Error("初始化应用失败", zap.Error(err))
		return
	}
	defer cleanup()

	if err := app.Run(); err != nil {
		zap.L().Error("服务退出", zap.Error(err))
	}
}

// buildApp 手动组装依赖，与wire.go中的InitializeApp等价
// 依赖链：Repository ← Service ← UseCase ← Handler
func buildApp(cfg *config.Config) (*App, func(), error) {
	repos, cleanupRepos, err := provideRepositories(cfg)
	if err != nil {
		return nil, nil, err
	}
	kv, cleanupKV, err := provideKVStores(cfg)
	if err != nil {
		cleanupRepos()
		return nil, nil, err
	}
	events, cleanupEvents, err := provideEventPublisher(cfg)
	if err != nil {
		cleanupKV()
		cleanupRepos()
		return nil, nil, err
	}
	// 先停发布者再断开存储
	cleanup := func() {
		cleanupEvents()
		cleanupKV()
		cleanupRepos()
	}

	jwtManager := provideJWTManager(cfg)
	userService := provideUserService(repos.Users)

	// 应用层
	registerUC := appuser.NewRegisterUseCase(userService)
	loginUC := provideLoginUseCase(cfg, userService, jwtManager, kv.Sessions)
	logoutUC := appuser.NewLogoutUseCase(kv.Sessions, jwtManager)
	meUC := appuser.NewMeUseCase(repos.Users)
	refreshUC := appuser.NewRefreshUseCase(repos.Users, jwtManager)
	inventoryUC := appinventory.NewUseCase(repos.Tx, repos.Inventory, repos.Categories, repos.Movements)
	categoryUC := catalog.NewCategoryUseCase(repos.Categories)
	supplierUC := catalog.NewSupplierUseCase(repos.Suppliers)
	purchaseUC := apppurchase.NewUseCase(repos.Tx, repos.Purchases, repos.Inventory, repos.Suppliers, repos.Movements)
	checkoutUC := checkout.NewUseCase(repos.Tx, repos.Inventory, repos.Sales, repos.Movements,
		kv.Idempotency, events, provideCheckoutOptions(cfg))
	queryUC := checkout.NewQueryUseCase(repos.Sales)
	auditUC := ledger.NewAuditUseCase(repos.Inventory, repos.Movements)

	// 接口层
	handlers := router.Handlers{
		Auth:      handler.NewAuthHandler(registerUC, loginUC, logoutUC, meUC, refreshUC),
		Inventory: handler.NewInventoryHandler(inventoryUC),
		Catalog:   handler.NewCatalogHandler(categoryUC, supplierUC),
		Purchase:  handler.NewPurchaseHandler(purchaseUC),
		Checkout:  handler.NewCheckoutHandler(checkoutUC, queryUC),
		Health:    handler.NewHealthHandler(provideHealthChecks(repos, kv), auditUC),
	}
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, kv.Sessions)
	engine := provideEngine(provideRouterOptions(cfg), handlers, authMiddleware)

	grpcServer := provideGRPCServer(cfg, grpchandler.NewCheckoutServer(checkoutUC, queryUC), jwtManager, kv.Sessions)

	sched, err := provideScheduler(cfg, auditUC)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	seeder := seed.NewSeeder(repos.Categories, repos.Users, userService, repos.Suppliers, repos.Inventory, inventoryUC)

	return newApp(cfg, engine, grpcServer, sched, seeder), cleanup, nil
}
