package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/xiebiao/minipos/internal/application"
	"github.com/xiebiao/minipos/internal/application/checkout"
	"github.com/xiebiao/minipos/internal/application/ledger"
	appuser "github.com/xiebiao/minipos/internal/application/user"
	"github.com/xiebiao/minipos/internal/domain/category"
	"github.com/xiebiao/minipos/internal/domain/inventory"
	"github.com/xiebiao/minipos/internal/domain/movement"
	"github.com/xiebiao/minipos/internal/domain/purchase"
	"github.com/xiebiao/minipos/internal/domain/sale"
	"github.com/xiebiao/minipos/internal/domain/supplier"
	"github.com/xiebiao/minipos/internal/domain/user"
	"github.com/xiebiao/minipos/internal/infrastructure/config"
	"github.com/xiebiao/minipos/internal/infrastructure/messaging"
	"github.com/xiebiao/minipos/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/minipos/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/minipos/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/minipos/internal/infrastructure/scheduler"
	grpchandler "github.com/xiebiao/minipos/internal/interface/grpc/handler"
	"github.com/xiebiao/minipos/internal/interface/http/handler"
	"github.com/xiebiao/minipos/internal/interface/http/middleware"
	"github.com/xiebiao/minipos/internal/interface/http/router"
	"github.com/xiebiao/minipos/pkg/jwt"
	"github.com/xiebiao/minipos/pkg/mq"
)

// Repositories 持久化层，按database.driver选择MySQL或内存实现
type Repositories struct {
	Tx         application.Transactor
	Users      user.Repository
	Categories category.Repository
	Inventory  inventory.Repository
	Suppliers  supplier.Repository
	Purchases  purchase.Repository
	Sales      sale.Repository
	Movements  movement.Repository

	health handler.Pinger
}

func provideRepositories(cfg *config.Config) (*Repositories, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		zap.L().Warn("使用内存存储，重启后数据丢失")
		store := memory.NewStore()
		return &Repositories{
			Tx:         store,
			Users:      store.Users(),
			Categories: store.Categories(),
			Inventory:  store.Inventory(),
			Suppliers:  store.Suppliers(),
			Purchases:  store.Purchases(),
			Sales:      store.Sales(),
			Movements:  store.Movements(),
			health:     store,
		}, func() {}, nil
	}

	db, err := mysql.NewDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return &Repositories{
		Tx:         mysql.NewTxManager(db),
		Users:      mysql.NewUserRepository(db),
		Categories: mysql.NewCategoryRepository(db),
		Inventory:  mysql.NewInventoryRepository(db),
		Suppliers:  mysql.NewSupplierRepository(db),
		Purchases:  mysql.NewPurchaseRepository(db),
		Sales:      mysql.NewSaleRepository(db),
		Movements:  mysql.NewMovementRepository(db),
		health:     mysql.NewHealthChecker(db),
	}, cleanup, nil
}

// KVStores 会话、Token黑名单与结账幂等键
type KVStores struct {
	Sessions    user.SessionStore
	Idempotency sale.IdempotencyStore

	health handler.Pinger // Redis未启用时为nil
}

func provideKVStores(cfg *config.Config) (*KVStores, func(), error) {
	if !cfg.Redis.Enabled {
		zap.L().Warn("Redis未启用，会话与幂等键保存在进程内存中")
		kv := memory.NewKV()
		return &KVStores{Sessions: kv.Sessions(), Idempotency: kv.Idempotency()}, func() {}, nil
	}

	client, err := redis.NewClient(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	return &KVStores{
		Sessions:    redis.NewSessionStore(client),
		Idempotency: redis.NewIdempotencyStore(client),
		health:      redis.NewHealthChecker(client),
	}, func() { _ = client.Close() }, nil
}

// provideEventPublisher mq未启用时返回nil，结账不发事件
func provideEventPublisher(cfg *config.Config) (checkout.EventPublisher, func(), error) {
	if !cfg.MQ.Enabled {
		return nil, func() {}, nil
	}

	broker, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, "topic")
	if err != nil {
		return nil, nil, err
	}
	publisher, err := messaging.NewSalePublisher(broker, messaging.Options{
		Workers:         cfg.MQ.Workers,
		PublishTimeout:  cfg.MQ.PublishTimeout,
		BreakerTimeout:  cfg.MQ.BreakerTimeout,
		BreakerFailures: cfg.MQ.BreakerFailures,
	})
	if err != nil {
		_ = broker.Close()
		return nil, nil, err
	}
	cleanup := func() {
		// 先排空协程池，再关闭连接
		if err := publisher.Close(cfg.MQ.PublishTimeout * 2); err != nil {
			zap.L().Warn("销售事件协程池未能按时排空", zap.Error(err))
		}
		_ = broker.Close()
	}
	return publisher, cleanup, nil
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire, cfg.JWT.RefreshTokenExpire)
}

func provideUserService(users user.Repository) user.Service {
	return user.NewService(users, user.DefaultBcryptCost)
}

// provideLoginUseCase 会话有效期与Refresh Token一致
func provideLoginUseCase(cfg *config.Config, svc user.Service, jwtManager *jwt.Manager, sessions user.SessionStore) *appuser.LoginUseCase {
	return appuser.NewLoginUseCase(svc, jwtManager, sessions, cfg.JWT.RefreshTokenExpire)
}

func provideCheckoutOptions(cfg *config.Config) checkout.Options {
	return checkout.Options{
		InvoiceRetries:    cfg.Checkout.InvoiceRetries,
		AllowUnderpayment: cfg.Checkout.AllowUnderpayment,
		IdempotencyTTL:    cfg.Checkout.IdempotencyTTL,
		PendingTTL:        cfg.Checkout.PendingTTL,
	}
}

func provideHealthChecks(repos *Repositories, kv *KVStores) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{"database": repos.health}
	if kv.health != nil {
		checks["redis"] = kv.health
	}
	return checks
}

func provideRouterOptions(cfg *config.Config) router.Options {
	return router.Options{
		Mode:          cfg.Server.Mode,
		CORSOrigins:   cfg.Server.CORSOrigins,
		EnableSwagger: cfg.Server.Mode != gin.ReleaseMode,
	}
}

func provideEngine(opts router.Options, h router.Handlers, auth *middleware.AuthMiddleware) *gin.Engine {
	return router.New(opts, h, auth)
}

// provideGRPCServer grpc.enabled为false时返回nil
func provideGRPCServer(cfg *config.Config, srv *grpchandler.CheckoutServer, jwtManager *jwt.Manager, sessions user.SessionStore) *grpc.Server {
	if !cfg.GRPC.Enabled {
		return nil
	}
	return grpchandler.NewServer(srv, jwtManager, sessions)
}

// provideScheduler 注册库存对账任务
func provideScheduler(cfg *config.Config, audit *ledger.AuditUseCase) (*scheduler.Scheduler, error) {
	s := scheduler.New(5 * time.Minute)
	if !cfg.Ledger.AuditEnabled {
		return s, nil
	}
	err := s.Add(cfg.Ledger.AuditCron, "ledger-audit", func(ctx context.Context) error {
		_, err := audit.Run(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("注册对账任务失败: %w", err)
	}
	return s, nil
}
