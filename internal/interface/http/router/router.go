// Package router 注册HTTP路由
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/xiebiao/minipos/internal/domain/user"
	"github.com/xiebiao/minipos/internal/interface/http/handler"
	"github.com/xiebiao/minipos/internal/interface/http/middleware"
)

// Handlers 全部HTTP处理器
type Handlers struct {
	Auth      *handler.AuthHandler
	Inventory *handler.InventoryHandler
	Catalog   *handler.CatalogHandler
	Purchase  *handler.PurchaseHandler
	Checkout  *handler.CheckoutHandler
	Health    *handler.HealthHandler
}

// Options 路由选项
type Options struct {
	Mode          string // debug | release | test
	CORSOrigins   []string
	EnableSwagger bool
}

// New 创建Gin引擎并注册路由
//
// 权限矩阵：
//
//	商品/分类查询      登录即可
//	商品/分类/供应商写  admin
//	供应商、进货、流水  admin, manager
//	结账              admin, cashier
//	销售单查询         admin, manager, cashier
func New(opts Options, h Handlers, auth *middleware.AuthMiddleware) *gin.Engine {
	switch opts.Mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(opts.Mode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logger(), middleware.Metrics(), middleware.CORS(opts.CORSOrigins))

	r.GET("/ping", h.Health.Ping)
	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.EnableSwagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := auth.RequireRoles(user.RoleAdmin)
	backOffice := auth.RequireRoles(user.RoleAdmin, user.RoleManager)
	cashier := auth.RequireRoles(user.RoleAdmin, user.RoleCashier)
	salesDesk := auth.RequireRoles(user.RoleAdmin, user.RoleManager, user.RoleCashier)

	v1 := r.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", h.Auth.Register)
			authGroup.POST("/login", h.Auth.Login)
			authGroup.POST("/refresh", h.Auth.Refresh)
			authGroup.GET("/me", auth.RequireAuth(), h.Auth.Me)
			authGroup.POST("/logout", auth.RequireAuth(), h.Auth.Logout)
		}

		authorized := v1.Group("")
		authorized.Use(auth.RequireAuth())

		inventory := authorized.Group("/inventory")
		{
			inventory.GET("", h.Inventory.List)
			inventory.GET("/:id", h.Inventory.Get)
			inventory.POST("", admin, h.Inventory.Create)
			inventory.PUT("/:id", admin, h.Inventory.Update)
			inventory.DELETE("/:id", admin, h.Inventory.Delete)
			inventory.GET("/:id/movements", backOffice, h.Inventory.Movements)
			inventory.GET("/:id/reconcile", backOffice, h.Inventory.Reconcile)
		}

		categories := authorized.Group("/categories")
		{
			categories.GET("", h.Catalog.ListCategories)
			categories.POST("", admin, h.Catalog.CreateCategory)
		}

		suppliers := authorized.Group("/suppliers")
		{
			suppliers.GET("", backOffice, h.Catalog.ListSuppliers)
			suppliers.POST("", admin, h.Catalog.CreateSupplier)
			suppliers.PUT("/:id", admin, h.Catalog.UpdateSupplier)
			suppliers.DELETE("/:id", admin, h.Catalog.DeleteSupplier)
		}

		purchases := authorized.Group("/purchases")
		{
			purchases.GET("", backOffice, h.Purchase.List)
			purchases.POST("", admin, h.Purchase.Create)
		}

		authorized.POST("/cashier/checkout", cashier, h.Checkout.Checkout)

		sales := authorized.Group("/sales", salesDesk)
		{
			sales.GET("", h.Checkout.List)
			sales.GET("/:invoiceNo", h.Checkout.GetByInvoiceNo)
		}

		authorized.POST("/ledger/audit", backOffice, h.Health.LedgerAudit)
	}

	return r
}
