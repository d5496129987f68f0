package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/xiebiao/minipos/internal/application/seed"
	"github.com/xiebiao/minipos/internal/infrastructure/config"
	"github.com/xiebiao/minipos/internal/infrastructure/scheduler"
)

const shutdownTimeout = 10 * time.Second

// App 进程内所有长期运行的组件
type App struct {
	cfg       *config.Config
	engine    *gin.Engine
	grpc      *grpc.Server // grpc.enabled为false时为nil
	scheduler *scheduler.Scheduler
	seeder    *seed.Seeder
}

func newApp(cfg *config.Config, engine *gin.Engine, grpcServer *grpc.Server, sched *scheduler.Scheduler, seeder *seed.Seeder) *App {
	return &App{cfg: cfg, engine: engine, grpc: grpcServer, scheduler: sched, seeder: seeder}
}

// Run 启动HTTP、gRPC和定时任务，收到SIGINT/SIGTERM后优雅退出
func (a *App) Run() error {
	if a.cfg.Seed.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := a.seeder.Run(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("初始化演示数据失败: %w", err)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      a.engine,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		zap.L().Info("HTTP服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP服务异常退出: %w", err)
		}
	}()

	if a.grpc != nil {
		addr := fmt.Sprintf(":%d", a.cfg.GRPC.Port)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("监听gRPC端口失败: %w", err)
		}
		go func() {
			zap.L().Info("gRPC服务启动", zap.String("addr", addr))
			if err := a.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("gRPC服务异常退出: %w", err)
			}
		}()
	}

	a.scheduler.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		zap.L().Info("收到退出信号，开始优雅关闭", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		zap.L().Error("服务异常，开始关闭", zap.Error(runErr))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Warn("HTTP服务关闭超时", zap.Error(err))
	}
	if a.grpc != nil {
		a.grpc.GracefulStop()
	}
	a.scheduler.Stop()

	zap.L().Info("服务已停止")
	return runErr
}
