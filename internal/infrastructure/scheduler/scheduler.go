// Package scheduler 定时任务
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// 支持可选秒字段和 @every 描述符
var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler cron封装，同一任务上一次未结束时跳过本次
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
}

// New timeout为单次任务的上下文超时
func New(timeout time.Duration) *Scheduler {
	logger := cron.PrintfLogger(zap.NewStdLog(zap.L()))
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		timeout: timeout,
	}
}

// Add 注册任务
func (s *Scheduler) Add(spec, name string, job func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		if err := job(ctx); err != nil {
			zap.L().Error("定时任务失败", zap.String("job", name), zap.Error(err))
			return
		}
		zap.L().Debug("定时任务完成", zap.String("job", name), zap.Duration("latency", time.Since(start)))
	})
	if err != nil {
		return err
	}
	zap.L().Info("定时任务已注册", zap.String("job", name), zap.String("spec", spec))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度并等待运行中的任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Validate 校验cron表达式
func Validate(spec string) error {
	_, err := parser.Parse(spec)
	return err
}
