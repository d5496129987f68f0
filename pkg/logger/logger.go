// Package logger 基于zap的结构化日志
//
// 输出目标：
//   - stdout / stderr：直接输出
//   - 文件路径：使用lumberjack按大小滚动，同时保留一份控制台输出
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options 日志配置
type Options struct {
	Level        string // debug | info | warn | error
	Format       string // console | json
	Output       string // stdout | stderr | /path/to/file
	EnableCaller bool

	// 文件滚动参数，仅Output为文件路径时生效
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New 创建logger并替换zap全局logger
// 返回的sync函数应在进程退出前调用，刷新缓冲区
func New(opts Options) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(defaultString(opts.Level, "info"))
	if err != nil {
		return nil, nil, fmt.Errorf("无效的日志级别 %q: %w", opts.Level, err)
	}

	encoder := newEncoder(opts.Format)

	var core zapcore.Core
	switch out := strings.ToLower(defaultString(opts.Output, "stdout")); out {
	case "stdout":
		core = zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)
	case "stderr":
		core = zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	default:
		rotator := &lumberjack.Logger{
			Filename:   opts.Output,
			MaxSize:    defaultInt(opts.MaxSizeMB, 64),
			MaxBackups: defaultInt(opts.MaxBackups, 7),
			MaxAge:     defaultInt(opts.MaxAgeDays, 7),
		}
		core = zapcore.NewTee(
			// 文件统一用JSON，便于采集
			zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(rotator), level),
			zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
		)
	}

	zapOpts := []zap.Option{}
	if opts.EnableCaller {
		zapOpts = append(zapOpts, zap.AddCaller())
	}

	l := zap.New(core, zapOpts...)
	undo := zap.ReplaceGlobals(l)

	return l, func() {
		_ = l.Sync()
		undo()
	}, nil
}

func newEncoder(format string) zapcore.Encoder {
	if strings.EqualFold(format, "json") {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
