// Package logger 封装zerolog，提供全局日志实例和便捷入口。
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger 全局日志实例，其他包直接使用
var Logger = log.Logger

// Config 日志配置
type Config struct {
	// Level 日志级别: debug, info, warn, error
	Level string `json:"level" yaml:"level"`
	// Format 输出格式: json 或 pretty
	Format string `json:"format" yaml:"format"`
	// TimeFormat 时间戳格式
	TimeFormat string `json:"time_format" yaml:"time_format"`
	// ReportCaller 是否记录调用位置（文件:行号）
	ReportCaller bool `json:"report_caller" yaml:"report_caller"`
}

// Init 按配置初始化全局日志
func Init(cfg Config) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var output io.Writer = os.Stdout
	if cfg.Format == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: cfg.TimeFormat,
		}
	}

	if cfg.TimeFormat == "" {
		zerolog.TimeFieldFormat = time.RFC3339
	} else {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	builder := zerolog.New(output).Level(level).With().Timestamp()
	if cfg.ReportCaller {
		builder = builder.Caller()
	}

	// 同步替换zerolog自身的全局logger，保证两种用法输出一致
	Logger = builder.Logger()
	log.Logger = Logger
}

// Debug 开始一条debug级别日志
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Info 开始一条info级别日志
func Info() *zerolog.Event {
	return Logger.Info()
}

// Warn 开始一条warn级别日志
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Error 开始一条error级别日志
func Error() *zerolog.Event {
	return Logger.Error()
}

// Fatal 开始一条fatal级别日志，记录后进程退出
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}

// Ctx 从上下文取出logger
func Ctx(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// WithContext 把全局logger放入上下文
func WithContext(ctx context.Context) context.Context {
	return Logger.WithContext(ctx)
}
