// Package log 提供 swarm 统一日志接口
//
// 基于 Go 标准库 log/slog 封装，每个组件通过 Logger(component) 获取
// 懒加载 logger，运行时切换输出目标或级别后立即生效。
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// 日志级别常量（从 slog 导出，方便使用）
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// 日志格式
const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	mu     sync.Mutex
	output io.Writer = os.Stderr
	format           = FormatText
	level            = new(slog.LevelVar)
)

// SetDefault 设置默认 logger
func SetDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

// New 创建新的文本 logger
func New(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewJSON 创建 JSON 格式的 logger
func NewJSON(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// SetOutput 设置日志输出目标
//
// 示例：
//
//	file, _ := os.OpenFile("swarm.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
//	log.SetOutput(file)
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
	rebuild()
}

// SetLevel 设置日志级别
func SetLevel(l slog.Level) {
	level.Set(l)
}

// SetFormat 设置日志格式（text / json）
func SetFormat(f string) error {
	f = strings.ToLower(strings.TrimSpace(f))
	if f == "" {
		f = FormatText
	}
	if f != FormatText && f != FormatJSON {
		return fmt.Errorf("unknown log format %q", f)
	}
	mu.Lock()
	format = f
	mu.Unlock()
	rebuild()
	return nil
}

// ParseLevel 解析日志级别字符串
//
// 支持 debug / info / warn / error（大小写不敏感），空字符串返回 info。
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// rebuild 根据当前输出、格式、级别重建默认 logger
func rebuild() {
	mu.Lock()
	defer mu.Unlock()

	opts := &slog.HandlerOptions{Level: level}
	if format == FormatJSON {
		slog.SetDefault(slog.New(slog.NewJSONHandler(output, opts)))
		return
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(output, opts)))
}

// ============================================================================
//                              LazyLogger
// ============================================================================

// LazyLogger 懒加载 logger
//
// 每次日志调用时都从 slog.Default() 获取最新的 handler。
//
//	var logger = log.Logger("core/swarm")
//	logger.Info("拨号成功", "peer", id)
type LazyLogger struct {
	component string
}

func (l *LazyLogger) base() *slog.Logger {
	return slog.Default().With("component", l.component)
}

// Debug 输出 Debug 级别日志
func (l *LazyLogger) Debug(msg string, args ...any) { l.base().Debug(msg, args...) }

// Info 输出 Info 级别日志
func (l *LazyLogger) Info(msg string, args ...any) { l.base().Info(msg, args...) }

// Warn 输出 Warn 级别日志
func (l *LazyLogger) Warn(msg string, args ...any) { l.base().Warn(msg, args...) }

// Error 输出 Error 级别日志
func (l *LazyLogger) Error(msg string, args ...any) { l.base().Error(msg, args...) }

// DebugContext 带 context 的 Debug 日志
func (l *LazyLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.base().DebugContext(ctx, msg, args...)
}

// WarnContext 带 context 的 Warn 日志
func (l *LazyLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.base().WarnContext(ctx, msg, args...)
}

// With 添加额外的属性
func (l *LazyLogger) With(args ...any) *slog.Logger {
	return l.base().With(args...)
}

// Logger 返回带组件名的 LazyLogger
func Logger(component string) *LazyLogger {
	return &LazyLogger{component: component}
}

// TruncateID 安全截取 ID 用于日志显示
//
// 避免在日志中直接使用 id[:8] 导致越界。
func TruncateID(id string, maxLen int) string {
	if len(id) <= maxLen {
		return id
	}
	return id[:maxLen]
}

func init() {
	level.Set(LevelInfo)
	rebuild()
}
