// 包 logger：导入工具的统一日志入口；级别、格式与输出目标均由环境变量决定
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// 默认日志器：进程级复用
var defaultLogger *slog.Logger

// Setup：按 LOG_LEVEL / LOG_FORMAT / LOG_FILE 初始化默认日志器
// 背景：长时间导入常以后台任务运行，需要把日志落到文件以便事后排查
// 约束：LOG_FILE 打开失败时回退到标准错误，不中断导入
func Setup() *slog.Logger {
	var w io.Writer = os.Stderr
	if p := os.Getenv("LOG_FILE"); p != "" {
		if f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			w = f
		}
	}
	return SetupWriter(w)
}

// SetupWriter：以指定输出目标初始化默认日志器，所有事件带 component=geonames-import
func SetupWriter(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levelFromEnv()}
	var h slog.Handler
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	defaultLogger = slog.New(h).With("component", "geonames-import")
	return defaultLogger
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// L：获取默认日志器；未初始化时回退到 Setup
func L() *slog.Logger {
	if defaultLogger == nil {
		return Setup()
	}
	return defaultLogger
}
