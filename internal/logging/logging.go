package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 根据配置的级别构造 zap Logger。
// 级别非法时回落到 info，避免仅因日志配置错误而拒绝启动。
func New(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
