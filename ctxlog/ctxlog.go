// Package ctxlog 通过 context.Context 传递 slog.Logger
package ctxlog

import (
	"context"
	"log/slog"
)

// key 私有类型，避免与其他包的键冲突
type key struct{}

var loggerKey = key{}

// WithLogger 返回携带 logger 的新 context
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext 取出 logger，没有时返回 slog.Default()
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
