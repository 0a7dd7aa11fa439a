package instance

import (
	"context"
	"log/slog"

	"fmusim/types"
)

// StatusLevel 状态对应的日志级别
func StatusLevel(status types.Status) slog.Level {
	switch status {
	case types.StatusOK, types.StatusPending:
		return slog.LevelInfo
	case types.StatusWarning, types.StatusDiscard:
		return slog.LevelWarn
	}
	return slog.LevelError
}

// SlogCallbacks 基于 slog 创建两个日志回调
func SlogCallbacks(logger *slog.Logger) (LogMessageCallback, LogFunctionCallCallback) {
	logMessage := func(inst *Instance, status types.Status, category, message string) {
		logger.Log(context.Background(), StatusLevel(status), message,
			"instance", inst.Name, "status", status.String(), "category", category)
	}
	logFunctionCall := func(inst *Instance, status types.Status, message string) {
		logger.Log(context.Background(), StatusLevel(status), message,
			"instance", inst.Name, "status", status.String())
	}
	return logMessage, logFunctionCall
}
