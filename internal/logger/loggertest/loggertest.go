// Package loggertest captures service log output in tests.
package loggertest

import (
	"testing"

	"findocbot/internal/logger"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// Observe swaps the global logger for an in-memory one until the test ends
// and returns the recorded entries.
func Observe(t testing.TB, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	previous := logger.Logger
	logger.Logger = zap.New(core).Sugar()
	t.Cleanup(func() { logger.Logger = previous })
	return logs
}
