package logger

import (
	"os"
	"strings"

	"findocbot/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Logger = zap.NewNop().Sugar()

// InitLogger initializes structured logging based on configuration
func InitLogger(cfg *config.Config) {
	level := zapcore.InfoLevel
	if cfg.GinMode == "debug" {
		level = zapcore.DebugLevel
	}
	if cfg.LogLevel != "" {
		if parsed, err := zapcore.ParseLevel(strings.ToLower(cfg.LogLevel)); err == nil {
			level = parsed
		}
	}

	format := cfg.LogFormat
	if format == "" {
		format = "json"
		if cfg.GinMode == "debug" {
			format = "console"
		}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	opts := []zap.Option{zap.AddCallerSkip(1)}
	if cfg.GinMode == "debug" { // Only add source in debug mode
		opts = append(opts, zap.AddCaller())
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)
	Logger = zap.New(core, opts...).Sugar()

	Logger.Debugw("Structured logging initialized", "level", level.String(), "format", format)
}

// Sync flushes buffered entries; call before exit.
func Sync() {
	_ = Logger.Sync()
}

// Helper functions for common log operations
func Info(msg string, args ...any) {
	Logger.Infow(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Errorw(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debugw(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warnw(msg, args...)
}
