package queue

import (
	"findocbot/internal/logger"

	"github.com/hibiken/asynq"
)

// asynqLogger routes asynq's internal logging through the service logger.
type asynqLogger struct{}

func NewAsynqLogger() asynq.Logger {
	return asynqLogger{}
}

func (asynqLogger) Debug(args ...interface{}) {
	logger.Logger.Debug(args...)
}

func (asynqLogger) Info(args ...interface{}) {
	logger.Logger.Info(args...)
}

func (asynqLogger) Warn(args ...interface{}) {
	logger.Logger.Warn(args...)
}

func (asynqLogger) Error(args ...interface{}) {
	logger.Logger.Error(args...)
}

func (asynqLogger) Fatal(args ...interface{}) {
	logger.Logger.Fatal(args...)
}
