package logger

import (
	"go.uber.org/zap"

	"github.com/dwarvesf/walletpay-backend/internal/types/environments"
)

type Logger struct {
	wrappedLogger *zap.Logger
}

func New(env environments.Environment) *Logger {
	var cfg zap.Config

	switch env {
	case environments.Development:
		cfg = newDevelopmentLoggerConfig()
	case environments.Test:
		cfg = newTestLoggerConfig()
	case environments.Staging:
		cfg = newStagingLoggerConfig()
	default:
		cfg = newProductionLoggerConfig()
	}

	zapLogger, err := cfg.Build()
	if err != nil {
		panic(err)
	}

	return &Logger{
		wrappedLogger: zapLogger,
	}
}

// NewNop returns a logger that discards everything, for tests and CLI tools.
func NewNop() *Logger {
	return &Logger{wrappedLogger: zap.NewNop()}
}

// With returns a child logger that always carries the given fields.
func (l *Logger) With(fields map[string]string) *Logger {
	return &Logger{wrappedLogger: l.wrappedLogger.With(transformStrMapToFields(fields)...)}
}

func (l *Logger) Debug(msg string, inputFields ...map[string]string) {
	l.wrappedLogger.Debug(msg, fieldsOf(inputFields)...)
}

func (l *Logger) Info(msg string, inputFields ...map[string]string) {
	l.wrappedLogger.Info(msg, fieldsOf(inputFields)...)
}

func (l *Logger) Warn(msg string, inputFields ...map[string]string) {
	l.wrappedLogger.Warn(msg, fieldsOf(inputFields)...)
}

func (l *Logger) Error(msg string, inputFields ...map[string]string) {
	l.wrappedLogger.Error(msg, fieldsOf(inputFields)...)
}

func (l *Logger) Fatal(msg string, inputFields ...map[string]string) {
	l.wrappedLogger.Fatal(msg, fieldsOf(inputFields)...)
}

// Sync flushes buffered entries, call it before the process exits.
func (l *Logger) Sync() error {
	return l.wrappedLogger.Sync()
}

func fieldsOf(inputFields []map[string]string) []zap.Field {
	if len(inputFields) == 0 {
		return []zap.Field{}
	}

	return transformStrMapToFields(inputFields[0])
}

func transformStrMapToFields(strMap map[string]string) []zap.Field {
	fields := []zap.Field{}
	for k, v := range strMap {
		fields = append(fields, zap.String(k, v))
	}

	return fields
}
