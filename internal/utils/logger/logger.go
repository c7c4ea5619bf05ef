package logger

import (
	"sort"

	"go.uber.org/zap"

	"github.com/dwarvesf/drain-watcher/internal/types/environments"
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
	case environments.Production:
		cfg = newProductionLoggerConfig()
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

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{wrappedLogger: zap.NewNop()}
}

// With returns a child logger that always carries the given fields.
func (l *Logger) With(fields map[string]string) *Logger {
	return &Logger{wrappedLogger: l.wrappedLogger.With(transformStrMapToFields(fields)...)}
}

func (l *Logger) Debug(msg string, inputFields ...map[string]string) {
	l.wrappedLogger.Debug(msg, firstFields(inputFields)...)
}

func (l *Logger) Info(msg string, inputFields ...map[string]string) {
	l.wrappedLogger.Info(msg, firstFields(inputFields)...)
}

func (l *Logger) Warn(msg string, inputFields ...map[string]string) {
	l.wrappedLogger.Warn(msg, firstFields(inputFields)...)
}

func (l *Logger) Error(msg string, inputFields ...map[string]string) {
	l.wrappedLogger.Error(msg, firstFields(inputFields)...)
}

func (l *Logger) Fatal(msg string, inputFields ...map[string]string) {
	l.wrappedLogger.Fatal(msg, firstFields(inputFields)...)
}

// Sync flushes buffered entries, call it before the process exits.
func (l *Logger) Sync() error {
	return l.wrappedLogger.Sync()
}

func firstFields(inputFields []map[string]string) []zap.Field {
	if len(inputFields) == 0 {
		return []zap.Field{}
	}
	return transformStrMapToFields(inputFields[0])
}

// transformStrMapToFields emits fields in key order so entries are stable
// across runs.
func transformStrMapToFields(strMap map[string]string) []zap.Field {
	keys := make([]string, 0, len(strMap))
	for k := range strMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, zap.String(k, strMap[k]))
	}
	return fields
}
